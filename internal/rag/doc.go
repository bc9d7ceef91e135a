// Package rag provides the lexical retrieval pipeline for bot knowledge bases.
//
// This package implements:
//   - Text normalization (tag stripping, whitespace collapsing)
//   - Keyword-overlap ranking of a bot's documents against a question
//   - Character-budgeted context selection over the ranked list
//   - Context block formatting for prompt injection
//
// Every stage is a pure function over a snapshot of documents; storage and
// locking live in services/knowledge.
package rag
