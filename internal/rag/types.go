package rag

import "time"

const (
	// DefaultMaxContextChars is the character budget used when none is configured.
	DefaultMaxContextChars = 4000

	// NoDataContext is rendered in place of the context block when nothing was selected.
	NoDataContext = "(no data provided)"
)

// Document is one stored unit of normalized reference text.
type Document struct {
	ID        string
	Text      string
	Source    string
	CreatedAt time.Time
}

// ScoredDocument pairs a document with its lexical score for one question.
type ScoredDocument struct {
	Document Document
	Score    int
}

// Retriever selects the documents relevant to a question.
type Retriever interface {
	Retrieve(docs []Document, question string) []Document
}

// BudgetRetriever ranks with Rank and selects with Select under MaxChars.
type BudgetRetriever struct {
	MaxChars int
}

// Retrieve implements Retriever.
func (r BudgetRetriever) Retrieve(docs []Document, question string) []Document {
	return Select(Rank(docs, question), r.MaxChars)
}
