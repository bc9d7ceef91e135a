// Package observability provides structured logging and metrics for the
// knowledge assistant.
//
// This package implements:
//   - zap logger construction from configuration
//   - Prometheus metrics for ingestion, selection and generation
//   - A no-op Metrics implementation for tests and disabled setups
package observability
