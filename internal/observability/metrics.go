package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat outcome labels.
const (
	StatusOK              = "ok"
	StatusValidationError = "validation_error"
	StatusFetchError      = "fetch_error"
	StatusGenerationError = "generation_error"
	StatusMalformed       = "malformed"
)

// Document source kinds. Raw sources are free text, so only the kind is
// used as a label.
const (
	SourceKindManual = "manual"
	SourceKindURL    = "url"
	SourceKindCustom = "custom"
)

// Metrics collects application metrics.
type Metrics interface {
	RecordDocumentAdded(kind string)
	RecordFetch(status string, duration time.Duration)
	RecordChat(status string)
	RecordSelection(selected, chars int)
	RecordGeneration(provider, status string, duration time.Duration)
}

// PrometheusMetrics implements Metrics on a Prometheus registerer.
type PrometheusMetrics struct {
	DocumentsAdded     *prometheus.CounterVec
	FetchesTotal       *prometheus.CounterVec
	FetchDuration      prometheus.Histogram
	ChatRequests       *prometheus.CounterVec
	SelectedDocuments  prometheus.Histogram
	ContextChars       prometheus.Histogram
	GenerationDuration *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the kb_ metrics on reg. Callers own reg so
// tests can use a fresh prometheus.NewRegistry() each time.
//
// Metrics:
//   - kb_documents_added_total{source_kind}
//   - kb_fetches_total{status}
//   - kb_fetch_duration_seconds
//   - kb_chat_requests_total{status}
//   - kb_selected_documents
//   - kb_context_chars
//   - kb_generation_duration_seconds{provider,status}
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		DocumentsAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kb_documents_added_total",
				Help: "Total number of documents appended to tenant stores",
			},
			[]string{"source_kind"}, // "manual", "url" or "custom"
		),
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kb_fetches_total",
				Help: "Total number of URL fetches by outcome",
			},
			[]string{"status"},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kb_fetch_duration_seconds",
				Help:    "Duration of URL fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		ChatRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kb_chat_requests_total",
				Help: "Total number of chat requests by outcome",
			},
			[]string{"status"},
		),
		SelectedDocuments: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kb_selected_documents",
				Help:    "Number of documents placed in the answer context",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		ContextChars: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kb_context_chars",
				Help:    "Characters of document text placed in the answer context",
				Buckets: prometheus.ExponentialBuckets(64, 2, 10),
			},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kb_generation_duration_seconds",
				Help:    "Duration of generation calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "status"},
		),
	}
}

func (m *PrometheusMetrics) RecordDocumentAdded(kind string) {
	m.DocumentsAdded.WithLabelValues(kind).Inc()
}

func (m *PrometheusMetrics) RecordFetch(status string, duration time.Duration) {
	m.FetchesTotal.WithLabelValues(status).Inc()
	m.FetchDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordChat(status string) {
	m.ChatRequests.WithLabelValues(status).Inc()
}

func (m *PrometheusMetrics) RecordSelection(selected, chars int) {
	m.SelectedDocuments.Observe(float64(selected))
	m.ContextChars.Observe(float64(chars))
}

func (m *PrometheusMetrics) RecordGeneration(provider, status string, duration time.Duration) {
	m.GenerationDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordDocumentAdded(string)                     {}
func (NopMetrics) RecordFetch(string, time.Duration)              {}
func (NopMetrics) RecordChat(string)                              {}
func (NopMetrics) RecordSelection(int, int)                       {}
func (NopMetrics) RecordGeneration(string, string, time.Duration) {}
