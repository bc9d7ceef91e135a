package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue returns the value of the counter in family name whose labels
// match want exactly.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m.GetLabel(), want) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, p := range pairs {
		if want[p.GetName()] != p.GetValue() {
			return false
		}
	}
	return true
}

func histogramCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	var total uint64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetHistogram().GetSampleCount()
		}
	}
	return total
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.RecordDocumentAdded(SourceKindManual)
	m.RecordDocumentAdded(SourceKindURL)
	m.RecordDocumentAdded(SourceKindURL)
	m.RecordDocumentAdded(SourceKindCustom)
	m.RecordChat(StatusOK)
	m.RecordChat(StatusOK)
	m.RecordChat(StatusGenerationError)
	m.RecordFetch(StatusOK, 10*time.Millisecond)
	m.RecordSelection(2, 120)
	m.RecordGeneration("openai", StatusOK, 50*time.Millisecond)

	assert.Equal(t, 1.0, counterValue(t, reg, "kb_documents_added_total", map[string]string{"source_kind": "manual"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "kb_documents_added_total", map[string]string{"source_kind": "url"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "kb_documents_added_total", map[string]string{"source_kind": "custom"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "kb_chat_requests_total", map[string]string{"status": StatusOK}))
	assert.Equal(t, 1.0, counterValue(t, reg, "kb_chat_requests_total", map[string]string{"status": StatusGenerationError}))
	assert.Equal(t, 1.0, counterValue(t, reg, "kb_fetches_total", map[string]string{"status": StatusOK}))
	assert.Equal(t, uint64(1), histogramCount(t, reg, "kb_selected_documents"))
	assert.Equal(t, uint64(1), histogramCount(t, reg, "kb_context_chars"))
	assert.Equal(t, uint64(1), histogramCount(t, reg, "kb_generation_duration_seconds"))
}

func TestPrometheusMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPrometheusMetrics(prometheus.NewRegistry())
		NewPrometheusMetrics(prometheus.NewRegistry())
	})
}

func TestNopMetrics(t *testing.T) {
	var m Metrics = NopMetrics{}
	assert.NotPanics(t, func() {
		m.RecordDocumentAdded(SourceKindManual)
		m.RecordFetch(StatusFetchError, time.Second)
		m.RecordChat(StatusOK)
		m.RecordSelection(0, 0)
		m.RecordGeneration("openai", StatusOK, time.Second)
	})
}
