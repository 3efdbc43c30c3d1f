package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordMessage(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordMessage(OutcomeEvent, "new", 25*time.Millisecond)
	m.RecordMessage(OutcomeSkipped, "", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesProcessedTotal.WithLabelValues(OutcomeEvent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesProcessedTotal.WithLabelValues(OutcomeSkipped)))
}

func TestMetricsRecordEventAndErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordEvent("created")
	m.RecordEvent("created")
	m.RecordEvent("cancelled")
	m.RecordStorageError("save_event_map")
	m.RecordExtraction("title", "found")
	m.RecordCategories(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsCreatedTotal.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsCreatedTotal.WithLabelValues("cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageErrorsTotal.WithLabelValues("save_event_map")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues("title", "found")))
}

func TestTracerSpans(t *testing.T) {
	tr := NewTracer()

	ctx, span := tr.StartMessageSpan(context.Background(), "msg-1")
	assert.NotNil(t, ctx)
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	_, run := tr.StartRunSpan(context.Background(), "run-1")
	run.End()
}
