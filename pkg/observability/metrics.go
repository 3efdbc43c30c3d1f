// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the message processing pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	MessagesProcessedTotal *prometheus.CounterVec
	ProcessingSeconds      *prometheus.HistogramVec
	EventsCreatedTotal     *prometheus.CounterVec
	ExtractionsTotal       *prometheus.CounterVec
	CategoriesAssigned     prometheus.Histogram
	StorageErrorsTotal     *prometheus.CounterVec
}

// DefaultMetrics creates metrics on the default registerer.
func DefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// NewMetrics creates a new set of pipeline metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MessagesProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jcbot_messages_processed_total",
				Help: "Total messages processed, by outcome",
			},
			[]string{"outcome"},
		),
		ProcessingSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jcbot_processing_seconds",
				Help:    "Per-message processing latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"email_type"},
		),
		EventsCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jcbot_events_total",
				Help: "Total calendar event operations, by action",
			},
			[]string{"action"},
		),
		ExtractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jcbot_extractions_total",
				Help: "Field extraction outcomes per message",
			},
			[]string{"field", "status"},
		),
		CategoriesAssigned: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jcbot_categories_assigned",
				Help:    "Number of categories assigned per message",
				Buckets: []float64{0, 1, 2, 3, 4},
			},
		),
		StorageErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jcbot_storage_errors_total",
				Help: "Storage operation failures, by operation",
			},
			[]string{"operation"},
		),
	}
}

// Message processing outcomes.
const (
	OutcomeEvent   = "event"
	OutcomeSkipped = "skipped"
	OutcomeNoEvent = "no_event"
	OutcomeError   = "error"
)

// RecordMessage records one processed message with its outcome and latency.
func (m *Metrics) RecordMessage(outcome, emailType string, elapsed time.Duration) {
	m.MessagesProcessedTotal.WithLabelValues(outcome).Inc()
	if emailType != "" {
		m.ProcessingSeconds.WithLabelValues(emailType).Observe(elapsed.Seconds())
	}
}

// RecordEvent records a calendar event action (created, updated, cancelled).
func (m *Metrics) RecordEvent(action string) {
	m.EventsCreatedTotal.WithLabelValues(action).Inc()
}

// RecordExtraction records a field extraction outcome.
func (m *Metrics) RecordExtraction(field, status string) {
	m.ExtractionsTotal.WithLabelValues(field, status).Inc()
}

// RecordCategories records how many categories a message received.
func (m *Metrics) RecordCategories(count int) {
	m.CategoriesAssigned.Observe(float64(count))
}

// RecordStorageError records a storage failure.
func (m *Metrics) RecordStorageError(operation string) {
	m.StorageErrorsTotal.WithLabelValues(operation).Inc()
}
