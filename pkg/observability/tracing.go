package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer for pipeline operations.
const TracerName = "jcbot"

// Span attribute keys.
const (
	AttrMessageID = "message_id"
	AttrEmailType = "email_type"
	AttrEventID   = "event_id"
	AttrRunID     = "run_id"
	AttrBackend   = "storage_backend"
)

// Span names.
const (
	SpanProcessMessage = "jcbot.process_message"
	SpanParse          = "jcbot.parse"
	SpanCategorize     = "jcbot.categorize"
	SpanDispatch       = "jcbot.dispatch"
	SpanPollRun        = "jcbot.poll_run"
)

// Tracer provides tracing for pipeline operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new pipeline tracer.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// StartMessageSpan starts a root span for processing one message.
func (t *Tracer) StartMessageSpan(ctx context.Context, messageID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanProcessMessage,
		trace.WithAttributes(attribute.String(AttrMessageID, messageID)))
}

// StartRunSpan starts a span for one polling run.
func (t *Tracer) StartRunSpan(ctx context.Context, runID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanPollRun,
		trace.WithAttributes(attribute.String(AttrRunID, runID)))
}

// StartSpan starts a child span with no attributes.
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name)
}

// RecordError marks the span as failed and records the error.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
