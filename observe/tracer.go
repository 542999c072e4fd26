package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// OpMeta identifies a unit of engine work for telemetry purposes.
type OpMeta struct {
	Component string // Engine component: cache, queue (required)
	Name      string // Operation or dispatch-type name (required)
	ID        string // Queued operation ID (optional)
	Key       string // Cache key (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: offline.<component>.<name>
func (m OpMeta) SpanName() string {
	return "offline." + m.Component + "." + m.Name
}

// Tracer wraps OpenTelemetry tracing with engine-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an engine operation.
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with operation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("offline.component", meta.Component),
		attribute.String("offline.op", meta.Name),
	}
	if meta.ID != "" {
		attrs = append(attrs, attribute.String("offline.op_id", meta.ID))
	}
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("offline.key", meta.Key))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span, recording error status when err is non-nil.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("offline.error", true))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NewNopTracer returns a Tracer that records nothing.
func NewNopTracer() Tracer {
	return &tracerImpl{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}

// Ensure tracerImpl implements Tracer
var _ Tracer = (*tracerImpl)(nil)
