package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestOpMeta_SpanName verifies deterministic span naming.
func TestOpMeta_SpanName(t *testing.T) {
	tests := []struct {
		name string
		meta OpMeta
		want string
	}{
		{"queue dispatch", OpMeta{Component: "queue", Name: "upload"}, "offline.queue.upload"},
		{"cache fetch", OpMeta{Component: "cache", Name: "fetch"}, "offline.cache.fetch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.SpanName(); got != tt.want {
				t.Errorf("SpanName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func newTestTracer() (Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewTracer(tp.Tracer("test")), recorder
}

// TestTracer_SpanAttributes verifies operation metadata lands on the span.
func TestTracer_SpanAttributes(t *testing.T) {
	tracer, recorder := newTestTracer()

	meta := OpMeta{Component: "queue", Name: "upload", ID: "op-1", Key: "user:1"}
	_, span := tracer.StartSpan(context.Background(), meta)
	tracer.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	got := spans[0]
	if got.Name() != "offline.queue.upload" {
		t.Errorf("span name = %q, want offline.queue.upload", got.Name())
	}

	attrs := map[string]string{}
	for _, kv := range got.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["offline.component"] != "queue" {
		t.Errorf("offline.component = %q, want queue", attrs["offline.component"])
	}
	if attrs["offline.op_id"] != "op-1" {
		t.Errorf("offline.op_id = %q, want op-1", attrs["offline.op_id"])
	}
	if attrs["offline.key"] != "user:1" {
		t.Errorf("offline.key = %q, want user:1", attrs["offline.key"])
	}
	if got.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status().Code)
	}
}

// TestTracer_EndSpanRecordsError verifies error status and recorded error.
func TestTracer_EndSpanRecordsError(t *testing.T) {
	tracer, recorder := newTestTracer()

	_, span := tracer.StartSpan(context.Background(), OpMeta{Component: "cache", Name: "fetch"})
	tracer.EndSpan(span, errors.New("fetcher failed"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	got := spans[0]
	if got.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status().Code)
	}
	if len(got.Events()) == 0 {
		t.Error("expected a recorded error event")
	}
}

// TestTracer_EndSpanNilSafe verifies EndSpan tolerates a nil span.
func TestTracer_EndSpanNilSafe(t *testing.T) {
	tracer, _ := newTestTracer()
	tracer.EndSpan(nil, errors.New("ignored"))
}
