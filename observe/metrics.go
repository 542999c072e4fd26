package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LookupOutcome classifies a cache manager lookup for metrics purposes.
type LookupOutcome string

const (
	LookupHit        LookupOutcome = "hit"
	LookupMiss       LookupOutcome = "miss"
	LookupStale      LookupOutcome = "stale"
	LookupRevalidate LookupOutcome = "revalidate"
)

// Metrics records engine metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordDispatch records one queue handler dispatch with duration and
	// error status.
	RecordDispatch(ctx context.Context, meta OpMeta, duration time.Duration, err error)

	// RecordLookup records one cache lookup outcome.
	RecordLookup(ctx context.Context, meta OpMeta, outcome LookupOutcome)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter         metric.Meter
	dispatchCount metric.Int64Counter
	dispatchErrs  metric.Int64Counter
	dispatchHist  metric.Float64Histogram
	lookupCount   metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	dispatchCount, err := meter.Int64Counter(
		"offline.dispatch.total",
		metric.WithDescription("Total number of queue handler dispatches"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	dispatchErrs, err := meter.Int64Counter(
		"offline.dispatch.errors",
		metric.WithDescription("Total number of failed queue handler dispatches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	dispatchHist, err := meter.Float64Histogram(
		"offline.dispatch.duration_ms",
		metric.WithDescription("Queue handler dispatch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	lookupCount, err := meter.Int64Counter(
		"offline.cache.lookups",
		metric.WithDescription("Cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:         meter,
		dispatchCount: dispatchCount,
		dispatchErrs:  dispatchErrs,
		dispatchHist:  dispatchHist,
		lookupCount:   lookupCount,
	}, nil
}

// RecordDispatch records metrics for one handler dispatch.
func (m *metricsImpl) RecordDispatch(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("offline.component", meta.Component),
		attribute.String("offline.op", meta.Name),
	)

	m.dispatchCount.Add(ctx, 1, opt)
	if err != nil {
		m.dispatchErrs.Add(ctx, 1, opt)
	}
	m.dispatchHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordLookup records one cache lookup outcome.
func (m *metricsImpl) RecordLookup(ctx context.Context, meta OpMeta, outcome LookupOutcome) {
	m.lookupCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("offline.component", meta.Component),
		attribute.String("offline.outcome", string(outcome)),
	))
}

// nopMetrics is a metrics implementation that does nothing.
type nopMetrics struct{}

// NewNopMetrics returns a Metrics implementation that records nothing.
func NewNopMetrics() Metrics {
	return &nopMetrics{}
}

func (m *nopMetrics) RecordDispatch(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
}

func (m *nopMetrics) RecordLookup(ctx context.Context, meta OpMeta, outcome LookupOutcome) {}

// Ensure implementations satisfy Metrics
var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = (*nopMetrics)(nil)
)
