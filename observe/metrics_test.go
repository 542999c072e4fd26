package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// TestMetrics_DispatchCounterIncrements verifies offline.dispatch.total is incremented.
func TestMetrics_DispatchCounterIncrements(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := OpMeta{Component: "queue", Name: "upload"}
	m.RecordDispatch(context.Background(), meta, 100*time.Millisecond, nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	found := findMetric(rm, "offline.dispatch.total")
	if found == nil {
		t.Fatal("offline.dispatch.total metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	if len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
		t.Errorf("expected count 1, got %+v", sum.DataPoints)
	}
}

// TestMetrics_ErrorCounter verifies the error counter only moves on failure.
func TestMetrics_ErrorCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	meta := OpMeta{Component: "queue", Name: "upload"}

	m.RecordDispatch(ctx, meta, 10*time.Millisecond, nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	if found := findMetric(rm, "offline.dispatch.errors"); found != nil {
		sum := found.Data.(metricdata.Sum[int64])
		for _, dp := range sum.DataPoints {
			if dp.Value != 0 {
				t.Errorf("expected no errors recorded on success, got %d", dp.Value)
			}
		}
	}

	m.RecordDispatch(ctx, meta, 10*time.Millisecond, errors.New("handler exploded"))

	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	found := findMetric(rm, "offline.dispatch.errors")
	if found == nil {
		t.Fatal("offline.dispatch.errors metric not found")
	}
	sum := found.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
		t.Errorf("expected error count 1, got %+v", sum.DataPoints)
	}
}

// TestMetrics_LookupOutcomeAttribute verifies lookup outcomes become attributes.
func TestMetrics_LookupOutcomeAttribute(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	meta := OpMeta{Component: "cache", Name: "get"}

	m.RecordLookup(ctx, meta, LookupHit)
	m.RecordLookup(ctx, meta, LookupStale)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	found := findMetric(rm, "offline.cache.lookups")
	if found == nil {
		t.Fatal("offline.cache.lookups metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}

	outcomes := map[string]int64{}
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key("offline.outcome")); ok {
			outcomes[v.AsString()] = dp.Value
		}
	}
	if outcomes["hit"] != 1 || outcomes["stale"] != 1 {
		t.Errorf("expected one hit and one stale, got %v", outcomes)
	}
}

// TestNopMetrics verifies the nop implementation does not panic.
func TestNopMetrics(t *testing.T) {
	m := NewNopMetrics()
	ctx := context.Background()

	m.RecordDispatch(ctx, OpMeta{Component: "queue", Name: "x"}, time.Second, errors.New("ignored"))
	m.RecordLookup(ctx, OpMeta{Component: "cache", Name: "get"}, LookupMiss)
}
