package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonwraymond/offlinekit/observe"
)

// Fetcher produces a fresh value for a cache key.
type Fetcher func(ctx context.Context) (any, error)

// GetOrFetch implements the cache-aside read path:
//
//   - fresh hit: return the cached payload.
//   - stale hit with StaleWhileRevalidate: return the stale payload
//     immediately and refresh it in the background, at most one refresh per
//     key at a time. Refresh failures are logged and never surfaced.
//   - stale hit without StaleWhileRevalidate, or miss: invoke the fetcher
//     synchronously, store the result, and return it fresh. Concurrent
//     callers for the same key share a single fetch.
//
// Synchronous-path fetcher errors propagate to the caller unchanged.
func (m *Manager) GetOrFetch(ctx context.Context, key string, fetcher Fetcher, opts Options) (*Result, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}

	entry, err := m.Get(ctx, key, opts)
	if err != nil {
		return nil, err
	}

	if entry != nil {
		if !entry.Stale {
			return &Result{Data: entry.Data, FromCache: true}, nil
		}

		if opts.StaleWhileRevalidate {
			m.startRevalidation(ctx, key, fetcher, opts)
			return &Result{Data: entry.Data, FromCache: true, Stale: true}, nil
		}
		// Stale without revalidation falls through to a synchronous fetch.
	}

	data, err, _ := m.fetches.Do(key, func() (any, error) {
		return m.fetchAndStore(ctx, key, fetcher, opts)
	})
	if err != nil {
		return nil, err
	}

	return &Result{Data: data.(json.RawMessage)}, nil
}

// fetchAndStore runs the fetcher and persists its result.
func (m *Manager) fetchAndStore(ctx context.Context, key string, fetcher Fetcher, opts Options) (json.RawMessage, error) {
	value, err := fetcher(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.Set(ctx, key, value, opts); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cache: encode value: %w", err)
	}
	return payload, nil
}

// startRevalidation kicks off a background refresh for key unless one is
// already in flight. The marker is cleared on completion regardless of
// success or failure.
func (m *Manager) startRevalidation(ctx context.Context, key string, fetcher Fetcher, opts Options) {
	if _, inFlight := m.revalidating.LoadOrStore(key, struct{}{}); inFlight {
		return
	}

	meta := observe.OpMeta{Component: "cache", Name: "revalidate", Key: key}
	m.metrics.RecordLookup(ctx, meta, observe.LookupRevalidate)

	// The refresh outlives the caller's request; only cancellation is
	// dropped, context values stay attached.
	bgCtx := context.WithoutCancel(ctx)

	go func() {
		defer m.revalidating.Delete(key)

		if _, err := m.fetchAndStore(bgCtx, key, fetcher, opts); err != nil {
			// The caller already got stale data; the failure is diagnostic
			// only and must not disturb the stored entry.
			m.logger.Error(bgCtx, "background revalidation failed",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
	}()
}

// FetchInfo reports where a Fetch result came from.
type FetchInfo struct {
	FromCache bool
	Stale     bool
}

// Fetch is the typed convenience wrapper around Manager.GetOrFetch.
func Fetch[T any](ctx context.Context, m *Manager, key string, fetcher func(context.Context) (T, error), opts Options) (T, FetchInfo, error) {
	var zero T
	if fetcher == nil {
		return zero, FetchInfo{}, ErrNilFetcher
	}

	res, err := m.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetcher(ctx)
	}, opts)
	if err != nil {
		return zero, FetchInfo{}, err
	}

	var v T
	if err := json.Unmarshal(res.Data, &v); err != nil {
		return zero, FetchInfo{}, fmt.Errorf("cache: decode value: %w", err)
	}
	return v, FetchInfo{FromCache: res.FromCache, Stale: res.Stale}, nil
}
