package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/offlinekit/observe"
	"github.com/jonwraymond/offlinekit/storage"
)

// DefaultPrefix is the key namespace used when none is configured.
const DefaultPrefix = "cache:"

// Options configure a single cache operation.
type Options struct {
	// TTL is a compact duration string ("5m", "1h", bare integer millis).
	// Empty means the manager default; when that is also empty the entry
	// never expires.
	TTL string

	// MaxStale is how long past expiry the entry may still be served as
	// stale. Empty means zero: expired entries are evicted on read.
	MaxStale string

	// StaleWhileRevalidate makes GetOrFetch serve a stale entry immediately
	// and refresh it in the background.
	StaleWhileRevalidate bool

	// Tags are invalidation tags recorded with the entry.
	Tags []string
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Prefix is the storage key namespace. Default: "cache:".
	Prefix string

	// DefaultTTL applies when an operation passes no TTL.
	DefaultTTL string

	// DefaultMaxStale applies when an operation passes no MaxStale.
	DefaultMaxStale string

	// Logger receives diagnostics, notably background revalidation
	// failures. Default: a nop logger.
	Logger observe.Logger

	// Metrics records lookup outcomes. Default: nop metrics.
	Metrics observe.Metrics
}

// Manager owns TTL interpretation, staleness classification,
// stale-while-revalidate dispatch, and tag-based invalidation for entries
// held in a storage.Store.
//
// Contract:
// - Concurrency: safe for concurrent use within one process.
// - Ownership: the manager is the single logical owner of all keys under its
//   prefix; scan-filter-delete sequences are not atomic across owners.
type Manager struct {
	store   storage.Store
	prefix  string
	logger  observe.Logger
	metrics observe.Metrics

	defaultTTL      string
	defaultMaxStale string

	// fetches deduplicates synchronous miss-path fetches per key.
	fetches singleflight.Group

	// revalidating holds one marker per key with a background refresh in
	// flight; cleared on completion regardless of outcome.
	revalidating sync.Map
}

// NewManager creates a cache manager over the given store.
func NewManager(store storage.Store, cfg ManagerConfig) (*Manager, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	// Apply defaults
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NewNopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NewNopMetrics()
	}

	// Reject a malformed default up front rather than on every call.
	if _, err := ParseDuration(cfg.DefaultTTL); err != nil {
		return nil, err
	}
	if _, err := ParseDuration(cfg.DefaultMaxStale); err != nil {
		return nil, err
	}

	return &Manager{
		store:           store,
		prefix:          cfg.Prefix,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		defaultTTL:      cfg.DefaultTTL,
		defaultMaxStale: cfg.DefaultMaxStale,
	}, nil
}

func (m *Manager) storageKey(key string) string {
	return m.prefix + key
}

func (m *Manager) ttlFor(opts Options) (time.Duration, error) {
	s := opts.TTL
	if s == "" {
		s = m.defaultTTL
	}
	return ParseDuration(s)
}

func (m *Manager) maxStaleFor(opts Options) (time.Duration, error) {
	s := opts.MaxStale
	if s == "" {
		s = m.defaultMaxStale
	}
	return ParseDuration(s)
}

// Get loads an entry and classifies its staleness. It returns (nil, nil) on
// a miss, and evicts entries that are past both their TTL and the allowed
// staleness window.
func (m *Manager) Get(ctx context.Context, key string, opts Options) (*Entry, error) {
	if err := storage.ValidateKey(key); err != nil {
		return nil, err
	}

	meta := observe.OpMeta{Component: "cache", Name: "get", Key: key}

	raw, ok, err := m.store.Get(ctx, m.storageKey(key))
	if err != nil {
		return nil, fmt.Errorf("cache: load entry: %w", err)
	}
	if !ok {
		m.metrics.RecordLookup(ctx, meta, observe.LookupMiss)
		return nil, nil
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("cache: decode entry: %w", err)
	}

	entry := rec.entry()
	now := time.Now()

	// Fresh: no expiry, or not yet expired.
	if entry.ExpiresAt.IsZero() || now.Before(entry.ExpiresAt) {
		m.metrics.RecordLookup(ctx, meta, observe.LookupHit)
		return entry, nil
	}

	maxStale, err := m.maxStaleFor(opts)
	if err != nil {
		return nil, err
	}

	// Past the staleness window: evict and report a miss.
	if now.After(entry.ExpiresAt.Add(maxStale)) {
		if err := m.store.Delete(ctx, m.storageKey(key)); err != nil {
			return nil, fmt.Errorf("cache: evict entry: %w", err)
		}
		m.metrics.RecordLookup(ctx, meta, observe.LookupMiss)
		return nil, nil
	}

	entry.Stale = true
	m.metrics.RecordLookup(ctx, meta, observe.LookupStale)
	return entry, nil
}

// Set writes an entry with the given TTL and tags.
func (m *Manager) Set(ctx context.Context, key string, data any, opts Options) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cache: encode value: %w", err)
	}

	ttl, err := m.ttlFor(opts)
	if err != nil {
		return err
	}

	now := time.Now()
	rec := record{
		Data:     payload,
		CachedAt: now.UnixMilli(),
		Tags:     opts.Tags,
	}
	if ttl > 0 {
		rec.ExpiresAt = now.Add(ttl).UnixMilli()
	}

	raw, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("cache: encode entry: %w", err)
	}

	// Adapter-level TTL stays off: the staleness window is only known at
	// read time, so the manager owns expiry itself.
	if err := m.store.Set(ctx, m.storageKey(key), raw, 0); err != nil {
		return fmt.Errorf("cache: persist entry: %w", err)
	}
	return nil
}

// Delete removes a single entry.
func (m *Manager) Delete(ctx context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, m.storageKey(key)); err != nil {
		return fmt.Errorf("cache: delete entry: %w", err)
	}
	return nil
}

// Has reports whether an entry is present, without classifying staleness.
func (m *Manager) Has(ctx context.Context, key string) (bool, error) {
	if err := storage.ValidateKey(key); err != nil {
		return false, err
	}
	return m.store.Has(ctx, m.storageKey(key))
}

// Invalidate deletes every entry whose key equals keyOrTag or whose tag set
// contains keyOrTag, and returns the number of entries removed. The scan is
// linear in the number of entries under the prefix.
func (m *Manager) Invalidate(ctx context.Context, keyOrTag string) (int, error) {
	keys, err := m.store.Keys(ctx, m.prefix)
	if err != nil {
		return 0, fmt.Errorf("cache: scan keys: %w", err)
	}

	count := 0
	for _, sk := range keys {
		key := strings.TrimPrefix(sk, m.prefix)

		match := key == keyOrTag
		if !match {
			raw, ok, err := m.store.Get(ctx, sk)
			if err != nil {
				return count, fmt.Errorf("cache: load entry: %w", err)
			}
			if !ok {
				continue
			}
			var rec record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return count, fmt.Errorf("cache: decode entry: %w", err)
			}
			match = slices.Contains(rec.Tags, keyOrTag)
		}

		if match {
			if err := m.store.Delete(ctx, sk); err != nil {
				return count, fmt.Errorf("cache: delete entry: %w", err)
			}
			count++
		}
	}

	return count, nil
}

// Clear deletes every entry under the manager's prefix.
func (m *Manager) Clear(ctx context.Context) error {
	keys, err := m.store.Keys(ctx, m.prefix)
	if err != nil {
		return fmt.Errorf("cache: scan keys: %w", err)
	}
	for _, sk := range keys {
		if err := m.store.Delete(ctx, sk); err != nil {
			return fmt.Errorf("cache: delete entry: %w", err)
		}
	}
	return nil
}
