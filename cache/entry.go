package cache

import (
	"encoding/json"
	"time"
)

// Entry is a cached record with its staleness classification.
type Entry struct {
	// Data is the cached payload as stored.
	Data json.RawMessage

	// CachedAt is when the entry was written.
	CachedAt time.Time

	// ExpiresAt is when the entry stops being fresh. Zero means the entry
	// never expires through TTL.
	ExpiresAt time.Time

	// Tags are the invalidation tags recorded at write time.
	Tags []string

	// Stale is true when the entry is past its TTL but still within the
	// allowed staleness window. Computed on read, never stored.
	Stale bool
}

// record is the persisted form of an Entry.
type record struct {
	Data      json.RawMessage `json:"data"`
	CachedAt  int64           `json:"cached_at"`            // unix millis
	ExpiresAt int64           `json:"expires_at,omitempty"` // unix millis, 0 means never
	Tags      []string        `json:"tags,omitempty"`
}

func (r *record) entry() *Entry {
	e := &Entry{
		Data:     r.Data,
		CachedAt: time.UnixMilli(r.CachedAt),
		Tags:     r.Tags,
	}
	if r.ExpiresAt > 0 {
		e.ExpiresAt = time.UnixMilli(r.ExpiresAt)
	}
	return e
}

// Result is the outcome of a GetOrFetch call.
type Result struct {
	// Data is the payload, either cached or freshly fetched.
	Data json.RawMessage

	// FromCache is true when the payload was served from the cache.
	FromCache bool

	// Stale is true when the payload was served stale while a background
	// revalidation may be running.
	Stale bool
}

// Value decodes an entry's payload into T.
func Value[T any](e *Entry) (T, error) {
	var v T
	if e == nil {
		return v, nil
	}
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return v, err
	}
	return v, nil
}
