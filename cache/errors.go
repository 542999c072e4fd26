package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrNilStore indicates the manager was built without a storage backend.
	ErrNilStore = errors.New("cache: store is nil")

	// ErrNilFetcher indicates GetOrFetch was called without a fetcher.
	ErrNilFetcher = errors.New("cache: fetcher is nil")

	// ErrInvalidDuration indicates a TTL string that does not match the
	// <integer><unit> grammar.
	ErrInvalidDuration = errors.New("cache: invalid duration")
)
