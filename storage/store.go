package storage

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a storage key.
const MaxKeyLength = 512

// Sentinel errors for storage operations.
var (
	ErrNilStore       = errors.New("storage: store is nil")
	ErrInvalidKey     = errors.New("storage: key is invalid")
	ErrKeyTooLong     = errors.New("storage: key exceeds max length")
	ErrUnknownBackend = errors.New("storage: unknown backend")
	ErrClosed         = errors.New("storage: store is closed")
)

// Store is the persistence contract consumed by the cache manager and the
// sync queue. Implementations serialize opaque records keyed by string and
// never interpret their contents.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use within one
//   process; mutating calls are driven by a single logical owner.
// - Expiry: Get on an entry whose TTL has elapsed must report a miss and
//   should lazily evict the entry.
// - Idempotency: all operations are idempotent when repeated.
// - Errors: Get returns (nil, false, nil) on miss; errors are reserved for
//   backend failures.
type Store interface {
	// Get retrieves a value. Returns (nil, false, nil) on miss or expiry.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. TTL <= 0 means the entry never expires at the
	// adapter level.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Clear removes all values.
	Clear(ctx context.Context) error

	// Keys returns all non-expired keys matching the given prefix.
	// An empty prefix matches every key.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Has reports whether a non-expired value exists for the key.
	Has(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

// ValidateKey checks if a key is valid for storage.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
