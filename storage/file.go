package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileStore is a file-backed JSON store. It gives single-process durability:
// entries written in one run are visible to the next. The whole record set is
// kept in memory and flushed to disk on every mutation with an atomic
// write-then-rename.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]*fileRecord
	closed  bool
}

type fileRecord struct {
	Value     []byte `json:"value"`
	ExpiresAt int64  `json:"expires_at,omitempty"` // unix millis, 0 means no expiry
}

func (r *fileRecord) expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.UnixMilli() > r.ExpiresAt
}

// NewFileStore opens (or creates) a JSON store at the given path.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage: file store path is required")
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("storage: create store directory: %w", err)
	}

	s := &FileStore{
		path:    path,
		entries: make(map[string]*fileRecord),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("storage: read store file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("storage: decode store file: %w", err)
	}
	return nil
}

// flush writes the full record set. Callers must hold s.mu.
func (s *FileStore) flush() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("storage: encode store file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("storage: write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("storage: replace store file: %w", err)
	}
	return nil
}

// Get retrieves a value. Returns (nil, false, nil) on miss or expiry.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, ErrClosed
	}

	rec, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}

	// Expired - evict lazily and persist the eviction
	if rec.expired(time.Now()) {
		delete(s.entries, key)
		if err := s.flush(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	return rec.Value, true, nil
}

// Set stores a value. TTL <= 0 means no expiry.
func (s *FileStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	rec := &fileRecord{Value: value}
	if ttl > 0 {
		rec.ExpiresAt = time.Now().Add(ttl).UnixMilli()
	}
	s.entries[key] = rec

	return s.flush()
}

// Delete removes a value. Idempotent - no error on miss.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)

	return s.flush()
}

// Clear removes all values.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.entries = make(map[string]*fileRecord)

	return s.flush()
}

// Keys returns all non-expired keys matching the prefix, sorted.
func (s *FileStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	now := time.Now()
	keys := make([]string, 0, len(s.entries))
	for k, rec := range s.entries {
		if rec.expired(now) {
			continue
		}
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// Has reports whether a non-expired value exists for the key.
func (s *FileStore) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

// Close flushes and marks the store closed. Further calls return ErrClosed.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	err := s.flush()
	s.closed = true
	return err
}

// Ensure FileStore implements Store
var _ Store = (*FileStore)(nil)
