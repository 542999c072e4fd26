// Package storage provides the persistent key/value contract shared by the
// cache manager and the sync queue.
//
// It provides a Store interface with memory, JSON-file, and SQLite
// implementations, optional per-entry expiry, and environment-driven
// backend selection.
package storage
