// Package cache provides TTL caching with stale-while-revalidate semantics
// over a pluggable storage backend.
//
// It provides a Manager with staleness classification, single-flight fetch
// deduplication, tag-based bulk invalidation, and a compact duration grammar
// for TTL options.
package cache
