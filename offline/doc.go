// Package offline composes the cache manager and sync queue into an
// offline-first client surface.
//
// Its main helper, Wrap, decorates an arbitrary producer function with
// cache-aside semantics: results are cached under a deterministic key derived
// from the operation name and its parameters, and served from cache on later
// calls until the entry goes stale.
package offline
