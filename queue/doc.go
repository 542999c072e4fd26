// Package queue provides a durable, retryable work queue for operations that
// must eventually succeed against a remote system.
//
// Operations are persisted through a storage.Store, dispatched to registered
// handlers in priority order with bounded concurrency, and retried across
// sync passes until they succeed or exhaust their attempt budget.
package queue
