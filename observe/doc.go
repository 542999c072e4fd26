// Package observe provides observability primitives for the offline engine.
//
// It is a pure instrumentation library: no persistence, no dispatch, no I/O
// beyond exporter setup. The cache manager and sync queue take its Logger,
// Metrics, and Tracer as optional collaborators.
package observe
