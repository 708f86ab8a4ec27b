// Package resolver fills symbol-cache misses from the authoritative store.
//
// A Registry maps the closed set of namespaces to Handler implementations
// and is verified complete at construction. The Resolver owns the miss
// path: it coalesces concurrent misses per (namespace, key) so a new
// symbol is minted exactly once, runs store I/O on a bounded pool, retries
// transient store failures with capped backoff, and lands a resolution's
// primary and auxiliary cache entries as one atomic batch.
//
// Fills are cancellation-safe: once store work starts it completes on a
// detached context, so an impatient caller can stop waiting without ever
// leaving half of a resolution in the cache.
package resolver
