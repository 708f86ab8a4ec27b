// Package cache implements the symbol resolution cache.
//
// The cache is a many-reader/single-writer key-value map over independent
// keyspaces (forward lookup, reverse lookup, continuation state). Readers
// load an immutable snapshot through one atomic pointer and never block;
// the single writer derives the next snapshot by path-copying a hash-array
// mapped trie, so a batch of fills becomes visible all at once.
//
// A miss is not an error: it signals the caller to run the resolver and
// retry. Cached negatives ("no-match") are ordinary values and are served
// on later Gets without touching the backing store. The cache never
// invalidates on its own — the authoritative store is append-only — but an
// administrative Purge exists for out-of-band maintenance.
//
// Snapshots can be persisted and reloaded (see SaveSnapshot/LoadSnapshot)
// so a warm cache survives process restarts.
package cache
