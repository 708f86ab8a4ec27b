// Package symbol defines the identifier model shared by every layer.
//
// # Identity Types
//
//   - Namespace: closed, enumerated partition of the identifier space
//   - ID: namespaced 64-bit identifier (8-bit namespace tag, 56-bit ordinal)
//
// Identifiers are append-only: once the authoritative store mints an ID for
// a symbol it is never renumbered or reused, so an ID is safe to persist
// indefinitely (bond maps, archives, caches).
package symbol
