// Package store defines the authoritative symbol store and its backends.
//
// The store is the durable source of truth for text <-> identifier
// mappings. It is append-mostly: rows are created by Mint and never
// deleted or renumbered, which is what lets the resolution cache treat
// both positive and negative answers as permanently valid.
//
// # Built-in Implementations
//
//   - BoltStore: single-file embedded store (bbolt), the default
//   - DynamoStore: shared store over one DynamoDB table
//   - MemoryStore: ephemeral store for tests
//
// All backends answer the same three query shapes: exact forward lookup,
// exact reverse lookup, and the unit-boundary tri-state prefix query that
// drives the continuation walk.
package store
