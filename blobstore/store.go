package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when an archive blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for storing immutable archive blobs.
// Archives are small and self-checksummed, so the interface trades in
// whole blobs rather than ranged reads.
type BlobStore interface {
	// Get reads the blob with the given name in full.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes a blob atomically. Existing blobs are replaced.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix,
	// sorted lexicographically.
	List(ctx context.Context, prefix string) ([]string, error)
}
