package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "a.sbm", []byte("payload")))

	got, err := store.Get(ctx, "a.sbm")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	// Mutating the returned slice must not affect the stored blob.
	got[0] = 'x'
	again, err := store.Get(ctx, "a.sbm")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), again)
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "scopes/b", []byte("b")))
	require.NoError(t, store.Put(ctx, "scopes/a", []byte("a")))
	require.NoError(t, store.Put(ctx, "other/c", []byte("c")))

	names, err := store.List(ctx, "scopes/")
	require.NoError(t, err)
	assert.Equal(t, []string{"scopes/a", "scopes/b"}, names)
}
