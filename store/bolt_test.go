package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stitchfork/seqbond/symbol"
)

func openTestBolt(t *testing.T) *BoltStore {
	t.Helper()
	s, err := OpenBolt(filepath.Join(t.TempDir(), "symbols.db"), func(o *BoltOptions) {
		o.NoSync = true
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltMintAndLookup(t *testing.T) {
	s := openTestBolt(t)
	ctx := context.Background()

	id, err := s.Mint(ctx, symbol.NamespaceWord, "xenon")
	require.NoError(t, err)
	require.Equal(t, symbol.NamespaceWord, id.Namespace())
	require.False(t, id.IsZero())

	got, ok, err := s.Lookup(ctx, symbol.NamespaceWord, "xenon")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, id, got)

	text, ok, err := s.Text(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "xenon", text)

	_, ok, err = s.Lookup(ctx, symbol.NamespaceWord, "argon")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBoltMintIdempotent(t *testing.T) {
	s := openTestBolt(t)
	ctx := context.Background()

	first, err := s.Mint(ctx, symbol.NamespaceWord, "xenon")
	require.NoError(t, err)
	second, err := s.Mint(ctx, symbol.NamespaceWord, "xenon")
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Same text in another namespace mints independently.
	other, err := s.Mint(ctx, symbol.NamespacePhrase, "xenon")
	require.NoError(t, err)
	require.NotEqual(t, first, other)
	require.Equal(t, symbol.NamespacePhrase, other.Namespace())
}

func TestBoltConcurrentMintSingleRow(t *testing.T) {
	s := openTestBolt(t)
	ctx := context.Background()

	const n = 16
	ids := make([]symbol.ID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Mint(ctx, symbol.NamespaceWord, "xenon")
			require.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	for _, id := range ids {
		require.Equal(t, ids[0], id, "all concurrent mints must observe one identifier")
	}

	// Exactly one row: the next distinct mint gets the next ordinal.
	next, err := s.Mint(ctx, symbol.NamespaceWord, "argon")
	require.NoError(t, err)
	require.Equal(t, ids[0].Ordinal()+1, next.Ordinal())
}

func TestBoltPrefixState(t *testing.T) {
	s := openTestBolt(t)
	ctx := context.Background()

	span := symbol.JoinUnits([]string{"the", "quick"})
	spanID, err := s.Mint(ctx, symbol.NamespacePhrase, span)
	require.NoError(t, err)
	longer := symbol.JoinUnits([]string{"the", "quick", "brown", "fox"})
	_, err = s.Mint(ctx, symbol.NamespacePhrase, longer)
	require.NoError(t, err)
	// A word that shares a byte prefix but not a unit boundary.
	_, err = s.Mint(ctx, symbol.NamespacePhrase, symbol.JoinUnits([]string{"theory", "of", "mind"}))
	require.NoError(t, err)

	state, id, err := s.PrefixState(ctx, symbol.NamespacePhrase, span)
	require.NoError(t, err)
	require.Equal(t, PrefixComplete, state)
	require.Equal(t, spanID, id)

	state, _, err = s.PrefixState(ctx, symbol.NamespacePhrase, "the")
	require.NoError(t, err)
	require.Equal(t, PrefixPartial, state)

	state, _, err = s.PrefixState(ctx, symbol.NamespacePhrase, symbol.JoinUnits([]string{"the", "quick", "brown"}))
	require.NoError(t, err)
	require.Equal(t, PrefixPartial, state)

	// "theo" is a byte prefix of "theory..." but not at a unit boundary.
	state, _, err = s.PrefixState(ctx, symbol.NamespacePhrase, "theo")
	require.NoError(t, err)
	require.Equal(t, PrefixNone, state)

	state, _, err = s.PrefixState(ctx, symbol.NamespacePhrase, "unrelated")
	require.NoError(t, err)
	require.Equal(t, PrefixNone, state)
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.db")
	ctx := context.Background()

	s, err := OpenBolt(path)
	require.NoError(t, err)
	id, err := s.Mint(ctx, symbol.NamespaceWord, "xenon")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Lookup(ctx, symbol.NamespaceWord, "xenon")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, id, got)
}
