package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stitchfork/seqbond/symbol"
)

func fwdKey(ns symbol.Namespace, k string) Key {
	return Key{Space: KeyspaceForward, NS: ns, K: k}
}

func TestGetMiss(t *testing.T) {
	c := New()
	_, ok := c.Get(fwdKey(symbol.NamespaceWord, "xenon"))
	require.False(t, ok)

	hits, misses, fills := c.Stats()
	require.Equal(t, int64(0), hits)
	require.Equal(t, int64(1), misses)
	require.Equal(t, int64(0), fills)
}

func TestPutGet(t *testing.T) {
	c := New()
	id := symbol.MakeID(symbol.NamespaceWord, 7)
	c.Put(fwdKey(symbol.NamespaceWord, "xenon"), IDValue(id))

	v, ok := c.Get(fwdKey(symbol.NamespaceWord, "xenon"))
	require.True(t, ok)
	require.Equal(t, ValueID, v.Kind)
	require.Equal(t, id, v.ID)

	// Same key in a different namespace is a distinct entry.
	_, ok = c.Get(fwdKey(symbol.NamespaceCharacter, "xenon"))
	require.False(t, ok)
}

func TestPutIdempotent(t *testing.T) {
	c := New()
	key := fwdKey(symbol.NamespaceWord, "argon")
	val := IDValue(symbol.MakeID(symbol.NamespaceWord, 3))

	c.Put(key, val)
	_, _, fillsAfterFirst := c.Stats()
	c.Put(key, val)
	c.Put(key, val)

	_, _, fills := c.Stats()
	require.Equal(t, fillsAfterFirst, fills, "repeated identical puts must not derive new snapshots")
	require.Equal(t, 1, c.Len())
}

func TestPutBatchAllOrNothing(t *testing.T) {
	c := New()
	id := symbol.MakeID(symbol.NamespaceWord, 9)
	c.PutBatch([]Write{
		{Key: fwdKey(symbol.NamespaceWord, "neon"), Value: IDValue(id)},
		{Key: Key{Space: KeyspaceReverse, NS: symbol.NamespaceWord, K: string(id.AppendBinary(nil))}, Value: TextValue("neon")},
	})

	v, ok := c.Get(fwdKey(symbol.NamespaceWord, "neon"))
	require.True(t, ok)
	require.Equal(t, id, v.ID)

	rv, ok := c.Get(Key{Space: KeyspaceReverse, NS: symbol.NamespaceWord, K: string(id.AppendBinary(nil))})
	require.True(t, ok)
	require.Equal(t, "neon", rv.Text)

	_, _, fills := c.Stats()
	require.Equal(t, int64(1), fills, "batch counts as one fill")
}

func TestNegativeCaching(t *testing.T) {
	c := New()
	key := fwdKey(symbol.NamespaceContinuation, "no such span")
	c.Put(key, NoMatch())

	v, ok := c.Get(key)
	require.True(t, ok, "a cached negative is a valid value, not a miss")
	require.Equal(t, ValueNoMatch, v.Kind)
}

func TestPurge(t *testing.T) {
	c := New()
	c.Put(fwdKey(symbol.NamespaceWord, "a"), IDValue(symbol.MakeID(symbol.NamespaceWord, 1)))
	c.Put(fwdKey(symbol.NamespaceContinuation, "a b"), Partial())
	c.Put(fwdKey(symbol.NamespaceContinuation, "a c"), NoMatch())

	dropped := c.Purge(KeyspaceForward, func(k Key) bool { return k.NS == symbol.NamespaceContinuation })
	require.Equal(t, 2, dropped)
	require.Equal(t, 1, c.Len())

	_, ok := c.Get(fwdKey(symbol.NamespaceWord, "a"))
	require.True(t, ok)
	_, ok = c.Get(fwdKey(symbol.NamespaceContinuation, "a b"))
	require.False(t, ok)
}

func TestManyEntries(t *testing.T) {
	c := New()
	const n = 5000
	for i := 0; i < n; i++ {
		key := fwdKey(symbol.NamespaceWord, fmt.Sprintf("word-%04d", i))
		c.Put(key, IDValue(symbol.MakeID(symbol.NamespaceWord, uint64(i+1))))
	}
	require.Equal(t, n, c.Len())

	for i := 0; i < n; i++ {
		v, ok := c.Get(fwdKey(symbol.NamespaceWord, fmt.Sprintf("word-%04d", i)))
		require.True(t, ok, "entry %d", i)
		require.Equal(t, uint64(i+1), v.ID.Ordinal())
	}
}

func TestConcurrentReadersNeverBlockWriter(t *testing.T) {
	c := New()
	const writes = 2000

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers hammer the snapshot while the writer fills.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				for i := 0; i < writes; i += 97 {
					key := fwdKey(symbol.NamespaceWord, fmt.Sprintf("w%d", i))
					if v, ok := c.Get(key); ok {
						// Entries are never observed half-written.
						if v.Kind != ValueID || v.ID.Ordinal() != uint64(i+1) {
							t.Errorf("inconsistent entry for %s: %+v", key, v)
							return
						}
					}
				}
			}
		}()
	}

	for i := 0; i < writes; i++ {
		c.Put(fwdKey(symbol.NamespaceWord, fmt.Sprintf("w%d", i)), IDValue(symbol.MakeID(symbol.NamespaceWord, uint64(i+1))))
	}
	close(stop)
	wg.Wait()

	require.Equal(t, writes, c.Len())
}
