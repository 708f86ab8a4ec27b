package cache

import (
	"sync"
	"sync/atomic"
)

// Cache is the symbol resolution cache: many concurrent readers over an
// immutable snapshot, one serialized writer deriving the next snapshot.
//
// Get never blocks on a writer. A reader may observe a snapshot that is a
// few fills behind, but always a consistent one: a batch fill becomes
// visible in its entirety or not at all.
//
// A Miss (ok=false) is not an error; it tells the caller to invoke the
// resolver and retry. Cached negatives are ordinary values.
type Cache struct {
	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[hamt]

	hits   atomic.Int64
	misses atomic.Int64
	fills  atomic.Int64
}

// New creates an empty cache.
func New() *Cache {
	c := &Cache{}
	c.snap.Store(&hamt{})
	return c
}

// Get returns the entry for key. ok=false signals a miss.
func (c *Cache) Get(key Key) (Value, bool) {
	v, ok := c.snap.Load().lookup(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Put upserts a single entry. Repeated puts of the same pair are
// idempotent: the snapshot is unchanged after the first application.
func (c *Cache) Put(key Key, v Value) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load()
	if old, ok := cur.lookup(key); ok && old == v {
		return
	}
	c.snap.Store(cur.insert(key, v))
	c.fills.Add(1)
}

// PutBatch applies all writes as one logical unit: readers observe either
// none of them or all of them. The resolver uses this for a primary entry
// plus its auxiliary (reverse-lookup) entries.
func (c *Cache) PutBatch(writes []Write) {
	if len(writes) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load()
	next := cur
	for _, w := range writes {
		if old, ok := next.lookup(w.Key); ok && old == w.Value {
			continue
		}
		next = next.insert(w.Key, w.Value)
	}
	if next != cur {
		c.snap.Store(next)
		c.fills.Add(1)
	}
}

// Purge drops every entry in the given keyspace/namespace pair. This is the
// out-of-band administrative invalidation; the read/miss contract itself
// never invalidates, since the backing store is append-only.
func (c *Cache) Purge(space Keyspace, nsFilter func(k Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load()
	next := &hamt{}
	dropped := 0
	for k, v := range cur.all() {
		if k.Space == space && (nsFilter == nil || nsFilter(k)) {
			dropped++
			continue
		}
		next = next.insert(k, v)
	}
	if dropped > 0 {
		c.snap.Store(next)
	}
	return dropped
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.snap.Load().len()
}

// Stats returns cumulative hit/miss/fill counters.
func (c *Cache) Stats() (hits, misses, fills int64) {
	return c.hits.Load(), c.misses.Load(), c.fills.Load()
}

// All yields every entry of the current snapshot. The iteration sees one
// consistent snapshot even if fills land concurrently.
func (c *Cache) All() func(yield func(Key, Value) bool) {
	return c.snap.Load().all()
}
