package blobstore

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// CachingStore wraps a BlobStore and keeps fetched archives in memory.
// Archives are immutable once written, so cached entries only need
// invalidation when the same name is overwritten or deleted through
// this store.
type CachingStore struct {
	inner    BlobStore
	maxBytes int64

	mu    sync.Mutex
	cache map[string][]byte
	order []string
	size  int64
}

// NewCachingStore creates a read-through cache over inner. maxBytes
// bounds the total cached payload; it defaults to 64MB if <= 0.
func NewCachingStore(inner BlobStore, maxBytes int64) *CachingStore {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	return &CachingStore{
		inner:    inner,
		maxBytes: maxBytes,
		cache:    make(map[string][]byte),
	}
}

// Get returns the cached blob or fetches it from the inner store.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	if data, ok := s.cache[name]; ok {
		s.mu.Unlock()
		return data, nil
	}
	s.mu.Unlock()

	data, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	s.admit(name, data)
	return data, nil
}

// Put writes through to the inner store and caches the new contents.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	if err := s.inner.Put(ctx, name, data); err != nil {
		return err
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	s.admit(name, copied)
	return nil
}

// Delete removes the blob from the inner store and the cache.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List passes through to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Warm prefetches the named blobs into the cache in parallel. Missing
// blobs are skipped.
func (s *CachingStore) Warm(ctx context.Context, names []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(16)

	for _, name := range names {
		g.Go(func() error {
			_, err := s.Get(ctx, name)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

func (s *CachingStore) admit(name string, data []byte) {
	if int64(len(data)) > s.maxBytes {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache[name]; ok {
		return
	}
	// Evict oldest entries until the new blob fits.
	for s.size+int64(len(data)) > s.maxBytes && len(s.order) > 0 {
		victim := s.order[0]
		s.order = s.order[1:]
		s.size -= int64(len(s.cache[victim]))
		delete(s.cache, victim)
	}
	s.cache[name] = data
	s.order = append(s.order, name)
	s.size += int64(len(data))
}

func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.cache[name]
	if !ok {
		return
	}
	s.size -= int64(len(data))
	delete(s.cache, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
