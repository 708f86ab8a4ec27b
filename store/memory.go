package store

import (
	"context"
	"strings"
	"sync"

	"github.com/stitchfork/seqbond/symbol"
)

// MemoryStore is an in-memory Store for tests and ephemeral pipelines.
type MemoryStore struct {
	mu     sync.Mutex
	fwd    map[symbol.Namespace]map[string]symbol.ID
	rev    map[symbol.ID]string
	seq    map[symbol.Namespace]uint64
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		fwd: make(map[symbol.Namespace]map[string]symbol.ID),
		rev: make(map[symbol.ID]string),
		seq: make(map[symbol.Namespace]uint64),
	}
}

// Lookup implements Store.
func (s *MemoryStore) Lookup(ctx context.Context, ns symbol.Namespace, text string) (symbol.ID, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false, ErrClosed
	}
	id, ok := s.fwd[ns][text]
	return id, ok, nil
}

// Text implements Store.
func (s *MemoryStore) Text(ctx context.Context, id symbol.ID) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	text, ok := s.rev[id]
	return text, ok, nil
}

// Mint implements Store.
func (s *MemoryStore) Mint(ctx context.Context, ns symbol.Namespace, text string) (symbol.ID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	if id, ok := s.fwd[ns][text]; ok {
		return id, nil
	}
	s.seq[ns]++
	id := symbol.MakeID(ns, s.seq[ns])
	if s.fwd[ns] == nil {
		s.fwd[ns] = make(map[string]symbol.ID)
	}
	s.fwd[ns][text] = id
	s.rev[id] = text
	return id, nil
}

// PrefixState implements Store.
func (s *MemoryStore) PrefixState(ctx context.Context, ns symbol.Namespace, prefix string) (PrefixState, symbol.ID, error) {
	if err := ctx.Err(); err != nil {
		return PrefixNone, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return PrefixNone, 0, ErrClosed
	}

	if id, ok := s.fwd[ns][prefix]; ok {
		return PrefixComplete, id, nil
	}
	boundary := prefix + symbol.UnitSep
	for text := range s.fwd[ns] {
		if strings.HasPrefix(text, boundary) {
			return PrefixPartial, 0, nil
		}
	}
	return PrefixNone, 0, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
