package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stitchfork/seqbond/cache"
	"github.com/stitchfork/seqbond/store"
	"github.com/stitchfork/seqbond/symbol"
)

// countingStore wraps a Store and counts mints and lookups.
type countingStore struct {
	store.Store
	lookups atomic.Int64
	mints   atomic.Int64
	prefix  atomic.Int64
}

func (s *countingStore) Lookup(ctx context.Context, ns symbol.Namespace, text string) (symbol.ID, bool, error) {
	s.lookups.Add(1)
	return s.Store.Lookup(ctx, ns, text)
}

func (s *countingStore) Mint(ctx context.Context, ns symbol.Namespace, text string) (symbol.ID, error) {
	s.mints.Add(1)
	return s.Store.Mint(ctx, ns, text)
}

func (s *countingStore) PrefixState(ctx context.Context, ns symbol.Namespace, prefix string) (store.PrefixState, symbol.ID, error) {
	s.prefix.Add(1)
	return s.Store.PrefixState(ctx, ns, prefix)
}

func newTestResolver(t *testing.T, st store.Store) (*Resolver, *cache.Cache) {
	t.Helper()
	reg, err := DefaultRegistry(st)
	require.NoError(t, err)
	c := cache.New()
	return New(reg, c, st), c
}

func TestRegistryCompleteness(t *testing.T) {
	st := store.NewMemoryStore()

	_, err := NewRegistry(map[symbol.Namespace]Handler{
		symbol.NamespaceWord: &UnitHandler{NS: symbol.NamespaceWord, Store: st},
	})
	require.Error(t, err, "missing handlers must fail at construction, not first use")

	_, err = NewRegistry(map[symbol.Namespace]Handler{
		symbol.NamespaceUnknown: &UnitHandler{NS: symbol.NamespaceWord, Store: st},
	})
	require.Error(t, err)

	reg, err := DefaultRegistry(st)
	require.NoError(t, err)
	for _, ns := range symbol.Namespaces() {
		_, ok := reg.Handler(ns)
		require.True(t, ok, "handler for %s", ns)
	}
}

func TestResolveMintsAndFillsReverse(t *testing.T) {
	st := store.NewMemoryStore()
	r, c := newTestResolver(t, st)
	ctx := context.Background()

	v, err := r.Resolve(ctx, symbol.NamespaceWord, "xenon", ScopeContext{})
	require.NoError(t, err)
	require.Equal(t, cache.ValueID, v.Kind)

	// Primary and auxiliary entries landed together.
	fv, ok := c.Get(cache.Key{Space: cache.KeyspaceForward, NS: symbol.NamespaceWord, K: "xenon"})
	require.True(t, ok)
	require.Equal(t, v.ID, fv.ID)

	rv, ok := c.Get(cache.Key{Space: cache.KeyspaceReverse, NS: symbol.NamespaceWord, K: string(v.ID.AppendBinary(nil))})
	require.True(t, ok)
	require.Equal(t, "xenon", rv.Text)
}

func TestConcurrentResolveSingleMint(t *testing.T) {
	cs := &countingStore{Store: store.NewMemoryStore()}
	r, _ := newTestResolver(t, cs)
	ctx := context.Background()

	const n = 32
	ids := make([]symbol.ID, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, err := r.Resolve(ctx, symbol.NamespaceWord, "xenon", ScopeContext{})
			if err != nil {
				t.Error(err)
				return
			}
			ids[i] = v.ID
		}()
	}
	close(start)
	wg.Wait()

	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
	require.Equal(t, int64(1), cs.mints.Load(), "exactly one store insert for N concurrent first-time lookups")
}

func TestNegativeCacheStopsStoreQueries(t *testing.T) {
	cs := &countingStore{Store: store.NewMemoryStore()}
	r, c := newTestResolver(t, cs)
	ctx := context.Background()

	v, err := r.Resolve(ctx, symbol.NamespaceContinuation, symbol.JoinUnits([]string{"no", "such", "span"}), ScopeContext{})
	require.NoError(t, err)
	require.Equal(t, cache.ValueNoMatch, v.Kind)
	queriesAfterFirst := cs.prefix.Load()

	for i := 0; i < 5; i++ {
		v, err = r.Resolve(ctx, symbol.NamespaceContinuation, symbol.JoinUnits([]string{"no", "such", "span"}), ScopeContext{})
		require.NoError(t, err)
		require.Equal(t, cache.ValueNoMatch, v.Kind)
	}
	require.Equal(t, queriesAfterFirst, cs.prefix.Load(), "cached negative must be served without re-querying the store")

	_, ok := c.Get(cache.Key{Space: cache.KeyspaceForward, NS: symbol.NamespaceContinuation, K: symbol.JoinUnits([]string{"no", "such", "span"})})
	require.True(t, ok)
}

func TestUnresolvablePhrase(t *testing.T) {
	st := store.NewMemoryStore()
	r, _ := newTestResolver(t, st)

	_, err := r.Resolve(context.Background(), symbol.NamespacePhrase, "never registered", ScopeContext{})
	var unresolvable *ErrUnresolvableSymbol
	require.ErrorAs(t, err, &unresolvable)
	require.Equal(t, symbol.NamespacePhrase, unresolvable.Namespace)
	require.Equal(t, "never registered", unresolvable.Key)
}

// flakyStore fails the first n calls with a retryable error.
type flakyStore struct {
	store.Store
	remaining atomic.Int64
}

func (s *flakyStore) Lookup(ctx context.Context, ns symbol.Namespace, text string) (symbol.ID, bool, error) {
	if s.remaining.Add(-1) >= 0 {
		return 0, false, fmt.Errorf("%w: injected", store.ErrUnavailable)
	}
	return s.Store.Lookup(ctx, ns, text)
}

func TestRetryOnStoreUnavailable(t *testing.T) {
	fs := &flakyStore{Store: store.NewMemoryStore()}
	fs.remaining.Store(2)

	reg, err := DefaultRegistry(fs)
	require.NoError(t, err)
	r := New(reg, cache.New(), fs, func(o *Options) {
		o.MaxAttempts = 3
		o.RetryBackoff = time.Millisecond
	})

	v, err := r.Resolve(context.Background(), symbol.NamespaceWord, "xenon", ScopeContext{})
	require.NoError(t, err)
	require.Equal(t, cache.ValueID, v.Kind)
}

func TestRetryBudgetExhausted(t *testing.T) {
	fs := &flakyStore{Store: store.NewMemoryStore()}
	fs.remaining.Store(100)

	reg, err := DefaultRegistry(fs)
	require.NoError(t, err)
	r := New(reg, cache.New(), fs, func(o *Options) {
		o.MaxAttempts = 2
		o.RetryBackoff = time.Millisecond
	})

	_, err = r.Resolve(context.Background(), symbol.NamespaceWord, "xenon", ScopeContext{})
	require.ErrorIs(t, err, store.ErrUnavailable)
}

// slowStore delays lookups so cancellation can race the fill.
type slowStore struct {
	store.Store
	delay time.Duration
}

func (s *slowStore) Lookup(ctx context.Context, ns symbol.Namespace, text string) (symbol.ID, bool, error) {
	time.Sleep(s.delay)
	return s.Store.Lookup(ctx, ns, text)
}

func TestCancellationDoesNotTruncateFill(t *testing.T) {
	ss := &slowStore{Store: store.NewMemoryStore(), delay: 30 * time.Millisecond}
	r, c := newTestResolver(t, ss)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx, symbol.NamespaceWord, "xenon", ScopeContext{})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The in-flight fill must still complete fully.
	require.Eventually(t, func() bool {
		_, fwd := c.Get(cache.Key{Space: cache.KeyspaceForward, NS: symbol.NamespaceWord, K: "xenon"})
		return fwd
	}, time.Second, 5*time.Millisecond, "detached fill should land despite caller cancellation")

	v, _ := c.Get(cache.Key{Space: cache.KeyspaceForward, NS: symbol.NamespaceWord, K: "xenon"})
	_, rev := c.Get(cache.Key{Space: cache.KeyspaceReverse, NS: symbol.NamespaceWord, K: string(v.ID.AppendBinary(nil))})
	require.True(t, rev, "no partial fills: reverse entry lands with the primary")
}

// staticHandler lets tests exercise the open/closed dispatch contract.
type staticHandler struct {
	value cache.Value
}

func (h *staticHandler) Resolve(context.Context, string, ScopeContext) (Resolution, error) {
	return Resolution{Value: h.value}, nil
}

func TestCustomHandlerDispatch(t *testing.T) {
	st := store.NewMemoryStore()
	want := cache.IDValue(symbol.MakeID(symbol.NamespaceWord, 777))

	// Swapping one namespace's handler requires no resolver changes.
	reg, err := NewRegistry(map[symbol.Namespace]Handler{
		symbol.NamespaceWord:         &staticHandler{value: want},
		symbol.NamespaceCharacter:    &UnitHandler{NS: symbol.NamespaceCharacter, Store: st},
		symbol.NamespacePhrase:       &PhraseHandler{Store: st},
		symbol.NamespaceContinuation: &ContinuationHandler{Store: st},
	})
	require.NoError(t, err)

	r := New(reg, cache.New(), st)
	v, err := r.Resolve(context.Background(), symbol.NamespaceWord, "anything", ScopeContext{})
	require.NoError(t, err)
	require.Equal(t, want, v)
}

func TestHandlerErrorWrapping(t *testing.T) {
	st := store.NewMemoryStore()
	h := &UnitHandler{NS: symbol.NamespaceWord, Store: st, ReadOnly: true}
	_, err := h.Resolve(context.Background(), "unseen", ScopeContext{})
	require.True(t, errors.Is(err, ErrNoMatch))
}
