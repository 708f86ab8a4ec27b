package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/stitchfork/seqbond/cache"
	"github.com/stitchfork/seqbond/store"
	"github.com/stitchfork/seqbond/symbol"
)

// Options configures a Resolver.
type Options struct {
	// MaxStoreConcurrency bounds in-flight store I/O. Misses beyond the
	// bound wait; cache readers are unaffected.
	MaxStoreConcurrency int64

	// StoreRate paces store-touching resolutions globally. Defaults to
	// unlimited; set it when many pipelines share one remote store.
	StoreRate *rate.Limiter

	// MaxAttempts bounds retries of retryable store failures per
	// resolution. The first try counts.
	MaxAttempts int

	// RetryBackoff is the initial backoff between attempts; it doubles
	// per retry.
	RetryBackoff time.Duration

	// Logger receives fill/miss diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Resolver turns cache misses into cache fills.
//
// For each distinct (namespace, key) at most one resolution is in flight:
// concurrent misses coalesce onto it and observe the identical result, so
// a brand-new symbol is minted exactly once no matter how many scopes hit
// it simultaneously.
//
// Once a resolution starts its store work, it runs to completion on a
// detached context. Cancelling a caller only stops that caller's wait;
// it never leaves a partial cache fill behind.
type Resolver struct {
	reg   *Registry
	cache *cache.Cache
	store store.Store

	group   singleflight.Group
	sem     *semaphore.Weighted
	limiter *rate.Limiter

	maxAttempts int
	backoff     time.Duration
	log         *slog.Logger
}

// New creates a Resolver over a verified registry.
func New(reg *Registry, c *cache.Cache, st store.Store, optFns ...func(*Options)) *Resolver {
	opts := Options{
		MaxStoreConcurrency: 16,
		MaxAttempts:         3,
		RetryBackoff:        50 * time.Millisecond,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.StoreRate == nil {
		opts.StoreRate = rate.NewLimiter(rate.Inf, 0)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		reg:         reg,
		cache:       c,
		store:       st,
		sem:         semaphore.NewWeighted(opts.MaxStoreConcurrency),
		limiter:     opts.StoreRate,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.RetryBackoff,
		log:         log,
	}
}

// Resolve returns the cache value for (ns, key), filling the cache from
// the authoritative store on a miss. The returned value is exactly what a
// subsequent Get would observe, including cached negatives.
func (r *Resolver) Resolve(ctx context.Context, ns symbol.Namespace, key string, sc ScopeContext) (cache.Value, error) {
	ckey := cache.Key{Space: cache.KeyspaceForward, NS: ns, K: key}
	if v, ok := r.cache.Get(ckey); ok {
		return v, nil
	}

	flightKey := string([]byte{byte(ns)}) + key
	ch := r.group.DoChan(flightKey, func() (any, error) {
		// Detached: the fill outlives any individual caller.
		return r.fill(context.WithoutCancel(ctx), ns, ckey, key, sc)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return cache.Value{}, res.Err
		}
		return res.Val.(cache.Value), nil
	case <-ctx.Done():
		// The flight keeps running and will land its writes.
		return cache.Value{}, ctx.Err()
	}
}

func (r *Resolver) fill(ctx context.Context, ns symbol.Namespace, ckey cache.Key, key string, sc ScopeContext) (cache.Value, error) {
	// A racing flight may have landed between our miss and now.
	if v, ok := r.cache.Get(ckey); ok {
		return v, nil
	}

	h, ok := r.reg.Handler(ns)
	if !ok {
		return cache.Value{}, fmt.Errorf("no handler for namespace %s", ns)
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return cache.Value{}, err
	}
	defer r.sem.Release(1)

	res, err := r.resolveWithRetry(ctx, h, key, sc)
	switch {
	case err == nil:
		writes := append([]cache.Write{{Key: ckey, Value: res.Value}}, res.Aux...)
		r.cache.PutBatch(writes)
		r.log.Debug("cache fill", "namespace", ns.String(), "key", key, "kind", res.Value.Kind.String())
		return res.Value, nil

	case errors.Is(err, ErrNoMatch):
		if ns.AllowsNegative() {
			neg := cache.NoMatch()
			r.cache.Put(ckey, neg)
			return neg, nil
		}
		return cache.Value{}, &ErrUnresolvableSymbol{Namespace: ns, Key: key, cause: err}

	default:
		return cache.Value{}, err
	}
}

func (r *Resolver) resolveWithRetry(ctx context.Context, h Handler, key string, sc ScopeContext) (Resolution, error) {
	backoff := r.backoff
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return Resolution{}, err
		}
		res, err := h.Resolve(ctx, key, sc)
		if err == nil || !errors.Is(err, store.ErrUnavailable) {
			return res, err
		}
		lastErr = err
		r.log.Warn("store unavailable, retrying", "key", key, "attempt", attempt, "error", err)

		if attempt == r.maxAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return Resolution{}, ctx.Err()
		}
		backoff *= 2
	}
	return Resolution{}, lastErr
}
