package seqbond

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stitchfork/seqbond/bondmap"
	"github.com/stitchfork/seqbond/cache"
	"github.com/stitchfork/seqbond/codec"
	"github.com/stitchfork/seqbond/resolver"
	"github.com/stitchfork/seqbond/store"
	"github.com/stitchfork/seqbond/symbol"
	"github.com/stitchfork/seqbond/tokenizer"
)

// Engine ties the tiered resolution pipeline together: input is split
// into units, the tokenizer walks them into identifier spans through the
// cache and miss resolver, and the bond codec turns identifier sequences
// into order-free bond maps and back.
type Engine struct {
	store    store.Store
	cache    *cache.Cache
	resolver *resolver.Resolver
	tok      *tokenizer.Tokenizer
	opts     options

	closed atomic.Bool
}

// NewEngine creates an Engine over an authoritative store.
func NewEngine(st store.Store, optFns ...Option) (*Engine, error) {
	if st == nil {
		return nil, errors.New("store must not be nil")
	}
	opts := applyOptions(optFns)

	reg := opts.registry
	if reg == nil {
		var err error
		reg, err = resolver.DefaultRegistry(st)
		if err != nil {
			return nil, err
		}
	}

	c := cache.New()
	if opts.snapshotPath != "" {
		err := c.LoadSnapshot(opts.snapshotPath)
		switch {
		case err == nil:
			opts.logger.Info("cache snapshot loaded",
				"path", opts.snapshotPath,
				"entries", c.Len(),
			)
		case errors.Is(err, fs.ErrNotExist):
			// First run, cold cache.
		default:
			// A bad snapshot never blocks startup. The cache refills
			// from the store.
			opts.logger.Warn("cache snapshot unusable, starting cold",
				"path", opts.snapshotPath,
				"error", err,
			)
			c = cache.New()
		}
	}

	resolverOpts := append([]func(*resolver.Options){func(o *resolver.Options) {
		o.Logger = opts.logger.Logger
	}}, opts.resolverOptions...)
	res := resolver.New(reg, c, st, resolverOpts...)

	tok := tokenizer.New(res, func(o *tokenizer.Options) {
		o.UnitNamespace = opts.unitNamespace
		o.Fallback = opts.fallback
		o.Logger = opts.logger.Logger
	})

	return &Engine{
		store:    st,
		cache:    c,
		resolver: res,
		tok:      tok,
		opts:     opts,
	}, nil
}

// EncodeScope encodes one scope's raw input into a bond map. All spans
// must resolve; unresolved spans abort the scope with ErrUnresolvedSpans
// so a decode can never silently drop content.
func (e *Engine) EncodeScope(ctx context.Context, scopeID uuid.UUID, input string) (*bondmap.BondMap, error) {
	start := time.Now()
	units := e.opts.splitter(input)

	m, err := e.encodeUnits(ctx, scopeID, units)
	e.opts.metricsCollector.RecordEncode(len(units), time.Since(start), err)
	e.opts.logger.LogEncode(ctx, scopeID, len(units), mapLen(m), err)
	return m, err
}

func (e *Engine) encodeUnits(ctx context.Context, scopeID uuid.UUID, units []string) (*bondmap.BondMap, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	spans, err := e.tok.Tokenize(ctx, scopeID, units)
	if err != nil {
		return nil, translateError(err)
	}

	var unresolved []string
	for _, s := range spans {
		if s.Unresolved {
			unresolved = append(unresolved, strings.Join(s.Units, " "))
		}
	}
	if len(unresolved) > 0 {
		return nil, &ErrUnresolvedSpans{Spans: unresolved}
	}

	return bondmap.Encode(tokenizer.IDs(spans), e.opts.skip), nil
}

// ScopeResult is the outcome of one scope in a batch encode.
type ScopeResult struct {
	Map *bondmap.BondMap
	Err error
}

// EncodeScopes encodes multiple scopes concurrently. Scopes are
// independent: one failing scope does not abort the others, and its
// error is reported in its own result.
func (e *Engine) EncodeScopes(ctx context.Context, scopes map[uuid.UUID]string) map[uuid.UUID]ScopeResult {
	results := make(map[uuid.UUID]ScopeResult, len(scopes))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for scopeID, input := range scopes {
		g.Go(func() error {
			m, err := e.EncodeScope(ctx, scopeID, input)
			mu.Lock()
			results[scopeID] = ScopeResult{Map: m, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // goroutines report per-scope errors

	return results
}

// DecodeScope reconstructs a scope's text from its bond map. The
// identifier trail comes from the bond codec; formatting reinserts the
// separators the encoder skipped.
func (e *Engine) DecodeScope(ctx context.Context, m *bondmap.BondMap) (string, error) {
	start := time.Now()
	text, n, err := e.decodeScope(ctx, m)
	e.opts.metricsCollector.RecordDecode(time.Since(start), err)
	e.opts.logger.LogDecode(ctx, n, err)
	return text, err
}

func (e *Engine) decodeScope(ctx context.Context, m *bondmap.BondMap) (string, int, error) {
	if e.closed.Load() {
		return "", 0, ErrClosed
	}

	ids, err := m.Decode()
	if err != nil {
		return "", 0, err
	}

	units := make([]string, 0, len(ids))
	for _, id := range ids {
		text, err := e.ResolveText(ctx, id)
		if err != nil {
			return "", 0, err
		}
		// Phrase symbols cover several units; expand them back before
		// formatting so separator rules see the real unit boundaries.
		if id.Namespace() == symbol.NamespacePhrase {
			units = append(units, symbol.SplitUnits(text)...)
		} else {
			units = append(units, text)
		}
	}

	return bondmap.Format(units, bondmap.FormatRule{}), len(ids), nil
}

// ResolveText maps an identifier back to its symbol text, consulting
// the reverse cache before the store.
func (e *Engine) ResolveText(ctx context.Context, id symbol.ID) (string, error) {
	if e.closed.Load() {
		return "", ErrClosed
	}

	key := cache.Key{
		Space: cache.KeyspaceReverse,
		NS:    id.Namespace(),
		K:     string(id.AppendBinary(nil)),
	}
	if v, ok := e.cache.Get(key); ok && v.Kind == cache.ValueText {
		return v.Text, nil
	}

	text, ok, err := e.store.Text(ctx, id)
	if err != nil {
		return "", translateError(err)
	}
	if !ok {
		return "", &ErrUnknownSymbol{ID: id}
	}
	e.cache.Put(key, cache.TextValue(text))
	return text, nil
}

// RegisterSpan registers a multi-unit span in the phrase namespace so
// future encodes emit one identifier for the whole run. Registration is
// idempotent; re-registering a span returns its existing identifier.
func (e *Engine) RegisterSpan(ctx context.Context, units []string) (symbol.ID, error) {
	start := time.Now()
	id, err := e.registerSpan(ctx, units)
	e.opts.metricsCollector.RecordRegister(len(units), time.Since(start), err)
	e.opts.logger.LogRegister(ctx, len(units), err)
	return id, err
}

func (e *Engine) registerSpan(ctx context.Context, units []string) (symbol.ID, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	if len(units) < 2 {
		return 0, fmt.Errorf("span needs at least 2 units, got %d", len(units))
	}
	for _, u := range units {
		if u == "" {
			return 0, errors.New("span units must be non-empty")
		}
	}

	id, err := e.store.Mint(ctx, symbol.NamespacePhrase, symbol.JoinUnits(units))
	if err != nil {
		return 0, translateError(err)
	}

	// Cached continuation answers may now be stale: a prefix that was a
	// dead end can be partial, and a partial can be complete. Drop them
	// so the next walk re-queries the store.
	e.cache.Purge(cache.KeyspaceForward, func(k cache.Key) bool {
		return k.NS == symbol.NamespaceContinuation || k.NS == symbol.NamespacePhrase
	})

	return id, nil
}

// Manifest describes one archived scope. It is stored next to the
// payload blob and records the codec so archives are self-describing.
type Manifest struct {
	Scope       string    `json:"scope"`
	Blob        string    `json:"blob"`
	Codec       string    `json:"codec"`
	Compression string    `json:"compression"`
	Bonds       int       `json:"bonds"`
	CreatedAt   time.Time `json:"created_at"`
}

func archiveBlobName(scopeID uuid.UUID) string {
	return "scopes/" + scopeID.String() + ".sbm"
}

func manifestName(scopeID uuid.UUID) string {
	return "manifests/" + scopeID.String() + ".json"
}

// ArchiveScope persists a scope's bond map to the configured blob
// store.
func (e *Engine) ArchiveScope(ctx context.Context, scopeID uuid.UUID, m *bondmap.BondMap) error {
	start := time.Now()
	size, err := e.archiveScope(ctx, scopeID, m)
	e.opts.metricsCollector.RecordArchive(size, time.Since(start), err)
	e.opts.logger.LogArchive(ctx, archiveBlobName(scopeID), size, err)
	return err
}

func (e *Engine) archiveScope(ctx context.Context, scopeID uuid.UUID, m *bondmap.BondMap) (int, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	if e.opts.blobs == nil {
		return 0, ErrNoBlobStore
	}

	payload, err := bondmap.Marshal(m, e.opts.compression)
	if err != nil {
		return 0, err
	}

	manifest := Manifest{
		Scope:       scopeID.String(),
		Blob:        archiveBlobName(scopeID),
		Codec:       e.opts.codec.Name(),
		Compression: e.opts.compression.String(),
		Bonds:       m.Len(),
		CreatedAt:   time.Now().UTC(),
	}
	manifestData, err := e.opts.codec.Marshal(manifest)
	if err != nil {
		return 0, err
	}

	if err := e.opts.blobs.Put(ctx, manifest.Blob, payload); err != nil {
		return 0, translateError(err)
	}
	if err := e.opts.blobs.Put(ctx, manifestName(scopeID), manifestData); err != nil {
		return 0, translateError(err)
	}
	return len(payload), nil
}

// LoadScope reads an archived scope's bond map back from the blob
// store.
func (e *Engine) LoadScope(ctx context.Context, scopeID uuid.UUID) (*bondmap.BondMap, error) {
	start := time.Now()
	m, err := e.loadScope(ctx, scopeID)
	e.opts.metricsCollector.RecordLoad(time.Since(start), err)
	return m, err
}

func (e *Engine) loadScope(ctx context.Context, scopeID uuid.UUID) (*bondmap.BondMap, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if e.opts.blobs == nil {
		return nil, ErrNoBlobStore
	}

	manifestData, err := e.opts.blobs.Get(ctx, manifestName(scopeID))
	if err != nil {
		return nil, translateError(err)
	}

	mc, ok := codec.ByName(codecNameFromManifest(manifestData, e.opts.codec))
	if !ok {
		return nil, fmt.Errorf("manifest for scope %s uses unknown codec", scopeID)
	}
	var manifest Manifest
	if err := mc.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("manifest for scope %s: %w", scopeID, err)
	}

	payload, err := e.opts.blobs.Get(ctx, manifest.Blob)
	if err != nil {
		return nil, translateError(err)
	}
	return bondmap.Unmarshal(payload)
}

// codecNameFromManifest extracts the recorded codec name. Both built-in
// codecs are JSON-compatible, so peeking with the configured codec is
// safe.
func codecNameFromManifest(data []byte, fallback codec.Codec) string {
	var peek struct {
		Codec string `json:"codec"`
	}
	if err := fallback.Unmarshal(data, &peek); err == nil && peek.Codec != "" {
		return peek.Codec
	}
	return fallback.Name()
}

// CacheStats is a snapshot of the symbol cache counters.
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
	Fills   int64
}

// Stats returns current cache statistics.
func (e *Engine) Stats() CacheStats {
	hits, misses, fills := e.cache.Stats()
	return CacheStats{
		Entries: e.cache.Len(),
		Hits:    hits,
		Misses:  misses,
		Fills:   fills,
	}
}

// Close releases the engine. If a snapshot path is configured, the
// cache is persisted first so the next start resumes warm. Close is
// idempotent.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	if e.opts.snapshotPath != "" {
		err := e.cache.SaveSnapshot(e.opts.snapshotPath)
		e.opts.logger.LogSnapshot(context.Background(), e.opts.snapshotPath, err)
		if err != nil {
			closeErr := e.store.Close()
			return errors.Join(err, closeErr)
		}
	}
	return e.store.Close()
}

func mapLen(m *bondmap.BondMap) int {
	if m == nil {
		return 0
	}
	return m.Len()
}
