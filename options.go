package seqbond

import (
	"log/slog"

	"github.com/stitchfork/seqbond/approx"
	"github.com/stitchfork/seqbond/blobstore"
	"github.com/stitchfork/seqbond/bondmap"
	"github.com/stitchfork/seqbond/codec"
	"github.com/stitchfork/seqbond/resolver"
	"github.com/stitchfork/seqbond/symbol"
	"github.com/stitchfork/seqbond/tokenizer"
)

type options struct {
	codec            codec.Codec
	compression      bondmap.Compression
	blobs            blobstore.BlobStore
	registry         *resolver.Registry
	resolverOptions  []func(*resolver.Options)
	unitNamespace    symbol.Namespace
	splitter         func(string) []string
	skip             bondmap.SkipFunc
	fallback         approx.CandidateSource
	metricsCollector MetricsCollector
	logger           *Logger
	snapshotPath     string
}

// Option configures Engine constructor behavior.
//
// Options primarily exist to avoid exploding the API surface
// (e.g. codec-specific constructor variants).
type Option func(*options)

// WithCodec configures the codec used for archive manifests.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression selects the payload compression for archived scopes.
// The default is zstd.
func WithCompression(comp bondmap.Compression) Option {
	return func(o *options) {
		o.compression = comp
	}
}

// WithBlobStore configures archive storage. Archive operations fail
// with ErrNoBlobStore when no store is set.
func WithBlobStore(bs blobstore.BlobStore) Option {
	return func(o *options) {
		o.blobs = bs
	}
}

// WithRegistry overrides the default namespace handler registry.
// Use this to plug custom resolution handlers, e.g. a read-only unit
// namespace or an alternate phrase source.
func WithRegistry(reg *resolver.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithResolverOptions forwards options to the miss resolver
// (concurrency limits, retry policy, store pacing).
func WithResolverOptions(optFns ...func(*resolver.Options)) Option {
	return func(o *options) {
		o.resolverOptions = append(o.resolverOptions, optFns...)
	}
}

// WithUnitNamespace sets the namespace single units resolve in.
// The default is symbol.NamespaceWord.
func WithUnitNamespace(ns symbol.Namespace) Option {
	return func(o *options) {
		o.unitNamespace = ns
	}
}

// WithSplitter sets the function that breaks raw input into units.
// The default is tokenizer.Words.
func WithSplitter(split func(string) []string) Option {
	return func(o *options) {
		o.splitter = split
	}
}

// WithSkip marks identifiers to exclude from bond maps (typically
// separator symbols). Skipped identifiers never appear in the encoded
// graph; formatting reinserts them on decode.
func WithSkip(skip bondmap.SkipFunc) Option {
	return func(o *options) {
		o.skip = skip
	}
}

// WithFallback configures approximate matching for units the store
// cannot resolve exactly.
func WithFallback(source approx.CandidateSource) Option {
	return func(o *options) {
		o.fallback = source
	}
}

// WithSnapshotPath configures the path for cache snapshots. When set,
// the engine loads the snapshot on startup (if present) and saves one
// on Close, so a restarted process resumes with a warm cache.
func WithSnapshotPath(path string) Option {
	return func(o *options) {
		o.snapshotPath = path
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &seqbond.BasicMetricsCollector{}
//	eng, _ := seqbond.NewEngine(st, seqbond.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Encodes: %d, Avg latency: %dns\n", stats.EncodeCount, stats.EncodeAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := seqbond.NewJSONLogger(slog.LevelInfo)
//	eng, _ := seqbond.NewEngine(st, seqbond.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compression:      bondmap.CompressionZstd,
		unitNamespace:    symbol.NamespaceWord,
		splitter:         tokenizer.Words,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
