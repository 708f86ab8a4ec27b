package tokenizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stitchfork/seqbond/approx"
	"github.com/stitchfork/seqbond/cache"
	"github.com/stitchfork/seqbond/resolver"
	"github.com/stitchfork/seqbond/symbol"
)

// Span is one resolved stretch of input: a single unit, or a multi-unit
// recognized span covered by one phrase identifier.
type Span struct {
	ID    symbol.ID
	Units []string

	// Unresolved marks a span whose units could not be mapped to an
	// identifier. The caller decides whether to skip it, substitute a
	// placeholder, or abort the scope.
	Unresolved bool
}

// Options configures a Tokenizer.
type Options struct {
	// UnitNamespace is the namespace single units resolve in.
	UnitNamespace symbol.Namespace

	// Fallback, if set, is consulted for units the store cannot resolve.
	// The highest-ranked candidate wins; an empty candidate set leaves
	// the span unresolved.
	Fallback approx.CandidateSource

	// Logger receives walk diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Tokenizer maps raw input units to identifier sequences via the
// continuation walk: it grows a prefix while the continuation namespace
// reports partial matches, emits a phrase identifier on a complete match,
// and falls back to unit-by-unit resolution when a prefix dead-ends.
//
// The same walk handles ordinary tokenization and long recognized spans
// (repeated boilerplate); there is no special-cased multi-unit path.
type Tokenizer struct {
	res      *resolver.Resolver
	unitNS   symbol.Namespace
	fallback approx.CandidateSource
	log      *slog.Logger
}

// New creates a Tokenizer over a resolver.
func New(res *resolver.Resolver, optFns ...func(*Options)) *Tokenizer {
	opts := Options{UnitNamespace: symbol.NamespaceWord}
	for _, fn := range optFns {
		fn(&opts)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Tokenizer{
		res:      res,
		unitNS:   opts.UnitNamespace,
		fallback: opts.Fallback,
		log:      log,
	}
}

// Tokenize runs the continuation walk over units and returns the resolved
// spans in order. Unresolvable units are surfaced as unresolved spans, not
// errors; only backend failures abort the walk.
func (t *Tokenizer) Tokenize(ctx context.Context, scopeID uuid.UUID, units []string) ([]Span, error) {
	var spans []Span
	var pending []string

	sc := func(pos int) resolver.ScopeContext {
		return resolver.ScopeContext{ScopeID: scopeID, Position: pos}
	}

	for i := 0; i < len(units); i++ {
		u := units[i]
		if len(pending) == 0 {
			pending = append(pending, u)
			continue
		}

		key := symbol.JoinUnits(append(pending[:len(pending):len(pending)], u))
		v, err := t.continuation(ctx, key, sc(i))
		if err != nil {
			return nil, err
		}

		switch v.Kind {
		case cache.ValueID:
			// Complete match covers the whole extended prefix.
			spans = append(spans, Span{ID: v.ID, Units: append(pending, u)})
			pending = nil

		case cache.ValuePartial:
			pending = append(pending, u)

		case cache.ValueNoMatch:
			emitted, err := t.emitPrefix(ctx, pending, sc(i))
			if err != nil {
				return nil, err
			}
			spans = append(spans, emitted...)
			// Restart accumulation at the unconsumed unit.
			pending = []string{u}

		default:
			return nil, fmt.Errorf("unexpected continuation value kind %s for %q", v.Kind, key)
		}
	}

	if len(pending) > 0 {
		emitted, err := t.emitPrefix(ctx, pending, sc(len(units)))
		if err != nil {
			return nil, err
		}
		spans = append(spans, emitted...)
	}
	return spans, nil
}

// continuation answers the tri-state query for key. A cache miss is
// resolved before the walk proceeds; treating it as a false no-match
// would silently fragment a recognizable span.
func (t *Tokenizer) continuation(ctx context.Context, key string, sc resolver.ScopeContext) (cache.Value, error) {
	return t.res.Resolve(ctx, symbol.NamespaceContinuation, key, sc)
}

// emitPrefix flushes an accumulated prefix. A one-unit prefix resolves in
// the unit namespace. A longer prefix that itself is a complete span emits
// as one phrase; otherwise it never completed and is emitted unit-by-unit.
func (t *Tokenizer) emitPrefix(ctx context.Context, pending []string, sc resolver.ScopeContext) ([]Span, error) {
	if len(pending) == 1 {
		span, err := t.resolveUnit(ctx, pending[0], sc)
		if err != nil {
			return nil, err
		}
		return []Span{span}, nil
	}

	v, err := t.continuation(ctx, symbol.JoinUnits(pending), sc)
	if err != nil {
		return nil, err
	}
	if v.Kind == cache.ValueID {
		return []Span{{ID: v.ID, Units: pending}}, nil
	}

	spans := make([]Span, 0, len(pending))
	for _, u := range pending {
		span, err := t.resolveUnit(ctx, u, sc)
		if err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}
	return spans, nil
}

func (t *Tokenizer) resolveUnit(ctx context.Context, u string, sc resolver.ScopeContext) (Span, error) {
	v, err := t.res.Resolve(ctx, t.unitNS, u, sc)
	if err == nil {
		return Span{ID: v.ID, Units: []string{u}}, nil
	}

	var unresolvable *resolver.ErrUnresolvableSymbol
	if !errors.As(err, &unresolvable) {
		return Span{}, err
	}

	if t.fallback != nil {
		candidates, ferr := t.fallback.Candidates(ctx, u, approx.Context{ScopeID: sc.ScopeID.String(), Position: sc.Position})
		if ferr != nil {
			t.log.Warn("fallback candidate source failed", "unit", u, "error", ferr)
		} else if len(candidates) > 0 {
			t.log.Debug("unit resolved via fallback", "unit", u, "id", candidates[0].ID.String())
			return Span{ID: candidates[0].ID, Units: []string{u}}, nil
		}
	}

	t.log.Debug("unresolvable unit", "unit", u, "namespace", t.unitNS.String())
	return Span{Units: []string{u}, Unresolved: true}, nil
}

// IDs projects resolved spans onto the identifier sequence, skipping
// unresolved spans.
func IDs(spans []Span) []symbol.ID {
	ids := make([]symbol.ID, 0, len(spans))
	for _, s := range spans {
		if !s.Unresolved {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
