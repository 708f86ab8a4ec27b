package resolver

import (
	"context"
	"fmt"

	"github.com/stitchfork/seqbond/cache"
	"github.com/stitchfork/seqbond/store"
	"github.com/stitchfork/seqbond/symbol"
)

// DefaultRegistry wires the built-in handler per namespace: minting unit
// handlers for words and characters, the explicit phrase registry, and the
// tri-state continuation handler.
func DefaultRegistry(st store.Store) (*Registry, error) {
	return NewRegistry(map[symbol.Namespace]Handler{
		symbol.NamespaceWord:         &UnitHandler{NS: symbol.NamespaceWord, Store: st},
		symbol.NamespaceCharacter:    &UnitHandler{NS: symbol.NamespaceCharacter, Store: st},
		symbol.NamespacePhrase:       &PhraseHandler{Store: st},
		symbol.NamespaceContinuation: &ContinuationHandler{Store: st},
	})
}

// UnitHandler resolves single-unit namespaces (words, characters). On a
// store miss it mints a fresh identifier unless the handler is read-only,
// and always pairs the primary entry with its reverse-lookup entry so the
// decode path never needs a store round trip for known symbols.
type UnitHandler struct {
	NS    symbol.Namespace
	Store store.Store

	// ReadOnly disables minting; unknown units surface ErrNoMatch.
	ReadOnly bool
}

// Resolve implements Handler.
func (h *UnitHandler) Resolve(ctx context.Context, key string, _ ScopeContext) (Resolution, error) {
	id, ok, err := h.Store.Lookup(ctx, h.NS, key)
	if err != nil {
		return Resolution{}, err
	}
	if !ok {
		if h.ReadOnly {
			return Resolution{}, fmt.Errorf("%w: %s %q", ErrNoMatch, h.NS, key)
		}
		id, err = h.Store.Mint(ctx, h.NS, key)
		if err != nil {
			return Resolution{}, err
		}
	}
	return Resolution{
		Value: cache.IDValue(id),
		Aux: []cache.Write{{
			Key:   cache.Key{Space: cache.KeyspaceReverse, NS: h.NS, K: string(id.AppendBinary(nil))},
			Value: cache.TextValue(key),
		}},
	}, nil
}

// PhraseHandler resolves the phrase namespace. Phrases are registered
// explicitly (see Engine.RegisterSpan), never minted on the fly, so an
// unknown phrase is ErrNoMatch.
type PhraseHandler struct {
	Store store.Store
}

// Resolve implements Handler.
func (h *PhraseHandler) Resolve(ctx context.Context, key string, _ ScopeContext) (Resolution, error) {
	id, ok, err := h.Store.Lookup(ctx, symbol.NamespacePhrase, key)
	if err != nil {
		return Resolution{}, err
	}
	if !ok {
		return Resolution{}, fmt.Errorf("%w: phrase %q", ErrNoMatch, key)
	}
	return Resolution{
		Value: cache.IDValue(id),
		Aux: []cache.Write{{
			Key:   cache.Key{Space: cache.KeyspaceReverse, NS: symbol.NamespacePhrase, K: string(id.AppendBinary(nil))},
			Value: cache.TextValue(key),
		}},
	}, nil
}

// ContinuationHandler answers tri-state continuation queries from the
// registered phrase spans. All three outcomes are cacheable values,
// including the negative: the phrase registry is append-only, so a
// no-match only flips after an explicit span registration plus purge.
type ContinuationHandler struct {
	Store store.Store
}

// Resolve implements Handler.
func (h *ContinuationHandler) Resolve(ctx context.Context, key string, _ ScopeContext) (Resolution, error) {
	state, id, err := h.Store.PrefixState(ctx, symbol.NamespacePhrase, key)
	if err != nil {
		return Resolution{}, err
	}
	switch state {
	case store.PrefixComplete:
		return Resolution{
			Value: cache.IDValue(id),
			Aux: []cache.Write{{
				Key:   cache.Key{Space: cache.KeyspaceReverse, NS: symbol.NamespacePhrase, K: string(id.AppendBinary(nil))},
				Value: cache.TextValue(key),
			}},
		}, nil
	case store.PrefixPartial:
		return Resolution{Value: cache.Partial()}, nil
	default:
		return Resolution{}, fmt.Errorf("%w: continuation %q", ErrNoMatch, key)
	}
}
