package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/stitchfork/seqbond/symbol"
)

var (
	// ErrUnavailable wraps transient backend failures. Callers may retry
	// with bounded backoff; the resolver does.
	ErrUnavailable = errors.New("store unavailable")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store closed")
)

// PrefixState is the tri-state answer to a scoped prefix query.
type PrefixState uint8

const (
	// PrefixNone: the prefix neither matches nor extends any registered span.
	PrefixNone PrefixState = iota
	// PrefixPartial: at least one registered span starts with the prefix
	// at a unit boundary, but none equals it.
	PrefixPartial
	// PrefixComplete: the prefix exactly matches a registered span.
	PrefixComplete
)

func (s PrefixState) String() string {
	switch s {
	case PrefixNone:
		return "none"
	case PrefixPartial:
		return "partial"
	case PrefixComplete:
		return "complete"
	default:
		return fmt.Sprintf("prefixstate(%d)", uint8(s))
	}
}

// Store is the authoritative, append-only registry of canonical symbol
// definitions. Identifiers are minted exactly once per distinct
// (namespace, text) pair and are never deleted or renumbered.
//
// Implementations must be safe for concurrent use and must make Mint
// idempotent: concurrent mints of the same text observe one identifier
// and exactly one stored row.
type Store interface {
	// Lookup resolves symbol text to its identifier, if minted.
	Lookup(ctx context.Context, ns symbol.Namespace, text string) (symbol.ID, bool, error)

	// Text resolves an identifier back to its symbol text.
	Text(ctx context.Context, id symbol.ID) (string, bool, error)

	// Mint returns the identifier for text, creating it on first use.
	Mint(ctx context.Context, ns symbol.Namespace, text string) (symbol.ID, error)

	// PrefixState answers the tri-state continuation query over the
	// registered spans of ns. Prefixes and span texts are unit-joined
	// with symbol.UnitSep; partial matches respect unit boundaries.
	// On PrefixComplete the matching span's identifier is returned.
	PrefixState(ctx context.Context, ns symbol.Namespace, prefix string) (PrefixState, symbol.ID, error)

	Close() error
}
