package cache

import (
	"fmt"

	"github.com/stitchfork/seqbond/symbol"
)

// Keyspace separates lookup directions within one symbol namespace.
type Keyspace uint8

const (
	KeyspaceUnknown Keyspace = iota
	KeyspaceForward          // symbol text -> identifier
	KeyspaceReverse          // identifier -> symbol text
)

func (s Keyspace) String() string {
	switch s {
	case KeyspaceForward:
		return "forward"
	case KeyspaceReverse:
		return "reverse"
	default:
		return fmt.Sprintf("keyspace(%d)", uint8(s))
	}
}

// Key addresses one cache entry. Keys must be stable across processes:
// the snapshot format persists them verbatim.
//
// K is opaque to the cache. Forward keys carry the raw unit or the
// unit-joined continuation prefix; reverse keys carry the binary ID form.
type Key struct {
	Space Keyspace
	NS    symbol.Namespace
	K     string
}

func (k Key) String() string {
	return k.NS.String() + "/" + k.Space.String() + "/" + k.K
}

// ValueKind discriminates cache entry payloads.
type ValueKind uint8

const (
	ValueUnknown ValueKind = iota
	// ValueID is a resolved identifier; in the continuation namespace it is
	// the complete-match state.
	ValueID
	// ValueText is a reverse-lookup payload (identifier -> symbol text).
	ValueText
	// ValueNoMatch is a cached negative. The backing store is append-only,
	// so a negative never goes stale short of an explicit purge.
	ValueNoMatch
	// ValuePartial marks a continuation prefix that extends at least one
	// registered span but completes none.
	ValuePartial
)

func (k ValueKind) String() string {
	switch k {
	case ValueID:
		return "id"
	case ValueText:
		return "text"
	case ValueNoMatch:
		return "no-match"
	case ValuePartial:
		return "partial-match"
	default:
		return fmt.Sprintf("valuekind(%d)", uint8(k))
	}
}

// Value is a cache entry payload. Exactly one of ID/Text is meaningful,
// selected by Kind; the sentinel kinds carry no payload at all.
type Value struct {
	Kind ValueKind
	ID   symbol.ID
	Text string
}

// IDValue wraps a resolved identifier.
func IDValue(id symbol.ID) Value { return Value{Kind: ValueID, ID: id} }

// TextValue wraps a reverse-lookup text payload.
func TextValue(text string) Value { return Value{Kind: ValueText, Text: text} }

// NoMatch is the cached-negative sentinel.
func NoMatch() Value { return Value{Kind: ValueNoMatch} }

// Partial is the continuation partial-match sentinel.
func Partial() Value { return Value{Kind: ValuePartial} }

// Write pairs a key with its value for batch fills.
type Write struct {
	Key   Key
	Value Value
}
