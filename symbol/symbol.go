package symbol

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Namespace partitions the identifier space. The set is closed: handlers
// and cache sub-spaces are enumerated at startup, never discovered at
// first use.
type Namespace uint8

const (
	NamespaceUnknown Namespace = iota
	NamespaceWord
	NamespaceCharacter
	NamespacePhrase
	NamespaceContinuation

	// numNamespaces bounds arrays indexed by Namespace.
	numNamespaces
)

// Namespaces lists every valid namespace in declaration order.
// Registry construction iterates this to verify handler completeness.
func Namespaces() []Namespace {
	return []Namespace{NamespaceWord, NamespaceCharacter, NamespacePhrase, NamespaceContinuation}
}

// Count returns the number of valid namespaces, excluding NamespaceUnknown.
func Count() int { return int(numNamespaces) - 1 }

// Valid reports whether ns is a known namespace.
func (ns Namespace) Valid() bool {
	return ns > NamespaceUnknown && ns < numNamespaces
}

// AllowsNegative reports whether a failed resolution in this namespace may
// be recorded as a cached negative. The continuation namespace caches
// negatives (a "no-match" tri-state is a first-class value there); unit
// namespaces surface unresolvable symbols to the caller instead, so that an
// approximate-resolution collaborator can still be consulted.
func (ns Namespace) AllowsNegative() bool {
	return ns == NamespaceContinuation
}

func (ns Namespace) String() string {
	switch ns {
	case NamespaceWord:
		return "word"
	case NamespaceCharacter:
		return "character"
	case NamespacePhrase:
		return "phrase"
	case NamespaceContinuation:
		return "continuation"
	default:
		return fmt.Sprintf("namespace(%d)", uint8(ns))
	}
}

// ParseNamespace maps a namespace name back to its tag.
func ParseNamespace(s string) (Namespace, bool) {
	switch s {
	case "word":
		return NamespaceWord, true
	case "character":
		return NamespaceCharacter, true
	case "phrase":
		return NamespacePhrase, true
	case "continuation":
		return NamespaceContinuation, true
	default:
		return NamespaceUnknown, false
	}
}

// UnitSep joins raw input units into multi-unit keys (continuation
// prefixes, registered span texts). It is a control byte so it cannot
// collide with unit content, which keeps prefix scans aligned to unit
// boundaries.
const UnitSep = "\x1f"

// JoinUnits builds the canonical multi-unit key for a span of units.
func JoinUnits(units []string) string {
	return strings.Join(units, UnitSep)
}

// SplitUnits is the inverse of JoinUnits.
func SplitUnits(key string) []string {
	return strings.Split(key, UnitSep)
}

const (
	nsShift = 56
	ordMask = (uint64(1) << nsShift) - 1
)

// ID is an immutable, namespaced symbol identifier. The top 8 bits carry
// the namespace tag, the low 56 bits the per-namespace ordinal. Identifiers
// are minted exactly once per distinct symbol and never reused.
//
// The zero ID is invalid and doubles as the "no identifier" value.
type ID uint64

// MakeID packs a namespace and per-namespace ordinal into an ID.
// Ordinals start at 1; MakeID(ns, 0) yields an invalid ID on purpose.
func MakeID(ns Namespace, ordinal uint64) ID {
	return ID(uint64(ns)<<nsShift | ordinal&ordMask)
}

// Namespace returns the namespace tag embedded in the identifier.
func (id ID) Namespace() Namespace {
	return Namespace(uint64(id) >> nsShift)
}

// Ordinal returns the per-namespace ordinal.
func (id ID) Ordinal() uint64 {
	return uint64(id) & ordMask
}

// IsZero reports whether id is the invalid zero identifier.
func (id ID) IsZero() bool { return id == 0 }

// String renders the identifier as "namespace:ordinal".
func (id ID) String() string {
	return id.Namespace().String() + ":" + strconv.FormatUint(id.Ordinal(), 10)
}

// ParseID parses the "namespace:ordinal" form produced by String.
func ParseID(s string) (ID, error) {
	name, ord, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("malformed symbol id %q", s)
	}
	ns, ok := ParseNamespace(name)
	if !ok {
		return 0, fmt.Errorf("unknown namespace in symbol id %q", s)
	}
	n, err := strconv.ParseUint(ord, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed symbol id %q: %w", s, err)
	}
	if n > ordMask {
		return 0, fmt.Errorf("symbol ordinal out of range in %q", s)
	}
	return MakeID(ns, n), nil
}

// AppendBinary appends the 8-byte little-endian encoding of id.
// This is the on-disk and on-wire form used by bond map persistence and
// the cache snapshot format.
func (id ID) AppendBinary(dst []byte) []byte {
	return binary.LittleEndian.AppendUint64(dst, uint64(id))
}

// IDFromBinary decodes an identifier written by AppendBinary.
func IDFromBinary(b []byte) (ID, error) {
	if len(b) < 8 {
		return 0, fmt.Errorf("short symbol id encoding: %d bytes", len(b))
	}
	return ID(binary.LittleEndian.Uint64(b)), nil
}
