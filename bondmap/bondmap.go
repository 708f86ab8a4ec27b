package bondmap

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/stitchfork/seqbond/symbol"
)

// Bond is an ordered pair of sequence-adjacent identifiers: B directly
// follows A somewhere in the scope.
type Bond struct {
	A, B symbol.ID
}

func (b Bond) String() string {
	return fmt.Sprintf("(%s -> %s)", b.A, b.B)
}

// BondMap is the compressed form of one scope: every Bond with its
// recurrence count, plus the first and last identifier as anchors. Viewed
// as a directed multigraph it satisfies the Eulerian-trail balance
// condition, which is what makes reconstruction possible.
//
// A BondMap is immutable once built; re-encoding a changed scope replaces
// it rather than editing it.
type BondMap struct {
	counts     map[Bond]uint32
	start, end symbol.ID
}

// Start returns the start anchor.
func (m *BondMap) Start() symbol.ID { return m.start }

// End returns the end anchor.
func (m *BondMap) End() symbol.ID { return m.end }

// Count returns the recurrence count of a bond.
func (m *BondMap) Count(a, b symbol.ID) uint32 {
	return m.counts[Bond{a, b}]
}

// Len returns the number of distinct bonds.
func (m *BondMap) Len() int { return len(m.counts) }

// Edges returns the total edge count including recurrences.
func (m *BondMap) Edges() uint64 {
	var total uint64
	for _, c := range m.counts {
		total += uint64(c)
	}
	return total
}

// Empty reports whether the map holds no identifiers at all.
func (m *BondMap) Empty() bool {
	return len(m.counts) == 0 && m.start.IsZero() && m.end.IsZero()
}

// Bonds returns the bonds in canonical (A, B) order.
func (m *BondMap) Bonds() []Bond {
	bonds := make([]Bond, 0, len(m.counts))
	for b := range m.counts {
		bonds = append(bonds, b)
	}
	sort.Slice(bonds, func(i, j int) bool {
		if bonds[i].A != bonds[j].A {
			return bonds[i].A < bonds[j].A
		}
		return bonds[i].B < bonds[j].B
	})
	return bonds
}

// Symbols returns the set of distinct identifiers the map touches.
func (m *BondMap) Symbols() *roaring64.Bitmap {
	set := roaring64.New()
	if !m.start.IsZero() {
		set.Add(uint64(m.start))
	}
	if !m.end.IsZero() {
		set.Add(uint64(m.end))
	}
	for b := range m.counts {
		set.Add(uint64(b.A))
		set.Add(uint64(b.B))
	}
	return set
}

// Validate checks the Eulerian-trail balance condition: every identifier
// except the anchors has equal in- and out-degree; the start anchor has
// one surplus out-edge and the end anchor one surplus in-edge (or the
// scope is a single symbol and the anchors coincide with no edges).
func (m *BondMap) Validate() error {
	if m.Empty() {
		return nil
	}
	if m.start.IsZero() || m.end.IsZero() {
		return fmt.Errorf("bond map has edges but missing anchors")
	}
	if len(m.counts) == 0 {
		// Single-symbol scope.
		if m.start != m.end {
			return fmt.Errorf("edgeless bond map with distinct anchors %s and %s", m.start, m.end)
		}
		return nil
	}

	out := make(map[symbol.ID]int64)
	in := make(map[symbol.ID]int64)
	for b, c := range m.counts {
		out[b.A] += int64(c)
		in[b.B] += int64(c)
	}

	if m.start == m.end {
		// Closed trail: perfectly balanced everywhere.
		for id, o := range out {
			if o != in[id] {
				return fmt.Errorf("identifier %s unbalanced: out=%d in=%d", id, o, in[id])
			}
		}
		for id, i := range in {
			if _, seen := out[id]; !seen && i != 0 {
				return fmt.Errorf("identifier %s unbalanced: out=0 in=%d", id, i)
			}
		}
		return nil
	}

	for id := range mergeKeys(out, in) {
		o, i := out[id], in[id]
		switch id {
		case m.start:
			if o-i != 1 {
				return fmt.Errorf("start anchor %s: out-in=%d, want 1", id, o-i)
			}
		case m.end:
			if i-o != 1 {
				return fmt.Errorf("end anchor %s: in-out=%d, want 1", id, i-o)
			}
		default:
			if o != i {
				return fmt.Errorf("identifier %s unbalanced: out=%d in=%d", id, o, i)
			}
		}
	}
	return nil
}

func mergeKeys(a, b map[symbol.ID]int64) map[symbol.ID]struct{} {
	keys := make(map[symbol.ID]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	return keys
}
