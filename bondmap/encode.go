package bondmap

import (
	"github.com/stitchfork/seqbond/symbol"
)

// SkipFunc reports identifiers that are boundary-skippable: they are
// bypassed when choosing the next relevant identifier for bonding. Such
// units are reinserted by the formatting step on decode, never stored in
// the graph. A nil SkipFunc skips nothing.
type SkipFunc func(symbol.ID) bool

// Encode compresses an identifier sequence into its bond map. Runs in
// O(n) time and O(distinct bonds) space; the more repetitive the bond
// structure, the better the compression.
//
// Anchors are recorded over the bonded (non-skippable) subsequence. A
// sequence of only skippable identifiers encodes to an empty map.
func Encode(ids []symbol.ID, skip SkipFunc) *BondMap {
	m := &BondMap{counts: make(map[Bond]uint32)}

	prev := symbol.ID(0)
	for _, id := range ids {
		if skip != nil && skip(id) {
			continue
		}
		if m.start.IsZero() {
			m.start = id
		} else {
			m.counts[Bond{prev, id}]++
		}
		prev = id
	}
	m.end = prev
	return m
}
