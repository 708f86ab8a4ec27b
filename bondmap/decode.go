package bondmap

import (
	"container/heap"
	"fmt"

	"github.com/stitchfork/seqbond/symbol"
)

// ErrMalformedBondMap indicates a bond map that admits no trail from the
// start anchor to the end anchor consuming every edge: part of the graph
// is unreachable, or the walk terminates away from the declared end.
// Decode fails closed: it never fabricates a plausible continuation.
type ErrMalformedBondMap struct {
	Node      symbol.ID
	Consumed  uint64
	Remaining uint64
}

func (e *ErrMalformedBondMap) Error() string {
	return fmt.Sprintf("malformed bond map: stuck at %s after %d edges with %d remaining",
		e.Node, e.Consumed, e.Remaining)
}

// Decode reconstructs an identifier sequence from the bond map by walking
// an Eulerian trail from the start anchor to the end anchor (Hierholzer's
// algorithm). Reaching the end anchor with edges still unused is not
// fatal: the walk unwinds and splices the leftover sub-cycles in where
// they attach, so every graph that admits a trail decodes to one.
//
// Tie-break rule: when an identifier has several unused outgoing edges,
// the walk tries the one with the highest remaining count first, breaking
// ties by the smallest target identifier. This makes Decode deterministic;
// the result is byte-identical to the original sequence only when the
// graph admits a unique trail. Graphs with repeated short cycles can be
// genuinely ambiguous, and then Decode returns one valid ordering of them.
func (m *BondMap) Decode() ([]symbol.ID, error) {
	if m.Empty() {
		return nil, nil
	}

	remaining := m.Edges()
	if remaining == 0 {
		// Single-symbol scope.
		return []symbol.ID{m.start}, nil
	}

	adj := make(map[symbol.ID]*edgeHeap, len(m.counts))
	for _, b := range m.Bonds() {
		h := adj[b.A]
		if h == nil {
			h = &edgeHeap{}
			adj[b.A] = h
		}
		h.items = append(h.items, &edgeItem{target: b.B, remaining: m.counts[b]})
	}
	for _, h := range adj {
		heap.Init(h)
	}

	// Extend from the top of the stack while unused edges remain there;
	// otherwise the node is finished, so pop it onto the trail. Finished
	// nodes come out back to front.
	total := remaining
	stack := make([]symbol.ID, 1, remaining+1)
	stack[0] = m.start
	trail := make([]symbol.ID, 0, remaining+1)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		if h := adj[cur]; h != nil && h.Len() > 0 {
			stack = append(stack, h.consume())
			remaining--
		} else {
			trail = append(trail, cur)
			stack = stack[:len(stack)-1]
		}
	}

	// trail[0] is where the walk first ran out of edges: the trail's true
	// terminal node.
	if remaining > 0 {
		return nil, &ErrMalformedBondMap{Node: trail[0], Consumed: total - remaining, Remaining: remaining}
	}
	if trail[0] != m.end {
		return nil, &ErrMalformedBondMap{Node: trail[0], Consumed: total, Remaining: 0}
	}

	for i, j := 0, len(trail)-1; i < j; i, j = i+1, j-1 {
		trail[i], trail[j] = trail[j], trail[i]
	}
	return trail, nil
}

// edgeItem is one distinct outgoing bond with its unused multiplicity.
type edgeItem struct {
	target    symbol.ID
	remaining uint32
	index     int
}

// edgeHeap orders a node's unused out-edges by the decode tie-break rule:
// highest remaining count first, then smallest target identifier.
type edgeHeap struct {
	items []*edgeItem
}

var _ heap.Interface = (*edgeHeap)(nil)

func (h *edgeHeap) Len() int { return len(h.items) }

func (h *edgeHeap) Less(i, j int) bool {
	if h.items[i].remaining != h.items[j].remaining {
		return h.items[i].remaining > h.items[j].remaining
	}
	return h.items[i].target < h.items[j].target
}

func (h *edgeHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *edgeHeap) Push(x any) {
	item := x.(*edgeItem)
	item.index = len(h.items)
	h.items = append(h.items, item)
}

func (h *edgeHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	return item
}

// consume takes one edge off the best item and returns its target.
func (h *edgeHeap) consume() symbol.ID {
	top := h.items[0]
	target := top.target
	top.remaining--
	if top.remaining == 0 {
		heap.Pop(h)
	} else {
		heap.Fix(h, 0)
	}
	return target
}
