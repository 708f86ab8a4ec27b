package cache

import (
	"hash/fnv"
	"iter"
	"math/bits"
)

// The cache's read path must never block on a writer, so entries live in an
// immutable hash-array-mapped trie: every insert derives a new trie sharing
// all untouched nodes, and readers keep traversing whichever root they
// loaded. Path copying is O(log n) per insert.

const (
	hamtChunk = 6
	hamtMask  = (1 << hamtChunk) - 1
)

func hashKey(k Key) uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(k.Space), byte(k.NS)})
	h.Write([]byte(k.K))
	return h.Sum64()
}

// hamt is an immutable Key -> Value trie. The zero value is empty and ready
// to use via the package functions; all mutating operations return a new trie.
type hamt struct {
	root  *hamtNode
	count int
}

type hamtNode struct {
	bitmap   uint64
	children []*hamtNode

	// Leaf data
	key    Key
	val    Value
	isLeaf bool

	// Full-hash collisions chain here instead of splitting further.
	collision []hamtEntry
}

type hamtEntry struct {
	key Key
	val Value
}

func (t *hamt) lookup(k Key) (Value, bool) {
	if t == nil || t.root == nil {
		return Value{}, false
	}
	return t.root.lookup(k, hashKey(k), 0)
}

func (n *hamtNode) lookup(k Key, hash uint64, shift int) (Value, bool) {
	if n.isLeaf {
		if len(n.collision) > 0 {
			for _, e := range n.collision {
				if e.key == k {
					return e.val, true
				}
			}
			return Value{}, false
		}
		if n.key == k {
			return n.val, true
		}
		return Value{}, false
	}

	idx := (hash >> shift) & hamtMask
	bit := uint64(1) << idx
	if n.bitmap&bit == 0 {
		return Value{}, false
	}
	childIdx := bits.OnesCount64(n.bitmap & (bit - 1))
	return n.children[childIdx].lookup(k, hash, shift+hamtChunk)
}

// insert returns a trie containing (k, v). Existing entries for k are
// replaced; the receiver is left untouched.
func (t *hamt) insert(k Key, v Value) *hamt {
	if t == nil {
		t = &hamt{}
	}
	newRoot, added := insertRec(t.root, k, hashKey(k), v, 0)
	count := t.count
	if added {
		count++
	}
	return &hamt{root: newRoot, count: count}
}

func insertRec(n *hamtNode, k Key, hash uint64, v Value, shift int) (*hamtNode, bool) {
	if n == nil {
		return &hamtNode{key: k, val: v, isLeaf: true}, true
	}

	if n.isLeaf {
		if len(n.collision) > 0 {
			cloned := make([]hamtEntry, len(n.collision))
			copy(cloned, n.collision)
			for i, e := range cloned {
				if e.key == k {
					cloned[i].val = v
					return &hamtNode{isLeaf: true, collision: cloned}, false
				}
			}
			existingHash := hashKey(cloned[0].key)
			if existingHash == hash || shift >= 64 {
				return &hamtNode{isLeaf: true, collision: append(cloned, hamtEntry{k, v})}, true
			}
			return splitLeaf(n, existingHash, k, hash, v, shift)
		}

		if n.key == k {
			return &hamtNode{key: k, val: v, isLeaf: true}, false
		}

		existingHash := hashKey(n.key)
		if existingHash == hash || shift >= 64 {
			return &hamtNode{
				isLeaf:    true,
				collision: []hamtEntry{{n.key, n.val}, {k, v}},
			}, true
		}
		return splitLeaf(n, existingHash, k, hash, v, shift)
	}

	idx := (hash >> shift) & hamtMask
	bit := uint64(1) << idx
	childIdx := bits.OnesCount64(n.bitmap & (bit - 1))

	if n.bitmap&bit == 0 {
		children := make([]*hamtNode, len(n.children)+1)
		copy(children, n.children[:childIdx])
		children[childIdx] = &hamtNode{key: k, val: v, isLeaf: true}
		copy(children[childIdx+1:], n.children[childIdx:])
		return &hamtNode{bitmap: n.bitmap | bit, children: children}, true
	}

	newChild, added := insertRec(n.children[childIdx], k, hash, v, shift+hamtChunk)
	children := make([]*hamtNode, len(n.children))
	copy(children, n.children)
	children[childIdx] = newChild
	return &hamtNode{bitmap: n.bitmap, children: children}, added
}

// splitLeaf pushes an existing leaf one level down so it can coexist with
// the new entry.
func splitLeaf(leaf *hamtNode, leafHash uint64, k Key, hash uint64, v Value, shift int) (*hamtNode, bool) {
	branch := &hamtNode{}
	leafIdx := (leafHash >> shift) & hamtMask
	newIdx := (hash >> shift) & hamtMask

	if leafIdx == newIdx {
		child, _ := insertRec(leaf, k, hash, v, shift+hamtChunk)
		branch.bitmap = uint64(1) << leafIdx
		branch.children = []*hamtNode{child}
		return branch, true
	}

	newLeaf := &hamtNode{key: k, val: v, isLeaf: true}
	branch.bitmap = uint64(1)<<leafIdx | uint64(1)<<newIdx
	if leafIdx < newIdx {
		branch.children = []*hamtNode{leaf, newLeaf}
	} else {
		branch.children = []*hamtNode{newLeaf, leaf}
	}
	return branch, true
}

// all yields every entry in unspecified order.
func (t *hamt) all() iter.Seq2[Key, Value] {
	return func(yield func(Key, Value) bool) {
		if t != nil && t.root != nil {
			t.root.walk(yield)
		}
	}
}

func (n *hamtNode) walk(yield func(Key, Value) bool) bool {
	if n.isLeaf {
		if len(n.collision) > 0 {
			for _, e := range n.collision {
				if !yield(e.key, e.val) {
					return false
				}
			}
			return true
		}
		return yield(n.key, n.val)
	}
	for _, c := range n.children {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}

func (t *hamt) len() int {
	if t == nil {
		return 0
	}
	return t.count
}
