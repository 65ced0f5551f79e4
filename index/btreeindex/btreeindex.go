// Package btreeindex implements a cache-line-sized B-tree index over a
// table's backing sequence of rows, ordered by key.
//
// Every node in the pool is a single 64-byte word array shared
// union-style by a 14-row leaf view, a 7-key/8-child parent view and a
// freelist-link view, so a node occupies one cache line regardless of
// which view applies. Insert pre-splits full nodes on the way down from
// the root and Erase pre-merges half-full nodes on the way down, so
// neither operation ever needs a second, upward rebalancing pass. The
// structural algorithms live on the non-generic btreeCore and are
// driven through the searchKey interface, so they are compiled once
// regardless of how many (Row, Key) pairs this package is instantiated
// over; tree[Row, Key] is the thin per-instantiation shell that builds
// a searchKey from its Callbacks for each call.
package btreeindex

import (
	"fmt"
	"unsafe"

	"github.com/rowtable/rowtable/common"
	"github.com/rowtable/rowtable/index"
)

// Index is a B-tree index keyed by Key, satisfying index.Index,
// index.Finder, index.Ranger, index.Orderer and index.Verifier.
type Index[Row, Key any] struct {
	t *tree[Row, Key]
}

// New constructs an empty B-tree index.
func New[Row, Key any](cb Callbacks[Row, Key]) *Index[Row, Key] {
	return &Index[Row, Key]{t: newTree[Row, Key](cb)}
}

// Reserve pre-grows the node pool with room for the leaves n rows need;
// parent nodes are not counted, so a tree of n rows can still grow the
// pool while inserting.
func (idx *Index[Row, Key]) Reserve(n int) { idx.t.Reserve(n) }

// Clear empties the tree back to a single empty leaf root.
func (idx *Index[Row, Key]) Clear() { idx.t.Clear() }

// Insert records that rows[pos] was just added to the backing
// sequence, keeping the tree balanced on the way down.
func (idx *Index[Row, Key]) Insert(rows []Row, pos int) (existing int, duplicate bool, err error) {
	existing, duplicate = idx.t.Insert(rows, pos)
	return existing, duplicate, nil
}

// Erase removes rows[pos] from the tree, pre-merging half-full nodes on
// the way down so no second pass is needed.
func (idx *Index[Row, Key]) Erase(rows []Row, pos int) { idx.t.Erase(rows, pos) }

// Move updates the tree entry that used to refer to oldPos so that it
// now refers to newPos, used after a swap-with-last erase.
func (idx *Index[Row, Key]) Move(rows []Row, oldPos, newPos int) { idx.t.Move(rows, oldPos, newPos) }

// Find returns the position of the row with the given key, if present.
func (idx *Index[Row, Key]) Find(rows []Row, key Key) (int, bool) { return idx.t.Find(rows, key) }

// Range returns an iterator over rows whose key k satisfies
// from <= k < to, in ascending key order.
func (idx *Index[Row, Key]) Range(rows []Row, from, to Key) index.Iterator {
	t := idx.t
	leaf := t.locateLeaf(rows, from)
	slot := t.leafIndex(leaf, rows, from)
	upper := t.searchKeyFor(rows, to)
	stop := func(pos int) bool {
		return !upper.isAfter(pos)
	}
	return newIterator(t.core.nodes, leaf, slot, stop)
}

// Begin returns an iterator over every row in ascending key order.
func (idx *Index[Row, Key]) Begin(rows []Row) index.Iterator {
	return newIterator(idx.t.core.nodes, idx.t.core.beginLeaf, 0, nil)
}

// Verify walks the tree checking structural invariants: every leaf is
// at least half full (except a lone root leaf), every non-root parent
// holds at least the minimum number of keys, every separator names an
// in-range position, and the full traversal visits every live position
// exactly once in sorted order. Whether a separator equals the first
// key of the subtree to its right is not checked.
func (idx *Index[Row, Key]) Verify(rows []Row) error {
	t := idx.t
	seen := make(map[int]bool, len(rows))
	var prevKey Key
	havePrev := false

	var walk func(nIdx uint32, lvl uint32, isRoot bool) error
	walk = func(nIdx uint32, lvl uint32, isRoot bool) error {
		n := &t.core.nodes[nIdx]
		if lvl == 0 {
			sz := leafSize(n)
			if !isRoot && sz < leafHalf {
				return fmt.Errorf("%w: leaf %d underfull (%d rows)", index.ErrInvariantViolation, nIdx, sz)
			}
			rows2 := n.rows()
			for i := 0; i < sz; i++ {
				pos := int(rows2[i]) - 1
				if pos < 0 || pos >= len(rows) {
					return fmt.Errorf("%w: leaf %d has out-of-range position %d", index.ErrInvariantViolation, nIdx, pos)
				}
				if seen[pos] {
					return fmt.Errorf("%w: position %d indexed twice", index.ErrInvariantViolation, pos)
				}
				seen[pos] = true
				key := t.cb.KeyOf(&rows[pos])
				if havePrev && t.cb.Compare(&key, &prevKey) < 0 {
					return fmt.Errorf("%w: keys out of order at position %d", index.ErrInvariantViolation, pos)
				}
				prevKey, havePrev = key, true
			}
			return nil
		}
		cnt := parentKeyCount(n)
		if !isRoot && cnt < parentKeyHalf {
			return fmt.Errorf("%w: parent %d underfull (%d keys)", index.ErrInvariantViolation, nIdx, cnt)
		}
		keys, children := n.keys(), n.children()
		for i := 0; i <= cnt; i++ {
			child := children[i]
			if child == 0 {
				return fmt.Errorf("%w: parent %d missing child %d", index.ErrInvariantViolation, nIdx, i)
			}
			if err := walk(child, lvl-1, false); err != nil {
				return err
			}
			if i < cnt {
				sepPos := int(keys[i]) - 1
				if sepPos < 0 || sepPos >= len(rows) {
					return fmt.Errorf("%w: parent %d has out-of-range separator %d", index.ErrInvariantViolation, nIdx, sepPos)
				}
			}
		}
		return nil
	}

	if err := walk(rootIndex, t.core.height, true); err != nil {
		return err
	}
	if len(seen) != len(rows) {
		return fmt.Errorf("%w: indexed %d rows, table has %d", index.ErrInvariantViolation, len(seen), len(rows))
	}
	return nil
}

// GetMemoryFootprint reports the memory consumed by the node pool.
func (idx *Index[Row, Key]) GetMemoryFootprint() *common.MemoryFootprint {
	selfSize := unsafe.Sizeof(*idx)
	mf := common.NewMemoryFootprint(selfSize)
	var n node
	mf.AddChild("nodes", common.NewMemoryFootprint(uintptr(len(idx.t.core.nodes))*unsafe.Sizeof(n)))
	return mf
}
