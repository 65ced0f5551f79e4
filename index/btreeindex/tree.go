package btreeindex

// rowSearchKey adapts one (rows, key) pair to the searchKey interface,
// built fresh by tree[Row, Key] for each call -- the same role
// table.h's SearchKeyImpl plays when BTreeImpl::search et al. construct
// one from a closure over a predicate. It is the only generic-over-Key
// code involved in a descent; every structural algorithm it drives
// lives on the non-generic btreeCore.
type rowSearchKey[Row, Key any] struct {
	rows []Row
	key  Key
	cb   Callbacks[Row, Key]
}

func (sk *rowSearchKey[Row, Key]) keyAt(pos int) Key { return sk.cb.KeyOf(&sk.rows[pos]) }

// isBefore reports whether the row at pos sorts strictly before sk.key.
func (sk *rowSearchKey[Row, Key]) isBefore(pos int) bool {
	k := sk.keyAt(pos)
	return sk.cb.Compare(&k, &sk.key) < 0
}

// searchParent skips separators at or before the search key: a parent
// separator is a copy of its right subtree's first row, so the child
// that may still contain the key is the first one whose separator comes
// strictly after it.
func (sk *rowSearchKey[Row, Key]) searchParent(n *node) int {
	return parentSearch(n, func(pos int) bool {
		k := sk.keyAt(pos)
		return sk.cb.Compare(&k, &sk.key) < 0 || sk.cb.Equal(k, sk.key)
	})
}

// searchLeaf finds the first row not strictly before the search key.
func (sk *rowSearchKey[Row, Key]) searchLeaf(n *node) int {
	return leafSearch(n, sk.isBefore)
}

func (sk *rowSearchKey[Row, Key]) isAfter(rowIdx int) bool { return sk.isBefore(rowIdx) }

// tree is the typed view of a btreeCore: it owns the Callbacks needed
// to build a rowSearchKey per call and otherwise just forwards to the
// shared structural engine.
type tree[Row, Key any] struct {
	cb   Callbacks[Row, Key]
	core *btreeCore
}

func newTree[Row, Key any](cb Callbacks[Row, Key]) *tree[Row, Key] {
	return &tree[Row, Key]{cb: cb, core: newBtreeCore()}
}

func (t *tree[Row, Key]) searchKeyFor(rows []Row, key Key) *rowSearchKey[Row, Key] {
	return &rowSearchKey[Row, Key]{rows: rows, key: key, cb: t.cb}
}

// Reserve pre-grows the node pool's backing array so that n rows'
// worth of leaves can be allocated without reallocating mid-operation.
func (t *tree[Row, Key]) Reserve(n int) { t.core.Reserve(n) }

func (t *tree[Row, Key]) Clear() { t.core.Clear() }

// Insert records that rows[pos] was just appended. If a row with an
// equal key already exists, its position is returned, duplicate is
// true, and rows[pos] is not added; full nodes split on the way down
// stay split.
func (t *tree[Row, Key]) Insert(rows []Row, pos int) (existing int, duplicate bool) {
	key := t.cb.KeyOf(&rows[pos])
	sk := t.searchKeyFor(rows, key)
	leaf := t.core.descendForInsert(sk)
	i := sk.searchLeaf(&t.core.nodes[leaf])
	if i < leafSize(&t.core.nodes[leaf]) {
		existingPos := int(t.core.nodes[leaf].rows()[i]) - 1
		if t.cb.Equal(t.cb.KeyOf(&rows[existingPos]), key) {
			return existingPos, true
		}
	}
	leafInsertAt(&t.core.nodes[leaf], i, pos)
	return 0, false
}

// Erase removes rows[pos] from the tree, pre-merging on the way down.
func (t *tree[Row, Key]) Erase(rows []Row, pos int) {
	key := t.cb.KeyOf(&rows[pos])
	sk := t.searchKeyFor(rows, key)
	leaf, fixupNode, fixupKey := t.core.descendForErase(sk, pos)
	i := sk.searchLeaf(&t.core.nodes[leaf])
	leafEraseAt(&t.core.nodes[leaf], i)
	if fixupKey >= 0 {
		newRep := int(t.core.nodes[leaf].rows()[0]) - 1
		t.core.nodes[fixupNode].keys()[fixupKey] = uint32(newRep) + 1
	}
	t.core.collapseRootIfNeeded()
}

// Move renumbers a row from oldPos to newPos without otherwise
// changing the tree's shape: its key is unchanged, only the stored
// position needs rewriting in the leaf and in any ancestor separator.
func (t *tree[Row, Key]) Move(rows []Row, oldPos, newPos int) {
	key := t.cb.KeyOf(&rows[oldPos])
	sk := t.searchKeyFor(rows, key)
	leaf, fixupNode, fixupKey := t.core.descendForMove(sk, oldPos)
	i := sk.searchLeaf(&t.core.nodes[leaf])
	t.core.nodes[leaf].rows()[i] = uint32(newPos) + 1
	if fixupKey >= 0 {
		t.core.nodes[fixupNode].keys()[fixupKey] = uint32(newPos) + 1
	}
}

// Find returns the position of the row with the given key, if present.
func (t *tree[Row, Key]) Find(rows []Row, key Key) (int, bool) {
	sk := t.searchKeyFor(rows, key)
	leaf := t.core.locateLeaf(sk)
	i := sk.searchLeaf(&t.core.nodes[leaf])
	if i < leafSize(&t.core.nodes[leaf]) {
		pos := int(t.core.nodes[leaf].rows()[i]) - 1
		if t.cb.Equal(t.cb.KeyOf(&rows[pos]), key) {
			return pos, true
		}
	}
	return 0, false
}

// locateLeaf returns the leaf that would hold key, for Range's lower
// bound.
func (t *tree[Row, Key]) locateLeaf(rows []Row, key Key) uint32 {
	return t.core.locateLeaf(t.searchKeyFor(rows, key))
}

// leafIndex returns the slot within the leaf at idx that key would
// occupy.
func (t *tree[Row, Key]) leafIndex(idx uint32, rows []Row, key Key) int {
	return t.searchKeyFor(rows, key).searchLeaf(&t.core.nodes[idx])
}
