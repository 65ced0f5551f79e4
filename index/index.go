// Package index defines the capability interfaces shared by every index
// kind (hash, b-tree, insertion-order) that a Table can attach to its
// backing sequence of rows.
//
// An index never owns its rows: it is handed slices of the table's
// backing sequence and positions into that sequence, and reports back
// positions. This mirrors the split between kj::Table and its
// index implementations, where indexes only ever see row pointers and
// never allocate storage for rows themselves.
package index

// Index is the capability every index kind must implement: it has to be
// kept in sync whenever the backing sequence changes shape.
type Index[Row any] interface {
	// Reserve hints that the backing sequence is about to grow to at
	// least n rows, allowing the index to pre-size its own storage.
	Reserve(n int)

	// Clear drops all entries, leaving the index empty.
	Clear()

	// Insert notifies the index that rows[pos] was just added to the
	// backing sequence. If the index already contains an entry whose
	// key equals that of rows[pos], it adds no entry for rows[pos] and
	// returns (existing position, true, nil): the table coordinator is
	// responsible for treating this as a duplicate and undoing the
	// insert in every other index. Indexes that are allowed to hold
	// duplicate keys (e.g. an insertion-order index) never report one.
	Insert(rows []Row, pos int) (existing int, duplicate bool, err error)

	// Erase notifies the index that rows[pos] is about to be removed
	// from the backing sequence via a swap with the last row.
	Erase(rows []Row, pos int)

	// Move notifies the index that the row formerly at oldPos now lives
	// at newPos, used after a swap-with-last erase shifts the last row
	// into the erased slot.
	Move(rows []Row, oldPos, newPos int)
}

// Finder is implemented by indexes that support exact-match lookup by
// key, such as the hash index and the b-tree index.
type Finder[Row, Key any] interface {
	Find(rows []Row, key Key) (pos int, found bool)
}

// Ranger is implemented by indexes that support ordered range queries,
// i.e. the b-tree index.
type Ranger[Row, Key any] interface {
	Range(rows []Row, from, to Key) Iterator
}

// Orderer is implemented by indexes that expose a traversal order over
// their rows, such as the insertion-order index and the b-tree index.
type Orderer[Row any] interface {
	Begin(rows []Row) Iterator
}

// Verifier is implemented by indexes that can self-check their internal
// invariants against the backing sequence, used by Table.Verify and by
// tests after fuzzing a sequence of operations.
type Verifier[Row any] interface {
	Verify(rows []Row) error
}

// Iterator walks a sequence of positions into the backing sequence.
type Iterator interface {
	HasNext() bool
	Next() int
}
