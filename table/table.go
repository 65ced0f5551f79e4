// Package table implements the coordinator that owns a table's backing
// sequence of rows and fans every mutation out to a fixed, ordered list
// of attached indexes, undoing partial work if any index vetoes an
// insert.
//
// The coordinator itself never knows a row's key or how an index is
// keyed: indexes are handed positions into the backing sequence and
// report back positions, exactly like index.Index itself. Typed lookups
// (Find, Range, Ordered) are free functions parameterized by the
// concrete index type the caller already holds a reference to, since Go
// has no notion of "first index of this capability" the way kj::Table's
// template selection does.
package table

import (
	"errors"
	"fmt"
	"log"
	"unsafe"

	"github.com/rowtable/rowtable/common"
	"github.com/rowtable/rowtable/index"
)

// Table owns the backing sequence of rows and a fixed list of indexes
// that are kept in sync with every insert, erase and move.
type Table[Row any] struct {
	rows    []Row
	indexes []index.Index[Row]
}

// New constructs a table over the given indexes, in the order they
// should be consulted on insert (and undone in the same order on
// rollback).
func New[Row any](indexes ...index.Index[Row]) *Table[Row] {
	return &Table[Row]{indexes: indexes}
}

// Reserve hints that the table is about to grow to at least n rows,
// propagating the hint to the backing sequence and every index.
func (t *Table[Row]) Reserve(n int) {
	if cap(t.rows) < n {
		grown := make([]Row, len(t.rows), n)
		copy(grown, t.rows)
		t.rows = grown
	}
	for _, idx := range t.indexes {
		idx.Reserve(n)
	}
}

// Size returns the number of rows currently stored.
func (t *Table[Row]) Size() int { return len(t.rows) }

// Capacity returns the backing sequence's current capacity.
func (t *Table[Row]) Capacity() int { return cap(t.rows) }

// Clear drops every row and empties every index.
func (t *Table[Row]) Clear() {
	t.rows = t.rows[:0]
	for _, idx := range t.indexes {
		idx.Clear()
	}
}

// Rows returns a read-only view of the dense backing sequence, in
// storage order (not any index's order).
func (t *Table[Row]) Rows() []Row { return t.rows }

// ErrDuplicateRow reports that a row could not be inserted because one
// of the table's indexes already holds an entry with an equal key.
const ErrDuplicateRow = index.ErrDuplicateRow

// Insert appends row and fans the insert out to every index in order.
// If any index reports a duplicate, every index that already accepted
// the row is rolled back, the appended row is dropped, and
// ErrDuplicateRow is returned. If an index fails with an error instead,
// the same rollback happens and that error is returned.
func (t *Table[Row]) Insert(row Row) (*Row, error) {
	p := len(t.rows)
	t.rows = append(t.rows, row)

	for j, idx := range t.indexes {
		_, dup, err := idx.Insert(t.rows, p)
		if dup || err != nil {
			t.rollbackInsert(j, p)
			if err != nil {
				return nil, err
			}
			return nil, ErrDuplicateRow
		}
	}
	return &t.rows[p], nil
}

// rollbackInsert undoes Insert's fan-out for indexes 0..upTo-1 and
// drops the tail row at position p.
func (t *Table[Row]) rollbackInsert(upTo int, p int) {
	for j := 0; j < upTo; j++ {
		t.indexes[j].Erase(t.rows, p)
	}
	t.rows = t.rows[:p]
}

// Upsert is Insert, except that when some index reports row's key
// already exists at position e, update(&rows[e], &row) is called to
// merge the new value into the existing row instead of failing, and a
// reference to the merged row is returned.
func (t *Table[Row]) Upsert(row Row, update func(existing *Row, incoming *Row)) *Row {
	p := len(t.rows)
	t.rows = append(t.rows, row)

	for j, idx := range t.indexes {
		e, dup, err := idx.Insert(t.rows, p)
		if err != nil {
			t.rollbackInsert(j, p)
			return nil
		}
		if dup {
			t.rollbackInsert(j, p)
			update(&t.rows[e], &row)
			return &t.rows[e]
		}
	}
	return &t.rows[p]
}

// InsertAll inserts every row in rows in order, pre-reserving capacity
// for len(rows) additional entries since the slice's length is always
// known. It stops at the first row that fails to insert, returning the
// number of rows successfully inserted before that point along with the
// error that stopped it; rows already inserted are not rolled back.
func (t *Table[Row]) InsertAll(rows []Row) (int, error) {
	t.Reserve(len(t.rows) + len(rows))
	for i, r := range rows {
		if _, err := t.Insert(r); err != nil {
			return i, err
		}
	}
	return len(rows), nil
}

// erase removes the row at position p, swapping the last row into its
// place to keep the sequence dense.
func (t *Table[Row]) erase(p int) {
	b := len(t.rows) - 1
	for _, idx := range t.indexes {
		idx.Erase(t.rows, p)
	}
	if p != b {
		for _, idx := range t.indexes {
			idx.Move(t.rows, b, p)
		}
		t.rows[p] = t.rows[b]
	}
	var zero Row
	t.rows[b] = zero
	t.rows = t.rows[:b]
}

// Erase removes the row pointed to by ref, which must point into this
// table's backing sequence (as returned by Insert, Upsert or Find).
func (t *Table[Row]) Erase(ref *Row) bool {
	if len(t.rows) == 0 {
		return false
	}
	base := unsafe.Pointer(&t.rows[0])
	target := unsafe.Pointer(ref)
	var zero Row
	stride := unsafe.Sizeof(zero)
	offset := uintptr(target) - uintptr(base)
	if uintptr(target) < uintptr(base) || offset%stride != 0 {
		log.Printf("table: %v: reference does not point at a row slot", index.ErrOutOfRange)
		return false
	}
	p := int(offset / stride)
	if p >= len(t.rows) {
		log.Printf("table: %v: reference position %d out of range", index.ErrOutOfRange, p)
		return false
	}
	t.erase(p)
	return true
}

// EraseAllFunc erases every row for which predicate returns true,
// walking the sequence without re-advancing past a position whose
// occupant just changed due to the swap-with-last erase. Returns the
// number of rows erased.
func (t *Table[Row]) EraseAllFunc(predicate func(row *Row) bool) int {
	count := 0
	i := 0
	for i < len(t.rows) {
		if predicate(&t.rows[i]) {
			t.erase(i)
			count++
			continue
		}
		i++
	}
	return count
}

// EraseAllRefs erases every row pointed to by refs, each of which must
// point into this table's backing sequence. Positions are resolved
// up front and relocated through the same stable-identity algorithm
// EraseRange uses, so that a row named twice is erased once, and a row
// whose slot is reused mid-pass by another erasure is still erased by
// identity.
func (t *Table[Row]) EraseAllRefs(refs []*Row) int {
	if len(t.rows) == 0 {
		return 0
	}
	base := unsafe.Pointer(&t.rows[0])
	var zero Row
	stride := unsafe.Sizeof(zero)
	positions := make([]int, 0, len(refs))
	named := make(map[int]bool, len(refs))
	for _, ref := range refs {
		offset := uintptr(unsafe.Pointer(ref)) - uintptr(base)
		p := int(offset / stride)
		if p < 0 || p >= len(t.rows) || named[p] {
			continue
		}
		named[p] = true
		positions = append(positions, p)
	}
	return t.eraseRelocated(positions)
}

// eraseRelocated implements the stable-identity position-relocation
// algorithm spec.md describes for EraseRange and EraseAllRefs: later
// positions named before any erasure happened are remapped to account
// for the swap-with-last moves earlier erasures in this batch perform.
func (t *Table[Row]) eraseRelocated(positions []int) int {
	size := len(t.rows)
	erased := make([]int, 0, len(positions))
	for _, pos := range positions {
		for pos >= size-len(erased) {
			k := size - pos - 1
			if k < 0 || k >= len(erased) {
				log.Printf("table: eraseRelocated could not resolve position %d", pos)
				break
			}
			pos = erased[k]
		}
		erased = append(erased, pos)
	}
	for _, pos := range erased {
		t.erase(pos)
	}
	return len(erased)
}

// EraseMatch looks row up via idx and erases it if found, returning
// whether a row was erased.
func EraseMatch[Row, Key any](t *Table[Row], idx index.Finder[Row, Key], key Key) bool {
	p, found := idx.Find(t.rows, key)
	if !found {
		return false
	}
	t.erase(p)
	return true
}

// Find looks a row up by key via idx, returning a reference to it.
func Find[Row, Key any](t *Table[Row], idx index.Finder[Row, Key], key Key) (*Row, bool) {
	p, found := idx.Find(t.rows, key)
	if !found {
		return nil, false
	}
	return &t.rows[p], true
}

// Range returns the rows idx orders between from and to, in idx's
// order, as a freshly materialized slice of references.
func Range[Row, Key any](t *Table[Row], idx index.Ranger[Row, Key], from, to Key) []*Row {
	it := idx.Range(t.rows, from, to)
	var out []*Row
	for it.HasNext() {
		out = append(out, &t.rows[it.Next()])
	}
	return out
}

// EraseRange collects the positions idx.Range(from, to) names before
// any erasure happens, then erases them by identity via the
// stable-identity relocation algorithm described in spec.md §4.E.
// Returns the number of rows erased.
func EraseRange[Row, Key any](t *Table[Row], idx index.Ranger[Row, Key], from, to Key) int {
	it := idx.Range(t.rows, from, to)
	var positions []int
	for it.HasNext() {
		positions = append(positions, it.Next())
	}
	return t.eraseRelocated(positions)
}

// Ordered returns every row in idx's traversal order, as a freshly
// materialized slice of references.
func Ordered[Row any](t *Table[Row], idx index.Orderer[Row]) []*Row {
	it := idx.Begin(t.rows)
	var out []*Row
	for it.HasNext() {
		out = append(out, &t.rows[it.Next()])
	}
	return out
}

// Verify checks idx's internal invariants against the table's current
// backing sequence.
func Verify[Row any](t *Table[Row], idx index.Verifier[Row]) error {
	return idx.Verify(t.rows)
}

// VerifyAll runs Verify against every attached index that implements
// index.Verifier, returning every error encountered joined into one
// (nil if all indexes pass).
func (t *Table[Row]) VerifyAll() error {
	var errs []error
	for _, idx := range t.indexes {
		if v, ok := idx.(index.Verifier[Row]); ok {
			if err := v.Verify(t.rows); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// GetMemoryFootprint reports the memory consumed by the backing
// sequence and every index that reports its own footprint.
func (t *Table[Row]) GetMemoryFootprint() *common.MemoryFootprint {
	var zero Row
	selfSize := unsafe.Sizeof(*t)
	mf := common.NewMemoryFootprint(selfSize)
	mf.AddChild("rows", common.NewMemoryFootprint(uintptr(cap(t.rows))*unsafe.Sizeof(zero)))
	for i, idx := range t.indexes {
		if p, ok := idx.(common.MemoryFootprintProvider); ok {
			mf.AddChild(fmt.Sprintf("index%d", i), p.GetMemoryFootprint())
		}
	}
	return mf
}
