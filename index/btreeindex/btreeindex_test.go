package btreeindex

import (
	"testing"

	"golang.org/x/exp/slices"
)

type row struct{ id int }

type byID struct{}

func (byID) KeyOf(r *row) int      { return r.id }
func (byID) Compare(a, b *int) int { return *a - *b }
func (byID) Equal(a, b int) bool   { return a == b }

func collect(idx *Index[row, int], rows []row) []int {
	var out []int
	it := idx.Begin(rows)
	for it.HasNext() {
		out = append(out, rows[it.Next()].id)
	}
	return out
}

func insertAll(idx *Index[row, int], rows []row) {
	for i := range rows {
		idx.Insert(rows, i)
	}
}

// S3 — a tree built from [5,2,8,1,9,3,7,4,6] orders and ranges as
// spec.md describes.
func TestIndex_OrderAndRange(t *testing.T) {
	idx := New[row, int](byID{})
	rows := []row{{5}, {2}, {8}, {1}, {9}, {3}, {7}, {4}, {6}}
	insertAll(idx, rows)

	got := collect(idx, rows)
	want := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if !slices.Equal(got, want) {
		t.Fatalf("order mismatch: got %v want %v", got, want)
	}

	it := idx.Range(rows, 3, 7)
	var ranged []int
	for it.HasNext() {
		ranged = append(ranged, rows[it.Next()].id)
	}
	wantRange := []int{3, 4, 5, 6}
	if !slices.Equal(ranged, wantRange) {
		t.Fatalf("range mismatch: got %v want %v", ranged, wantRange)
	}

	if err := idx.Verify(rows); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestIndex_FindAndDuplicate(t *testing.T) {
	idx := New[row, int](byID{})
	rows := []row{{1}, {2}, {3}}
	insertAll(idx, rows)

	pos, found := idx.Find(rows, 2)
	if !found || pos != 1 {
		t.Fatalf("expected to find id 2 at position 1, got pos=%d found=%v", pos, found)
	}

	rows = append(rows, row{2})
	existing, dup, err := idx.Insert(rows, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dup || existing != 1 {
		t.Fatalf("expected duplicate at position 1, got existing=%d dup=%v", existing, dup)
	}
}

// A full 14-row leaf must split on its 15th insert, growing the tree
// from height 0 to height 1.
func TestIndex_LeafSplitsOnFifteenthInsert(t *testing.T) {
	idx := New[row, int](byID{})
	rows := make([]row, 14)
	for i := range rows {
		rows[i] = row{i}
	}
	insertAll(idx, rows)
	if idx.t.core.height != 0 {
		t.Fatalf("expected height 0 with 14 rows, got %d", idx.t.core.height)
	}

	rows = append(rows, row{14})
	if _, _, err := idx.Insert(rows, 14); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.t.core.height != 1 {
		t.Fatalf("expected height 1 after 15th insert, got %d", idx.t.core.height)
	}
	if err := idx.Verify(rows); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	got := collect(idx, rows)
	if len(got) != 15 {
		t.Fatalf("expected 15 rows in order, got %d", len(got))
	}
	for i, id := range got {
		if id != i {
			t.Fatalf("order mismatch at %d: got %d", i, id)
		}
	}
}

// Erasing down to a single child under the root must collapse the
// root back to height 0.
func TestIndex_EraseCollapsesRoot(t *testing.T) {
	idx := New[row, int](byID{})
	n := 30
	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{i}
	}
	insertAll(idx, rows)
	if idx.t.core.height == 0 {
		t.Fatalf("expected a multi-level tree with %d rows", n)
	}

	for pos := n - 1; pos >= 1; pos-- {
		idx.Erase(rows, pos)
		last := len(rows) - 1
		if pos != last {
			idx.Move(rows, last, pos)
			rows[pos] = rows[last]
		}
		rows = rows[:last]
	}
	kept := rows

	if idx.t.core.height != 0 {
		t.Fatalf("expected root to collapse to height 0, got %d", idx.t.core.height)
	}
	if len(kept) != 1 || kept[0].id != 0 {
		t.Fatalf("expected exactly row id 0 to survive, got %v", kept)
	}
	if err := idx.Verify(kept); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestIndex_ClearEmptiesTree(t *testing.T) {
	idx := New[row, int](byID{})
	rows := []row{{1}, {2}, {3}}
	insertAll(idx, rows)
	idx.Clear()
	if got := collect(idx, nil); got != nil {
		t.Fatalf("expected empty tree after clear, got %v", got)
	}
	if idx.t.core.height != 0 {
		t.Fatalf("expected height 0 after clear, got %d", idx.t.core.height)
	}
}

// A larger randomized-looking insert/erase sequence should leave the
// tree in a structurally valid, fully ordered state.
func TestIndex_MassInsertEraseMaintainsInvariants(t *testing.T) {
	idx := New[row, int](byID{})
	n := 200
	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{(i * 37) % n}
	}
	insertAll(idx, rows)
	if err := idx.Verify(rows); err != nil {
		t.Fatalf("verify after insert failed: %v", err)
	}

	for pos := n - 1; pos >= n/2; pos-- {
		idx.Erase(rows, pos)
		last := len(rows) - 1
		if pos != last {
			idx.Move(rows, last, pos)
			rows[pos] = rows[last]
		}
		rows = rows[:last]
	}
	if err := idx.Verify(rows); err != nil {
		t.Fatalf("verify after erase failed: %v", err)
	}
	got := collect(idx, rows)
	if len(got) != len(rows) {
		t.Fatalf("expected %d rows in order, got %d", len(rows), len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("order violated at %d: %v", i, got)
		}
	}
}
