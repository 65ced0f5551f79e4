// Package hashindex implements a linear-probing, tombstoned hash index
// over a table's backing sequence of rows.
//
// Each bucket stores a 32-bit hash code plus a biased position: zero
// means the bucket has never been used, one marks an erased ("tombstone")
// slot still blocking probes, and any other value n encodes the live
// position n-2. The bias keeps a freshly zeroed bucket array a valid
// empty index, so a rehash needs no initialization pass over the new
// array before the occupied buckets are reinserted into it.
package hashindex

import (
	"fmt"
	"log"
	"unsafe"

	"github.com/rowtable/rowtable/common"
	"github.com/rowtable/rowtable/index"
)

// Callbacks adapts a row/key pair to the hash index: KeyOf projects a
// key out of a row, Hash (via the embedded common.Hasher) hashes a key,
// and Equal compares two keys for the purpose of detecting duplicates.
type Callbacks[Row, Key any] interface {
	KeyOf(row *Row) Key
	common.Hasher[Key]
	Equal(a, b Key) bool
}

type bucket struct {
	hash  uint32
	value uint32
}

func newBucket(hash uint32, pos int) bucket {
	return bucket{hash: hash, value: uint32(pos) + 2}
}

func (b bucket) isEmpty() bool    { return b.value == 0 }
func (b bucket) isErased() bool   { return b.value == 1 }
func (b bucket) isOccupied() bool { return b.value >= 2 }
func (b bucket) isPos(pos int) bool {
	return b.value == uint32(pos)+2
}
func (b bucket) getPos() int { return int(b.value - 2) }

// Index is a linear-probing hash index keyed by Key, satisfying
// index.Index and index.Finder.
type Index[Row, Key any] struct {
	cb          Callbacks[Row, Key]
	buckets     []bucket
	erasedCount int
}

// New constructs an empty hash index.
func New[Row, Key any](cb Callbacks[Row, Key]) *Index[Row, Key] {
	return &Index[Row, Key]{cb: cb}
}

func (idx *Index[Row, Key]) hashOf(key Key) uint32 { return idx.cb.Hash(&key) }

func probe(numBuckets, i int) int {
	i++
	if i == numBuckets {
		return 0
	}
	return i
}

// Reserve ensures the bucket array can hold n rows at no more than 2/3
// load factor without rehashing again.
func (idx *Index[Row, Key]) Reserve(n int) {
	if len(idx.buckets) < n*2 {
		idx.rehash(n * 2)
	}
}

// Clear empties the index without shrinking the bucket array.
func (idx *Index[Row, Key]) Clear() {
	idx.erasedCount = 0
	for i := range idx.buckets {
		idx.buckets[i] = bucket{}
	}
}

// Insert records that rows[pos] was added to the backing sequence. If a
// live entry with an equal key is already present, its position is
// returned and duplicate is true; no entry is added for rows[pos], so
// the caller can roll the insert back. A rehash triggered by the load
// check before probing is kept either way.
func (idx *Index[Row, Key]) Insert(rows []Row, pos int) (existing int, duplicate bool, err error) {
	if len(idx.buckets)*2 < (len(rows)+idx.erasedCount)*3 {
		target := len(idx.buckets) * 2
		if n := len(rows) * 2; n > target {
			target = n
		}
		if target < 2 {
			target = 2
		}
		idx.rehash(target)
	}

	key := idx.cb.KeyOf(&rows[pos])
	hashCode := idx.hashOf(key)
	numBuckets := len(idx.buckets)
	erasedSlot := -1

	for i := int(hashCode) % numBuckets; ; i = probe(numBuckets, i) {
		b := idx.buckets[i]
		switch {
		case b.isEmpty():
			if erasedSlot >= 0 {
				idx.erasedCount--
				idx.buckets[erasedSlot] = newBucket(hashCode, pos)
			} else {
				idx.buckets[i] = newBucket(hashCode, pos)
			}
			return 0, false, nil
		case b.isErased():
			if erasedSlot < 0 {
				erasedSlot = i
			}
		case b.hash == hashCode && idx.cb.Equal(idx.cb.KeyOf(&rows[b.getPos()]), key):
			return b.getPos(), true, nil
		}
	}
}

// Erase marks the bucket holding rows[pos] as a tombstone.
func (idx *Index[Row, Key]) Erase(rows []Row, pos int) {
	key := idx.cb.KeyOf(&rows[pos])
	hashCode := idx.hashOf(key)
	numBuckets := len(idx.buckets)
	for i := int(hashCode) % numBuckets; ; i = probe(numBuckets, i) {
		b := idx.buckets[i]
		if b.isPos(pos) {
			idx.erasedCount++
			idx.buckets[i] = bucket{value: 1}
			return
		}
		if b.isEmpty() {
			log.Printf("hashindex: inconsistency, erase could not find position %d", pos)
			return
		}
	}
}

// Move updates the bucket that used to point at oldPos to point at
// newPos instead, used after a swap-with-last erase.
func (idx *Index[Row, Key]) Move(rows []Row, oldPos, newPos int) {
	key := idx.cb.KeyOf(&rows[oldPos])
	hashCode := idx.hashOf(key)
	numBuckets := len(idx.buckets)
	for i := int(hashCode) % numBuckets; ; i = probe(numBuckets, i) {
		b := idx.buckets[i]
		if b.isPos(oldPos) {
			idx.buckets[i] = newBucket(hashCode, newPos)
			return
		}
		if b.isEmpty() {
			log.Printf("hashindex: inconsistency, move could not find position %d", oldPos)
			return
		}
	}
}

// Find looks up the row with the given key, if any live row has one.
func (idx *Index[Row, Key]) Find(rows []Row, key Key) (int, bool) {
	numBuckets := len(idx.buckets)
	if numBuckets == 0 {
		return 0, false
	}
	hashCode := idx.hashOf(key)
	for i := int(hashCode) % numBuckets; ; i = probe(numBuckets, i) {
		b := idx.buckets[i]
		switch {
		case b.isEmpty():
			return 0, false
		case b.isErased():
			// keep probing
		case b.hash == hashCode && idx.cb.Equal(idx.cb.KeyOf(&rows[b.getPos()]), key):
			return b.getPos(), true
		}
	}
}

// Verify checks that every live row is reachable via Find and that no
// bucket points at a stale or duplicate position.
func (idx *Index[Row, Key]) Verify(rows []Row) error {
	seen := make(map[int]bool, len(rows))
	for _, b := range idx.buckets {
		if !b.isOccupied() {
			continue
		}
		pos := b.getPos()
		if pos < 0 || pos >= len(rows) {
			return fmt.Errorf("%w: bucket points at out-of-range position %d", index.ErrInvariantViolation, pos)
		}
		if seen[pos] {
			return fmt.Errorf("%w: position %d indexed by more than one bucket", index.ErrInvariantViolation, pos)
		}
		seen[pos] = true
		key := idx.cb.KeyOf(&rows[pos])
		if idx.hashOf(key) != b.hash {
			return fmt.Errorf("%w: stale hash for position %d", index.ErrInvariantViolation, pos)
		}
		if found, ok := idx.Find(rows, key); !ok || found != pos {
			return fmt.Errorf("%w: find could not recover position %d", index.ErrInvariantViolation, pos)
		}
	}
	if len(seen) != len(rows) {
		return fmt.Errorf("%w: indexed %d rows, table has %d", index.ErrInvariantViolation, len(seen), len(rows))
	}
	return nil
}

func (idx *Index[Row, Key]) rehash(targetSize int) {
	newSize := 2
	for newSize < targetSize {
		newSize *= 2
	}
	newBuckets := make([]bucket, newSize)
	for _, b := range idx.buckets {
		if !b.isOccupied() {
			continue
		}
		for i := int(b.hash) % newSize; ; i = probe(newSize, i) {
			if newBuckets[i].isEmpty() {
				newBuckets[i] = b
				break
			}
		}
	}
	idx.buckets = newBuckets
	idx.erasedCount = 0
}

// GetMemoryFootprint reports the memory consumed by the bucket array.
func (idx *Index[Row, Key]) GetMemoryFootprint() *common.MemoryFootprint {
	selfSize := unsafe.Sizeof(*idx)
	mf := common.NewMemoryFootprint(selfSize)
	var b bucket
	mf.AddChild("buckets", common.NewMemoryFootprint(uintptr(len(idx.buckets))*unsafe.Sizeof(b)))
	return mf
}
