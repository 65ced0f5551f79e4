package common

import (
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/sha3"
)

// keccakHasherPool recycles Keccak states across calls the way the
// teacher's hashing helpers do, avoiding a sha3.New allocation per row.
var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

// Keccak32 folds a Keccak-256 digest of data down to a 32-bit hash code,
// suitable for bucketing rows in a hash index.
func Keccak32(data []byte) uint32 {
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	hasher.Write(data)
	digest := hasher.Sum(nil)
	keccakHasherPool.Put(hasher)
	return binary.LittleEndian.Uint32(digest[:4])
}

type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Sum(b []byte) []byte
}
