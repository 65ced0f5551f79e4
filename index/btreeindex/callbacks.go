package btreeindex

import "github.com/rowtable/rowtable/common"

// Callbacks adapts a row/key pair to the b-tree index. Compare (via the
// embedded common.Comparator) defines the tree's sort order and must be
// a strict weak ordering; Equal is provided explicitly rather than
// derived from two Compare calls to save a comparison per lookup.
type Callbacks[Row, Key any] interface {
	KeyOf(row *Row) Key
	common.Comparator[Key]
	Equal(a, b Key) bool
}
