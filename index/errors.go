package index

import "github.com/rowtable/rowtable/common"

// ErrDuplicateRow is returned by Index.Insert when an entry with an
// equal key already exists, vetoing the insert. Table.Insert and
// Table.InsertAll surface it to the caller; Table.Upsert swallows it by
// routing to the caller-supplied merge function instead.
const ErrDuplicateRow common.ConstError = "duplicate row"

// ErrOutOfRange is returned when a *Row handed to Table.Erase does not
// point within the table's backing sequence.
const ErrOutOfRange common.ConstError = "row reference out of range"

// ErrInvariantViolation indicates index-internal corruption was
// detected, e.g. a hash probe ran off the end of a bucket chain while
// searching for a key that Find had already confirmed present. Only
// Verify returns this error; everywhere else such a condition is logged
// and the operation returns its zero value rather than panicking.
const ErrInvariantViolation common.ConstError = "index invariant violation"

// ErrAllocationFailure is propagated from the allocator. If it occurs
// during Insert, the table is left exactly as it was before the call;
// anywhere else the table's consistency is no longer guaranteed.
const ErrAllocationFailure common.ConstError = "allocation failure"
