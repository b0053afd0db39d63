package model

import "fmt"

// RowID identifies a row within a table. RowIDs are assigned densely in
// insertion order starting at 0 and are never reused.
type RowID uint64

// FragmentID identifies an immutable fragment within a table.
// IDs start at 1 and grow monotonically with every append.
type FragmentID uint64

// Location identifies the physical position of a row.
type Location struct {
	Fragment FragmentID
	Offset   uint32
}

// String returns a string representation of the Location.
func (l Location) String() string {
	return fmt.Sprintf("Loc(%d:%d)", l.Fragment, l.Offset)
}
