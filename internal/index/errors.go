package index

import (
	"errors"
	"fmt"
)

var (
	// ErrIndex is the sentinel wrapped by every *Error.
	ErrIndex = errors.New("index error")
	// ErrCorrupt is returned when a persisted index fails verification.
	ErrCorrupt = errors.New("index: corrupt index file")
	// ErrNoVectorColumn is returned when the schema has no searchable column.
	ErrNoVectorColumn = errors.New("index: table has no vector column")
)

// ErrorKind classifies an index failure.
type ErrorKind uint8

const (
	// DimensionMismatch means the query vector length differs from the
	// column dimension.
	DimensionMismatch ErrorKind = iota + 1
)

func (k ErrorKind) String() string {
	switch k {
	case DimensionMismatch:
		return "DimensionMismatch"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is returned for invalid queries.
type Error struct {
	Kind     ErrorKind
	Expected int
	Actual   int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", e.Kind, e.Expected, e.Actual)
}

// Unwrap returns ErrIndex.
func (e *Error) Unwrap() error { return ErrIndex }

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
