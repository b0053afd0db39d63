package schema

import (
	"errors"
	"fmt"
)

// ErrSchema is the sentinel wrapped by every *Error.
var ErrSchema = errors.New("schema error")

// ErrorKind classifies a schema failure.
type ErrorKind uint8

const (
	// DuplicateName means two columns share a name.
	DuplicateName ErrorKind = iota + 1
	// UnsupportedType means a column uses a type the engine cannot store.
	UnsupportedType
	// ZeroDimVector means a vector column was declared with dim <= 0.
	ZeroDimVector
	// EmptySchema means no columns were given.
	EmptySchema
	// InvalidName means a column name is empty or contains control characters.
	InvalidName
	// Mismatch means a batch does not conform to the table schema.
	Mismatch
)

func (k ErrorKind) String() string {
	switch k {
	case DuplicateName:
		return "DuplicateName"
	case UnsupportedType:
		return "UnsupportedType"
	case ZeroDimVector:
		return "ZeroDimVector"
	case EmptySchema:
		return "EmptySchema"
	case InvalidName:
		return "InvalidName"
	case Mismatch:
		return "SchemaMismatch"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is returned for malformed schemas and for batches that do not match
// a table schema.
type Error struct {
	Kind     ErrorKind
	Column   string
	Expected string
	Actual   string
}

func (e *Error) Error() string {
	switch e.Kind {
	case Mismatch:
		return fmt.Sprintf("schema mismatch on column %q: expected %s, got %s", e.Column, e.Expected, e.Actual)
	case EmptySchema:
		return "schema has no columns"
	default:
		return fmt.Sprintf("%s: column %q", e.Kind, e.Column)
	}
}

// Unwrap returns ErrSchema.
func (e *Error) Unwrap() error { return ErrSchema }

func mismatch(column string, expected, actual any) *Error {
	return &Error{Kind: Mismatch, Column: column, Expected: fmt.Sprint(expected), Actual: fmt.Sprint(actual)}
}
