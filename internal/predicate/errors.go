package predicate

import (
	"errors"
	"fmt"
)

// ErrPredicate is the sentinel wrapped by every *Error.
var ErrPredicate = errors.New("predicate error")

// ErrorKind classifies a parse failure.
type ErrorKind uint8

const (
	// SyntaxError means the text is not a valid predicate.
	SyntaxError ErrorKind = iota + 1
	// UnknownColumn means a referenced column is not in the schema.
	UnknownColumn
	// TypeMismatch means a literal cannot be compared with its column.
	TypeMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case UnknownColumn:
		return "UnknownColumn"
	case TypeMismatch:
		return "TypeMismatch"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error describes why a predicate could not be parsed. Pos is the byte
// offset into the predicate text.
type Error struct {
	Kind   ErrorKind
	Pos    int
	Column string
	Msg    string
}

func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s at %d: column %q: %s", e.Kind, e.Pos, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s at %d: %s", e.Kind, e.Pos, e.Msg)
}

// Unwrap returns ErrPredicate.
func (e *Error) Unwrap() error { return ErrPredicate }

func syntaxErr(pos int, format string, args ...any) *Error {
	return &Error{Kind: SyntaxError, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
