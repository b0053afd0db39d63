package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding is the sentinel wrapped by every *Error.
	ErrEncoding = errors.New("encoding error")

	// ErrCorrupt is returned when a stored fragment fails validation.
	ErrCorrupt = errors.New("corrupt fragment")
)

// ErrorKind classifies an encoding failure.
type ErrorKind int

const (
	// WrongVectorLength means a vector does not have exactly dim elements.
	WrongVectorLength ErrorKind = iota + 1
	// NullValue means a null was supplied for a non-nullable column.
	NullValue
	// TooLarge means a column does not fit the format's 32-bit lengths.
	TooLarge
	// NonFiniteValue means a vector holds NaN or an infinity.
	NonFiniteValue
)

func (k ErrorKind) String() string {
	switch k {
	case WrongVectorLength:
		return "WrongVectorLength"
	case NullValue:
		return "NullValue"
	case TooLarge:
		return "TooLarge"
	case NonFiniteValue:
		return "NonFiniteValue"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error describes malformed batch data rejected by Encode.
type Error struct {
	Kind     ErrorKind
	Column   string
	Row      int
	Expected int
	Actual   int
}

func (e *Error) Error() string {
	switch e.Kind {
	case WrongVectorLength:
		return fmt.Sprintf("encoding error: %s: column %q row %d: expected %d elements, got %d",
			e.Kind, e.Column, e.Row, e.Expected, e.Actual)
	case NullValue:
		return fmt.Sprintf("encoding error: %s: column %q row %d is not nullable", e.Kind, e.Column, e.Row)
	case NonFiniteValue:
		return fmt.Sprintf("encoding error: %s: column %q row %d element %d is not finite",
			e.Kind, e.Column, e.Row, e.Actual)
	default:
		return fmt.Sprintf("encoding error: %s: column %q", e.Kind, e.Column)
	}
}

func (e *Error) Unwrap() error { return ErrEncoding }

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
