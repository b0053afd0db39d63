package model

import (
	"fmt"
	"slices"
	"strconv"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindInt32 represents a 32-bit integer value.
	KindInt32
	// KindUtf8 represents a string value.
	KindUtf8
	// KindVector represents a fixed-size float32 vector.
	KindVector
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindInt32:
		return "Int32"
	case KindUtf8:
		return "Utf8"
	case KindVector:
		return "Vector"
	default:
		return "Invalid"
	}
}

// Value is a small typed value used for row cells and predicate literals.
//
// No reflection and no fmt-based stringification on the hot path.
type Value struct {
	Kind Kind
	I32  int32
	Str  string
	Vec  []float32
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int32 returns an Int32 Value.
func Int32(v int32) Value { return Value{Kind: KindInt32, I32: v} }

// String returns a Utf8 Value.
func String(v string) Value { return Value{Kind: KindUtf8, Str: v} }

// Vector returns a Vector Value. The slice is not copied.
func Vector(v []float32) Value { return Value{Kind: KindVector, Vec: v} }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt32:
		return v.I32 == o.I32
	case KindUtf8:
		return v.Str == o.Str
	case KindVector:
		return slices.Equal(v.Vec, o.Vec)
	default:
		return true
	}
}

// GoString returns a Go-syntax-like representation, used by %#v.
func (v Value) GoString() string {
	return v.String()
}

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt32:
		return strconv.FormatInt(int64(v.I32), 10)
	case KindUtf8:
		return strconv.Quote(v.Str)
	case KindVector:
		if len(v.Vec) > 4 {
			return fmt.Sprintf("[%g %g %g ... (%d)]", v.Vec[0], v.Vec[1], v.Vec[2], len(v.Vec))
		}
		return fmt.Sprint(v.Vec)
	default:
		return "invalid"
	}
}
