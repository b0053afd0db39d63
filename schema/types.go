package schema

import "fmt"

// TypeID identifies the logical type of a column.
type TypeID uint8

const (
	// TypeInvalid is the zero TypeID.
	TypeInvalid TypeID = iota
	// TypeInt32 is a signed 32-bit integer column.
	TypeInt32
	// TypeUtf8 is a UTF-8 string column.
	TypeUtf8
	// TypeVector is a fixed-size vector column.
	TypeVector
)

// ElemType identifies the element type of a vector column.
type ElemType uint8

const (
	// ElemInvalid is the zero ElemType.
	ElemInvalid ElemType = iota
	// ElemFloat32 is a 32-bit IEEE 754 element.
	ElemFloat32
)

func (e ElemType) String() string {
	switch e {
	case ElemFloat32:
		return "Float32"
	default:
		return fmt.Sprintf("Elem(%d)", e)
	}
}

// DataType describes the type of a column.
type DataType struct {
	ID   TypeID
	Dim  int
	Elem ElemType
}

// Int32 returns the Int32 data type.
func Int32() DataType { return DataType{ID: TypeInt32} }

// Utf8 returns the Utf8 data type.
func Utf8() DataType { return DataType{ID: TypeUtf8} }

// Vector returns a fixed-size Float32 vector type of the given dimension.
func Vector(dim int) DataType { return DataType{ID: TypeVector, Dim: dim, Elem: ElemFloat32} }

// IsVector reports whether t is a vector type.
func (t DataType) IsVector() bool { return t.ID == TypeVector }

// String returns the string representation of the DataType.
func (t DataType) String() string {
	switch t.ID {
	case TypeInt32:
		return "Int32"
	case TypeUtf8:
		return "Utf8"
	case TypeVector:
		return fmt.Sprintf("FixedSizeList(%s, %d)", t.Elem, t.Dim)
	default:
		return fmt.Sprintf("Unknown(%d)", t.ID)
	}
}
