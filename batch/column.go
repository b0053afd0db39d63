package batch

import (
	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

// Column is a typed column of a Batch.
type Column interface {
	// Len returns the number of values.
	Len() int
	// Type returns the column data type.
	Type() schema.DataType
	// IsNull reports whether the i-th value is null.
	IsNull(i int) bool
	// Value returns the i-th value.
	Value(i int) model.Value
}

// Int32Column holds Int32 values. A nil Valid slice means no nulls.
type Int32Column struct {
	Values []int32
	Valid  []bool
}

func (c *Int32Column) Len() int              { return len(c.Values) }
func (c *Int32Column) Type() schema.DataType { return schema.Int32() }
func (c *Int32Column) IsNull(i int) bool     { return c.Valid != nil && !c.Valid[i] }

func (c *Int32Column) Value(i int) model.Value {
	if c.IsNull(i) {
		return model.Null()
	}
	return model.Int32(c.Values[i])
}

// Utf8Column holds string values. A nil Valid slice means no nulls.
type Utf8Column struct {
	Values []string
	Valid  []bool
}

func (c *Utf8Column) Len() int              { return len(c.Values) }
func (c *Utf8Column) Type() schema.DataType { return schema.Utf8() }
func (c *Utf8Column) IsNull(i int) bool     { return c.Valid != nil && !c.Valid[i] }

func (c *Utf8Column) Value(i int) model.Value {
	if c.IsNull(i) {
		return model.Null()
	}
	return model.String(c.Values[i])
}

// VectorColumn holds fixed-size vectors. A nil element is null.
//
// Lengths are not checked here; ragged vectors are rejected when the batch
// is encoded.
type VectorColumn struct {
	Dim    int
	Values [][]float32
}

func (c *VectorColumn) Len() int              { return len(c.Values) }
func (c *VectorColumn) Type() schema.DataType { return schema.Vector(c.Dim) }
func (c *VectorColumn) IsNull(i int) bool     { return c.Values[i] == nil }

func (c *VectorColumn) Value(i int) model.Value {
	if c.Values[i] == nil {
		return model.Null()
	}
	return model.Vector(c.Values[i])
}
