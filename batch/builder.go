package batch

import (
	"fmt"

	"github.com/hupe1980/vectable/internal/conv"
	"github.com/hupe1980/vectable/schema"
)

// Builder accumulates rows into a Batch.
type Builder struct {
	schema *schema.Schema
	cols   []Column
}

// NewBuilder returns a Builder for the schema.
func NewBuilder(s *schema.Schema) *Builder {
	b := &Builder{schema: s}
	b.reset()
	return b
}

func (b *Builder) reset() {
	b.cols = make([]Column, b.schema.NumColumns())
	for i, c := range b.schema.Columns() {
		switch c.Type.ID {
		case schema.TypeInt32:
			b.cols[i] = &Int32Column{Valid: []bool{}}
		case schema.TypeUtf8:
			b.cols[i] = &Utf8Column{Valid: []bool{}}
		case schema.TypeVector:
			b.cols[i] = &VectorColumn{Dim: c.Type.Dim}
		}
	}
}

// Append adds one row. Values follow the schema order; nil is null.
// Int32 columns accept int32 and int, Utf8 columns accept string and
// vector columns accept []float32. The row is not added on error.
func (b *Builder) Append(values ...any) error {
	if len(values) != len(b.cols) {
		return fmt.Errorf("%w: expected %d values, got %d", ErrColumnCount, len(b.cols), len(values))
	}

	// Type-check the full row first so a failure leaves the builder unchanged.
	for i, v := range values {
		if v == nil {
			continue
		}
		c := b.schema.Column(i)
		ok := false
		switch c.Type.ID {
		case schema.TypeInt32:
			switch x := v.(type) {
			case int32:
				ok = true
			case int:
				_, err := conv.Int32(x)
				ok = err == nil
			}
		case schema.TypeUtf8:
			_, ok = v.(string)
		case schema.TypeVector:
			_, ok = v.([]float32)
		}
		if !ok {
			return fmt.Errorf("%w: column %q cannot hold %T(%v)", ErrColumnType, c.Name, v, v)
		}
	}

	for i, v := range values {
		switch col := b.cols[i].(type) {
		case *Int32Column:
			switch x := v.(type) {
			case int32:
				col.Values = append(col.Values, x)
			case int:
				col.Values = append(col.Values, int32(x))
			default:
				col.Values = append(col.Values, 0)
			}
			col.Valid = append(col.Valid, v != nil)
		case *Utf8Column:
			s, _ := v.(string)
			col.Values = append(col.Values, s)
			col.Valid = append(col.Valid, v != nil)
		case *VectorColumn:
			vec, _ := v.([]float32)
			col.Values = append(col.Values, vec)
		}
	}
	return nil
}

// Len returns the number of rows appended so far.
func (b *Builder) Len() int {
	if len(b.cols) == 0 {
		return 0
	}
	return b.cols[0].Len()
}

// Build returns the accumulated batch and resets the builder.
func (b *Builder) Build() (*Batch, error) {
	out, err := New(b.schema, b.cols...)
	if err != nil {
		return nil, err
	}
	b.reset()
	return out, nil
}
