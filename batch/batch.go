package batch

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

var (
	// ErrColumnCount is returned when the number of columns does not match the schema.
	ErrColumnCount = errors.New("batch: column count does not match schema")

	// ErrColumnLength is returned when columns have different lengths.
	ErrColumnLength = errors.New("batch: columns have different lengths")

	// ErrColumnType is returned when a column does not have the schema type.
	ErrColumnType = errors.New("batch: column type does not match schema")
)

// Batch is an immutable set of equal-length columns described by a schema.
type Batch struct {
	schema *schema.Schema
	cols   []Column
	rows   int
}

// New creates a Batch. Columns must follow the schema's column order.
func New(s *schema.Schema, cols ...Column) (*Batch, error) {
	if len(cols) != s.NumColumns() {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrColumnCount, s.NumColumns(), len(cols))
	}
	rows := 0
	for i, c := range cols {
		want := s.Column(i).Type
		got := c.Type()
		if got != want {
			return nil, fmt.Errorf("%w: column %q is %s, want %s", ErrColumnType, s.Column(i).Name, got, want)
		}
		if i == 0 {
			rows = c.Len()
		} else if c.Len() != rows {
			return nil, fmt.Errorf("%w: column %q has %d values, want %d", ErrColumnLength, s.Column(i).Name, c.Len(), rows)
		}
		if n, ok := validLen(c); ok && n != c.Len() {
			return nil, fmt.Errorf("%w: column %q has %d validity flags for %d values", ErrColumnLength, s.Column(i).Name, n, c.Len())
		}
	}
	return &Batch{schema: s, cols: cols, rows: rows}, nil
}

// validLen returns the length of a column's validity slice. A nil slice
// means all values are valid and is not checked.
func validLen(c Column) (int, bool) {
	switch c := c.(type) {
	case *Int32Column:
		return len(c.Valid), c.Valid != nil
	case *Utf8Column:
		return len(c.Valid), c.Valid != nil
	}
	return 0, false
}

// Schema returns the batch schema.
func (b *Batch) Schema() *schema.Schema { return b.schema }

// NumRows returns the number of rows.
func (b *Batch) NumRows() int { return b.rows }

// NumColumns returns the number of columns.
func (b *Batch) NumColumns() int { return len(b.cols) }

// Column returns the i-th column.
func (b *Batch) Column(i int) Column { return b.cols[i] }

// ColumnByName returns the named column.
func (b *Batch) ColumnByName(name string) (Column, bool) {
	i, ok := b.schema.Lookup(name)
	if !ok {
		return nil, false
	}
	return b.cols[i], true
}

// Row returns the values of the i-th row in schema order.
func (b *Batch) Row(i int) []model.Value {
	out := make([]model.Value, len(b.cols))
	for j, c := range b.cols {
		out[j] = c.Value(i)
	}
	return out
}

// Project returns a batch whose columns follow the order of target. Every
// column of target must exist in b with the same type.
func (b *Batch) Project(target *schema.Schema) (*Batch, error) {
	if err := schema.ValidateBatch(target, b.schema); err != nil {
		return nil, err
	}
	cols := make([]Column, target.NumColumns())
	for i, c := range target.Columns() {
		j, _ := b.schema.Lookup(c.Name)
		cols[i] = b.cols[j]
	}
	return &Batch{schema: target, cols: cols, rows: b.rows}, nil
}
