package batch

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hupe1980/vectable/schema"
)

// SchemaFromArrow converts an Arrow schema. Supported field types are
// int32, utf8/large_utf8 and fixed_size_list<float32>.
func SchemaFromArrow(as *arrow.Schema) (*schema.Schema, error) {
	cols := make([]schema.Column, 0, as.NumFields())
	for _, f := range as.Fields() {
		var dt schema.DataType
		switch t := f.Type.(type) {
		case *arrow.Int32Type:
			dt = schema.Int32()
		case *arrow.StringType, *arrow.LargeStringType:
			dt = schema.Utf8()
		case *arrow.FixedSizeListType:
			if t.Elem().ID() != arrow.FLOAT32 {
				return nil, &schema.Error{Kind: schema.UnsupportedType, Column: f.Name, Actual: t.String()}
			}
			dt = schema.Vector(int(t.Len()))
		default:
			return nil, &schema.Error{Kind: schema.UnsupportedType, Column: f.Name, Actual: f.Type.String()}
		}
		cols = append(cols, schema.Column{Name: f.Name, Type: dt, Nullable: f.Nullable})
	}
	return schema.Define(cols...)
}

// SchemaToArrow converts a schema to its Arrow equivalent.
func SchemaToArrow(s *schema.Schema) *arrow.Schema {
	fields := make([]arrow.Field, s.NumColumns())
	for i, c := range s.Columns() {
		var dt arrow.DataType
		switch c.Type.ID {
		case schema.TypeInt32:
			dt = arrow.PrimitiveTypes.Int32
		case schema.TypeUtf8:
			dt = arrow.BinaryTypes.String
		case schema.TypeVector:
			dt = arrow.FixedSizeListOf(int32(c.Type.Dim), arrow.PrimitiveTypes.Float32)
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Nullable: c.Nullable}
	}
	return arrow.NewSchema(fields, nil)
}

// FromArrow returns a Source over Arrow records. All records must share the
// schema of the first one. The records are copied; callers keep ownership
// and may release them afterwards.
func FromArrow(records ...arrow.Record) (Source, error) {
	if len(records) == 0 {
		return nil, ErrNoSchema
	}
	s, err := SchemaFromArrow(records[0].Schema())
	if err != nil {
		return nil, err
	}
	batches := make([]*Batch, 0, len(records))
	for _, rec := range records {
		if !rec.Schema().Equal(records[0].Schema()) {
			return nil, fmt.Errorf("%w: record schema %s differs from %s", ErrColumnType, rec.Schema(), records[0].Schema())
		}
		b, err := FromArrowRecord(s, rec)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return NewSource(s, batches...), nil
}

type stringArray interface {
	arrow.Array
	Value(i int) string
}

// FromArrowRecord copies an Arrow record into a Batch with schema s.
func FromArrowRecord(s *schema.Schema, rec arrow.Record) (*Batch, error) {
	if int(rec.NumCols()) != s.NumColumns() {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrColumnCount, s.NumColumns(), rec.NumCols())
	}
	n := int(rec.NumRows())
	cols := make([]Column, s.NumColumns())
	for i, c := range s.Columns() {
		arr := rec.Column(i)
		switch c.Type.ID {
		case schema.TypeInt32:
			a, ok := arr.(*array.Int32)
			if !ok {
				return nil, fmt.Errorf("%w: column %q is %s", ErrColumnType, c.Name, arr.DataType())
			}
			col := &Int32Column{Values: make([]int32, n), Valid: make([]bool, n)}
			for r := range n {
				col.Valid[r] = a.IsValid(r)
				if col.Valid[r] {
					col.Values[r] = a.Value(r)
				}
			}
			cols[i] = col
		case schema.TypeUtf8:
			a, ok := arr.(stringArray)
			if !ok {
				return nil, fmt.Errorf("%w: column %q is %s", ErrColumnType, c.Name, arr.DataType())
			}
			col := &Utf8Column{Values: make([]string, n), Valid: make([]bool, n)}
			for r := range n {
				col.Valid[r] = a.IsValid(r)
				if col.Valid[r] {
					col.Values[r] = a.Value(r)
				}
			}
			cols[i] = col
		case schema.TypeVector:
			a, ok := arr.(*array.FixedSizeList)
			if !ok {
				return nil, fmt.Errorf("%w: column %q is %s", ErrColumnType, c.Name, arr.DataType())
			}
			values, ok := a.ListValues().(*array.Float32)
			if !ok {
				return nil, fmt.Errorf("%w: column %q has %s elements", ErrColumnType, c.Name, a.ListValues().DataType())
			}
			floats := values.Float32Values()
			col := &VectorColumn{Dim: c.Type.Dim, Values: make([][]float32, n)}
			for r := range n {
				if a.IsNull(r) {
					continue
				}
				start, end := a.ValueOffsets(r)
				vec := make([]float32, end-start)
				copy(vec, floats[start:end])
				col.Values[r] = vec
			}
			cols[i] = col
		}
	}
	return New(s, cols...)
}

// ToArrow converts a Batch to an Arrow record. The caller must release it.
func ToArrow(mem memory.Allocator, b *Batch) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	as := SchemaToArrow(b.schema)
	arrs := make([]arrow.Array, 0, b.NumColumns())
	defer func() {
		for _, a := range arrs {
			a.Release()
		}
	}()

	for i := range b.NumColumns() {
		switch col := b.cols[i].(type) {
		case *Int32Column:
			bld := array.NewInt32Builder(mem)
			for r, v := range col.Values {
				if col.IsNull(r) {
					bld.AppendNull()
				} else {
					bld.Append(v)
				}
			}
			arrs = append(arrs, bld.NewArray())
			bld.Release()
		case *Utf8Column:
			bld := array.NewStringBuilder(mem)
			for r, v := range col.Values {
				if col.IsNull(r) {
					bld.AppendNull()
				} else {
					bld.Append(v)
				}
			}
			arrs = append(arrs, bld.NewArray())
			bld.Release()
		case *VectorColumn:
			bld := array.NewFixedSizeListBuilder(mem, int32(col.Dim), arrow.PrimitiveTypes.Float32)
			vb := bld.ValueBuilder().(*array.Float32Builder)
			for _, v := range col.Values {
				if v == nil {
					bld.AppendNull()
					continue
				}
				if len(v) != col.Dim {
					bld.Release()
					return nil, fmt.Errorf("%w: vector of length %d in column of dim %d", ErrColumnLength, len(v), col.Dim)
				}
				bld.Append(true)
				vb.AppendValues(v, nil)
			}
			arrs = append(arrs, bld.NewArray())
			bld.Release()
		default:
			return nil, fmt.Errorf("%w: unsupported column %T", ErrColumnType, col)
		}
	}
	return array.NewRecord(as, arrs, int64(b.rows)), nil
}
