package batch

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

func personSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewBuilder().AddInt32("id", false).AddUtf8("name", true).AddVector("vector", 2, true).Build()
	require.NoError(t, err)
	return s
}

func TestBuilder(t *testing.T) {
	s := personSchema(t)
	b := NewBuilder(s)

	require.NoError(t, b.Append(int32(1), "Alice", []float32{1, 2}))
	require.NoError(t, b.Append(2, nil, nil))
	assert.Equal(t, 2, b.Len())

	// Failing rows leave the builder untouched.
	assert.ErrorIs(t, b.Append("3", "Lily", nil), ErrColumnType)
	assert.ErrorIs(t, b.Append(1<<40, "Lily", nil), ErrColumnType)
	assert.ErrorIs(t, b.Append(int32(3)), ErrColumnCount)
	assert.Equal(t, 2, b.Len())

	out, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())
	assert.Equal(t, 0, b.Len())

	assert.Equal(t, []model.Value{model.Int32(1), model.String("Alice"), model.Vector([]float32{1, 2})}, out.Row(0))
	assert.Equal(t, []model.Value{model.Int32(2), model.Null(), model.Null()}, out.Row(1))
}

func TestNew(t *testing.T) {
	s := personSchema(t)

	_, err := New(s, &Int32Column{Values: []int32{1}})
	assert.ErrorIs(t, err, ErrColumnCount)

	_, err = New(s,
		&Int32Column{Values: []int32{1, 2}},
		&Utf8Column{Values: []string{"a"}},
		&VectorColumn{Dim: 2, Values: [][]float32{{1, 1}, {2, 2}}},
	)
	assert.ErrorIs(t, err, ErrColumnLength)

	_, err = New(s,
		&Int32Column{Values: []int32{1}},
		&Utf8Column{Values: []string{"a"}},
		&VectorColumn{Dim: 3, Values: [][]float32{{1, 1, 1}}},
	)
	assert.ErrorIs(t, err, ErrColumnType)

	// Validity flags must cover every value.
	_, err = New(s,
		&Int32Column{Values: []int32{1, 2, 3}, Valid: []bool{true}},
		&Utf8Column{Values: []string{"a", "b", "c"}},
		&VectorColumn{Dim: 2, Values: [][]float32{{1, 1}, {2, 2}, {3, 3}}},
	)
	assert.ErrorIs(t, err, ErrColumnLength)

	_, err = New(s,
		&Int32Column{Values: []int32{1, 2}},
		&Utf8Column{Values: []string{"a", "b"}, Valid: []bool{true, false, true}},
		&VectorColumn{Dim: 2, Values: [][]float32{{1, 1}, nil}},
	)
	assert.ErrorIs(t, err, ErrColumnLength)

	b, err := New(s,
		&Int32Column{Values: []int32{1, 2}, Valid: []bool{true, true}},
		&Utf8Column{Values: []string{"a", ""}, Valid: []bool{true, false}},
		&VectorColumn{Dim: 2, Values: [][]float32{{1, 1}, nil}},
	)
	require.NoError(t, err)
	assert.True(t, b.Row(1)[1].IsNull())
}

func TestProject(t *testing.T) {
	table := schema.MustDefine(
		schema.Column{Name: "id", Type: schema.Int32()},
		schema.Column{Name: "name", Type: schema.Utf8()},
	)
	reordered := schema.MustDefine(
		schema.Column{Name: "name", Type: schema.Utf8()},
		schema.Column{Name: "id", Type: schema.Int32()},
	)
	b, err := New(reordered, &Utf8Column{Values: []string{"Bob"}}, &Int32Column{Values: []int32{7}})
	require.NoError(t, err)

	p, err := b.Project(table)
	require.NoError(t, err)
	assert.Equal(t, []model.Value{model.Int32(7), model.String("Bob")}, p.Row(0))
}

func TestSources(t *testing.T) {
	s := personSchema(t)
	b1, err := New(s, &Int32Column{Values: []int32{1}}, &Utf8Column{Values: []string{"a"}}, &VectorColumn{Dim: 2, Values: [][]float32{nil}})
	require.NoError(t, err)

	src := Of(b1, b1)
	assert.Same(t, s, src.Schema())

	// Restartable.
	for range 2 {
		got, err := Collect(src)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	}

	assert.Nil(t, Of().Schema())
	assert.Same(t, s, NewSource(s).Schema())
}

func TestArrowRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s := personSchema(t)
	b := NewBuilder(s)
	require.NoError(t, b.Append(int32(1), "Alice", []float32{1, 2}))
	require.NoError(t, b.Append(int32(2), nil, nil))
	require.NoError(t, b.Append(int32(3), "Lily", []float32{5, 6}))
	in, err := b.Build()
	require.NoError(t, err)

	rec, err := ToArrow(mem, in)
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, int64(3), rec.NumRows())
	assert.Equal(t, arrow.FIXED_SIZE_LIST, rec.Schema().Field(2).Type.ID())

	src, err := FromArrow(rec)
	require.NoError(t, err)
	assert.True(t, s.Equal(src.Schema()))

	got, err := Collect(src)
	require.NoError(t, err)
	require.Len(t, got, 1)
	for i := range 3 {
		assert.Equal(t, in.Row(i), got[0].Row(i))
	}
}

func TestFromArrowSlicedRecord(t *testing.T) {
	mem := memory.NewGoAllocator()
	s := schema.MustDefine(
		schema.Column{Name: "id", Type: schema.Int32()},
		schema.Column{Name: "vector", Type: schema.Vector(2)},
	)
	b := NewBuilder(s)
	for i := range 4 {
		require.NoError(t, b.Append(i, []float32{float32(i), float32(-i)}))
	}
	in, err := b.Build()
	require.NoError(t, err)

	rec, err := ToArrow(mem, in)
	require.NoError(t, err)
	defer rec.Release()

	sliced := rec.NewSlice(2, 4)
	defer sliced.Release()

	src, err := FromArrow(sliced)
	require.NoError(t, err)
	got, err := Collect(src)
	require.NoError(t, err)
	assert.Equal(t, []model.Value{model.Int32(2), model.Vector([]float32{2, -2})}, got[0].Row(0))
	assert.Equal(t, []model.Value{model.Int32(3), model.Vector([]float32{3, -3})}, got[0].Row(1))
}

func TestSchemaFromArrowUnsupported(t *testing.T) {
	as := arrow.NewSchema([]arrow.Field{{Name: "x", Type: arrow.PrimitiveTypes.Float64}}, nil)
	_, err := SchemaFromArrow(as)
	var se *schema.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, schema.UnsupportedType, se.Kind)

	_, err = FromArrow()
	assert.ErrorIs(t, err, ErrNoSchema)
}
