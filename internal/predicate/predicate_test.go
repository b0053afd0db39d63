package predicate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

var testSchema = schema.MustDefine(
	schema.Column{Name: "id", Type: schema.Int32()},
	schema.Column{Name: "name", Type: schema.Utf8(), Nullable: true},
	schema.Column{Name: "vec", Type: schema.Vector(2), Nullable: true},
	schema.Column{Name: "first name", Type: schema.Utf8(), Nullable: true},
)

func row(id int32, name model.Value) model.Row {
	return model.Row{
		ID:     model.RowID(id),
		Fields: testSchema.Names(),
		Values: []model.Value{model.Int32(id), name, model.Vector([]float32{1, 2}), model.Null()},
	}
}

func TestParseAndEvaluate(t *testing.T) {
	alice := row(7, model.String("alice"))
	anon := row(30, model.Null())

	tests := []struct {
		expr  string
		alice bool
		anon  bool
	}{
		{"id = 7", true, false},
		{"id == 7", true, false},
		{"id != 7", false, true},
		{"id <> 7", false, true},
		{"id < 10", true, false},
		{"id <= 7", true, false},
		{"id > 7", false, true},
		{"id >= 30", false, true},
		{"id > -5", true, true},
		{"name = 'alice'", true, false},
		{`name = "alice"`, true, false},
		{"name > 'a'", true, false},
		{"name != 'bob'", true, false},
		{"name IS NULL", false, true},
		{"name is not null", true, false},
		{"vec IS NOT NULL", true, true},
		{"id > 24 and name is null", false, true},
		{"id = 7 OR id = 30", true, true},
		{"id = 1 OR id = 7 AND name = 'bob'", false, false},
		{"(id = 1 OR id = 7) AND name = 'alice'", true, false},
		{"`first name` IS NULL", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Parse(tt.expr, testSchema)
			require.NoError(t, err)
			assert.Equal(t, tt.alice, p.Evaluate(alice))
			assert.Equal(t, tt.anon, p.Evaluate(anon))
			assert.Equal(t, tt.expr, p.String())
		})
	}
}

func TestNullComparisonsAreFalse(t *testing.T) {
	anon := row(1, model.Null())
	for _, expr := range []string{"name = 'x'", "name != 'x'", "name < 'x'", "name >= ''"} {
		p := MustParse(expr, testSchema)
		assert.False(t, p.Evaluate(anon), expr)
	}
}

func TestStringEscapes(t *testing.T) {
	p := MustParse("name = 'o''brien'", testSchema)
	assert.True(t, p.Evaluate(row(1, model.String("o'brien"))))
	assert.Equal(t, "name = 'o''brien'", p.Canonical())
}

func TestMatch(t *testing.T) {
	p := MustParse("id >= 10 AND name IS NOT NULL", testSchema)
	assert.Equal(t, []int{0, 1}, p.Columns())

	values := map[int]model.Value{0: model.Int32(12), 1: model.String("x")}
	var reads []int
	get := func(col int) model.Value {
		reads = append(reads, col)
		return values[col]
	}
	assert.True(t, p.Match(get))
	assert.Equal(t, []int{0, 1}, reads)

	values[0] = model.Int32(3)
	reads = nil
	assert.False(t, p.Match(get))
	assert.Equal(t, []int{0}, reads, "AND short-circuits")
}

func TestCanonical(t *testing.T) {
	tests := map[string]string{
		"id==1":                                "id = 1",
		"id = 1 or id = 2 and name is null":    "(id = 1 OR (id = 2 AND name IS NULL))",
		"(id = 1 or id = 2) and name is null":  "((id = 1 OR id = 2) AND name IS NULL)",
		"`first name` is not null and id > +3": "(`first name` IS NOT NULL AND id > 3)",
		"  name   <   \"b\"  ":                 "name < 'b'",
	}
	for in, want := range tests {
		p, err := Parse(in, testSchema)
		require.NoError(t, err, in)
		assert.Equal(t, want, p.Canonical())

		again, err := Parse(p.Canonical(), testSchema)
		require.NoError(t, err)
		assert.Equal(t, p.Canonical(), again.Canonical())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		expr   string
		kind   ErrorKind
		pos    int
		column string
	}{
		{"", SyntaxError, 0, ""},
		{"   ", SyntaxError, 0, ""},
		{"id =", SyntaxError, 4, ""},
		{"id 7", SyntaxError, 3, ""},
		{"(id = 1", SyntaxError, 7, ""},
		{"id = 1 name", SyntaxError, 7, ""},
		{"id = 1 AND", SyntaxError, 10, ""},
		{"id ! 1", SyntaxError, 3, ""},
		{"name = 'abc", SyntaxError, 7, ""},
		{"id = 1 # 2", SyntaxError, 7, ""},
		{"name IS 'x'", SyntaxError, 8, ""},
		{"missing = 1", UnknownColumn, 0, "missing"},
		{"id = 1 AND ID = 2", UnknownColumn, 11, "ID"},
		{"id = 'seven'", TypeMismatch, 5, "id"},
		{"name = 7", TypeMismatch, 7, "name"},
		{"id = 3000000000", TypeMismatch, 5, "id"},
		{"id = NULL", TypeMismatch, 5, "id"},
		{"vec = 1", TypeMismatch, 0, "vec"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Parse(tt.expr, testSchema)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrPredicate))

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.kind, perr.Kind, perr.Error())
			assert.Equal(t, tt.pos, perr.Pos, perr.Error())
			assert.Equal(t, tt.column, perr.Column)
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("id =", testSchema) })
}

func TestErrorString(t *testing.T) {
	_, err := Parse("nope = 1", testSchema)
	require.Error(t, err)
	assert.Equal(t, `UnknownColumn at 0: column "nope": no such column`, err.Error())
}
