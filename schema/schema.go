package schema

import (
	"strings"
	"unicode"
)

// Column is a named, typed column.
type Column struct {
	Name     string
	Type     DataType
	Nullable bool
}

// Schema is an ordered, immutable set of columns.
type Schema struct {
	columns []Column
	byName  map[string]int
	vector  int
}

// Define validates the columns and returns a Schema.
func Define(columns ...Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, &Error{Kind: EmptySchema}
	}

	s := &Schema{
		columns: make([]Column, len(columns)),
		byName:  make(map[string]int, len(columns)),
		vector:  -1,
	}
	copy(s.columns, columns)

	for i, c := range s.columns {
		if !validName(c.Name) {
			return nil, &Error{Kind: InvalidName, Column: c.Name}
		}
		if _, dup := s.byName[c.Name]; dup {
			return nil, &Error{Kind: DuplicateName, Column: c.Name}
		}
		switch c.Type.ID {
		case TypeInt32, TypeUtf8:
		case TypeVector:
			if c.Type.Elem != ElemFloat32 {
				return nil, &Error{Kind: UnsupportedType, Column: c.Name, Actual: c.Type.String()}
			}
			if c.Type.Dim <= 0 {
				return nil, &Error{Kind: ZeroDimVector, Column: c.Name}
			}
			if s.vector < 0 {
				s.vector = i
			}
		default:
			return nil, &Error{Kind: UnsupportedType, Column: c.Name, Actual: c.Type.String()}
		}
		s.byName[c.Name] = i
	}
	return s, nil
}

// MustDefine is like Define but panics on error.
func MustDefine(columns ...Column) *Schema {
	s, err := Define(columns...)
	if err != nil {
		panic(err)
	}
	return s
}

func validName(name string) bool {
	if name == "" || strings.TrimSpace(name) != name {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// NumColumns returns the number of columns.
func (s *Schema) NumColumns() int { return len(s.columns) }

// Column returns the i-th column.
func (s *Schema) Column(i int) Column { return s.columns[i] }

// Columns returns a copy of the columns.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Name
	}
	return out
}

// Lookup returns the index of the named column.
func (s *Schema) Lookup(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// VectorColumn returns the index of the index-eligible vector column,
// or -1 if the schema has none.
func (s *Schema) VectorColumn() int { return s.vector }

// VectorDim returns the dimension of the index-eligible vector column,
// or 0 if there is none.
func (s *Schema) VectorDim() int {
	if s.vector < 0 {
		return 0
	}
	return s.columns[s.vector].Type.Dim
}

// Equal reports whether two schemas have identical columns in the same order.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.columns) != len(o.columns) {
		return false
	}
	for i := range s.columns {
		if s.columns[i] != o.columns[i] {
			return false
		}
	}
	return true
}

// String returns a compact description such as "{id: Int32, name: Utf8?}".
// Nullable columns carry a trailing "?".
func (s *Schema) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, c := range s.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.Name)
		sb.WriteString(": ")
		sb.WriteString(c.Type.String())
		if c.Nullable {
			sb.WriteByte('?')
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

// ValidateBatch checks that a batch schema conforms to the table schema.
//
// Columns are matched by name; every table column must be present with the
// same type, and the batch may not carry extra columns. A nullable batch
// column is accepted for a non-nullable table column; null values are
// rejected at encode time.
func ValidateBatch(table, batch *Schema) error {
	if batch == nil {
		return &Error{Kind: EmptySchema}
	}
	for _, c := range table.columns {
		j, ok := batch.byName[c.Name]
		if !ok {
			return mismatch(c.Name, c.Type, "missing")
		}
		if got := batch.columns[j].Type; got != c.Type {
			return mismatch(c.Name, c.Type, got)
		}
	}
	for _, c := range batch.columns {
		if _, ok := table.byName[c.Name]; !ok {
			return mismatch(c.Name, "absent", c.Type)
		}
	}
	return nil
}
