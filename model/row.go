package model

import "strings"

// Row is a decoded table row.
//
// Fields is shared between all rows decoded from the same schema and must be
// treated as read-only.
type Row struct {
	ID     RowID
	Fields []string
	Values []Value
}

// Get returns the value of the named column.
func (r Row) Get(name string) (Value, bool) {
	for i, f := range r.Fields {
		if f == name {
			return r.Values[i], true
		}
	}
	return Value{}, false
}

// Equal reports whether two rows carry the same id, fields and values.
func (r Row) Equal(o Row) bool {
	if r.ID != o.ID || len(r.Values) != len(o.Values) || len(r.Fields) != len(o.Fields) {
		return false
	}
	for i := range r.Fields {
		if r.Fields[i] != o.Fields[i] {
			return false
		}
	}
	for i := range r.Values {
		if !r.Values[i].Equal(o.Values[i]) {
			return false
		}
	}
	return true
}

func (r Row) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f)
		sb.WriteString(": ")
		sb.WriteString(r.Values[i].String())
	}
	sb.WriteByte('}')
	return sb.String()
}
