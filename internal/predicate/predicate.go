package predicate

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/hupe1980/vectable/model"
)

// Operator is a comparison operator.
type Operator uint8

const (
	OpEqual Operator = iota + 1
	OpNotEqual
	OpLessThan
	OpLessEqual
	OpGreaterThan
	OpGreaterEqual
)

func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpLessThan:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterEqual:
		return ">="
	default:
		return "?"
	}
}

func parseOperator(s string) (Operator, bool) {
	switch s {
	case "=", "==":
		return OpEqual, true
	case "!=", "<>":
		return OpNotEqual, true
	case "<":
		return OpLessThan, true
	case "<=":
		return OpLessEqual, true
	case ">":
		return OpGreaterThan, true
	case ">=":
		return OpGreaterEqual, true
	}
	return 0, false
}

// Getter returns the value of the column with the given schema index.
type Getter func(col int) model.Value

// Predicate is a parsed boolean expression over the columns of a schema.
// It is immutable and safe for concurrent use.
type Predicate struct {
	text    string
	root    node
	columns []int
}

// String returns the text the predicate was parsed from.
func (p *Predicate) String() string { return p.text }

// Columns returns the schema indexes the predicate reads, ascending.
func (p *Predicate) Columns() []int { return p.columns }

// Evaluate reports whether row satisfies the predicate. The row must be
// laid out in schema order. Comparisons against null are false.
func (p *Predicate) Evaluate(row model.Row) bool {
	return p.root.eval(func(col int) model.Value { return row.Values[col] })
}

// Match is like Evaluate but reads values through get, so callers can
// avoid materializing whole rows.
func (p *Predicate) Match(get Getter) bool {
	return p.root.eval(get)
}

type node interface {
	eval(get Getter) bool
	format(sb *strings.Builder)
}

type andNode struct{ left, right node }

func (n *andNode) eval(get Getter) bool { return n.left.eval(get) && n.right.eval(get) }

func (n *andNode) format(sb *strings.Builder) {
	sb.WriteByte('(')
	n.left.format(sb)
	sb.WriteString(" AND ")
	n.right.format(sb)
	sb.WriteByte(')')
}

type orNode struct{ left, right node }

func (n *orNode) eval(get Getter) bool { return n.left.eval(get) || n.right.eval(get) }

func (n *orNode) format(sb *strings.Builder) {
	sb.WriteByte('(')
	n.left.format(sb)
	sb.WriteString(" OR ")
	n.right.format(sb)
	sb.WriteByte(')')
}

type compareNode struct {
	col  int
	name string
	op   Operator
	lit  model.Value
}

func (n *compareNode) eval(get Getter) bool {
	v := get(n.col)
	if v.Kind != n.lit.Kind {
		// Null, or a value of another kind.
		return false
	}

	var c int
	switch v.Kind {
	case model.KindInt32:
		switch {
		case v.I32 < n.lit.I32:
			c = -1
		case v.I32 > n.lit.I32:
			c = 1
		}
	case model.KindUtf8:
		c = strings.Compare(v.Str, n.lit.Str)
	default:
		return false
	}

	switch n.op {
	case OpEqual:
		return c == 0
	case OpNotEqual:
		return c != 0
	case OpLessThan:
		return c < 0
	case OpLessEqual:
		return c <= 0
	case OpGreaterThan:
		return c > 0
	case OpGreaterEqual:
		return c >= 0
	default:
		return false
	}
}

func (n *compareNode) format(sb *strings.Builder) {
	writeName(sb, n.name)
	sb.WriteByte(' ')
	sb.WriteString(n.op.String())
	sb.WriteByte(' ')
	if n.lit.Kind == model.KindUtf8 {
		sb.WriteByte('\'')
		sb.WriteString(strings.ReplaceAll(n.lit.Str, "'", "''"))
		sb.WriteByte('\'')
	} else {
		sb.WriteString(strconv.FormatInt(int64(n.lit.I32), 10))
	}
}

type nullNode struct {
	col    int
	name   string
	negate bool
}

func (n *nullNode) eval(get Getter) bool {
	return get(n.col).IsNull() != n.negate
}

func (n *nullNode) format(sb *strings.Builder) {
	writeName(sb, n.name)
	if n.negate {
		sb.WriteString(" IS NOT NULL")
	} else {
		sb.WriteString(" IS NULL")
	}
}

// Canonical renders the predicate fully parenthesized with normalized
// operators and quoting.
func (p *Predicate) Canonical() string {
	var sb strings.Builder
	p.root.format(&sb)
	return sb.String()
}

// writeName writes a column name, quoting it with backticks unless it lexes
// as a plain identifier.
func writeName(sb *strings.Builder, name string) {
	plain := name != ""
	for i, r := range name {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			plain = false
			break
		}
	}
	if _, kw := keywords[strings.ToUpper(name)]; kw {
		plain = false
	}
	if plain {
		sb.WriteString(name)
		return
	}
	sb.WriteByte('`')
	sb.WriteString(name)
	sb.WriteByte('`')
}
