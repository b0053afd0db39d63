package predicate

import (
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

// Parse parses text against schema s.
//
// Grammar (keywords are case-insensitive, AND binds tighter than OR):
//
//	expr    = and { "OR" and }
//	and     = primary { "AND" primary }
//	primary = "(" expr ")"
//	        | column op literal
//	        | column "IS" [ "NOT" ] "NULL"
//	op      = "=" | "==" | "!=" | "<>" | "<" | "<=" | ">" | ">="
//	literal = integer | 'string' | "string"
//
// Int32 columns compare with integers and Utf8 columns with strings.
// Vector columns only support IS [NOT] NULL.
func Parse(text string, s *schema.Schema) (*Predicate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, syntaxErr(0, "empty predicate")
	}

	toks, err := lex(text)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks, schema: s, used: make(map[int]struct{})}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, syntaxErr(t.pos, "unexpected %s", describe(t))
	}

	cols := make([]int, 0, len(p.used))
	for c := range p.used {
		cols = append(cols, c)
	}
	slices.Sort(cols)

	return &Predicate{text: text, root: root, columns: cols}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string, s *schema.Schema) *Predicate {
	p, err := Parse(text, s)
	if err != nil {
		panic(err)
	}
	return p
}

type parser struct {
	toks   []token
	pos    int
	schema *schema.Schema
	used   map[int]struct{}
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, syntaxErr(t.pos, "expected %s, found %s", kind, describe(t))
	}
	return t, nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (node, error) {
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}

	ident, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	col, ok := p.schema.Lookup(ident.text)
	if !ok {
		return nil, &Error{Kind: UnknownColumn, Pos: ident.pos, Column: ident.text, Msg: "no such column"}
	}
	p.used[col] = struct{}{}
	column := p.schema.Column(col)

	if p.peek().kind == tokIs {
		p.next()
		negate := false
		if p.peek().kind == tokNot {
			p.next()
			negate = true
		}
		if _, err := p.expect(tokNull); err != nil {
			return nil, err
		}
		return &nullNode{col: col, name: ident.text, negate: negate}, nil
	}

	opTok, err := p.expect(tokOp)
	if err != nil {
		return nil, err
	}
	op, ok := parseOperator(opTok.text)
	if !ok {
		return nil, syntaxErr(opTok.pos, "unknown operator %q", opTok.text)
	}

	litTok := p.next()
	var lit model.Value
	switch litTok.kind {
	case tokInt:
		n, err := strconv.ParseInt(litTok.text, 10, 32)
		if err != nil {
			return nil, &Error{Kind: TypeMismatch, Pos: litTok.pos, Column: column.Name, Msg: "integer " + litTok.text + " out of Int32 range"}
		}
		lit = model.Int32(int32(n))
	case tokString:
		lit = model.String(litTok.text)
	case tokNull:
		return nil, &Error{Kind: TypeMismatch, Pos: litTok.pos, Column: column.Name, Msg: "comparison with NULL is never true, use IS NULL"}
	default:
		return nil, syntaxErr(litTok.pos, "expected literal, found %s", describe(litTok))
	}

	var want model.Kind
	switch column.Type.ID {
	case schema.TypeInt32:
		want = model.KindInt32
	case schema.TypeUtf8:
		want = model.KindUtf8
	default:
		return nil, &Error{Kind: TypeMismatch, Pos: ident.pos, Column: column.Name, Msg: column.Type.String() + " columns cannot be compared"}
	}
	if lit.Kind != want {
		return nil, &Error{Kind: TypeMismatch, Pos: litTok.pos, Column: column.Name, Msg: "expected " + want.String() + " literal, found " + lit.Kind.String()}
	}

	return &compareNode{col: col, name: ident.text, op: op, lit: lit}, nil
}

func describe(t token) string {
	switch t.kind {
	case tokIdent, tokInt, tokOp:
		return strconv.Quote(t.text)
	case tokString:
		return "string " + strconv.Quote(t.text)
	default:
		return t.kind.String()
	}
}
