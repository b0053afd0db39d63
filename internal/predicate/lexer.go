package predicate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokString
	tokOp
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
	tokIs
	tokNull
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "column"
	case tokInt:
		return "integer"
	case tokString:
		return "string"
	case tokOp:
		return "operator"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokNot:
		return "NOT"
	case tokIs:
		return "IS"
	default:
		return "NULL"
	}
}

type token struct {
	kind tokenKind
	text string // identifier, literal or operator text
	pos  int
}

var keywords = map[string]tokenKind{
	"AND":  tokAnd,
	"OR":   tokOr,
	"NOT":  tokNot,
	"IS":   tokIs,
	"NULL": tokNull,
}

// lex splits text into tokens. Keywords are case-insensitive. Column names
// that are not plain identifiers can be quoted with backticks.
func lex(text string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.IsSpace(r):
			i += size

		case r == '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
			i++

		case strings.ContainsRune("=!<>", r):
			op := text[i : i+1]
			if i+1 < len(text) {
				switch two := text[i : i+2]; two {
				case "==", "!=", "<=", ">=", "<>":
					op = two
				}
			}
			if op == "!" {
				return nil, syntaxErr(i, "unexpected '!'")
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += len(op)

		case r == '\'' || r == '"':
			s, n, err := lexString(text, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, pos: i})
			i += n

		case r == '`':
			end := strings.IndexByte(text[i+1:], '`')
			if end < 0 {
				return nil, syntaxErr(i, "unterminated quoted column")
			}
			toks = append(toks, token{kind: tokIdent, text: text[i+1 : i+1+end], pos: i})
			i += end + 2

		case r == '-' || r == '+' || unicode.IsDigit(r):
			start := i
			i++
			for i < len(text) && text[i] >= '0' && text[i] <= '9' {
				i++
			}
			if i == start+1 && !unicode.IsDigit(r) {
				return nil, syntaxErr(start, "expected digits after %q", r)
			}
			toks = append(toks, token{kind: tokInt, text: text[start:i], pos: start})

		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(text) {
				r, size := utf8.DecodeRuneInString(text[i:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += size
			}
			word := text[start:i]
			if kw, ok := keywords[strings.ToUpper(word)]; ok {
				toks = append(toks, token{kind: kw, text: word, pos: start})
			} else {
				toks = append(toks, token{kind: tokIdent, text: word, pos: start})
			}

		default:
			return nil, syntaxErr(i, "unexpected character %q", r)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(text)}), nil
}

// lexString reads a quoted string starting at text[start]. A doubled quote
// character stands for itself.
func lexString(text string, start int) (string, int, error) {
	quote := text[start]
	var sb strings.Builder
	i := start + 1
	for i < len(text) {
		c := text[i]
		if c == quote {
			if i+1 < len(text) && text[i+1] == quote {
				sb.WriteByte(quote)
				i += 2
				continue
			}
			return sb.String(), i + 1 - start, nil
		}
		sb.WriteByte(c)
		i++
	}
	return "", 0, syntaxErr(start, "unterminated string")
}
