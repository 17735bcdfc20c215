package condition

import (
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokOp
	tokLBrack
	tokRBrack
	tokComma
	tokAnd
)

type token struct {
	kind tokenKind
	text string
	pos  int
	num  float64
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && unicode.IsSpace(rune(l.src[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]
	switch {
	case c == '[':
		l.pos++
		return token{kind: tokLBrack, text: "[", pos: start}, nil
	case c == ']':
		l.pos++
		return token{kind: tokRBrack, text: "]", pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, text: ",", pos: start}, nil
	case c == '&':
		if strings.HasPrefix(l.src[l.pos:], "&&") {
			l.pos += 2
			return token{kind: tokAnd, text: "&&", pos: start}, nil
		}
		return token{}, parseErr(start, "&", "unknown operator")
	case c == '\'' || c == '"':
		return l.lexString(c)
	case c == '=' || c == '!' || c == '<' || c == '>':
		return l.lexOperator()
	case isDigit(c) || (c == '-' && l.pos+1 < len(l.src) && (isDigit(l.src[l.pos+1]) || l.src[l.pos+1] == '.')) || c == '.':
		return l.lexNumber()
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], pos: start}, nil
	default:
		return token{}, parseErr(start, string(c), "unexpected character")
	}
}

func (l *lexer) lexString(quote byte) (token, error) {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\\' && l.pos+1 < len(l.src):
			sb.WriteByte(l.src[l.pos+1])
			l.pos += 2
		case c == quote:
			l.pos++
			return token{kind: tokString, text: sb.String(), pos: start}, nil
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return token{}, parseErr(start, l.src[start:], "unterminated string literal")
}

func (l *lexer) lexOperator() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && strings.IndexByte("=!<>", l.src[l.pos]) >= 0 {
		l.pos++
	}
	text := l.src[start:l.pos]
	if !Operator(text).IsValid() {
		return token{}, parseErr(start, text, "unknown operator")
	}
	return token{kind: tokOp, text: text, pos: start}, nil
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if isDigit(c) || c == '.' || c == 'e' || c == 'E' ||
			((c == '+' || c == '-') && (l.src[l.pos-1] == 'e' || l.src[l.pos-1] == 'E')) {
			l.pos++
			continue
		}
		if isIdentPart(c) {
			// digits running into letters, e.g. 12abc
			for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
				l.pos++
			}
			return token{}, parseErr(start, l.src[start:l.pos], "malformed literal")
		}
		break
	}
	text := l.src[start:l.pos]
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, parseErr(start, text, "malformed number")
	}
	return token{kind: tokNumber, text: text, pos: start, num: n}, nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) || c == '.' }

type parser struct {
	lex lexer
	tok token
}

// Parse turns a condition expression into an AST. Clauses are `field op
// literal` or `field in [literal, ...]`, joined by `and`, `&&` or plain
// juxtaposition. Literals are quoted strings, numbers, true, false and null.
func Parse(expr string) (Node, error) {
	p := &parser{lex: lexer{src: expr}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokEOF {
		return nil, parseErr(0, expr, "empty condition")
	}

	var clauses []Node
	for {
		clause, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)

		if p.tok.kind == tokEOF {
			break
		}
		if p.isConnector() {
			connector := p.tok
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind == tokEOF {
				return nil, parseErr(connector.pos, connector.text, "dangling %q with no following clause", connector.text)
			}
		}
	}

	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return And{Children: clauses}, nil
}

// MustParse is Parse for fixed expressions in tests and seeds.
func MustParse(expr string) Node {
	n, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return n
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) isConnector() bool {
	if p.tok.kind == tokAnd {
		return true
	}
	return p.tok.kind == tokIdent && strings.EqualFold(p.tok.text, "and")
}

func (p *parser) parseClause() (Node, error) {
	if p.tok.kind != tokIdent {
		return nil, parseErr(p.tok.pos, p.tok.text, "expected field path")
	}
	field := p.tok
	if err := validateFieldPath(field); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	switch {
	case p.tok.kind == tokIdent && strings.EqualFold(p.tok.text, "in"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		set, err := p.parseSet()
		if err != nil {
			return nil, err
		}
		return In{Field: field.text, Set: set}, nil
	case p.tok.kind == tokOp:
		op := Operator(p.tok.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return Compare{Field: field.text, Op: op, Value: lit}, nil
	case p.tok.kind == tokEOF:
		return nil, parseErr(field.pos, field.text, "missing operator after field")
	default:
		return nil, parseErr(p.tok.pos, p.tok.text, "unknown operator")
	}
}

func (p *parser) parseLiteral() (Literal, error) {
	tok := p.tok
	var lit Literal
	switch tok.kind {
	case tokString:
		lit = tok.text
	case tokNumber:
		lit = tok.num
	case tokIdent:
		switch strings.ToLower(tok.text) {
		case "true":
			lit = true
		case "false":
			lit = false
		case "null":
			lit = nil
		default:
			return nil, parseErr(tok.pos, tok.text, "malformed literal, strings must be quoted")
		}
	case tokEOF:
		return nil, parseErr(tok.pos, p.lex.src, "missing literal")
	default:
		return nil, parseErr(tok.pos, tok.text, "malformed literal")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *parser) parseSet() ([]Literal, error) {
	if p.tok.kind != tokLBrack {
		return nil, parseErr(p.tok.pos, p.tok.text, "expected '[' after in")
	}
	open := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokRBrack {
		return nil, parseErr(open.pos, "[]", "empty set")
	}

	var set []Literal
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		set = append(set, lit)

		switch p.tok.kind {
		case tokComma:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokRBrack:
			return set, p.advance()
		default:
			return nil, parseErr(p.tok.pos, p.tok.text, "expected ',' or ']' in set")
		}
	}
}

func validateFieldPath(tok token) error {
	for _, seg := range strings.Split(tok.text, ".") {
		if seg == "" {
			return parseErr(tok.pos, tok.text, "empty field path segment")
		}
	}
	return nil
}
