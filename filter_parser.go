package scim

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseFilter parses a SCIM filter expression into a Filter tree.
//
// Malformed attribute paths, including a token such as ")" found where an attribute path was expected, yield an
// invalid path error. Every other malformation yields an invalid filter error.
func ParseFilter(expr string, opts ...Option) (Filter, error) {
	cfg := newConfig(opts)
	start, end := trimBounds(expr)
	if start == end {
		return nil, newExprError(InvalidFilter, expr, start, "empty filter")
	}

	p := newParser(expr, start, end, cfg)
	if err := p.next(); err != nil {
		return nil, err
	}
	f, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.curr.kind != tokEOF {
		return nil, p.errorf(InvalidFilter, "unexpected %s", p.curr.describe())
	}
	return f, nil
}

// MustParseFilter is like ParseFilter but panics on error.
func MustParseFilter(expr string, opts ...Option) Filter {
	f, err := ParseFilter(expr, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// parseBracketFilter parses the value filter that starts at expr[start], just after an opening bracket, and
// returns the position of the closing bracket.
func parseBracketFilter(expr string, start, end int, cfg config) (Filter, int, error) {
	p := newParser(expr, start, end, cfg)
	p.bracket = true
	if err := p.enter(start - 1); err != nil {
		return nil, 0, err
	}
	if err := p.next(); err != nil {
		return nil, 0, err
	}
	if p.curr.kind == tokRBracket {
		return nil, 0, newExprError(InvalidPath, expr, start-1, "empty value filter")
	}

	f, err := p.parseOr()
	if err != nil {
		return nil, 0, err
	}
	switch p.curr.kind {
	case tokRBracket:
		return f, p.curr.pos, nil
	case tokEOF:
		return nil, 0, newExprError(InvalidPath, expr, start-1, "missing closing bracket")
	}
	return nil, 0, p.errorf(InvalidFilter, "expected ']' but found %s", p.curr.describe())
}

type tokenKind int

const (
	tokError tokenKind = iota
	tokEOF
	tokWord
	tokString
	tokNumber
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
)

type token struct {
	kind tokenKind
	val  string
	lit  any
	pos  int
	end  int
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of filter"
	case tokString:
		return "string " + t.val
	case tokNumber:
		return "number " + t.val
	}
	return strconv.Quote(t.val)
}

type lexer struct {
	input string
	pos   int
	end   int
}

func (l *lexer) next() token {
	l.skipWhitespace()
	if l.pos >= l.end {
		return token{kind: tokEOF, pos: l.end, end: l.end}
	}
	c := l.input[l.pos]
	start := l.pos
	switch {
	case c == '(':
		return l.single(tokLParen)
	case c == ')':
		return l.single(tokRParen)
	case c == '[':
		return l.single(tokLBracket)
	case c == ']':
		return l.single(tokRBracket)
	case c == '"':
		return l.lexString()
	case c == '\'':
		return token{kind: tokError, val: "single-quoted strings are not supported, use double quotes", pos: start}
	case isDigit(c) || (c == '-' && isDigit(l.peek())):
		return l.lexNumber()
	case isWordChar(c):
		return l.lexWord()
	}
	return token{kind: tokError, val: fmt.Sprintf("unexpected character %q", c), pos: start}
}

func (l *lexer) single(kind tokenKind) token {
	l.pos++
	return token{kind: kind, val: l.input[l.pos-1 : l.pos], pos: l.pos - 1, end: l.pos}
}

func (l *lexer) peek() byte {
	if l.pos+1 < l.end {
		return l.input[l.pos+1]
	}
	return 0
}

// peekNonSpace returns the first byte after the whitespace that follows the current position.
func (l *lexer) peekNonSpace() byte {
	for i := l.pos; i < l.end; i++ {
		if !isWhitespace(l.input[i]) {
			return l.input[i]
		}
	}
	return 0
}

func (l *lexer) skipWhitespace() {
	for l.pos < l.end && isWhitespace(l.input[l.pos]) {
		l.pos++
	}
}

func (l *lexer) lexString() token {
	start := l.pos
	l.pos++
	for l.pos < l.end && l.input[l.pos] != '"' {
		if l.input[l.pos] == '\\' {
			l.pos++
		}
		l.pos++
	}
	if l.pos >= l.end {
		return token{kind: tokError, val: "unterminated string literal", pos: start}
	}
	l.pos++

	raw := l.input[start:l.pos]
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return token{kind: tokError, val: "invalid string literal " + raw, pos: start}
	}
	return token{kind: tokString, val: raw, lit: s, pos: start, end: l.pos}
}

func (l *lexer) lexNumber() token {
	start := l.pos
	fractional := false
	if l.input[l.pos] == '-' {
		l.pos++
	}
	l.digits()
	if l.pos < l.end && l.input[l.pos] == '.' {
		fractional = true
		l.pos++
		if l.digits() == 0 {
			return l.malformedNumber(start)
		}
	}
	if l.pos < l.end && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		fractional = true
		l.pos++
		if l.pos < l.end && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		if l.digits() == 0 {
			return l.malformedNumber(start)
		}
	}
	if l.pos < l.end && isWordChar(l.input[l.pos]) {
		return l.malformedNumber(start)
	}

	text := l.input[start:l.pos]
	tok := token{kind: tokNumber, val: text, pos: start, end: l.pos}
	if !fractional {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			tok.lit = n
			return tok
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return l.malformedNumber(start)
	}
	tok.lit = f
	return tok
}

func (l *lexer) digits() int {
	start := l.pos
	for l.pos < l.end && isDigit(l.input[l.pos]) {
		l.pos++
	}
	return l.pos - start
}

func (l *lexer) malformedNumber(start int) token {
	for l.pos < l.end && isWordChar(l.input[l.pos]) {
		l.pos++
	}
	return token{kind: tokError, val: fmt.Sprintf("malformed number %q", l.input[start:l.pos]), pos: start}
}

func (l *lexer) lexWord() token {
	start := l.pos
	for l.pos < l.end && isWordChar(l.input[l.pos]) {
		l.pos++
	}
	return token{kind: tokWord, val: l.input[start:l.pos], pos: start, end: l.pos}
}

func isWordChar(c byte) bool {
	return isNameChar(c) || c == '.' || c == ':'
}

type parser struct {
	lexer   lexer
	curr    token
	expr    string
	cfg     config
	depth   int
	bracket bool
}

func newParser(expr string, start, end int, cfg config) *parser {
	return &parser{lexer: lexer{input: expr, pos: start, end: end}, expr: expr, cfg: cfg}
}

func (p *parser) next() error {
	p.curr = p.lexer.next()
	if p.curr.kind == tokError {
		return newExprError(InvalidFilter, p.expr, p.curr.pos, "%s", p.curr.val)
	}
	return nil
}

func (p *parser) errorf(typ ErrorType, format string, args ...any) error {
	return newExprError(typ, p.expr, p.curr.pos, format, args...)
}

func (p *parser) isKeyword(kw string) bool {
	return p.curr.kind == tokWord && strings.EqualFold(p.curr.val, kw)
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > p.cfg.maxDepth {
		return newExprError(InvalidFilter, p.expr, pos, "filter nesting exceeds the maximum depth of %d", p.cfg.maxDepth)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

// parseOr parses a sequence of conjunctions joined by "or".
func (p *parser) parseOr() (Filter, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logicalFilter{kind: KindOr, left: left, right: right}
	}
	return left, nil
}

// parseAnd parses a sequence of terms joined by "and".
func (p *parser) parseAnd() (Filter, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &logicalFilter{kind: KindAnd, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Filter, error) {
	switch p.curr.kind {
	case tokEOF:
		return nil, p.errorf(InvalidFilter, "unexpected end of filter")
	case tokLParen:
		return p.parseGroup()
	case tokWord:
		if p.isKeyword("not") && p.lexer.peekNonSpace() == '(' {
			if err := p.next(); err != nil {
				return nil, err
			}
			inner, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			return &notFilter{inner: inner}, nil
		}
		return p.parseAttribute()
	}
	return nil, p.errorf(InvalidPath, "expected attribute path but found %s", p.curr.describe())
}

func (p *parser) parseGroup() (Filter, error) {
	open := p.curr.pos
	if err := p.enter(open); err != nil {
		return nil, err
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	f, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	switch p.curr.kind {
	case tokRParen:
	case tokEOF:
		return nil, newExprError(InvalidFilter, p.expr, open, "missing closing parenthesis")
	default:
		return nil, p.errorf(InvalidFilter, "expected ')' but found %s", p.curr.describe())
	}
	p.leave()
	if err := p.next(); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *parser) parseAttribute() (Filter, error) {
	tok := p.curr
	path, err := parsePath(p.expr, tok.pos, tok.end, p.cfg, false)
	if err != nil {
		return nil, err
	}
	if path.IsRoot() {
		return nil, p.errorf(InvalidPath, "expected attribute path but found %s", tok.describe())
	}
	if err := p.next(); err != nil {
		return nil, err
	}

	switch p.curr.kind {
	case tokLBracket:
		return p.parseComplex(path)
	case tokWord:
	case tokEOF:
		return nil, p.errorf(InvalidFilter, "expected operator after %q but found end of filter", tok.val)
	default:
		return nil, p.errorf(InvalidFilter, "expected operator after %q but found %s", tok.val, p.curr.describe())
	}

	kind, ok := operatorKinds[strings.ToLower(p.curr.val)]
	if !ok {
		return nil, p.errorf(InvalidFilter, "unknown operator %q", p.curr.val)
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if kind == KindPr {
		return &presentFilter{path: path}, nil
	}

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if kind == KindNe {
		return &notFilter{inner: &compareFilter{kind: KindEq, path: path, value: value}}, nil
	}
	return &compareFilter{kind: kind, path: path, value: value}, nil
}

func (p *parser) parseComplex(path Path) (Filter, error) {
	open := p.curr.pos
	if p.bracket {
		return nil, p.errorf(InvalidFilter, "nested value filters are not supported")
	}
	if err := p.enter(open); err != nil {
		return nil, err
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.curr.kind == tokRBracket {
		return nil, p.errorf(InvalidFilter, "empty value filter")
	}

	p.bracket = true
	inner, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	switch p.curr.kind {
	case tokRBracket:
	case tokEOF:
		return nil, newExprError(InvalidFilter, p.expr, open, "missing closing bracket")
	default:
		return nil, p.errorf(InvalidFilter, "expected ']' but found %s", p.curr.describe())
	}
	p.bracket = false
	p.leave()
	if err := p.next(); err != nil {
		return nil, err
	}
	return &complexFilter{path: path, inner: inner}, nil
}

func (p *parser) parseValue() (any, error) {
	switch p.curr.kind {
	case tokString, tokNumber:
		v := p.curr.lit
		return v, p.next()
	case tokWord:
		var v any
		switch strings.ToLower(p.curr.val) {
		case "true":
			v = true
		case "false":
			v = false
		case "null":
			v = nil
		default:
			return nil, p.errorf(InvalidFilter, "invalid comparison value %q", p.curr.val)
		}
		return v, p.next()
	case tokEOF:
		return nil, p.errorf(InvalidFilter, "expected comparison value but found end of filter")
	}
	return nil, p.errorf(InvalidFilter, "expected comparison value but found %s", p.curr.describe())
}
