package scim

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/brunoga/scim/internal/core"
)

// Kind identifies the variant of a Filter node.
type Kind int

const (
	KindAnd Kind = iota + 1
	KindOr
	KindNot
	KindComplex
	KindEq
	KindNe
	KindCo
	KindSw
	KindEw
	KindPr
	KindGt
	KindGe
	KindLt
	KindLe
)

var kindNames = map[Kind]string{
	KindAnd:     "and",
	KindOr:      "or",
	KindNot:     "not",
	KindComplex: "complex",
	KindEq:      "eq",
	KindNe:      "ne",
	KindCo:      "co",
	KindSw:      "sw",
	KindEw:      "ew",
	KindPr:      "pr",
	KindGt:      "gt",
	KindGe:      "ge",
	KindLt:      "lt",
	KindLe:      "le",
}

// operatorKinds maps attribute operator keywords to their kinds.
var operatorKinds = map[string]Kind{
	"eq": KindEq,
	"ne": KindNe,
	"co": KindCo,
	"sw": KindSw,
	"ew": KindEw,
	"pr": KindPr,
	"gt": KindGt,
	"ge": KindGe,
	"lt": KindLt,
	"le": KindLe,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsComparison reports whether k compares an attribute with a literal.
func (k Kind) IsComparison() bool {
	return k >= KindEq && k <= KindLe && k != KindPr
}

// Filter is a node of a parsed SCIM filter. Filters are immutable and safe for concurrent use.
//
// Comparison nodes (eq, co, sw, ew, gt, ge, lt, le) carry a Path and a literal Value; pr carries only a Path;
// and/or carry two Children; not carries one; complex carries a Path and the embedded filter as its only child.
// Negative equality is always represented as not(eq).
type Filter interface {
	Kind() Kind
	Path() Path
	Value() any
	Children() []Filter
	Equal(other Filter) bool
	String() string

	filter()
}

type logicalFilter struct {
	kind        Kind
	left, right Filter
}

func (f *logicalFilter) Kind() Kind         { return f.kind }
func (f *logicalFilter) Path() Path         { return Path{} }
func (f *logicalFilter) Value() any         { return nil }
func (f *logicalFilter) Children() []Filter { return []Filter{f.left, f.right} }
func (f *logicalFilter) filter()            {}

func (f *logicalFilter) Equal(other Filter) bool {
	o, ok := other.(*logicalFilter)
	return ok && o.kind == f.kind && f.left.Equal(o.left) && f.right.Equal(o.right)
}

func (f *logicalFilter) String() string {
	var sb strings.Builder
	writeOperand(&sb, f.left, precedence(f.left) < precedence(f))
	sb.WriteByte(' ')
	sb.WriteString(f.kind.String())
	sb.WriteByte(' ')
	writeOperand(&sb, f.right, precedence(f.right) <= precedence(f))
	return sb.String()
}

func writeOperand(sb *strings.Builder, f Filter, parens bool) {
	if parens {
		sb.WriteByte('(')
	}
	sb.WriteString(f.String())
	if parens {
		sb.WriteByte(')')
	}
}

func precedence(f Filter) int {
	switch f.Kind() {
	case KindOr:
		return 1
	case KindAnd:
		return 2
	}
	return 3
}

type notFilter struct {
	inner Filter
}

func (f *notFilter) Kind() Kind         { return KindNot }
func (f *notFilter) Path() Path         { return Path{} }
func (f *notFilter) Value() any         { return nil }
func (f *notFilter) Children() []Filter { return []Filter{f.inner} }
func (f *notFilter) filter()            {}

func (f *notFilter) Equal(other Filter) bool {
	o, ok := other.(*notFilter)
	return ok && f.inner.Equal(o.inner)
}

func (f *notFilter) String() string {
	return "not (" + f.inner.String() + ")"
}

type compareFilter struct {
	kind  Kind
	path  Path
	value any
}

func (f *compareFilter) Kind() Kind         { return f.kind }
func (f *compareFilter) Path() Path         { return f.path }
func (f *compareFilter) Value() any         { return f.value }
func (f *compareFilter) Children() []Filter { return nil }
func (f *compareFilter) filter()            {}

func (f *compareFilter) Equal(other Filter) bool {
	o, ok := other.(*compareFilter)
	return ok && o.kind == f.kind && f.path.Equal(o.path) && core.Equal(f.value, o.value)
}

func (f *compareFilter) String() string {
	return f.path.String() + " " + f.kind.String() + " " + formatLiteral(f.value)
}

type presentFilter struct {
	path Path
}

func (f *presentFilter) Kind() Kind         { return KindPr }
func (f *presentFilter) Path() Path         { return f.path }
func (f *presentFilter) Value() any         { return nil }
func (f *presentFilter) Children() []Filter { return nil }
func (f *presentFilter) filter()            {}

func (f *presentFilter) Equal(other Filter) bool {
	o, ok := other.(*presentFilter)
	return ok && f.path.Equal(o.path)
}

func (f *presentFilter) String() string {
	return f.path.String() + " pr"
}

type complexFilter struct {
	path  Path
	inner Filter
}

func (f *complexFilter) Kind() Kind         { return KindComplex }
func (f *complexFilter) Path() Path         { return f.path }
func (f *complexFilter) Value() any         { return nil }
func (f *complexFilter) Children() []Filter { return []Filter{f.inner} }
func (f *complexFilter) filter()            {}

func (f *complexFilter) Equal(other Filter) bool {
	o, ok := other.(*complexFilter)
	return ok && f.path.Equal(o.path) && f.inner.Equal(o.inner)
}

func (f *complexFilter) String() string {
	return f.path.String() + "[" + f.inner.String() + "]"
}

func formatLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case string:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(x)
		return strings.TrimSuffix(buf.String(), "\n")
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case json.Number:
		return x.String()
	}
	f, _ := core.ToFloat64(v)
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Eq returns a filter matching when the attribute at path equals value.
func Eq(path string, value any) Filter { return newCompare(KindEq, path, value) }

// Ne returns a filter matching when the attribute at path does not equal value. It is built as not(eq).
func Ne(path string, value any) Filter { return Not(Eq(path, value)) }

// Co returns a filter matching string attributes containing value.
func Co(path string, value any) Filter { return newCompare(KindCo, path, value) }

// Sw returns a filter matching string attributes starting with value.
func Sw(path string, value any) Filter { return newCompare(KindSw, path, value) }

// Ew returns a filter matching string attributes ending with value.
func Ew(path string, value any) Filter { return newCompare(KindEw, path, value) }

// Gt returns a filter matching attributes greater than value.
func Gt(path string, value any) Filter { return newCompare(KindGt, path, value) }

// Ge returns a filter matching attributes greater than or equal to value.
func Ge(path string, value any) Filter { return newCompare(KindGe, path, value) }

// Lt returns a filter matching attributes less than value.
func Lt(path string, value any) Filter { return newCompare(KindLt, path, value) }

// Le returns a filter matching attributes less than or equal to value.
func Le(path string, value any) Filter { return newCompare(KindLe, path, value) }

// Pr returns a filter matching when the attribute at path has a value.
func Pr(path string) Filter {
	return &presentFilter{path: filterPath(path)}
}

// And returns the conjunction of two filters.
func And(left, right Filter) Filter {
	mustFilter(left)
	mustFilter(right)
	return &logicalFilter{kind: KindAnd, left: left, right: right}
}

// Or returns the disjunction of two filters.
func Or(left, right Filter) Filter {
	mustFilter(left)
	mustFilter(right)
	return &logicalFilter{kind: KindOr, left: left, right: right}
}

// Not returns the negation of a filter.
func Not(inner Filter) Filter {
	mustFilter(inner)
	return &notFilter{inner: inner}
}

// Complex returns a filter matching when any value of the multi-valued attribute at path satisfies inner.
func Complex(path string, inner Filter) Filter {
	mustFilter(inner)
	if containsComplex(inner) {
		panic("scim: nested value filters are not supported")
	}
	return &complexFilter{path: filterPath(path), inner: inner}
}

func newCompare(kind Kind, path string, value any) Filter {
	lit, err := core.NormalizeLiteral(value)
	if err != nil {
		panic("scim: invalid filter literal: " + err.Error())
	}
	return &compareFilter{kind: kind, path: filterPath(path), value: lit}
}

func filterPath(expr string) Path {
	start, end := trimBounds(expr)
	p, err := parsePath(expr, start, end, newConfig(nil), false)
	if err != nil {
		panic(err)
	}
	if p.IsRoot() {
		panic("scim: filter needs an attribute path: " + expr)
	}
	return p
}

func mustFilter(f Filter) {
	if f == nil {
		panic("scim: nil filter")
	}
}

func containsComplex(f Filter) bool {
	if f.Kind() == KindComplex {
		return true
	}
	for _, c := range f.Children() {
		if containsComplex(c) {
			return true
		}
	}
	return false
}
