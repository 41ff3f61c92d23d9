package scim

import (
	"strings"
)

// Element is one segment of a Path: an attribute name with an optional value filter narrowing the values of a
// multi-valued attribute.
type Element struct {
	attribute string
	filter    Filter
}

// Attribute returns the attribute name of the element.
func (e Element) Attribute() string { return e.attribute }

// Filter returns the value filter of the element, or nil.
func (e Element) Filter() Filter { return e.filter }

// Equal reports whether both elements name the same attribute (case-insensitively) with equal filters.
func (e Element) Equal(other Element) bool {
	if !strings.EqualFold(e.attribute, other.attribute) {
		return false
	}
	if e.filter == nil || other.filter == nil {
		return e.filter == nil && other.filter == nil
	}
	return e.filter.Equal(other.filter)
}

func (e Element) String() string {
	if e.filter == nil {
		return e.attribute
	}
	return e.attribute + "[" + e.filter.String() + "]"
}

// Path addresses attributes within a SCIM resource: an optional schema URN namespace followed by dotted
// elements, e.g. `urn:ietf:params:scim:schemas:extension:enterprise:2.0:User:manager.value` or
// `emails[type eq "work"].value`. The zero Path addresses the resource root. Paths are immutable.
type Path struct {
	namespace string
	elements  []Element
}

// NewPath returns the root path of the given schema namespace. An empty namespace yields the resource root. It
// panics if namespace is not a valid URN.
func NewPath(namespace string) Path {
	if namespace == "" {
		return Path{}
	}
	if msg := checkNamespace(namespace); msg != "" {
		panic("scim: " + msg + ": " + namespace)
	}
	return Path{namespace: namespace}
}

// MustParsePath is like ParsePath but panics on error.
func MustParsePath(expr string, opts ...Option) Path {
	p, err := ParsePath(expr, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Attribute returns a copy of p extended with the named attribute. It panics if name is not a valid attribute
// name.
func (p Path) Attribute(name string) Path {
	return p.AttributeWithFilter(name, nil)
}

// AttributeWithFilter returns a copy of p extended with the named attribute narrowed by filter.
func (p Path) AttributeWithFilter(name string, filter Filter) Path {
	if !isAttributeName(name) {
		panic("scim: invalid attribute name: " + name)
	}
	return p.with(Element{attribute: name, filter: filter})
}

// Append returns a copy of p extended with every element of other. The namespace of other is used only when p
// has none.
func (p Path) Append(other Path) Path {
	out := p.with(other.elements...)
	if out.namespace == "" {
		out.namespace = other.namespace
	}
	return out
}

func (p Path) with(elems ...Element) Path {
	out := Path{namespace: p.namespace, elements: make([]Element, 0, len(p.elements)+len(elems))}
	out.elements = append(out.elements, p.elements...)
	out.elements = append(out.elements, elems...)
	return out
}

// Namespace returns the schema URN of the path, or "".
func (p Path) Namespace() string { return p.namespace }

// IsRoot reports whether p has no elements.
func (p Path) IsRoot() bool { return len(p.elements) == 0 }

// Len returns the number of elements.
func (p Path) Len() int { return len(p.elements) }

// Element returns the element at index i.
func (p Path) Element(i int) Element { return p.elements[i] }

// Elements returns a copy of the elements of p.
func (p Path) Elements() []Element {
	return append([]Element(nil), p.elements...)
}

// Sub returns the path made of the first n elements of p, in the same namespace.
func (p Path) Sub(n int) Path {
	return Path{namespace: p.namespace, elements: append([]Element(nil), p.elements[:n]...)}
}

// WithAttribute returns a copy of p whose element i names a different attribute. The filter is kept.
func (p Path) WithAttribute(i int, name string) Path {
	if !isAttributeName(name) {
		panic("scim: invalid attribute name: " + name)
	}
	out := p.Sub(len(p.elements))
	out.elements[i].attribute = name
	return out
}

// WithFilter returns a copy of p whose element i carries filter. A nil filter removes it.
func (p Path) WithFilter(i int, filter Filter) Path {
	out := p.Sub(len(p.elements))
	out.elements[i].filter = filter
	return out
}

// WithoutFilters returns a copy of p with every value filter removed.
func (p Path) WithoutFilters() Path {
	out := p.Sub(len(p.elements))
	for i := range out.elements {
		out.elements[i].filter = nil
	}
	return out
}

// HasFilters reports whether any element carries a value filter.
func (p Path) HasFilters() bool {
	for _, e := range p.elements {
		if e.filter != nil {
			return true
		}
	}
	return false
}

// Equal reports whether both paths have the same namespace and elements. Names compare case-insensitively.
func (p Path) Equal(other Path) bool {
	if !strings.EqualFold(p.namespace, other.namespace) || len(p.elements) != len(other.elements) {
		return false
	}
	for i := range p.elements {
		if !p.elements[i].Equal(other.elements[i]) {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	var sb strings.Builder
	if p.namespace != "" {
		sb.WriteString(p.namespace)
		sb.WriteByte(':')
	}
	for i, e := range p.elements {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(e.String())
	}
	return sb.String()
}

// MarshalText encodes the path in its string form.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a path from its string form.
func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := ParsePath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePath parses a SCIM attribute path. Malformed input yields an invalid path error; this includes a
// malformed filter inside brackets, which is kept as the error's cause.
func ParsePath(expr string, opts ...Option) (Path, error) {
	cfg := newConfig(opts)
	start, end := trimBounds(expr)
	return parsePath(expr, start, end, cfg, true)
}

func trimBounds(s string) (int, int) {
	start, end := 0, len(s)
	for start < end && isWhitespace(s[start]) {
		start++
	}
	for end > start && isWhitespace(s[end-1]) {
		end--
	}
	return start, end
}

// parsePath parses expr[start:end]. Value filters are only accepted when brackets is set.
func parsePath(expr string, start, end int, cfg config, brackets bool) (Path, error) {
	var p Path
	pos := start

	if hasPrefixFold(expr[start:end], "urn:") {
		limit := strings.IndexByte(expr[start:end], '[')
		if limit < 0 {
			limit = end
		} else {
			limit += start
		}
		colon := strings.LastIndexByte(expr[start:limit], ':') + start
		ns := expr[start:colon]
		if msg := checkNamespace(ns); msg != "" {
			return Path{}, newExprError(InvalidPath, expr, start, "%s", msg)
		}
		p.namespace = ns
		pos = colon + 1
		if pos == end {
			return p, nil
		}
	}

	if pos == end {
		return p, nil
	}

	for {
		nameStart := pos
		for pos < end && isNameChar(expr[pos]) {
			pos++
		}
		if pos == nameStart {
			if pos == end {
				return Path{}, newExprError(InvalidPath, expr, pos, "unexpected end of path")
			}
			return Path{}, newExprError(InvalidPath, expr, pos, "unexpected character %q", expr[pos])
		}
		elem := Element{attribute: expr[nameStart:pos]}

		if pos < end && expr[pos] == '[' {
			if !brackets {
				return Path{}, newExprError(InvalidPath, expr, pos, "value filters are not allowed here")
			}
			f, close, err := parseBracketFilter(expr, pos+1, end, cfg)
			if err != nil {
				return Path{}, wrapBracketError(expr, pos, err)
			}
			elem.filter = f
			pos = close + 1
		}
		p.elements = append(p.elements, elem)

		if pos == end {
			return p, nil
		}
		if expr[pos] != '.' {
			return Path{}, newExprError(InvalidPath, expr, pos, "unexpected character %q", expr[pos])
		}
		pos++
	}
}

func wrapBracketError(expr string, open int, cause error) error {
	e, ok := AsError(cause)
	if !ok {
		return cause
	}
	if e.Type == InvalidPath {
		return cause
	}
	pos := e.Position
	if pos < 0 {
		pos = open
	}
	return newPathErrorWithCause(expr, pos, "invalid value filter: "+e.Message, cause)
}

func checkNamespace(ns string) string {
	if !hasPrefixFold(ns, "urn:") {
		return "namespace must be a URN"
	}
	tokens := strings.Split(ns[len("urn:"):], ":")
	for _, t := range tokens {
		if t == "" {
			return "empty namespace URN component"
		}
		for i := 0; i < len(t); i++ {
			if !isURNChar(t[i]) {
				return "invalid character in namespace URN"
			}
		}
	}
	return ""
}

func isAttributeName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return false
		}
	}
	return true
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isNameChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '-' || c == '_' || c == '$'
}

func isURNChar(c byte) bool {
	return isNameChar(c) || c == '.'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
