package scim

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// filterSurrogate is the JSON tree form of a Filter:
//
//	{"op":"and","filters":[{"op":"eq","path":"userName","value":"bjensen"},{"op":"pr","path":"title"}]}
type filterSurrogate struct {
	Op      string             `json:"op"`
	Path    string             `json:"path,omitempty"`
	Value   json.RawMessage    `json:"value,omitempty"`
	Filters []*filterSurrogate `json:"filters,omitempty"`
}

// MarshalFilterJSON encodes f in its JSON tree form.
func MarshalFilterJSON(f Filter) ([]byte, error) {
	s, err := marshalFilter(f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

func marshalFilter(f Filter) (*filterSurrogate, error) {
	s := &filterSurrogate{Op: f.Kind().String()}
	switch f.Kind() {
	case KindAnd, KindOr, KindNot:
	case KindComplex, KindPr:
		s.Path = f.Path().String()
	default:
		s.Path = f.Path().String()
		raw, err := json.Marshal(f.Value())
		if err != nil {
			return nil, err
		}
		s.Value = raw
	}
	for _, child := range f.Children() {
		cs, err := marshalFilter(child)
		if err != nil {
			return nil, err
		}
		s.Filters = append(s.Filters, cs)
	}
	return s, nil
}

// UnmarshalFilterJSON decodes a filter from the JSON tree form produced by MarshalFilterJSON.
func UnmarshalFilterJSON(data []byte) (Filter, error) {
	var s filterSurrogate
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, NewError(InvalidFilter, "malformed filter JSON: %v", err)
	}
	return unmarshalFilter(&s)
}

func unmarshalFilter(s *filterSurrogate) (Filter, error) {
	if s == nil {
		return nil, NewError(InvalidFilter, "missing filter node")
	}
	op := strings.ToLower(s.Op)

	switch op {
	case "and", "or":
		if len(s.Filters) != 2 {
			return nil, NewError(InvalidFilter, "%q needs exactly two filters, got %d", op, len(s.Filters))
		}
		left, err := unmarshalFilter(s.Filters[0])
		if err != nil {
			return nil, err
		}
		right, err := unmarshalFilter(s.Filters[1])
		if err != nil {
			return nil, err
		}
		kind := KindAnd
		if op == "or" {
			kind = KindOr
		}
		return &logicalFilter{kind: kind, left: left, right: right}, nil
	case "not":
		if len(s.Filters) != 1 {
			return nil, NewError(InvalidFilter, "\"not\" needs exactly one filter, got %d", len(s.Filters))
		}
		inner, err := unmarshalFilter(s.Filters[0])
		if err != nil {
			return nil, err
		}
		return &notFilter{inner: inner}, nil
	}

	path, err := ParsePath(s.Path)
	if err != nil {
		return nil, err
	}
	if path.IsRoot() || path.HasFilters() {
		return nil, NewError(InvalidPath, "filter needs a plain attribute path, got %q", s.Path)
	}

	if op == "complex" {
		if len(s.Filters) != 1 {
			return nil, NewError(InvalidFilter, "\"complex\" needs exactly one filter, got %d", len(s.Filters))
		}
		inner, err := unmarshalFilter(s.Filters[0])
		if err != nil {
			return nil, err
		}
		if containsComplex(inner) {
			return nil, NewError(InvalidFilter, "nested value filters are not supported")
		}
		return &complexFilter{path: path, inner: inner}, nil
	}

	kind, ok := operatorKinds[op]
	if !ok {
		return nil, NewError(InvalidFilter, "unknown filter operator %q", s.Op)
	}
	if kind == KindPr {
		return &presentFilter{path: path}, nil
	}
	if s.Value == nil {
		return nil, NewError(InvalidFilter, "%q needs a value", op)
	}
	value, err := decodeLiteral(s.Value)
	if err != nil {
		return nil, err
	}
	if kind == KindNe {
		return &notFilter{inner: &compareFilter{kind: KindEq, path: path, value: value}}, nil
	}
	return &compareFilter{kind: kind, path: path, value: value}, nil
}

func decodeLiteral(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, NewError(InvalidFilter, "malformed filter value: %v", err)
	}
	switch x := v.(type) {
	case nil, string, bool:
		return x, nil
	case json.Number:
		if n, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, NewError(InvalidFilter, "malformed number %s", x)
		}
		return f, nil
	}
	return nil, NewError(InvalidFilter, "filter value must be a string, number, boolean or null")
}
