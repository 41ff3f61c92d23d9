package scim

import (
	"strings"

	"github.com/brunoga/scim/internal/core"
)

// Evaluate reports whether doc satisfies f. Evaluation is pure and never fails: comparisons between
// incompatible kinds simply do not match.
//
// Multi-valued attributes distribute comparisons over their values, so `emails.value co "@example.com"` matches
// when any email does. `eq null` matches an absent, null or empty attribute and `pr` is its opposite. String
// comparisons ignore case; numbers compare as float64.
func Evaluate(f Filter, doc any) bool {
	ok, _ := Walk[bool](f, evaluator{node: doc})
	return ok
}

// Values returns the non-null values addressed by p within doc. Multi-valued attributes along the path are
// flattened and value filters narrow them.
func Values(p Path, doc any) []any {
	nodes := []any{doc}
	if p.namespace != "" {
		nodes = namespaceNodes(nodes, p.namespace)
	}
	for _, e := range p.elements {
		var next []any
		for _, n := range nodes {
			next = appendChildren(next, n, e.attribute)
		}
		if e.filter != nil {
			next = filterNodes(next, e.filter)
		}
		nodes = next
	}

	out := nodes[:0:0]
	for _, n := range nodes {
		if arr, ok := n.([]any); ok {
			for _, v := range arr {
				if v != nil {
					out = append(out, v)
				}
			}
			continue
		}
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

type evaluator struct {
	node any
}

func (e evaluator) And(left, right Filter) (bool, error) {
	return Evaluate(left, e.node) && Evaluate(right, e.node), nil
}

func (e evaluator) Or(left, right Filter) (bool, error) {
	return Evaluate(left, e.node) || Evaluate(right, e.node), nil
}

func (e evaluator) Not(inner Filter) (bool, error) {
	return !Evaluate(inner, e.node), nil
}

func (e evaluator) Present(path Path) (bool, error) {
	return len(Values(path, e.node)) > 0, nil
}

func (e evaluator) Compare(kind Kind, path Path, value any) (bool, error) {
	values := Values(path, e.node)
	if kind == KindEq && value == nil {
		return len(values) == 0, nil
	}
	op := kind.String()
	for _, v := range values {
		if core.Compare(v, value, op) {
			return true, nil
		}
	}
	return false, nil
}

func (e evaluator) Complex(path Path, inner Filter) (bool, error) {
	for _, v := range Values(path, e.node) {
		if Evaluate(inner, v) {
			return true, nil
		}
	}
	return false, nil
}

func namespaceNodes(nodes []any, urn string) []any {
	var out []any
	for _, n := range nodes {
		obj, ok := n.(map[string]any)
		if !ok {
			continue
		}
		switch key, match := core.MatchNamespace(obj, urn); match {
		case core.NamespaceKey:
			out = append(out, obj[key])
		case core.NamespaceRoot:
			out = append(out, obj)
		}
	}
	return out
}

// appendChildren appends the values of the named attribute of n. Arrays are flattened so later steps see their
// elements. A scalar exposes itself as its own "value" sub-attribute, which lets `schemas[value eq "x"]` work on
// arrays of strings.
func appendChildren(out []any, n any, name string) []any {
	switch x := n.(type) {
	case map[string]any:
		_, v, ok := core.Lookup(x, name)
		if !ok || v == nil {
			return out
		}
		if arr, ok := v.([]any); ok {
			return append(out, arr...)
		}
		return append(out, v)
	case []any:
		for _, elem := range x {
			out = appendChildren(out, elem, name)
		}
		return out
	case nil:
		return out
	}
	if strings.EqualFold(name, "value") {
		return append(out, n)
	}
	return out
}

func filterNodes(nodes []any, f Filter) []any {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n != nil && Evaluate(f, n) {
			out = append(out, n)
		}
	}
	return out
}
