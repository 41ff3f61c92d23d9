package scim

import "fmt"

// Visitor computes a result of type R from a Filter, one method per node variant. Walk dispatches to it;
// implementations recurse into children by calling Walk themselves.
type Visitor[R any] interface {
	And(left, right Filter) (R, error)
	Or(left, right Filter) (R, error)
	Not(inner Filter) (R, error)
	Present(path Path) (R, error)
	Compare(kind Kind, path Path, value any) (R, error)
	Complex(path Path, inner Filter) (R, error)
}

// Walk dispatches f to the method of v matching its kind.
func Walk[R any](f Filter, v Visitor[R]) (R, error) {
	switch n := f.(type) {
	case *logicalFilter:
		if n.kind == KindAnd {
			return v.And(n.left, n.right)
		}
		return v.Or(n.left, n.right)
	case *notFilter:
		return v.Not(n.inner)
	case *presentFilter:
		return v.Present(n.path)
	case *compareFilter:
		return v.Compare(n.kind, n.path, n.value)
	case *complexFilter:
		return v.Complex(n.path, n.inner)
	}
	var zero R
	return zero, fmt.Errorf("scim: unknown filter node %T", f)
}

// Attributes returns the attribute paths referenced by f, in order of appearance and without duplicates.
// Paths inside a value filter are prefixed with the path of the multi-valued attribute they apply to.
func Attributes(f Filter) []Path {
	c := &attributeCollector{}
	c.collect(f, Path{})
	return c.paths
}

type attributeCollector struct {
	paths []Path
}

func (c *attributeCollector) collect(f Filter, prefix Path) {
	switch f.Kind() {
	case KindAnd, KindOr, KindNot:
		for _, child := range f.Children() {
			c.collect(child, prefix)
		}
	case KindComplex:
		c.collect(f.Children()[0], prefix.Append(f.Path()))
	default:
		c.add(prefix.Append(f.Path()))
	}
}

func (c *attributeCollector) add(p Path) {
	for _, seen := range c.paths {
		if seen.Equal(p) {
			return
		}
	}
	c.paths = append(c.paths, p)
}
