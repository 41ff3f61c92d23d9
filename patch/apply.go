package patch

import (
	"fmt"

	"github.com/brunoga/scim"
	"github.com/brunoga/scim/internal/core"
)

// Apply performs the operation on doc in place.
//
// Objects met by add and replace are merged member by member. Adding to an existing array appends, adding an
// array appends all of its elements, and adding onto a scalar overwrites it. A value filter narrows replace and
// remove to the matching values; a selection that matches nothing is left alone. Removing an attribute that does
// not exist fails with a noTarget error unless the path goes through a value filter or a multi-valued attribute.
//
// Apply has no rollback: when it fails, changes made before the failure stay in doc.
func (o Operation) Apply(doc map[string]any) error {
	if o.op == "" {
		return scim.NewError(scim.InvalidSyntax, "empty patch operation")
	}
	if doc == nil {
		return scim.NewError(scim.NoTarget, "cannot patch a nil document")
	}

	a := &applier{op: o.op, path: o.path, value: o.value}
	root, err := a.namespaceRoot(doc)
	if err != nil || root == nil {
		return err
	}
	if o.path.IsRoot() {
		mergeValue(root, o.value, o.op == OperationTypeAdd)
		return nil
	}
	return a.walk(root, 0, false)
}

type applier struct {
	op    OperationType
	path  scim.Path
	value any
}

// namespaceRoot returns the object holding the attributes of the path's namespace. A nil object with a nil
// error means there is nothing left to do.
func (a *applier) namespaceRoot(doc map[string]any) (map[string]any, error) {
	ns := a.path.Namespace()
	if ns == "" {
		return doc, nil
	}

	key, match := core.MatchNamespace(doc, ns)
	switch match {
	case core.NamespaceRoot:
		if a.path.IsRoot() && a.op == OperationTypeRemove {
			return nil, scim.NewError(scim.NoTarget, "cannot remove the core schema %q", ns)
		}
		return doc, nil
	case core.NamespaceKey:
		switch ext := doc[key].(type) {
		case map[string]any:
			if a.path.IsRoot() && a.op == OperationTypeRemove {
				delete(doc, key)
				return nil, nil
			}
			return ext, nil
		case nil:
		default:
			return nil, scim.NewError(scim.NoTarget, "schema extension %q is not an object", ns)
		}
	}

	if a.op == OperationTypeRemove {
		if a.path.HasFilters() {
			return nil, nil
		}
		return nil, scim.NewError(scim.NoTarget, "no schema extension %q", ns)
	}
	ext := map[string]any{}
	if key == "" {
		key = ns
	}
	doc[key] = ext
	return ext, nil
}

// walk descends into obj along element i of the path. filtered records that the current selection went through
// a value filter or a multi-valued attribute.
func (a *applier) walk(obj map[string]any, i int, filtered bool) error {
	elem := a.path.Element(i)
	if i == a.path.Len()-1 {
		return a.leaf(obj, i, filtered)
	}

	filter := elem.Filter()
	key, child, _ := core.Lookup(obj, elem.Attribute())

	switch c := child.(type) {
	case nil:
		if filter != nil || filtered && a.op == OperationTypeRemove {
			return nil
		}
		if a.op == OperationTypeRemove {
			return a.errorf(scim.NoTarget, i, "no such attribute")
		}
		next := map[string]any{}
		core.Set(obj, elem.Attribute(), next)
		return a.walk(next, i+1, filtered)

	case map[string]any:
		if filter != nil && !scim.Evaluate(filter, c) {
			return nil
		}
		return a.walk(c, i+1, filtered || filter != nil)

	case []any:
		for _, e := range c {
			if filter != nil && !scim.Evaluate(filter, e) {
				continue
			}
			eo, ok := e.(map[string]any)
			if !ok {
				return a.errorf(scim.NoTarget, i, "attribute %q holds a %s value, not a complex one", key, core.KindOf(e))
			}
			if err := a.walk(eo, i+1, true); err != nil {
				return err
			}
		}
		return nil
	}

	return a.errorf(scim.NoTarget, i, "attribute %q holds a %s, not a complex or multi-valued attribute",
		key, core.KindOf(child))
}

func (a *applier) leaf(obj map[string]any, i int, filtered bool) error {
	elem := a.path.Element(i)
	filter := elem.Filter()
	key, current, exists := core.Lookup(obj, elem.Attribute())
	if current == nil {
		exists = false
	}

	switch a.op {
	case OperationTypeRemove:
		if !exists {
			if filtered || filter != nil {
				return nil
			}
			return a.errorf(scim.NoTarget, i, "no such attribute")
		}
		if filter == nil {
			delete(obj, key)
			return nil
		}
		if arr, ok := current.([]any); ok {
			kept := arr[:0:0]
			for _, e := range arr {
				if !scim.Evaluate(filter, e) {
					kept = append(kept, e)
				}
			}
			switch {
			case len(kept) == len(arr):
			case len(kept) == 0:
				delete(obj, key)
			default:
				obj[key] = kept
			}
			return nil
		}
		if scim.Evaluate(filter, current) {
			delete(obj, key)
		}
		return nil

	case OperationTypeReplace:
		if filter == nil {
			if !exists {
				core.Set(obj, elem.Attribute(), core.Clone(a.value))
				return nil
			}
			obj[key] = mergeValue(current, a.value, false)
			return nil
		}
		if !exists {
			return nil
		}
		if arr, ok := current.([]any); ok {
			for idx, e := range arr {
				if scim.Evaluate(filter, e) {
					arr[idx] = mergeValue(e, a.value, false)
				}
			}
			return nil
		}
		if scim.Evaluate(filter, current) {
			obj[key] = mergeValue(current, a.value, false)
		}
		return nil
	}

	if !exists {
		core.Set(obj, elem.Attribute(), core.Clone(a.value))
		return nil
	}
	obj[key] = mergeValue(current, a.value, true)
	return nil
}

// mergeValue combines value into current and returns the result. Objects merge member by member and arrays
// grow when adding; anything else is replaced by a copy of value. A null member removes the attribute when
// replacing and is ignored when adding.
func mergeValue(current, value any, add bool) any {
	switch c := current.(type) {
	case map[string]any:
		v, ok := value.(map[string]any)
		if !ok {
			break
		}
		for name, member := range v {
			if member == nil {
				if !add {
					core.Delete(c, name)
				}
				continue
			}
			if key, existing, ok := core.Lookup(c, name); ok && existing != nil {
				c[key] = mergeValue(existing, member, add)
				continue
			}
			core.Set(c, name, core.Clone(member))
		}
		return c
	case []any:
		if !add {
			break
		}
		if v, ok := value.([]any); ok {
			return append(c, core.Clone(v).([]any)...)
		}
		return append(c, core.Clone(value))
	}
	return core.Clone(value)
}

func (a *applier) errorf(typ scim.ErrorType, i int, format string, args ...any) error {
	return scim.NewError(typ, "%s at %q", fmt.Sprintf(format, args...), a.path.Sub(i+1).String())
}
