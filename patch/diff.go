package patch

import (
	"sort"
	"strings"

	"github.com/brunoga/scim"
	"github.com/brunoga/scim/internal/core"
)

// DiffOption allows configuring the behavior of the Diff function.
type DiffOption interface {
	applyDiff(*diffConfig)
}

type diffOptionFunc func(*diffConfig)

func (f diffOptionFunc) applyDiff(c *diffConfig) {
	f(c)
}

type diffConfig struct {
	ignoredPaths map[string]bool
}

// DiffIgnorePath returns an option that tells Diff to ignore changes at the given attribute path, e.g.
// "meta.lastModified". Paths are matched case-insensitively and without value filters.
func DiffIgnorePath(path string) DiffOption {
	return diffOptionFunc(func(c *diffConfig) {
		if p, err := scim.ParsePath(path); err == nil {
			path = p.WithoutFilters().String()
		}
		c.ignoredPaths[strings.ToLower(path)] = true
	})
}

// Diff compares two versions of a resource and returns the request that turns from into to, or nil when there
// is nothing to change.
//
// Complex attributes are compared member by member and schema extensions are addressed through their URN.
// Multi-valued attributes that differ are replaced as a whole. A null or empty attribute in to counts as absent.
func Diff(from, to map[string]any, opts ...DiffOption) (*Request, error) {
	config := &diffConfig{
		ignoredPaths: make(map[string]bool),
	}
	for _, opt := range opts {
		opt.applyDiff(config)
	}

	d := &differ{config: config}
	if err := d.object(scim.Path{}, from, to); err != nil {
		return nil, err
	}
	if len(d.ops) == 0 {
		return nil, nil
	}
	return NewRequest(d.ops...), nil
}

type differ struct {
	config *diffConfig
	ops    []Operation
}

func (d *differ) emit(op OperationType, path scim.Path, value any) error {
	o, err := NewOperation(op, path, value)
	if err != nil {
		return err
	}
	d.ops = append(d.ops, o)
	return nil
}

func (d *differ) object(base scim.Path, from, to map[string]any) error {
	for _, name := range memberNames(from, to) {
		_, fv, _ := core.Lookup(from, name)
		_, tv, _ := core.Lookup(to, name)
		if core.IsEmpty(fv) && core.IsEmpty(tv) {
			continue
		}

		path, err := d.child(base, name, fv, tv)
		if err != nil {
			return err
		}
		if d.config.ignoredPaths[strings.ToLower(path.String())] {
			continue
		}

		switch {
		case core.IsEmpty(tv):
			err = d.emit(OperationTypeRemove, path, nil)
		case core.IsEmpty(fv):
			err = d.emit(OperationTypeAdd, path, tv)
		default:
			fobj, fok := fv.(map[string]any)
			tobj, tok := tv.(map[string]any)
			switch {
			case fok && tok:
				err = d.object(path, fobj, tobj)
			case !core.Equal(fv, tv):
				err = d.emit(OperationTypeReplace, path, tv)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// child returns the path of member name below base. Top-level members named by a URN holding objects are schema
// extensions and become namespaces.
func (d *differ) child(base scim.Path, name string, fv, tv any) (scim.Path, error) {
	if base.IsRoot() && base.Namespace() == "" && strings.HasPrefix(strings.ToLower(name), "urn:") {
		_, fok := fv.(map[string]any)
		_, tok := tv.(map[string]any)
		if fok || tok {
			p, err := scim.ParsePath(name + ":")
			if err == nil && p.IsRoot() {
				return p, nil
			}
		}
	}

	p, err := scim.ParsePath(name)
	if err != nil || p.Len() != 1 || p.Namespace() != "" || p.HasFilters() {
		return scim.Path{}, scim.NewError(scim.InvalidPath, "attribute %q cannot be addressed by a path", name)
	}
	return base.Append(p), nil
}

// memberNames returns the member names of both objects, sorted, with names differing only in case listed once.
func memberNames(from, to map[string]any) []string {
	seen := make(map[string]bool, len(from)+len(to))
	var names []string
	for _, obj := range []map[string]any{to, from} {
		for name := range obj {
			if lower := strings.ToLower(name); !seen[lower] {
				seen[lower] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
