package scim

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultCacheSize is the number of expressions a Cache built with a non-positive size keeps.
const DefaultCacheSize = 1024

type cachedFilter struct {
	filter Filter
	err    error
}

type cachedPath struct {
	path Path
	err  error
}

// Cache memoizes parsed filters and paths by expression text. Parse errors are cached as well, so a hostile
// expression repeated by clients is rejected without reparsing. It is safe for concurrent use. When a table
// grows past its size it is emptied.
type Cache struct {
	size    int
	opts    []Option
	filters *xsync.MapOf[string, cachedFilter]
	paths   *xsync.MapOf[string, cachedPath]
}

// NewCache returns a cache holding up to size expressions of each kind, parsed with opts.
func NewCache(size int, opts ...Option) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{
		size:    size,
		opts:    opts,
		filters: xsync.NewMapOf[string, cachedFilter](),
		paths:   xsync.NewMapOf[string, cachedPath](),
	}
}

// Filter returns the parsed form of expr.
func (c *Cache) Filter(expr string) (Filter, error) {
	if c.filters.Size() >= c.size {
		if _, ok := c.filters.Load(expr); !ok {
			c.filters.Clear()
		}
	}
	entry, _ := c.filters.LoadOrCompute(expr, func() cachedFilter {
		f, err := ParseFilter(expr, c.opts...)
		return cachedFilter{filter: f, err: err}
	})
	return entry.filter, entry.err
}

// Path returns the parsed form of expr.
func (c *Cache) Path(expr string) (Path, error) {
	if c.paths.Size() >= c.size {
		if _, ok := c.paths.Load(expr); !ok {
			c.paths.Clear()
		}
	}
	entry, _ := c.paths.LoadOrCompute(expr, func() cachedPath {
		p, err := ParsePath(expr, c.opts...)
		return cachedPath{path: p, err: err}
	})
	return entry.path, entry.err
}

// Len returns the number of cached filters and paths.
func (c *Cache) Len() int {
	return c.filters.Size() + c.paths.Size()
}
