package scim

// DefaultMaxDepth is the nesting depth (parentheses and value filters) accepted by the parsers unless
// WithMaxDepth says otherwise.
const DefaultMaxDepth = 64

type config struct {
	maxDepth int
}

// Option configures ParseFilter and ParsePath.
type Option func(*config)

// WithMaxDepth limits how deeply filters may nest. Values below 1 restore the default.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

func newConfig(opts []Option) config {
	c := config{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&c)
	}
	if c.maxDepth < 1 {
		c.maxDepth = DefaultMaxDepth
	}
	return c
}
