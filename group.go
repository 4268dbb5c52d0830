package transmute

// Group wraps functions under a shared path prefix with shared attributes
// and tags.
type Group struct {
	prefix   string
	attrs    Attributes
	registry *Registry
	hasReg   bool
}

// GroupOption configures a Group.
type GroupOption func(*Group)

// WithGroupTags adds default tags to all functions wrapped by the group.
func WithGroupTags(tags ...string) GroupOption {
	return func(g *Group) {
		g.attrs.Tags = append(g.attrs.Tags, tags...)
	}
}

// WithGroupAttributes merges attributes into every function wrapped by the
// group.
func WithGroupAttributes(a Attributes) GroupOption {
	return func(g *Group) {
		g.attrs = g.attrs.Merge(a)
	}
}

// WithGroupRegistry sets the registry the group's functions are recorded in.
func WithGroupRegistry(r *Registry) GroupOption {
	return func(g *Group) {
		g.registry = r
		g.hasReg = true
	}
}

// NewGroup creates a group with the given path prefix.
func NewGroup(prefix string, opts ...GroupOption) *Group {
	g := &Group{prefix: prefix}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Wrap wraps fn with the group's attributes applied first. Paths, both the
// group's and the function's, are prefixed.
func (g *Group) Wrap(fn any, opts ...Option) (*Function, error) {
	all := make([]Option, 0, len(opts)+3)
	all = append(all, WithAttributes(g.attrs))
	if g.hasReg {
		all = append(all, WithRegistry(g.registry))
	}
	all = append(all, opts...)
	all = append(all, g.prefixPaths)
	return Wrap(fn, all...)
}

// MustWrap is like Wrap but panics on error.
func (g *Group) MustWrap(fn any, opts ...Option) *Function {
	f, err := g.Wrap(fn, opts...)
	if err != nil {
		panic("transmute: group wrap: " + err.Error())
	}
	return f
}

func (g *Group) prefixPaths(c *config) {
	if g.prefix == "" || len(c.attrs.Paths) == 0 {
		return
	}
	paths := make([]string, len(c.attrs.Paths))
	for i, p := range c.attrs.Paths {
		paths[i] = g.prefix + p
	}
	c.attrs.Paths = paths
}
