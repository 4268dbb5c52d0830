package transmute

import (
	"net/http"
	"slices"
	"strings"
)

// Attributes is the metadata attached to a wrapped function: which HTTP
// methods route to it, explicit parameter placement hints, documented paths,
// and the errors it may return to callers.
type Attributes struct {
	Methods          []string
	QueryParameters  []string
	BodyParameters   []string
	HeaderParameters []string
	PathParameters   []string
	ErrorExceptions  []error
	Paths            []string
	Tags             []string
	SuccessCode      int
}

// Merge returns the union of a and other. List order is preserved and
// duplicates dropped; a non-zero other.SuccessCode wins.
func (a Attributes) Merge(other Attributes) Attributes {
	out := Attributes{
		Methods:          union(a.Methods, other.Methods),
		QueryParameters:  union(a.QueryParameters, other.QueryParameters),
		BodyParameters:   union(a.BodyParameters, other.BodyParameters),
		HeaderParameters: union(a.HeaderParameters, other.HeaderParameters),
		PathParameters:   union(a.PathParameters, other.PathParameters),
		Paths:            union(a.Paths, other.Paths),
		Tags:             union(a.Tags, other.Tags),
		SuccessCode:      a.SuccessCode,
	}
	out.ErrorExceptions = append(slices.Clone(a.ErrorExceptions), other.ErrorExceptions...)
	if other.SuccessCode != 0 {
		out.SuccessCode = other.SuccessCode
	}
	return out
}

// normalized fills defaults: methods upper-cased with GET when none were
// given, and a 200 success code.
func (a Attributes) normalized() Attributes {
	methods := make([]string, 0, len(a.Methods))
	for _, m := range a.Methods {
		methods = append(methods, strings.ToUpper(m))
	}
	a.Methods = union(nil, methods)
	if len(a.Methods) == 0 {
		a.Methods = []string{http.MethodGet}
	}
	if a.SuccessCode == 0 {
		a.SuccessCode = http.StatusOK
	}
	return a
}

func union(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	for _, s := range slices.Concat(a, b) {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// config collects everything Wrap needs beyond the function itself.
type config struct {
	attrs       Attributes
	params      []string
	defaults    map[string]any
	paramDescs  map[string]string
	description string
	name        string
	registry    *Registry
}

// Option configures a function at wrap time.
type Option func(*config)

// WithParams names the function's parameters in order, excluding a leading
// context.Context. Without it parameters are named arg0, arg1, ...
func WithParams(names ...string) Option {
	return func(c *config) {
		c.params = names
	}
}

// WithDefault gives a parameter a default value, making it optional.
func WithDefault(name string, value any) Option {
	return func(c *config) {
		if c.defaults == nil {
			c.defaults = make(map[string]any)
		}
		c.defaults[name] = value
	}
}

// WithParamDescription documents a parameter.
func WithParamDescription(name, desc string) Option {
	return func(c *config) {
		if c.paramDescs == nil {
			c.paramDescs = make(map[string]string)
		}
		c.paramDescs[name] = desc
	}
}

// WithDescription sets the description used as summary and description in
// the documentation.
func WithDescription(d string) Option {
	return func(c *config) {
		c.description = d
	}
}

// WithName sets the operation ID used in documentation.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithErrors declares errors that callers may report back to clients as
// invalid input. Matching uses errors.Is, or ErrorOfType for whole types.
func WithErrors(errs ...error) Option {
	return func(c *config) {
		c.attrs.ErrorExceptions = append(c.attrs.ErrorExceptions, errs...)
	}
}

// WithMethods sets the HTTP methods that route to the function.
func WithMethods(methods ...string) Option {
	return func(c *config) {
		c.attrs.Methods = append(c.attrs.Methods, methods...)
	}
}

// WithQuery marks parameters as query parameters.
func WithQuery(names ...string) Option {
	return func(c *config) {
		c.attrs.QueryParameters = append(c.attrs.QueryParameters, names...)
	}
}

// WithBody marks parameters as body parameters.
func WithBody(names ...string) Option {
	return func(c *config) {
		c.attrs.BodyParameters = append(c.attrs.BodyParameters, names...)
	}
}

// WithHeader marks parameters as header parameters.
func WithHeader(names ...string) Option {
	return func(c *config) {
		c.attrs.HeaderParameters = append(c.attrs.HeaderParameters, names...)
	}
}

// WithPath marks parameters as path parameters.
func WithPath(names ...string) Option {
	return func(c *config) {
		c.attrs.PathParameters = append(c.attrs.PathParameters, names...)
	}
}

// WithPaths sets the URL patterns the function is documented under.
func WithPaths(paths ...string) Option {
	return func(c *config) {
		c.attrs.Paths = append(c.attrs.Paths, paths...)
	}
}

// WithTags adds documentation tags.
func WithTags(tags ...string) Option {
	return func(c *config) {
		c.attrs.Tags = append(c.attrs.Tags, tags...)
	}
}

// WithSuccessCode sets the status code of a successful response.
func WithSuccessCode(code int) Option {
	return func(c *config) {
		c.attrs.SuccessCode = code
	}
}

// WithAttributes merges a prepared attribute set.
func WithAttributes(a Attributes) Option {
	return func(c *config) {
		c.attrs = c.attrs.Merge(a)
	}
}

// WithRegistry sets the registry the function is recorded in. Nil skips
// registration.
func WithRegistry(r *Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}
