package transmute

import "log/slog"

// Context bundles the serializers and logger used to document and invoke
// wrapped functions. A nil *Context behaves as DefaultContext.
type Context struct {
	// Serializers converts between typed values and plain data.
	Serializers Serializer
	// ContentTypeSerializers converts plain data to and from wire formats.
	ContentTypeSerializers *ContentTypeSerializerSet
	Logger                 *slog.Logger
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithSerializer sets the object serializer.
func WithSerializer(s Serializer) ContextOption {
	return func(c *Context) {
		c.Serializers = s
	}
}

// WithContentTypeSerializers sets the content-type serializers. The first
// one is the default.
func WithContentTypeSerializers(s ...ContentTypeSerializer) ContextOption {
	return func(c *Context) {
		c.ContentTypeSerializers = NewContentTypeSerializerSet(s...)
	}
}

// WithLogger sets the logger. If not set, slog.Default() is used.
func WithLogger(l *slog.Logger) ContextOption {
	return func(c *Context) {
		c.Logger = l
	}
}

// NewContext creates a Context. Defaults are a ModelSerializer and JSON
// then YAML content types.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{}
	for _, opt := range opts {
		opt(c)
	}
	if c.Serializers == nil {
		c.Serializers = NewModelSerializer()
	}
	if c.ContentTypeSerializers == nil {
		c.ContentTypeSerializers = NewContentTypeSerializerSet(JSONSerializer{}, YAMLSerializer{})
	}
	return c
}

// DefaultContext is used by frameworks that do not configure their own.
var DefaultContext = NewContext()

// orDefault returns c, or DefaultContext when c is nil.
func (c *Context) orDefault() *Context {
	if c == nil {
		return DefaultContext
	}
	return c
}

func (c *Context) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
