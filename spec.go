package transmute

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Spec assembles the operations of many functions into a Swagger 2.0
// document.
type Spec struct {
	mu       sync.Mutex
	info     Info
	basePath string
	paths    map[string]PathItem
}

// SpecOption configures a Spec.
type SpecOption func(*Spec)

// WithTitle sets the API title.
func WithTitle(title string) SpecOption {
	return func(s *Spec) {
		s.info.Title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) SpecOption {
	return func(s *Spec) {
		s.info.Version = version
	}
}

// WithInfoDescription sets the API description.
func WithInfoDescription(desc string) SpecOption {
	return func(s *Spec) {
		s.info.Description = desc
	}
}

// WithBasePath sets the path all operations are served under.
func WithBasePath(path string) SpecOption {
	return func(s *Spec) {
		s.basePath = path
	}
}

// NewSpec creates an empty document.
func NewSpec(opts ...SpecOption) *Spec {
	s := &Spec{
		info:  Info{Title: "API", Version: "1.0.0"},
		paths: make(map[string]PathItem),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddFunc documents f under pattern for each of its methods. A later
// function on the same path and method replaces an earlier one.
func (s *Spec) AddFunc(c *Context, pattern string, f *Function) error {
	op, err := f.Operation(c, pattern)
	if err != nil {
		return fmt.Errorf("document %s %s: %w", f.Name, pattern, err)
	}

	path := toSwaggerPath(pattern)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paths[path] == nil {
		s.paths[path] = make(PathItem)
	}
	for _, m := range f.Methods {
		s.paths[path][strings.ToLower(m)] = op
	}
	return nil
}

// Swagger returns the assembled document.
func (s *Spec) Swagger() Swagger {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make(map[string]PathItem, len(s.paths))
	for p, item := range s.paths {
		cp := make(PathItem, len(item))
		for m, op := range item {
			cp[m] = op
		}
		paths[p] = cp
	}

	return Swagger{
		Swagger:  "2.0",
		Info:     s.info,
		BasePath: s.basePath,
		Paths:    paths,
	}
}

// WriteJSON writes the document as indented JSON to w.
func (s *Spec) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Swagger())
}

// WriteYAML writes the document as YAML to w.
func (s *Spec) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.Swagger()); err != nil {
		return err
	}
	return enc.Close()
}

// Spec builds a document from every registered function that has paths.
func (r *Registry) Spec(c *Context, opts ...SpecOption) (*Spec, error) {
	s := NewSpec(opts...)
	for _, f := range r.Functions() {
		for _, p := range f.Attributes.Paths {
			if err := s.AddFunc(c, p, f); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}
