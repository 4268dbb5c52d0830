package transmute

import (
	"log/slog"
	"reflect"
	"sync"
)

// Registry maps functions to their descriptors so frameworks can find the
// metadata given only the function value.
//
// Functions are keyed by code pointer. Closures created from the same
// function literal share a key, as do method values of the same method.
type Registry struct {
	mu    sync.RWMutex
	funcs map[uintptr]*Function
	order []uintptr

	logger *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for registration events.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{funcs: make(map[uintptr]*Function)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRegistry is the registry Wrap records functions in by default.
var DefaultRegistry = NewRegistry()

// Lookup finds the descriptor of fn in DefaultRegistry.
func Lookup(fn any) (*Function, bool) {
	return DefaultRegistry.Lookup(fn)
}

func funcKey(fn any) (uintptr, bool) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return 0, false
	}
	return v.Pointer(), true
}

// Register records f as the descriptor of fn, replacing any previous entry.
// Non-function values are ignored.
func (r *Registry) Register(fn any, f *Function) {
	key, ok := funcKey(fn)
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.funcs[key]; !exists {
		r.order = append(r.order, key)
	}
	r.funcs[key] = f

	r.log().Debug("function registered",
		slog.String("function", f.Name),
		slog.Any("methods", f.Methods),
		slog.Any("paths", f.Attributes.Paths),
	)
}

// Lookup returns the descriptor registered for fn.
func (r *Registry) Lookup(fn any) (*Function, bool) {
	key, ok := funcKey(fn)
	if !ok {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.funcs[key]
	return f, ok
}

// Functions returns the registered descriptors in registration order.
func (r *Registry) Functions() []*Function {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Function, len(r.order))
	for i, key := range r.order {
		out[i] = r.funcs[key]
	}
	return out
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.funcs)
}

// Clear removes every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.funcs = make(map[uintptr]*Function)
	r.order = nil
}

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
