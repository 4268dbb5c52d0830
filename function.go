package transmute

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"slices"
)

var errorType = reflect.TypeFor[error]()

// Function wraps a callable and records how it is called: its parameters,
// return type, description, HTTP methods, and recoverable errors. Frameworks
// use it to generate handlers and documentation.
//
// A Function is built once by Wrap and not modified afterwards.
type Function struct {
	Name            string
	Signature       Signature
	ReturnType      reflect.Type
	Description     string
	ErrorExceptions []error
	Methods         []string
	Attributes      Attributes

	operationID  string
	raw          any
	fn           reflect.Value
	hasContext   bool
	returnsValue bool
	returnsError bool
}

// Wrap builds the descriptor for fn. fn must be a non-variadic function,
// optionally taking a leading context.Context, and returning nothing, a
// value, an error, or a value and an error.
//
// Unless WithRegistry says otherwise the descriptor is recorded in
// DefaultRegistry. Wrapping the same function again replaces the entry.
func Wrap(fn any, opts ...Option) (*Function, error) {
	cfg := config{registry: DefaultRegistry}
	for _, opt := range opts {
		opt(&cfg)
	}

	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: %T is not a function", ErrUnsupportedFunc, fn)
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic functions are not supported", ErrUnsupportedFunc)
	}

	sig, hasContext, err := buildSignature(t, &cfg)
	if err != nil {
		return nil, err
	}

	returnType, returnsValue, returnsError, err := resultShape(t)
	if err != nil {
		return nil, err
	}

	attrs := cfg.attrs.normalized()
	f := &Function{
		Name:            funcName(v),
		Signature:       sig,
		ReturnType:      returnType,
		Description:     cfg.description,
		ErrorExceptions: slices.Clone(attrs.ErrorExceptions),
		Methods:         slices.Clone(attrs.Methods),
		Attributes:      attrs,
		operationID:     cfg.name,
		raw:             fn,
		fn:              v,
		hasContext:      hasContext,
		returnsValue:    returnsValue,
		returnsError:    returnsError,
	}

	if _, err := f.ArgumentSets(""); err != nil {
		return nil, err
	}

	if cfg.registry != nil {
		cfg.registry.Register(fn, f)
	}
	return f, nil
}

// MustWrap is like Wrap but panics on error. It is meant for package-level
// declarations.
func MustWrap(fn any, opts ...Option) *Function {
	f, err := Wrap(fn, opts...)
	if err != nil {
		panic(fmt.Sprintf("transmute: wrap %T: %v", fn, err))
	}
	return f
}

// resultShape validates the results of a function type and reports the
// value type, which is Void when the function returns no value.
func resultShape(t reflect.Type) (returnType reflect.Type, returnsValue, returnsError bool, err error) {
	switch t.NumOut() {
	case 0:
		return voidType, false, false, nil
	case 1:
		if t.Out(0) == errorType {
			return voidType, false, true, nil
		}
		return t.Out(0), true, false, nil
	case 2:
		if t.Out(1) != errorType {
			return nil, false, false, fmt.Errorf("%w: second result must be error, got %s", ErrUnsupportedFunc, t.Out(1))
		}
		return t.Out(0), true, true, nil
	default:
		return nil, false, false, fmt.Errorf("%w: %d results", ErrUnsupportedFunc, t.NumOut())
	}
}

func funcName(v reflect.Value) string {
	if rf := runtime.FuncForPC(v.Pointer()); rf != nil {
		return rf.Name()
	}
	return ""
}

// Func returns the original callable.
func (f *Function) Func() any { return f.raw }

// HasContext reports whether the function takes a leading context.Context.
func (f *Function) HasContext() bool { return f.hasContext }

// Call invokes the function with args unchanged, one per signature
// argument. ctx is passed through when the function accepts a context.
// The function's value and error results are returned as-is; a function
// without a value result returns nil.
func (f *Function) Call(ctx context.Context, args ...any) (any, error) {
	if len(args) != len(f.Signature.Args) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArgument, f.Name, len(f.Signature.Args), len(args))
	}

	in := make([]reflect.Value, 0, len(args)+1)
	if f.hasContext {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, a := range f.Signature.Args {
		v, err := argValue(a, args[i])
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}

	out := f.fn.Call(in)

	var result any
	if f.returnsValue {
		result = out[0].Interface()
	}
	if f.returnsError {
		if e := out[len(out)-1]; !e.IsNil() {
			return result, e.Interface().(error)
		}
	}
	return result, nil
}

func argValue(a Argument, arg any) (reflect.Value, error) {
	if arg == nil {
		//exhaustive:ignore
		switch a.Type.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
			return reflect.Zero(a.Type), nil
		default:
			return reflect.Value{}, fmt.Errorf("%w: %s: nil is not a valid %s", ErrArgument, a.Name, a.Type)
		}
	}
	v := reflect.ValueOf(arg)
	if !v.Type().AssignableTo(a.Type) {
		return reflect.Value{}, fmt.Errorf("%w: %s: %s is not assignable to %s", ErrArgument, a.Name, v.Type(), a.Type)
	}
	return v, nil
}

// IsRecoverable reports whether err matches one of the declared error
// exceptions. The descriptor records the list only; callers decide what to
// do with a match.
func (f *Function) IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range f.ErrorExceptions {
		if m, ok := target.(errorMatcher); ok {
			if m.match(err) {
				return true
			}
			continue
		}
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type errorMatcher interface {
	match(err error) bool
}

// typeMatcher matches any error in a chain whose type is T.
type typeMatcher[T error] struct{}

func (typeMatcher[T]) Error() string {
	return "errors of type " + reflect.TypeFor[T]().String()
}

func (typeMatcher[T]) match(err error) bool {
	var target T
	return errors.As(err, &target)
}

// ErrorOfType returns an error exception matching every error of type T,
// for use with WithErrors.
func ErrorOfType[T error]() error {
	return typeMatcher[T]{}
}
