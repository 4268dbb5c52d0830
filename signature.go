package transmute

import (
	"context"
	"fmt"
	"reflect"
)

var contextType = reflect.TypeFor[context.Context]()

// Argument describes one parameter of a wrapped function.
type Argument struct {
	Name        string
	Type        reflect.Type
	Index       int // position among the function's non-context parameters
	Default     any
	HasDefault  bool
	Description string
}

// Required reports whether the argument has no default.
func (a Argument) Required() bool { return !a.HasDefault }

// Signature is the normalized parameter list of a wrapped function.
type Signature struct {
	Args []Argument
}

// Get returns the argument with the given name.
func (s Signature) Get(name string) (Argument, bool) {
	for _, a := range s.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Argument{}, false
}

// Names returns the argument names in order.
func (s Signature) Names() []string {
	names := make([]string, len(s.Args))
	for i, a := range s.Args {
		names[i] = a.Name
	}
	return names
}

// Required returns the arguments without defaults, in order.
func (s Signature) Required() []Argument {
	var out []Argument
	for _, a := range s.Args {
		if a.Required() {
			out = append(out, a)
		}
	}
	return out
}

// buildSignature derives the signature from a function type. A leading
// context.Context parameter is reported through hasContext and left out of
// the argument list.
func buildSignature(fnType reflect.Type, cfg *config) (sig Signature, hasContext bool, err error) {
	offset := 0
	if fnType.NumIn() > 0 && fnType.In(0) == contextType {
		hasContext = true
		offset = 1
	}

	n := fnType.NumIn() - offset
	names := cfg.params
	if names == nil {
		names = make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("arg%d", i)
		}
	}
	if len(names) != n {
		return Signature{}, false, fmt.Errorf("%w: function has %d parameters, %d names given", ErrParamCount, n, len(names))
	}

	seen := make(map[string]bool, n)
	sig.Args = make([]Argument, n)
	for i, name := range names {
		if name == "" || seen[name] {
			return Signature{}, false, fmt.Errorf("%w: invalid or duplicate parameter name %q", ErrParamCount, name)
		}
		seen[name] = true
		sig.Args[i] = Argument{
			Name:        name,
			Type:        fnType.In(i + offset),
			Index:       i,
			Description: cfg.paramDescs[name],
		}
	}

	for name := range cfg.paramDescs {
		if !seen[name] {
			return Signature{}, false, fmt.Errorf("%w: description for %q", ErrUnknownParameter, name)
		}
	}

	for name, def := range cfg.defaults {
		if !seen[name] {
			return Signature{}, false, fmt.Errorf("%w: default for %q", ErrUnknownParameter, name)
		}
		for i := range sig.Args {
			if sig.Args[i].Name != name {
				continue
			}
			v, err := defaultValue(sig.Args[i].Type, def)
			if err != nil {
				return Signature{}, false, fmt.Errorf("default for %q: %w", name, err)
			}
			sig.Args[i].Default = v
			sig.Args[i].HasDefault = true
		}
	}

	return sig, hasContext, nil
}

// defaultValue converts def to t. Untyped constants such as 10 for an
// int64 parameter are converted; nil is only valid for nillable types.
func defaultValue(t reflect.Type, def any) (any, error) {
	if def == nil {
		//exhaustive:ignore
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
			return reflect.Zero(t).Interface(), nil
		default:
			return nil, fmt.Errorf("%w: nil is not a valid %s", ErrArgument, t)
		}
	}

	v := reflect.ValueOf(def)
	switch {
	case v.Type().AssignableTo(t):
		return def, nil
	case v.Type().ConvertibleTo(t) && v.Kind() != reflect.String && t.Kind() != reflect.String:
		return v.Convert(t).Interface(), nil
	default:
		return nil, fmt.Errorf("%w: %s is not assignable to %s", ErrArgument, v.Type(), t)
	}
}
