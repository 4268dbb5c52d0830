package transmute

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Serializer converts between typed Go values and plain data (maps, slices,
// strings, numbers, booleans, nil) and describes types as JSON Schema.
type Serializer interface {
	Dump(t reflect.Type, v any) (any, error)
	Load(t reflect.Type, data any) (any, error)
	ToJSONSchema(t reflect.Type) (JSONSchema, error)
}

// SelfValidator is implemented by model types that validate themselves.
// It runs after a value has been loaded and passed struct validation.
type SelfValidator interface {
	Validate() error
}

// ModelSerializer is the default Serializer. It walks values by reflection
// over a closed set of variants: primitive, list, mapping, and structured.
type ModelSerializer struct {
	validate         *validator.Validate
	schemaValidation bool
	schemas          sync.Map // reflect.Type -> *compiledSchema
}

// SerializerOption configures a ModelSerializer.
type SerializerOption func(*ModelSerializer)

// WithValidator replaces the struct validator used after loading.
// Passing nil disables struct validation.
func WithValidator(v *validator.Validate) SerializerOption {
	return func(s *ModelSerializer) {
		s.validate = v
	}
}

// WithSchemaValidation validates plain data against the type's JSON Schema
// before decoding it.
func WithSchemaValidation() SerializerOption {
	return func(s *ModelSerializer) {
		s.schemaValidation = true
	}
}

// NewModelSerializer creates a ModelSerializer with the given options.
func NewModelSerializer(opts ...SerializerOption) *ModelSerializer {
	s := &ModelSerializer{validate: newValidator()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newValidator returns a validator that reports fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := jsonFieldName(f)
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ToJSONSchema implements Serializer.
func (s *ModelSerializer) ToJSONSchema(t reflect.Type) (JSONSchema, error) {
	return typeToSchema(t)
}

// Dump implements Serializer.
func (s *ModelSerializer) Dump(t reflect.Type, v any) (any, error) {
	if t == nil {
		return nil, nil
	}
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) && !(t.Kind() == reflect.Interface && rv.Type().Implements(t)) {
		return nil, fmt.Errorf("%w: cannot dump %s as %s", ErrArgument, rv.Type(), t)
	}
	return dumpValue(t, rv)
}

// Load implements Serializer. Failures caused by the shape of data are
// returned as ValidationErrors.
func (s *ModelSerializer) Load(t reflect.Type, data any) (any, error) {
	if t == nil {
		return nil, nil
	}

	if s.schemaValidation {
		if err := s.validateSchema(t, data); err != nil {
			return nil, err
		}
	}

	out := reflect.New(t).Elem()
	var errs ValidationErrors
	if err := loadValue(out, data, "", &errs); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if err := s.validateStruct(out); err != nil {
		return nil, err
	}

	if sv, ok := selfValidator(out); ok {
		if err := sv.Validate(); err != nil {
			if ves, ok := asValidationErrors(err); ok {
				return nil, ves
			}
			return nil, ValidationErrors{{Message: err.Error()}}
		}
	}

	return out.Interface(), nil
}

// validateStruct runs struct-tag validation on structs reachable at the top
// level of v: the struct itself, or the elements of a list or mapping.
func (s *ModelSerializer) validateStruct(v reflect.Value) error {
	if s.validate == nil {
		return nil
	}

	var errs ValidationErrors
	var walk func(v reflect.Value, path string)
	walk = func(v reflect.Value, path string) {
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return
			}
			v = v.Elem()
		}

		//exhaustive:ignore
		switch v.Kind() {
		case reflect.Struct:
			if v.Type() == timeType {
				return
			}
			err := s.validate.Struct(v.Interface())
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					errs = append(errs, fieldError(path, fe))
				}
			} else if err != nil {
				errs = append(errs, &ValidationError{Field: path, Message: err.Error()})
			}
		case reflect.Slice, reflect.Array:
			if v.Type().Elem().Kind() == reflect.Uint8 {
				return
			}
			for i := range v.Len() {
				walk(v.Index(i), fmt.Sprintf("%s[%d]", path, i))
			}
		case reflect.Map:
			iter := v.MapRange()
			for iter.Next() {
				walk(iter.Value(), joinPath(path, iter.Key().String()))
			}
		}
	}
	walk(v, "")

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// fieldError converts a validator failure into a ValidationError whose
// field path omits the root struct name.
func fieldError(prefix string, fe validator.FieldError) *ValidationError {
	_, ns, _ := strings.Cut(fe.Namespace(), ".")
	msg := "failed " + fe.Tag()
	if fe.Tag() == "required" {
		msg = "is required"
	} else if p := fe.Param(); p != "" {
		msg += "=" + p
	}
	return &ValidationError{
		Field:   joinPath(prefix, ns),
		Message: msg,
		Value:   fe.Value(),
	}
}

func selfValidator(v reflect.Value) (SelfValidator, bool) {
	if v.CanAddr() {
		if sv, ok := v.Addr().Interface().(SelfValidator); ok {
			return sv, true
		}
	}
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false
	}
	sv, ok := v.Interface().(SelfValidator)
	return sv, ok
}

// Dump converts v to plain data using s.
func Dump[T any](s Serializer, v T) (any, error) {
	return s.Dump(reflect.TypeFor[T](), v)
}

// Load converts plain data to a T using s.
func Load[T any](s Serializer, data any) (T, error) {
	var zero T
	v, err := s.Load(reflect.TypeFor[T](), data)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	return v.(T), nil
}

// SchemaFor returns the JSON Schema fragment for T using s.
func SchemaFor[T any](s Serializer) (JSONSchema, error) {
	return s.ToJSONSchema(reflect.TypeFor[T]())
}
