package transmute

import (
	"fmt"
	"reflect"
	"time"
)

// JSONSchema represents a JSON Schema fragment (the subset used in Swagger 2.0).
type JSONSchema struct {
	Type        string                `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string                `json:"format,omitempty" yaml:"format,omitempty"`
	Title       string                `json:"title,omitempty" yaml:"title,omitempty"`
	Description string                `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  map[string]JSONSchema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items       *JSONSchema           `json:"items,omitempty" yaml:"items,omitempty"`
	Required    []string              `json:"required,omitempty" yaml:"required,omitempty"`

	// AdditionalProperties describes the values of a mapping type.
	AdditionalProperties *JSONSchema `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
}

// Void marks a function that returns no value.
type Void struct{}

// variant is the closed set of shapes the serializer understands.
type variant int

const (
	variantVoid variant = iota
	variantAny
	variantPrimitive
	variantList
	variantMapping
	variantStructured
)

var (
	voidType     = reflect.TypeFor[Void]()
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
)

// classify maps a type onto its variant. Pointers are unwrapped by the caller.
func classify(t reflect.Type) (variant, error) {
	if t == nil || t == voidType {
		return variantVoid, nil
	}

	switch t {
	case timeType, durationType:
		return variantPrimitive, nil
	}
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
		return variantPrimitive, nil
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return variantPrimitive, nil
	case reflect.Slice, reflect.Array:
		return variantList, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return 0, fmt.Errorf("%w: %s: map keys must be strings", ErrUnsupportedType, t)
		}
		return variantMapping, nil
	case reflect.Struct:
		return variantStructured, nil
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return variantAny, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

// deref unwraps pointer types.
func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// typeToSchema converts a type to its JSON Schema fragment.
func typeToSchema(t reflect.Type) (JSONSchema, error) {
	return schemaFor(deref(t), make(map[reflect.Type]bool))
}

func schemaFor(t reflect.Type, visiting map[reflect.Type]bool) (JSONSchema, error) {
	t = deref(t)
	v, err := classify(t)
	if err != nil {
		return JSONSchema{}, err
	}

	switch v {
	case variantVoid, variantAny:
		return JSONSchema{}, nil
	case variantPrimitive:
		return primitiveSchema(t), nil
	case variantList:
		items, err := schemaFor(t.Elem(), visiting)
		if err != nil {
			return JSONSchema{}, err
		}
		return JSONSchema{Type: "array", Items: &items}, nil
	case variantMapping:
		values, err := schemaFor(t.Elem(), visiting)
		if err != nil {
			return JSONSchema{}, err
		}
		return JSONSchema{Type: "object", AdditionalProperties: &values}, nil
	case variantStructured:
		return structToSchema(t, visiting)
	}
	panic(fmt.Sprintf("transmute: unhandled variant %d", v))
}

func primitiveSchema(t reflect.Type) JSONSchema {
	switch t {
	case timeType:
		return JSONSchema{Type: "string", Format: "date-time"}
	case durationType:
		return JSONSchema{Type: "string", Format: "duration"}
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String:
		return JSONSchema{Type: "string"}
	case reflect.Bool:
		return JSONSchema{Type: "boolean"}
	case reflect.Slice:
		return JSONSchema{Type: "string", Format: "byte"}
	default:
		return JSONSchema{Type: "number"}
	}
}

// structToSchema converts a struct type to an object schema titled with
// the type name. A type already being expanded renders as a bare titled
// object so recursive models terminate.
func structToSchema(t reflect.Type, visiting map[reflect.Type]bool) (JSONSchema, error) {
	if visiting[t] {
		return JSONSchema{Type: "object", Title: t.Name()}, nil
	}
	visiting[t] = true
	defer delete(visiting, t)

	schema := JSONSchema{
		Type:       "object",
		Title:      t.Name(),
		Properties: make(map[string]JSONSchema),
	}

	for _, f := range structFields(t) {
		prop, err := schemaFor(f.typ, visiting)
		if err != nil {
			return JSONSchema{}, fmt.Errorf("%s.%s: %w", t.Name(), f.name, err)
		}
		if f.doc != "" {
			prop.Description = f.doc
		}
		schema.Properties[f.name] = prop

		if f.required {
			schema.Required = append(schema.Required, f.name)
		}
	}

	return schema, nil
}
