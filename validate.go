package transmute

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaURL names the in-memory resource; each type compiles with its own
// Compiler so the name never collides.
const schemaURL = "mem://transmute/schema.json"

// compiledSchema caches the compiled form of a type's JSON Schema.
type compiledSchema struct {
	schema *jsonschema.Schema
	err    error
}

// validateSchema checks plain data against the JSON Schema generated for t.
func (s *ModelSerializer) validateSchema(t reflect.Type, data any) error {
	compiled, err := s.compiled(t)
	if err != nil {
		return err
	}

	// Round-trip through JSON so the validator sees canonical JSON values
	// regardless of which content-type serializer produced data.
	b, err := json.Marshal(data)
	if err != nil {
		return ValidationErrors{{Message: "not representable as JSON: " + err.Error()}}
	}
	doc, err := decodeJSON(b)
	if err != nil {
		return ValidationErrors{{Message: err.Error()}}
	}

	err = compiled.Validate(stripNulls(doc))
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		var errs ValidationErrors
		collectSchemaErrors(ve, &errs)
		return errs
	}
	return err
}

func (s *ModelSerializer) compiled(t reflect.Type) (*jsonschema.Schema, error) {
	if c, ok := s.schemas.Load(t); ok {
		cs := c.(*compiledSchema)
		return cs.schema, cs.err
	}

	cs := &compiledSchema{}
	cs.schema, cs.err = compileSchema(t)
	actual, _ := s.schemas.LoadOrStore(t, cs)
	cs = actual.(*compiledSchema)
	return cs.schema, cs.err
}

func compileSchema(t reflect.Type) (*jsonschema.Schema, error) {
	fragment, err := typeToSchema(t)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(fragment)
	if err != nil {
		return nil, fmt.Errorf("marshal schema for %s: %w", t, err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema for %s: %w", t, err)
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", t, err)
	}
	return sch, nil
}

// stripNulls drops null object members; the generated schemas describe
// nil pointers as absent fields rather than nullable ones.
func stripNulls(v any) any {
	switch d := v.(type) {
	case map[string]any:
		for k, item := range d {
			if item == nil {
				delete(d, k)
				continue
			}
			d[k] = stripNulls(item)
		}
	case []any:
		for i, item := range d {
			d[i] = stripNulls(item)
		}
	}
	return v
}

// collectSchemaErrors flattens the validator's error tree into its leaves.
func collectSchemaErrors(ve *jsonschema.ValidationError, errs *ValidationErrors) {
	if len(ve.Causes) == 0 {
		*errs = append(*errs, &ValidationError{
			Field:   pointerToPath(ve.InstanceLocation),
			Message: ve.Message,
		})
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaErrors(cause, errs)
	}
}

// pointerToPath turns a JSON pointer like "/items/0/name" into "items[0].name".
func pointerToPath(ptr string) string {
	var path string
	for seg := range strings.SplitSeq(strings.TrimPrefix(ptr, "/"), "/") {
		if seg == "" {
			continue
		}
		seg = strings.NewReplacer("~1", "/", "~0", "~").Replace(seg)
		if isIndex(seg) {
			path += "[" + seg + "]"
			continue
		}
		path = joinPath(path, seg)
	}
	return path
}

func isIndex(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
