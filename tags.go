package transmute

import (
	"reflect"
	"strings"
)

// field is a serializable struct field, flattened through embedded structs.
type field struct {
	name      string
	index     []int
	typ       reflect.Type
	required  bool
	omitEmpty bool
	doc       string
}

// structFields returns the serializable fields of a struct type in
// declaration order. Anonymous struct fields without a json name are
// flattened into the parent, matching encoding/json.
func structFields(t reflect.Type) []field {
	var fields []field
	seen := make(map[string]bool)
	collectFields(t, nil, seen, &fields)
	return fields
}

func collectFields(t reflect.Type, index []int, seen map[string]bool, out *[]field) {
	for i := range t.NumField() {
		f := t.Field(i)
		idx := append(append([]int(nil), index...), i)

		tagName, opts := tagOptions(f.Tag.Get("json"))
		if tagName == "-" && opts == "" {
			continue
		}

		if f.Anonymous && tagName == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collectFields(ft, idx, seen, out)
				continue
			}
		}

		if !f.IsExported() {
			continue
		}

		name := jsonFieldName(f)
		if seen[name] {
			continue
		}
		seen[name] = true

		*out = append(*out, field{
			name:      name,
			index:     idx,
			typ:       f.Type,
			required:  isRequiredField(f),
			omitEmpty: tagContains(opts, "omitempty"),
			doc:       f.Tag.Get("doc"),
		})
	}
}

// jsonFieldName returns the JSON field name for a struct field.
func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

// isRequiredField reports whether a field is marked mandatory, either with
// required:"true" or a validate tag containing "required".
func isRequiredField(f reflect.StructField) bool {
	if f.Tag.Get("required") == "true" {
		return true
	}
	for rule := range strings.SplitSeq(f.Tag.Get("validate"), ",") {
		if rule == "required" {
			return true
		}
	}
	return false
}

// tagOptions splits a struct tag value on comma and returns
// the name and remaining options.
func tagOptions(tag string) (string, string) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, opts
}

// tagContains reports whether a comma-separated list of options
// contains a particular option.
func tagContains(opts string, name string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == name {
			return true
		}
	}
	return false
}
