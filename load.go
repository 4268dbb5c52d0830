package transmute

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// loadValue decodes plain data into out, which must be settable. Shape
// mismatches are appended to errs; the returned error is reserved for types
// the serializer cannot handle at all.
func loadValue(out reflect.Value, data any, path string, errs *ValidationErrors) error {
	t := out.Type()

	if t.Kind() == reflect.Pointer {
		if data == nil {
			out.Set(reflect.Zero(t))
			return nil
		}
		ptr := reflect.New(t.Elem())
		if err := loadValue(ptr.Elem(), data, path, errs); err != nil {
			return err
		}
		out.Set(ptr)
		return nil
	}

	kind, err := classify(t)
	if err != nil {
		return err
	}

	switch kind {
	case variantVoid:
		return nil
	case variantAny:
		if data != nil {
			out.Set(reflect.ValueOf(plainNumbers(data)))
		}
		return nil
	case variantPrimitive:
		if data == nil {
			return nil
		}
		if msg := loadPrimitive(out, data); msg != "" {
			*errs = append(*errs, &ValidationError{Field: path, Message: msg, Value: data})
		}
		return nil
	case variantList:
		return loadList(out, data, path, errs)
	case variantMapping:
		return loadMapping(out, data, path, errs)
	case variantStructured:
		return loadStruct(out, data, path, errs)
	}
	panic(fmt.Sprintf("transmute: unhandled variant %d", kind))
}

func loadList(out reflect.Value, data any, path string, errs *ValidationErrors) error {
	if data == nil {
		return nil
	}
	items, ok := data.([]any)
	if !ok {
		*errs = append(*errs, &ValidationError{Field: path, Message: "expected array", Value: data})
		return nil
	}

	t := out.Type()
	if t.Kind() == reflect.Array {
		if len(items) != t.Len() {
			*errs = append(*errs, &ValidationError{
				Field:   path,
				Message: fmt.Sprintf("expected %d items, got %d", t.Len(), len(items)),
			})
			return nil
		}
	} else {
		out.Set(reflect.MakeSlice(t, len(items), len(items)))
	}

	for i, item := range items {
		if err := loadValue(out.Index(i), item, fmt.Sprintf("%s[%d]", path, i), errs); err != nil {
			return err
		}
	}
	return nil
}

func loadMapping(out reflect.Value, data any, path string, errs *ValidationErrors) error {
	if data == nil {
		return nil
	}
	m, ok := data.(map[string]any)
	if !ok {
		*errs = append(*errs, &ValidationError{Field: path, Message: "expected object", Value: data})
		return nil
	}

	t := out.Type()
	result := reflect.MakeMapWithSize(t, len(m))
	for k, item := range m {
		elem := reflect.New(t.Elem()).Elem()
		if err := loadValue(elem, item, joinPath(path, k), errs); err != nil {
			return err
		}
		result.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), elem)
	}
	out.Set(result)
	return nil
}

func loadStruct(out reflect.Value, data any, path string, errs *ValidationErrors) error {
	if data == nil {
		for _, f := range structFields(out.Type()) {
			if f.required {
				*errs = append(*errs, &ValidationError{Field: joinPath(path, f.name), Message: "is required"})
			}
		}
		return nil
	}
	m, ok := data.(map[string]any)
	if !ok {
		*errs = append(*errs, &ValidationError{Field: path, Message: "expected object", Value: data})
		return nil
	}

	for _, f := range structFields(out.Type()) {
		fieldPath := joinPath(path, f.name)
		item, present := m[f.name]
		if !present {
			if f.required {
				*errs = append(*errs, &ValidationError{Field: fieldPath, Message: "is required"})
			}
			continue
		}

		fv, ok := fieldByIndex(out, f.index, true)
		if !ok {
			continue
		}
		if err := loadValue(fv, item, fieldPath, errs); err != nil {
			return err
		}
	}
	return nil
}

// loadPrimitive sets out from data and returns a message describing the
// mismatch, or "" on success.
func loadPrimitive(out reflect.Value, data any) string {
	t := out.Type()

	switch t {
	case timeType:
		switch d := data.(type) {
		case time.Time:
			out.Set(reflect.ValueOf(d))
		case string:
			ts, err := time.Parse(time.RFC3339Nano, d)
			if err != nil {
				return "expected RFC 3339 date-time"
			}
			out.Set(reflect.ValueOf(ts))
		default:
			return "expected date-time string"
		}
		return ""
	case durationType:
		if s, ok := data.(string); ok {
			d, err := time.ParseDuration(s)
			if err != nil {
				return "expected duration"
			}
			out.SetInt(int64(d))
			return ""
		}
		n, ok := toInt(data)
		if !ok {
			return "expected duration"
		}
		out.SetInt(n)
		return ""
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String:
		s, ok := data.(string)
		if !ok {
			return "expected string"
		}
		out.SetString(s)
	case reflect.Bool:
		b, ok := data.(bool)
		if !ok {
			return "expected boolean"
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := toInt(data)
		if !ok {
			return "expected integer"
		}
		if out.OverflowInt(n) {
			return "out of range"
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := toInt(data)
		if !ok || n < 0 {
			return "expected non-negative integer"
		}
		if out.OverflowUint(uint64(n)) {
			return "out of range"
		}
		out.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, ok := toFloat(data)
		if !ok {
			return "expected number"
		}
		if out.OverflowFloat(f) {
			return "out of range"
		}
		out.SetFloat(f)
	case reflect.Slice:
		s, ok := data.(string)
		if !ok {
			return "expected base64 string"
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return "expected base64 string"
		}
		out.SetBytes(b)
	default:
		return "unsupported primitive"
	}
	return ""
}

// toInt accepts any numeric plain value with an integral value.
func toInt(data any) (int64, bool) {
	rv := reflect.ValueOf(data)

	//exhaustive:ignore
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	}

	if n, ok := data.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toInt(f)
	}
	return 0, false
}

// toFloat accepts any numeric plain value.
func toFloat(data any) (float64, bool) {
	rv := reflect.ValueOf(data)

	//exhaustive:ignore
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}

	if n, ok := data.(json.Number); ok {
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	}
	return 0, false
}

// plainNumbers replaces json.Number values with float64 so untyped targets
// see the same data encoding/json would produce.
func plainNumbers(data any) any {
	switch d := data.(type) {
	case json.Number:
		f, err := d.Float64()
		if err != nil {
			return string(d)
		}
		return f
	case map[string]any:
		for k, item := range d {
			d[k] = plainNumbers(item)
		}
	case []any:
		for i, item := range d {
			d[i] = plainNumbers(item)
		}
	}
	return data
}
