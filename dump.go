package transmute

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"time"
)

// dumpValue converts v, statically typed as t, into plain data.
func dumpValue(t reflect.Type, v reflect.Value) (any, error) {
	for t.Kind() == reflect.Pointer {
		if v.Kind() == reflect.Interface {
			v = v.Elem()
		}
		if !v.IsValid() || v.IsNil() {
			return nil, nil
		}
		t = t.Elem()
		v = v.Elem()
	}

	kind, err := classify(t)
	if err != nil {
		return nil, err
	}

	switch kind {
	case variantVoid:
		return nil, nil
	case variantAny:
		if v.Kind() == reflect.Interface {
			if v.IsNil() {
				return nil, nil
			}
			v = v.Elem()
		}
		if !v.IsValid() {
			return nil, nil
		}
		return dumpValue(v.Type(), v)
	case variantPrimitive:
		return dumpPrimitive(t, v), nil
	case variantList:
		if t.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		out := make([]any, v.Len())
		for i := range v.Len() {
			item, err := dumpValue(t.Elem(), v.Index(i))
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = item
		}
		return out, nil
	case variantMapping:
		if v.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			item, err := dumpValue(t.Elem(), iter.Value())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", iter.Key().String(), err)
			}
			out[iter.Key().String()] = item
		}
		return out, nil
	case variantStructured:
		return dumpStruct(t, v)
	}
	panic(fmt.Sprintf("transmute: unhandled variant %d", kind))
}

func dumpStruct(t reflect.Type, v reflect.Value) (map[string]any, error) {
	out := make(map[string]any)
	for _, f := range structFields(t) {
		fv, ok := fieldByIndex(v, f.index, false)
		if !ok {
			continue
		}
		if f.omitEmpty && fv.IsZero() {
			continue
		}
		item, err := dumpValue(f.typ, fv)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		out[f.name] = item
	}
	return out, nil
}

// dumpPrimitive returns the value converted to its predeclared type, so
// named types like `type Level int` dump as plain ints.
func dumpPrimitive(t reflect.Type, v reflect.Value) any {
	switch t {
	case timeType:
		return v.Interface().(time.Time).Format(time.RFC3339Nano)
	case durationType:
		return time.Duration(v.Int()).String()
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Slice:
		return base64.StdEncoding.EncodeToString(v.Bytes())
	default:
		return v.Convert(basicTypes[t.Kind()]).Interface()
	}
}

var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint:    reflect.TypeFor[uint](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Uintptr: reflect.TypeFor[uintptr](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
}

// fieldByIndex walks index from v. Nil embedded pointers are allocated when
// alloc is set, otherwise the walk stops and reports false.
func fieldByIndex(v reflect.Value, index []int, alloc bool) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !alloc || !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}
