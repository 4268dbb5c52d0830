package transmute

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/schema"
)

var valuesDecoder = schema.NewDecoder()

func init() {
	valuesDecoder.IgnoreUnknownKeys(true)
	valuesDecoder.RegisterConverter(time.Time{}, func(s string) reflect.Value {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(t)
	})
	valuesDecoder.RegisterConverter(time.Duration(0), func(s string) reflect.Value {
		d, err := time.ParseDuration(s)
		if err != nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(d)
	})
}

// Request is the framework-neutral view of an incoming request that
// argument extraction reads from.
type Request interface {
	Method() string
	QueryValues() url.Values
	HeaderValues() http.Header
	PathValue(name string) string
	ContentType() string
	Body() ([]byte, error)
}

// HTTPRequest adapts a *http.Request. Path values come from
// (*http.Request).PathValue, so the request should have been routed by a
// Go 1.22+ http.ServeMux or had its path values set.
func HTTPRequest(r *http.Request) Request {
	return &httpRequest{r: r}
}

type httpRequest struct {
	r    *http.Request
	body []byte
	read bool
}

func (h *httpRequest) Method() string               { return h.r.Method }
func (h *httpRequest) QueryValues() url.Values      { return h.r.URL.Query() }
func (h *httpRequest) HeaderValues() http.Header    { return h.r.Header }
func (h *httpRequest) PathValue(name string) string { return h.r.PathValue(name) }
func (h *httpRequest) ContentType() string          { return h.r.Header.Get("Content-Type") }

func (h *httpRequest) Body() ([]byte, error) {
	if h.read {
		return h.body, nil
	}
	h.read = true
	if h.r.Body == nil || h.r.Body == http.NoBody {
		return nil, nil
	}
	b, err := io.ReadAll(h.r.Body)
	if err != nil {
		return nil, err
	}
	h.body = b
	return b, nil
}

// ExtractArgs builds the arguments for f from req, in signature order.
// Path, query and header arguments are decoded from their string values.
// The body must be an object keyed by argument name; each body argument is
// loaded with c.Serializers. Missing arguments take their default.
//
// Every invalid or missing argument is reported in one ValidationErrors. A
// body in a content type no serializer handles yields a 415 APIError.
func (c *Context) ExtractArgs(f *Function, pattern string, req Request) ([]any, error) {
	c = c.orDefault()
	sets, err := f.ArgumentSets(pattern)
	if err != nil {
		return nil, err
	}

	found := make(map[string]any, len(f.Signature.Args))
	var errs ValidationErrors

	if err := decodeValues(sets.Path, pathValues(sets.Path, req), CategoryPath, found, &errs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBindPath, err)
	}
	if err := decodeValues(sets.Query, req.QueryValues(), CategoryQuery, found, &errs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBindQuery, err)
	}
	if err := decodeValues(sets.Header, headerValues(sets.Header, req.HeaderValues()), CategoryHeader, found, &errs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBindHeader, err)
	}
	if len(sets.Body) > 0 {
		if err := c.decodeBody(sets.Body, req, found, &errs); err != nil {
			return nil, err
		}
	}

	args := make([]any, len(f.Signature.Args))
	for i, a := range f.Signature.Args {
		v, ok := found[a.Name]
		switch {
		case ok:
			args[i] = v
		case a.HasDefault:
			args[i] = a.Default
		default:
			if !hasError(errs, a.Name) {
				in, _ := sets.Category(a.Name)
				errs = append(errs, &ValidationError{Field: a.Name, In: in.String(), Message: "is required"})
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return args, nil
}

func (c *Context) decodeBody(args []Argument, req Request, found map[string]any, errs *ValidationErrors) error {
	raw, err := req.Body()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBindBody, err)
	}
	if len(raw) == 0 {
		return nil
	}

	ct, err := c.ContentTypeSerializers.For(req.ContentType())
	if err != nil {
		return Error(http.StatusUnsupportedMediaType, err.Error())
	}

	if vl, ok := ct.(ValuesLoader); ok {
		values, err := vl.LoadValues(raw)
		if err != nil {
			*errs = append(*errs, &ValidationError{In: CategoryBody.String(), Message: "malformed body: " + err.Error()})
			return nil
		}
		if err := decodeValues(args, values, CategoryBody, found, errs); err != nil {
			return fmt.Errorf("%w: %w", ErrBindBody, err)
		}
		return nil
	}

	data, err := ct.Load(raw)
	if err != nil {
		*errs = append(*errs, &ValidationError{In: CategoryBody.String(), Message: "malformed body: " + err.Error()})
		return nil
	}
	if data == nil {
		return nil
	}
	obj, ok := data.(map[string]any)
	if !ok {
		*errs = append(*errs, &ValidationError{In: CategoryBody.String(), Message: "body must be an object"})
		return nil
	}

	for _, a := range args {
		d, ok := obj[a.Name]
		if !ok || (d == nil && a.Type.Kind() != reflect.Pointer) {
			continue
		}
		v, err := c.Serializers.Load(a.Type, d)
		if err != nil {
			ves, ok := asValidationErrors(err)
			if !ok {
				return fmt.Errorf("%w: %s: %w", ErrBindBody, a.Name, err)
			}
			*errs = append(*errs, ves.prefixed(a.Name, CategoryBody.String())...)
			continue
		}
		found[a.Name] = v
	}
	return nil
}

// decodeValues binds string values to args through a struct built at run
// time, one field per argument, so gorilla/schema handles the conversions.
// Conversion failures are collected into errs; other decoder failures, such
// as an argument type it cannot bind, are returned.
func decodeValues(args []Argument, values url.Values, in Category, found map[string]any, errs *ValidationErrors) error {
	if len(args) == 0 {
		return nil
	}

	present := args[:0:0]
	for _, a := range args {
		if len(values[a.Name]) > 0 {
			present = append(present, a)
		}
	}
	if len(present) == 0 {
		return nil
	}

	fields := make([]reflect.StructField, len(present))
	for i, a := range present {
		fields[i] = reflect.StructField{
			Name: fmt.Sprintf("F%d", i),
			Type: a.Type,
			Tag:  reflect.StructTag(fmt.Sprintf(`schema:%q`, a.Name)),
		}
	}
	target := reflect.New(reflect.StructOf(fields))

	err := valuesDecoder.Decode(target.Interface(), values)
	failed := make(map[string]bool)
	if err != nil {
		var multi schema.MultiError
		if !errors.As(err, &multi) {
			return err
		}
		keys := make([]string, 0, len(multi))
		for k := range multi {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			var conv schema.ConversionError
			if !errors.As(multi[k], &conv) {
				return multi[k]
			}
			name, _, _ := strings.Cut(k, ".")
			failed[name] = true
			*errs = append(*errs, &ValidationError{
				Field:   k,
				In:      in.String(),
				Message: "invalid value, expected " + conv.Type.String(),
				Value:   values.Get(name),
			})
		}
	}

	elem := target.Elem()
	for i, a := range present {
		if failed[a.Name] {
			continue
		}
		found[a.Name] = elem.Field(i).Interface()
	}
	return nil
}

func pathValues(args []Argument, req Request) url.Values {
	values := make(url.Values, len(args))
	for _, a := range args {
		if v := req.PathValue(a.Name); v != "" {
			values.Set(a.Name, v)
		}
	}
	return values
}

func headerValues(args []Argument, h http.Header) url.Values {
	values := make(url.Values, len(args))
	for _, a := range args {
		if vs := h.Values(a.Name); len(vs) > 0 {
			values[a.Name] = vs
		}
	}
	return values
}

func hasError(errs ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field || strings.HasPrefix(e.Field, field+".") || strings.HasPrefix(e.Field, field+"[") {
			return true
		}
	}
	return false
}
