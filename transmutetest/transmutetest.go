// Package transmutetest provides test helpers for code built on transmute.
package transmutetest

import (
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"testing"

	"github.com/bjaus/transmute"
)

// Request is an in-memory transmute.Request.
type Request struct {
	method      string
	query       url.Values
	header      http.Header
	path        map[string]string
	contentType string
	body        []byte
}

var _ transmute.Request = (*Request)(nil)

// NewRequest creates a request with the given method.
func NewRequest(method string) *Request {
	return &Request{
		method: method,
		query:  make(url.Values),
		header: make(http.Header),
		path:   make(map[string]string),
	}
}

// WithQuery adds query values.
func (r *Request) WithQuery(key string, values ...string) *Request {
	for _, v := range values {
		r.query.Add(key, v)
	}
	return r
}

// WithHeader adds a header value.
func (r *Request) WithHeader(key, value string) *Request {
	r.header.Add(key, value)
	return r
}

// WithPath sets a path value.
func (r *Request) WithPath(name, value string) *Request {
	r.path[name] = value
	return r
}

// WithBody sets a raw body and its content type.
func (r *Request) WithBody(contentType string, raw []byte) *Request {
	r.contentType = contentType
	r.body = raw
	return r
}

// WithJSON sets the body to the JSON encoding of v.
func (r *Request) WithJSON(t testing.TB, v any) *Request {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("transmutetest: marshal request body: %v", err)
	}
	return r.WithBody("application/json", b)
}

// Method implements transmute.Request.
func (r *Request) Method() string { return r.method }

// QueryValues implements transmute.Request.
func (r *Request) QueryValues() url.Values { return r.query }

// HeaderValues implements transmute.Request.
func (r *Request) HeaderValues() http.Header { return r.header }

// PathValue implements transmute.Request.
func (r *Request) PathValue(name string) string { return r.path[name] }

// ContentType implements transmute.Request.
func (r *Request) ContentType() string { return r.contentType }

// Body implements transmute.Request.
func (r *Request) Body() ([]byte, error) { return r.body, nil }

// Response holds a decoded response envelope.
type Response[T any] struct {
	Status      int
	ContentType string
	Success     bool
	Result      T
	Message     string
	Raw         transmute.Result
}

// Invoke runs c.Invoke and decodes the envelope, loading the result as T.
// It fails the test if Invoke returns an error or the body cannot be
// decoded.
func Invoke[T any](t testing.TB, c *transmute.Context, f *transmute.Function, pattern string, req transmute.Request) *Response[T] {
	t.Helper()

	if c == nil {
		c = transmute.DefaultContext
	}
	res, err := c.Invoke(t.Context(), f, pattern, req)
	if err != nil {
		t.Fatalf("transmutetest: invoke %s: %v", f.Name, err)
	}

	ct, err := c.ContentTypeSerializers.For(res.ContentType)
	if err != nil {
		t.Fatalf("transmutetest: %v", err)
	}
	data, err := ct.Load(res.Body)
	if err != nil {
		t.Fatalf("transmutetest: decode body: %v", err)
	}
	env, ok := data.(map[string]any)
	if !ok {
		t.Fatalf("transmutetest: body is %T, not an object", data)
	}

	out := &Response[T]{
		Status:      res.StatusCode,
		ContentType: res.ContentType,
		Raw:         res,
	}
	out.Success, _ = env["success"].(bool)
	out.Message, _ = env["message"].(string)

	if raw, ok := env["result"]; ok && raw != nil {
		v, err := c.Serializers.Load(reflect.TypeFor[T](), raw)
		if err != nil {
			t.Fatalf("transmutetest: load result: %v", err)
		}
		out.Result, _ = v.(T)
	}
	return out
}
