package transmute_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/transmute"
	"github.com/bjaus/transmute/transmutetest"
)

func TestContext_ExtractArgs_query(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(q string, limit int, tags []string, since time.Time, every time.Duration, verbose bool) {},
		transmute.WithParams("q", "limit", "tags", "since", "every", "verbose"),
		transmute.WithDefault("verbose", true),
	)

	req := transmutetest.NewRequest(http.MethodGet).
		WithQuery("q", "ace").
		WithQuery("limit", "5").
		WithQuery("tags", "a", "b").
		WithQuery("since", "2024-01-02T03:04:05Z").
		WithQuery("every", "1m").
		WithQuery("ignored", "x")

	args, err := transmute.DefaultContext.ExtractArgs(f, "", req)
	require.NoError(t, err)
	assert.Equal(t, []any{
		"ace",
		5,
		[]string{"a", "b"},
		time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		time.Minute,
		true,
	}, args)
}

func TestContext_ExtractArgs_pathAndHeader(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(id int, token string) {},
		transmute.WithParams("id", "token"),
		transmute.WithHeader("token"),
	)

	req := transmutetest.NewRequest(http.MethodGet).
		WithPath("id", "42").
		WithHeader("Token", "secret")

	args, err := transmute.DefaultContext.ExtractArgs(f, "/cards/{id}", req)
	require.NoError(t, err)
	assert.Equal(t, []any{42, "secret"}, args)
}

func TestContext_ExtractArgs_body(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(id string, card CardNameRequired, note string) {},
		transmute.WithParams("id", "card", "note"),
		transmute.WithMethods(http.MethodPost),
		transmute.WithDefault("note", "none"),
	)

	tests := map[string]struct {
		req    *transmutetest.Request
		expect []any
	}{
		"json": {
			req: transmutetest.NewRequest(http.MethodPost).
				WithPath("id", "c1").
				WithJSON(t, map[string]any{"card": map[string]any{"name": "Ace", "price": 3}}),
			expect: []any{"c1", CardNameRequired{Name: "Ace", Price: 3}, "none"},
		},
		"yaml": {
			req: transmutetest.NewRequest(http.MethodPost).
				WithPath("id", "c1").
				WithBody("application/yaml", []byte("card:\n  name: Ace\n  price: 3\nnote: hi\n")),
			expect: []any{"c1", CardNameRequired{Name: "Ace", Price: 3}, "hi"},
		},
		"no content type uses default": {
			req: transmutetest.NewRequest(http.MethodPost).
				WithPath("id", "c1").
				WithBody("", []byte(`{"card":{"name":"Ace"}}`)),
			expect: []any{"c1", CardNameRequired{Name: "Ace"}, "none"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			args, err := transmute.DefaultContext.ExtractArgs(f, "/cards/{id}", tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, args)
		})
	}
}

func TestContext_ExtractArgs_form(t *testing.T) {
	t.Parallel()

	c := transmute.NewContext(transmute.WithContentTypeSerializers(
		transmute.JSONSerializer{},
		transmute.FormSerializer{},
	))
	f := wrap(t, func(name string, price float64, colors []string) {},
		transmute.WithParams("name", "price", "colors"),
		transmute.WithMethods(http.MethodPost),
	)

	req := transmutetest.NewRequest(http.MethodPost).
		WithBody("application/x-www-form-urlencoded", []byte("name=Ace&price=2.5&colors=red&colors=blue"))

	args, err := c.ExtractArgs(f, "", req)
	require.NoError(t, err)
	assert.Equal(t, []any{"Ace", 2.5, []string{"red", "blue"}}, args)
}

func TestContext_ExtractArgs_errors(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(id int, limit int, card CardNameRequired) {},
		transmute.WithParams("id", "limit", "card"),
		transmute.WithMethods(http.MethodPost),
		transmute.WithQuery("limit"),
	)

	tests := map[string]struct {
		req    *transmutetest.Request
		expect map[string]string
	}{
		"missing everything": {
			req: transmutetest.NewRequest(http.MethodPost),
			expect: map[string]string{
				"id":    "path",
				"limit": "query",
				"card":  "body",
			},
		},
		"bad conversions": {
			req: transmutetest.NewRequest(http.MethodPost).
				WithPath("id", "abc").
				WithQuery("limit", "ten").
				WithJSON(t, map[string]any{"card": map[string]any{"price": 1}}),
			expect: map[string]string{
				"id":        "path",
				"limit":     "query",
				"card.name": "body",
			},
		},
		"malformed body": {
			req: transmutetest.NewRequest(http.MethodPost).
				WithPath("id", "1").
				WithQuery("limit", "1").
				WithBody("application/json", []byte(`{"card":`)),
			expect: map[string]string{
				"":     "body",
				"card": "body",
			},
		},
		"body not an object": {
			req: transmutetest.NewRequest(http.MethodPost).
				WithPath("id", "1").
				WithQuery("limit", "1").
				WithBody("application/json", []byte(`[1,2]`)),
			expect: map[string]string{
				"":     "body",
				"card": "body",
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := transmute.DefaultContext.ExtractArgs(f, "/cards/{id}", tc.req)
			require.ErrorIs(t, err, transmute.ErrValidation)

			var ves transmute.ValidationErrors
			require.ErrorAs(t, err, &ves)
			got := make(map[string]string, len(ves))
			for _, ve := range ves {
				got[ve.Field] = ve.In
			}
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestContext_ExtractArgs_nullBody(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(card CardNameRequired, note string, extra *Card) {},
		transmute.WithParams("card", "note", "extra"),
		transmute.WithMethods(http.MethodPost),
		transmute.WithDefault("note", "none"),
	)

	t.Run("required model", func(t *testing.T) {
		t.Parallel()
		req := transmutetest.NewRequest(http.MethodPost).
			WithBody("application/json", []byte(`{"card":null,"note":null,"extra":null}`))

		_, err := transmute.DefaultContext.ExtractArgs(f, "", req)
		require.ErrorIs(t, err, transmute.ErrValidation)

		var ves transmute.ValidationErrors
		require.ErrorAs(t, err, &ves)
		require.Len(t, ves, 1)
		assert.Equal(t, "card", ves[0].Field)
		assert.Equal(t, "body", ves[0].In)
		assert.Equal(t, "is required", ves[0].Message)
	})

	t.Run("defaults and pointers", func(t *testing.T) {
		t.Parallel()
		req := transmutetest.NewRequest(http.MethodPost).
			WithBody("application/json", []byte(`{"card":{"name":"Ace"},"note":null,"extra":null}`))

		args, err := transmute.DefaultContext.ExtractArgs(f, "", req)
		require.NoError(t, err)
		assert.Equal(t, []any{CardNameRequired{Name: "Ace"}, "none", (*Card)(nil)}, args)
	})
}

func TestContext_ExtractArgs_bigInt(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(id int64, ratio float64) {},
		transmute.WithParams("id", "ratio"),
		transmute.WithMethods(http.MethodPost),
	)
	req := transmutetest.NewRequest(http.MethodPost).
		WithBody("application/json", []byte(`{"id":9007199254740993,"ratio":0.25}`))

	args, err := transmute.DefaultContext.ExtractArgs(f, "", req)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(9007199254740993), 0.25}, args)

	c := transmute.NewContext(transmute.WithSerializer(transmute.NewModelSerializer(transmute.WithSchemaValidation())))
	args, err = c.ExtractArgs(f, "", req)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(9007199254740993), 0.25}, args)
}

func TestContext_ExtractArgs_unsupportedMediaType(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(card Card) {}, transmute.WithParams("card"), transmute.WithMethods(http.MethodPost))
	req := transmutetest.NewRequest(http.MethodPost).WithBody("text/csv", []byte("a,b"))

	_, err := transmute.DefaultContext.ExtractArgs(f, "", req)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, transmute.ErrorStatus(err))
}

func TestContext_ExtractArgs_unbindableType(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(ch chan int) {}, transmute.WithParams("ch"))
	_, err := transmute.DefaultContext.ExtractArgs(f, "", transmutetest.NewRequest(http.MethodGet))
	require.ErrorIs(t, err, transmute.ErrValidation)
}

func TestHTTPRequest(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(id string, q string, card Card) {},
		transmute.WithParams("id", "q", "card"),
		transmute.WithMethods(http.MethodPost),
		transmute.WithQuery("q"),
	)

	var args []any
	var extractErr error

	mux := http.NewServeMux()
	mux.HandleFunc("POST /cards/{id}", func(w http.ResponseWriter, r *http.Request) {
		args, extractErr = transmute.DefaultContext.ExtractArgs(f, "/cards/{id}", transmute.HTTPRequest(r))
		w.WriteHeader(http.StatusNoContent)
	})

	r := httptest.NewRequest(http.MethodPost, "/cards/c9?q=x", strings.NewReader(`{"card":{"name":"Ace","price":1}}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	mux.ServeHTTP(httptest.NewRecorder(), r)

	require.NoError(t, extractErr)
	assert.Equal(t, []any{"c9", "x", Card{Name: "Ace", Price: 1}}, args)
}

func TestHTTPRequest_bodyReadOnce(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("payload"))
	req := transmute.HTTPRequest(r)

	first, err := req.Body()
	require.NoError(t, err)
	second, err := req.Body()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(first))
	assert.Equal(t, first, second)

	empty := transmute.HTTPRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	b, err := empty.Body()
	require.NoError(t, err)
	assert.Nil(t, b)
}
