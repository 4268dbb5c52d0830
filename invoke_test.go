package transmute_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/transmute"
	"github.com/bjaus/transmute/transmutetest"
)

func TestContext_Invoke(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(ctx context.Context, id string, card Card) (Card, error) {
		if id == "missing" {
			return Card{}, errNotFound
		}
		card.Name = id + ":" + card.Name
		return card, nil
	},
		transmute.WithParams("id", "card"),
		transmute.WithMethods(http.MethodPost),
		transmute.WithSuccessCode(http.StatusCreated),
		transmute.WithErrors(errNotFound),
	)

	tests := map[string]struct {
		req     *transmutetest.Request
		status  int
		success bool
		result  Card
		message string
	}{
		"success": {
			req: transmutetest.NewRequest(http.MethodPost).
				WithPath("id", "c1").
				WithJSON(t, map[string]any{"card": map[string]any{"name": "Ace", "price": 2}}),
			status:  http.StatusCreated,
			success: true,
			result:  Card{Name: "c1:Ace", Price: 2},
		},
		"recoverable error": {
			req: transmutetest.NewRequest(http.MethodPost).
				WithPath("id", "missing").
				WithJSON(t, map[string]any{"card": map[string]any{}}),
			status:  http.StatusBadRequest,
			message: "not found",
		},
		"validation error": {
			req:     transmutetest.NewRequest(http.MethodPost).WithPath("id", "c1"),
			status:  http.StatusBadRequest,
			message: "card: is required",
		},
		"method not allowed": {
			req:     transmutetest.NewRequest(http.MethodGet).WithPath("id", "c1"),
			status:  http.StatusMethodNotAllowed,
			message: "method GET not allowed",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			res := transmutetest.Invoke[Card](t, transmute.DefaultContext, f, "/cards/{id}", tc.req)
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, tc.success, res.Success)
			assert.Equal(t, tc.result, res.Result)
			assert.Equal(t, tc.message, res.Message)
		})
	}
}

func TestContext_Invoke_accept(t *testing.T) {
	t.Parallel()

	f := wrap(t, add, transmute.WithParams("a", "b"))
	req := transmutetest.NewRequest(http.MethodGet).
		WithQuery("a", "2").
		WithQuery("b", "3").
		WithHeader("Accept", "application/yaml")

	res := transmutetest.Invoke[int](t, transmute.DefaultContext, f, "", req)
	assert.Equal(t, "application/yaml", res.ContentType)
	assert.True(t, res.Success)
	assert.Equal(t, 5, res.Result)
}

func TestContext_Invoke_panic(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := transmute.NewContext(transmute.WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	f := wrap(t, func() int { panic("kaboom") }, transmute.WithName("explode"))

	_, err := c.Invoke(t.Context(), f, "", transmutetest.NewRequest(http.MethodGet))
	require.ErrorIs(t, err, transmute.ErrPanic)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, http.StatusInternalServerError, transmute.ErrorStatus(err))

	out := buf.String()
	assert.Contains(t, out, "panic recovered")
	assert.Contains(t, out, "kaboom")
	assert.Contains(t, out, "invoke failed")
}

func TestContext_Invoke_unhandledError(t *testing.T) {
	t.Parallel()

	f := wrap(t, check, transmute.WithParams("ok"))
	req := transmutetest.NewRequest(http.MethodGet).WithQuery("ok", "false")

	_, err := transmute.DefaultContext.Invoke(t.Context(), f, "", req)
	assert.ErrorIs(t, err, errNotFound)
}

func TestContext_Invoke_logging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := transmute.NewContext(transmute.WithLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	f := wrap(t, check, transmute.WithParams("ok"), transmute.WithErrors(errNotFound))
	req := transmutetest.NewRequest(http.MethodGet).WithQuery("ok", "false")

	res, err := c.Invoke(t.Context(), f, "/check", req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	out := buf.String()
	assert.Contains(t, out, `"msg":"recoverable error"`)
	assert.Contains(t, out, `"msg":"invoke"`)
	assert.Contains(t, out, `"pattern":"/check"`)
	assert.Contains(t, out, `"status":400`)
}
