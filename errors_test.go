package transmute_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/transmute"
)

func TestError(t *testing.T) {
	t.Parallel()

	err := transmute.Error(http.StatusNotFound, "not found")
	assert.EqualError(t, err, "not found")

	var sc transmute.StatusCoder
	require.ErrorAs(t, err, &sc)
	assert.Equal(t, http.StatusNotFound, sc.StatusCode())
}

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := transmute.Errorf(http.StatusBadRequest, "invalid %s", "email")
	assert.EqualError(t, err, "invalid email")
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err    error
		expect int
	}{
		"with StatusCoder": {
			err:    transmute.Error(http.StatusForbidden, "forbidden"),
			expect: http.StatusForbidden,
		},
		"wrapped StatusCoder": {
			err:    fmt.Errorf("ctx: %w", transmute.Error(http.StatusConflict, "conflict")),
			expect: http.StatusConflict,
		},
		"validation errors": {
			err:    transmute.ValidationErrors{{Field: "name", Message: "is required"}},
			expect: http.StatusBadRequest,
		},
		"without StatusCoder": {
			err:    errors.New("plain error"),
			expect: http.StatusInternalServerError,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expect, transmute.ErrorStatus(tc.err))
		})
	}
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	errs := transmute.ValidationErrors{
		{Field: "name", In: "body", Message: "is required"},
		{Message: "end before start"},
	}

	assert.EqualError(t, errs, "name: is required; end before start")
	assert.ErrorIs(t, errs, transmute.ErrValidation)
	assert.ErrorIs(t, fmt.Errorf("load: %w", errs), transmute.ErrValidation)
	assert.ErrorIs(t, errs[0], transmute.ErrValidation)
	assert.NotErrorIs(t, errs, transmute.ErrArgument)
}

func TestJoinPath(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		prefix, field, expect string
	}{
		"empty prefix": {prefix: "", field: "name", expect: "name"},
		"empty field":  {prefix: "card", field: "", expect: "card"},
		"nested":       {prefix: "card", field: "name", expect: "card.name"},
		"index":        {prefix: "cards", field: "[0].name", expect: "cards[0].name"},
		"index prefix": {prefix: "[1]", field: "name", expect: "[1].name"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expect, transmute.JoinPath(tc.prefix, tc.field))
		})
	}
}

func TestPointerToPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", transmute.PointerToPath(""))
	assert.Equal(t, "name", transmute.PointerToPath("/name"))
	assert.Equal(t, "items[0].name", transmute.PointerToPath("/items/0/name"))
	assert.Equal(t, "[2]", transmute.PointerToPath("/2"))
	assert.Equal(t, "a/b.c~d", transmute.PointerToPath("/a~1b/c~0d"))
}

func TestStripNulls(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"a": nil,
		"b": []any{map[string]any{"c": nil, "d": 1}, nil},
	}
	assert.Equal(t, map[string]any{
		"b": []any{map[string]any{"d": 1}, nil},
	}, transmute.StripNulls(in))
}
