package transmute_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/transmute"
)

func TestFunction_SwaggerOperation(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(name string) (Card, error) { return Card{}, nil },
		transmute.WithDescription("Fetch a card."),
	)

	op, err := f.SwaggerOperation(transmute.DefaultContext)
	require.NoError(t, err)

	assert.Equal(t, "Fetch a card.", op.Summary)
	assert.Equal(t, "Fetch a card.", op.Description)
	assert.Equal(t, []string{"application/json", "application/yaml"}, op.Consumes)
	assert.Equal(t, []string{"application/json", "application/yaml"}, op.Produces)

	require.Len(t, op.Responses, 2)

	success := op.Responses["200"]
	assert.Equal(t, "success", success.Description)
	require.NotNil(t, success.Schema)
	assert.Equal(t, []string{"success", "result"}, success.Schema.Required)
	assert.Equal(t, transmute.JSONSchema{Type: "boolean"}, success.Schema.Properties["success"])
	assert.Equal(t, transmute.JSONSchema{
		Type:  "object",
		Title: "Card",
		Properties: map[string]transmute.JSONSchema{
			"name":  {Type: "string"},
			"price": {Type: "number"},
		},
	}, success.Schema.Properties["result"])

	invalid := op.Responses["400"]
	assert.Equal(t, "invalid input received", invalid.Description)
	require.NotNil(t, invalid.Schema)
	assert.Equal(t, []string{"success", "message"}, invalid.Schema.Required)
	assert.Equal(t, transmute.JSONSchema{Type: "string"}, invalid.Schema.Properties["message"])
}

func TestFunction_SwaggerOperation_deterministic(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(id string) ([]Card, error) { return nil, nil })

	first, err := f.SwaggerOperation(transmute.DefaultContext)
	require.NoError(t, err)
	second, err := f.SwaggerOperation(transmute.DefaultContext)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFunction_SwaggerOperation_noReturn(t *testing.T) {
	t.Parallel()

	f := wrap(t, ping)
	op, err := f.SwaggerOperation(transmute.DefaultContext)
	require.NoError(t, err)
	assert.Equal(t, transmute.JSONSchema{}, op.Responses["200"].Schema.Properties["result"])
}

func TestFunction_SwaggerOperation_successCode(t *testing.T) {
	t.Parallel()

	f := wrap(t, ping, transmute.WithSuccessCode(http.StatusCreated))
	op, err := f.SwaggerOperation(transmute.DefaultContext)
	require.NoError(t, err)
	assert.Contains(t, op.Responses, "201")
	assert.NotContains(t, op.Responses, "200")
}

func TestFunction_SwaggerOperation_contentTypes(t *testing.T) {
	t.Parallel()

	c := transmute.NewContext(transmute.WithContentTypeSerializers(transmute.FormSerializer{}))
	f := wrap(t, ping)
	op, err := f.SwaggerOperation(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"application/x-www-form-urlencoded"}, op.Consumes)
}

func TestFunction_SwaggerOperation_unsupportedReturn(t *testing.T) {
	t.Parallel()

	f := wrap(t, func() chan int { return nil })
	_, err := f.SwaggerOperation(transmute.DefaultContext)
	assert.ErrorIs(t, err, transmute.ErrUnsupportedType)
}

func TestFunction_Operation(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(id string, tags []string, token string, card CardNameRequired, note string) (Card, error) {
		return Card{}, nil
	},
		transmute.WithName("updateCard"),
		transmute.WithParams("id", "tags", "token", "card", "note"),
		transmute.WithMethods(http.MethodPut),
		transmute.WithQuery("tags"),
		transmute.WithHeader("token"),
		transmute.WithDefault("note", ""),
		transmute.WithParamDescription("note", "free text"),
		transmute.WithParamDescription("tags", "filter tags"),
		transmute.WithTags("cards"),
	)

	op, err := f.Operation(transmute.DefaultContext, "/cards/{id}")
	require.NoError(t, err)

	assert.Equal(t, "updateCard", op.OperationID)
	assert.Equal(t, []string{"cards"}, op.Tags)

	require.Len(t, op.Parameters, 4)
	assert.Equal(t, transmute.Parameter{Name: "id", In: "path", Required: true, Type: "string"}, op.Parameters[0])
	assert.Equal(t, transmute.Parameter{
		Name:        "tags",
		In:          "query",
		Description: "filter tags",
		Required:    true,
		Type:        "array",
		Items:       &transmute.JSONSchema{Type: "string"},
	}, op.Parameters[1])
	assert.Equal(t, transmute.Parameter{Name: "token", In: "header", Required: true, Type: "string"}, op.Parameters[2])

	body := op.Parameters[3]
	assert.Equal(t, "body", body.Name)
	assert.Equal(t, "body", body.In)
	assert.True(t, body.Required)
	require.NotNil(t, body.Schema)
	assert.Equal(t, "object", body.Schema.Type)
	assert.Equal(t, []string{"card"}, body.Schema.Required)
	assert.Equal(t, "CardNameRequired", body.Schema.Properties["card"].Title)
	assert.Equal(t, transmute.JSONSchema{Type: "string", Description: "free text"}, body.Schema.Properties["note"])
}

func TestFunction_Operation_objectQuery(t *testing.T) {
	t.Parallel()

	f := wrap(t, func(filter map[string]string, at Card) {}, transmute.WithParams("filter", "at"))
	op, err := f.Operation(transmute.DefaultContext, "")
	require.NoError(t, err)

	require.Len(t, op.Parameters, 2)
	for _, p := range op.Parameters {
		assert.Equal(t, "query", p.In)
		assert.Equal(t, "string", p.Type)
	}
}

func TestFunction_OperationID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "add", wrap(t, add).OperationID())
	assert.Equal(t, "named", wrap(t, add, transmute.WithName("named")).OperationID())
}

func TestToSwaggerPath(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		pattern, expect string
	}{
		"plain":    {pattern: "/cards", expect: "/cards"},
		"param":    {pattern: "/cards/{id}", expect: "/cards/{id}"},
		"wildcard": {pattern: "/files/{path...}", expect: "/files/{path}"},
		"regex":    {pattern: "/cards/{id:[0-9]+}/x", expect: "/cards/{id}/x"},
		"regex braces": {
			pattern: "/x/{id:[0-9]{3}}/y/{name}",
			expect:  "/x/{id}/y/{name}",
		},
		"anchor":   {pattern: "/cards/{$}", expect: "/cards/"},
		"unclosed": {pattern: "/cards/{id", expect: "/cards/{id"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expect, transmute.ToSwaggerPath(tc.pattern))
		})
	}
}
