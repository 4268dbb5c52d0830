package transmute

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// Swagger is the top-level Swagger 2.0 document.
type Swagger struct {
	Swagger  string              `json:"swagger" yaml:"swagger"`
	Info     Info                `json:"info" yaml:"info"`
	BasePath string              `json:"basePath,omitempty" yaml:"basePath,omitempty"`
	Paths    map[string]PathItem `json:"paths" yaml:"paths"`
}

// Info holds API metadata.
type Info struct {
	Title       string `json:"title" yaml:"title"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// PathItem maps lower-case HTTP methods to operations.
type PathItem map[string]Operation

// Operation describes a single API operation.
type Operation struct {
	Summary     string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	OperationID string      `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Tags        []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
	Consumes    []string    `json:"consumes,omitempty" yaml:"consumes,omitempty"`
	Produces    []string    `json:"produces,omitempty" yaml:"produces,omitempty"`
	Parameters  []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Responses   Responses   `json:"responses" yaml:"responses"`
}

// Parameter describes a single operation parameter. Body parameters carry a
// Schema; the others carry Type, Format and Items directly.
type Parameter struct {
	Name        string      `json:"name" yaml:"name"`
	In          string      `json:"in" yaml:"in"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool        `json:"required" yaml:"required"`
	Type        string      `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string      `json:"format,omitempty" yaml:"format,omitempty"`
	Items       *JSONSchema `json:"items,omitempty" yaml:"items,omitempty"`
	Schema      *JSONSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Responses maps status codes to responses.
type Responses map[string]Response

// Response describes a single response.
type Response struct {
	Description string      `json:"description" yaml:"description"`
	Schema      *JSONSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

const (
	successDescription = "success"
	invalidDescription = "invalid input received"
)

// SwaggerOperation returns the documentation fragment for the function:
// summary and description, the content types the context can consume and
// produce, a success response wrapping the return type and a 400 response
// for invalid input.
func (f *Function) SwaggerOperation(c *Context) (Operation, error) {
	c = c.orDefault()
	result, err := c.Serializers.ToJSONSchema(f.ReturnType)
	if err != nil {
		return Operation{}, err
	}

	keys := c.ContentTypeSerializers.Keys()
	return Operation{
		Summary:     f.Description,
		Description: f.Description,
		Consumes:    keys,
		Produces:    slices.Clone(keys),
		Responses: Responses{
			statusToString(f.Attributes.SuccessCode): {
				Description: successDescription,
				Schema: &JSONSchema{
					Properties: map[string]JSONSchema{
						"success": {Type: "boolean"},
						"result":  result,
					},
					Required: []string{"success", "result"},
				},
			},
			statusToString(http.StatusBadRequest): {
				Description: invalidDescription,
				Schema: &JSONSchema{
					Properties: map[string]JSONSchema{
						"success": {Type: "boolean"},
						"message": {Type: "string"},
					},
					Required: []string{"success", "message"},
				},
			},
		},
	}, nil
}

// Operation returns the documentation fragment with an operation ID, tags,
// and the parameters the function takes when routed under pattern.
func (f *Function) Operation(c *Context, pattern string) (Operation, error) {
	c = c.orDefault()
	op, err := f.SwaggerOperation(c)
	if err != nil {
		return Operation{}, err
	}
	op.OperationID = f.OperationID()
	op.Tags = slices.Clone(f.Attributes.Tags)

	sets, err := f.ArgumentSets(pattern)
	if err != nil {
		return Operation{}, err
	}

	for _, group := range []struct {
		in   Category
		args []Argument
	}{
		{CategoryPath, sets.Path},
		{CategoryQuery, sets.Query},
		{CategoryHeader, sets.Header},
	} {
		for _, a := range group.args {
			p, err := simpleParameter(c, group.in, a)
			if err != nil {
				return Operation{}, err
			}
			op.Parameters = append(op.Parameters, p)
		}
	}

	if len(sets.Body) > 0 {
		p, err := bodyParameter(c, sets.Body)
		if err != nil {
			return Operation{}, err
		}
		op.Parameters = append(op.Parameters, p)
	}

	return op, nil
}

// OperationID returns the name set by WithName, or the last element of the
// function's runtime name.
func (f *Function) OperationID() string {
	if f.operationID != "" {
		return f.operationID
	}
	name := f.Name
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

func simpleParameter(c *Context, in Category, a Argument) (Parameter, error) {
	s, err := c.Serializers.ToJSONSchema(a.Type)
	if err != nil {
		return Parameter{}, err
	}

	p := Parameter{
		Name:        a.Name,
		In:          in.String(),
		Description: a.Description,
		Required:    a.Required() || in == CategoryPath,
		Type:        s.Type,
		Format:      s.Format,
		Items:       s.Items,
	}
	// Non-body parameters cannot be objects.
	if p.Type == "" || p.Type == "object" {
		p.Type = "string"
		p.Format = ""
	}
	return p, nil
}

func bodyParameter(c *Context, args []Argument) (Parameter, error) {
	schema := JSONSchema{
		Type:       "object",
		Properties: make(map[string]JSONSchema, len(args)),
	}
	for _, a := range args {
		s, err := c.Serializers.ToJSONSchema(a.Type)
		if err != nil {
			return Parameter{}, err
		}
		if a.Description != "" {
			s.Description = a.Description
		}
		schema.Properties[a.Name] = s
		if a.Required() {
			schema.Required = append(schema.Required, a.Name)
		}
	}

	return Parameter{
		Name:     "body",
		In:       CategoryBody.String(),
		Required: len(schema.Required) > 0,
		Schema:   &schema,
	}, nil
}

// toSwaggerPath converts a mux pattern like "/cards/{id}" or
// "/files/{path...}" to a Swagger path. Regex constraints are dropped.
func toSwaggerPath(pattern string) string {
	var b strings.Builder
	for {
		before, inner, rest, ok := nextPlaceholder(pattern)
		if !ok {
			break
		}
		b.WriteString(before)
		if name := placeholderName(inner); name != "$" {
			b.WriteString("{" + name + "}")
		}
		pattern = rest
	}
	b.WriteString(pattern)
	return b.String()
}

// statusToString converts an HTTP status code to its string representation.
func statusToString(code int) string {
	return strconv.Itoa(code)
}
