package transmute

import (
	"errors"
	"fmt"
	"net/http"
)

// Result is a rendered response: the status code, the negotiated content
// type and the encoded body.
type Result struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// ProcessResult renders the outcome of calling f. A nil err yields the
// success code and {"success": true, "result": ...}. An APIError keeps its
// status; ValidationErrors and recoverable errors yield 400. In all of those
// cases the body is {"success": false, "message": ...}. Any other error is
// returned unchanged for the caller to handle.
//
// accept is the request's Accept header; the default content type is used
// when nothing matches.
func (c *Context) ProcessResult(f *Function, accept string, result any, err error) (Result, error) {
	c = c.orDefault()
	ct, ok := c.ContentTypeSerializers.Negotiate(accept)
	if !ok {
		ct = c.ContentTypeSerializers.Default()
	}

	status, body, err := c.envelope(f, result, err)
	if err != nil {
		return Result{}, err
	}

	raw, err := ct.Dump(body)
	if err != nil {
		return Result{}, fmt.Errorf("encode %s response: %w", ct.ContentType(), err)
	}
	return Result{StatusCode: status, ContentType: ct.ContentType(), Body: raw}, nil
}

func (c *Context) envelope(f *Function, result any, err error) (int, map[string]any, error) {
	if err == nil {
		data, derr := c.Serializers.Dump(f.ReturnType, result)
		if derr != nil {
			return 0, nil, derr
		}
		return f.Attributes.SuccessCode, map[string]any{"success": true, "result": data}, nil
	}

	var apiErr *APIError
	_, invalid := asValidationErrors(err)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status, failure(err), nil
	case invalid, f.IsRecoverable(err):
		return http.StatusBadRequest, failure(err), nil
	default:
		return 0, nil, err
	}
}

func failure(err error) map[string]any {
	return map[string]any{"success": false, "message": err.Error()}
}
