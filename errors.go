package transmute

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for wrapping and schema generation.
var (
	ErrUnsupportedFunc  = errors.New("unsupported function")
	ErrParamCount       = errors.New("parameter name count mismatch")
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrConflictingHints = errors.New("parameter claimed by more than one category")
	ErrArgument         = errors.New("invalid argument")
	ErrUnsupportedType  = errors.New("unsupported type")
	ErrNoSerializer     = errors.New("no serializer for content type")
	ErrValidation       = errors.New("validation failed")
	ErrPanic            = errors.New("function panicked")
)

// Sentinel errors for argument binding.
var (
	ErrBindPath   = errors.New("bind path")
	ErrBindQuery  = errors.New("bind query")
	ErrBindHeader = errors.New("bind header")
	ErrBindBody   = errors.New("bind body")
)

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// ValidationError describes a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	In      string `json:"in,omitempty"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error returns "field: message", or just the message for root-level failures.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is reports ErrValidation as a match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidationErrors collects every failure found while loading a value.
type ValidationErrors []*ValidationError

// Error joins all failures with "; ".
func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// Is reports ErrValidation as a match.
func (e ValidationErrors) Is(target error) bool { return target == ErrValidation }

// StatusCode returns 400.
func (e ValidationErrors) StatusCode() int { return http.StatusBadRequest }

// prefixed returns a copy with every field nested under prefix.
func (e ValidationErrors) prefixed(prefix, in string) ValidationErrors {
	out := make(ValidationErrors, len(e))
	for i, ve := range e {
		cp := *ve
		cp.Field = joinPath(prefix, ve.Field)
		if cp.In == "" {
			cp.In = in
		}
		out[i] = &cp
	}
	return out
}

// APIError is an error with an HTTP status code.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Error returns the error message.
func (e *APIError) Error() string { return e.Message }

// StatusCode returns the HTTP status code.
func (e *APIError) StatusCode() int { return e.Status }

// Error returns an error with the given HTTP status code and message.
func Error(status int, message string) error {
	return &APIError{Status: status, Message: message}
}

// Errorf returns a formatted error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return &APIError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// ErrorStatus extracts the HTTP status code from an error. Returns
// http.StatusInternalServerError if the error does not implement StatusCoder.
func ErrorStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// asValidationErrors normalizes err into ValidationErrors when it is one.
func asValidationErrors(err error) (ValidationErrors, bool) {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return ves, true
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ValidationErrors{ve}, true
	}
	return nil, false
}

func joinPath(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	case strings.HasPrefix(field, "["):
		return prefix + field
	default:
		return prefix + "." + field
	}
}
