// Package apperr defines the typed errors domain services return. The HTTP
// layer maps them onto status codes without inspecting message text.
package apperr

import "net/http"

// Kind categorizes an error for HTTP mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindBadRequest
)

// Error is a domain error carrying a Kind and optional response details.
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus maps the error kind to a status code.
func (e *Error) HTTPStatus() int {
	if e.Kind == KindNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// WithDetails attaches structured details to include in the response body.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// BadRequest creates a bad request error.
func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}
