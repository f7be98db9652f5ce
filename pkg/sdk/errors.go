package sdk

import (
	"errors"
	"fmt"
)

// ErrorType distinguishes the failure kinds surfaced by the client
type ErrorType string

const (
	ErrorTypeUnauthenticated ErrorType = "unauthenticated"
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeRequestFailed   ErrorType = "request_failed"
	ErrorTypeTransport       ErrorType = "transport_error"
)

// APIError is returned by every client operation that fails
type APIError struct {
	Type    ErrorType
	Message string
	// Code is the HTTP status code, zero when no response was received.
	Code int
	Err  error
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Type, e.Message, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsUnauthenticated returns true if the caller had no credentials
func (e *APIError) IsUnauthenticated() bool {
	return e.Type == ErrorTypeUnauthenticated
}

// IsInvalidArgument returns true if the request was rejected before sending
func (e *APIError) IsInvalidArgument() bool {
	return e.Type == ErrorTypeInvalidArgument
}

// IsNotFound returns true if the server answered 404 for a single element
func (e *APIError) IsNotFound() bool {
	return e.Type == ErrorTypeNotFound
}

// IsRequestFailed returns true for any other non-success HTTP status
func (e *APIError) IsRequestFailed() bool {
	return e.Type == ErrorTypeRequestFailed
}

// IsTransport returns true if no HTTP response was received
func (e *APIError) IsTransport() bool {
	return e.Type == ErrorTypeTransport
}

// AsAPIError attempts to extract an APIError from err
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a not-found APIError
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsNotFound()
}

// IsInvalidArgument reports whether err is an invalid-argument APIError
func IsInvalidArgument(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsInvalidArgument()
}

// IsUnauthenticated reports whether err is an unauthenticated APIError
func IsUnauthenticated(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsUnauthenticated()
}

// IsRequestFailed reports whether err is a request-failed APIError
func IsRequestFailed(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsRequestFailed()
}

// IsTransport reports whether err is a transport APIError
func IsTransport(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsTransport()
}

func invalidArgument(format string, args ...any) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
	}
}

var errNotAuthenticated = &APIError{
	Type:    ErrorTypeUnauthenticated,
	Message: "not authenticated",
}
