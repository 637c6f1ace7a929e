package domain

import (
	"fmt"
	"net/http"
)

// ErrorKind categorizes a pipeline error.
type ErrorKind string

const (
	// KindRouteNotFound indicates no route matched the request.
	KindRouteNotFound ErrorKind = "route_not_found"

	// KindValidation indicates the request failed validation.
	KindValidation ErrorKind = "validation"

	// KindUnauthorized indicates missing or unusable credentials.
	KindUnauthorized ErrorKind = "unauthorized"

	// KindForbidden indicates credentials that lack permission.
	KindForbidden ErrorKind = "forbidden"

	// KindNotAcceptable indicates no representation satisfies the
	// request's Accept header.
	KindNotAcceptable ErrorKind = "not_acceptable"

	// KindHandlerFailed indicates the resolved handler returned or
	// panicked with an error.
	KindHandlerFailed ErrorKind = "handler_failed"

	// KindHookFailed indicates a stage or interceptor hook failed.
	KindHookFailed ErrorKind = "hook_failed"

	// KindServer is the catch-all for unrecognized internal failures.
	KindServer ErrorKind = "server"
)

// Error is the canonical pipeline error. Hooks and handlers may return it
// directly to control the translated status; any other error is wrapped
// into a KindServer error before translation.
type Error struct {
	// Kind is the error category.
	Kind ErrorKind

	// Message is the human-readable message. For KindServer it is never
	// sent to the client.
	Message string

	// Hook names the stage or interceptor that failed, when applicable.
	Hook string

	// StatusCode overrides the kind's default HTTP status when non-zero.
	StatusCode int

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Hook != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Hook, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatusCode returns the HTTP status this error translates to.
func (e *Error) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRouteNotFound:
		return http.StatusNotFound
	case KindNotAcceptable:
		return http.StatusNotAcceptable
	default:
		return http.StatusInternalServerError
	}
}

// NewError creates a pipeline error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithHook attaches the failing hook's name.
func (e *Error) WithHook(name string) *Error {
	e.Hook = name
	return e
}

// WithStatusCode sets an explicit HTTP status.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// ErrRouteNotFound builds the not-found error for method+path.
func ErrRouteNotFound(method, path string) *Error {
	return NewError(KindRouteNotFound, fmt.Sprintf("no route for %s %s", method, path))
}

// ErrValidation builds a validation error.
func ErrValidation(message string) *Error {
	return NewError(KindValidation, message)
}

// ErrUnauthorized builds an authentication error.
func ErrUnauthorized(message string) *Error {
	return NewError(KindUnauthorized, message)
}

// ErrForbidden builds an authorization error.
func ErrForbidden(message string) *Error {
	return NewError(KindForbidden, message)
}

// ErrHandlerFailed wraps a handler failure.
func ErrHandlerFailed(cause error) *Error {
	return &Error{Kind: KindHandlerFailed, Message: cause.Error(), Cause: cause}
}

// ErrHookFailed wraps a stage or interceptor hook failure.
func ErrHookFailed(hook string, cause error) *Error {
	return &Error{Kind: KindHookFailed, Message: cause.Error(), Hook: hook, Cause: cause}
}
