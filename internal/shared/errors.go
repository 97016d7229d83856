package shared

import (
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrEntityNotFound     = fmt.Errorf("entity not found")
	ErrSelfRating         = fmt.Errorf("cannot rate your own recipe")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// AuthenticationError reports a missing or rejected credential. Callers should send the user back to login.
//
// errors.Is(err, [ErrNotAuthenticated]) holds for every AuthenticationError.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	msg := ErrNotAuthenticated.Error()
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AuthenticationError) Is(target error) bool { return target == ErrNotAuthenticated }
func (e *AuthenticationError) Unwrap() error        { return e.Err }

// RemoteError is a non-2xx response from the backend. Message holds the server's own message when it sent one.
//
// errors.Is(err, [ErrAPIRequest]) holds for every RemoteError.
type RemoteError struct {
	Op      string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Op == "" {
		return fmt.Sprintf("%v: status %d: %s", ErrAPIRequest, e.Status, msg)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, msg)
}

func (e *RemoteError) Is(target error) bool { return target == ErrAPIRequest }

// ValidationError is malformed input caught before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidInput, e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid is shorthand for constructing a [ValidationError].
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
