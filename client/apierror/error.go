// Package apierror defines the typed failures returned to callers of the
// authenticated API client.
//
// Every failure the client surfaces is one of five kinds:
//
//   - *TimeoutError: the request (or the wait for a shared refresh) ran out of
//     time or was cancelled by the caller; errors.Is still reports the
//     context error
//   - *NetworkError: no response was received
//   - *AuthError: the session could not be recovered, the user must log in again
//   - *ServerError: the server answered with a 5xx status
//   - *RequestError: the server rejected the request with a 4xx status
//
// Use errors.As to branch on a kind, or UserMessage to obtain the text that
// should be shown to a user.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	sessionExpiredMessage = "session expired, please log in again"
	connectivityMessage   = "unable to reach the server, please check your connection"
	timeoutMessage        = "the server took too long to respond, please try again"
	serverMessage         = "something went wrong on our side, please try again later"
)

// TimeoutError reports a request that did not complete in time or whose
// context was cancelled.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	if e.Err == nil {
		return "request timed out"
	}
	return "request timed out: " + e.Err.Error()
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// NetworkError reports a request for which no response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return "network error"
	}
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError reports an authorization failure that refreshing the session
// could not fix.
type AuthError struct {
	// Reason describes why the session ended, e.g. "refresh failed".
	Reason string
	// Status is the HTTP status that triggered the failure, if any.
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	msg := sessionExpiredMessage
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// ServerError reports a 5xx response.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server error: %d %s", e.Status, e.Message)
}

// RequestError reports a 4xx response carrying the server provided message.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: %d %s", e.Status, http.StatusText(e.Status))
	}
	return e.Message
}

// NewAuthError creates an AuthError.
func NewAuthError(reason string, status int, err error) *AuthError {
	return &AuthError{Reason: reason, Status: status, Err: err}
}

// IsAuth reports whether err is, or wraps, an AuthError.
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsNetwork reports whether err is, or wraps, a NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsAPIError reports whether err is, or wraps, one of the kinds above.
func IsAPIError(err error) bool {
	var serverErr *ServerError
	var requestErr *RequestError
	return IsAuth(err) || IsTimeout(err) || IsNetwork(err) ||
		errors.As(err, &serverErr) || errors.As(err, &requestErr)
}

// UserMessage returns the text to present to a user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var requestErr *RequestError
	switch {
	case IsAuth(err):
		return sessionExpiredMessage
	case IsTimeout(err):
		return timeoutMessage
	case IsNetwork(err):
		return connectivityMessage
	case errors.As(err, &requestErr):
		if requestErr.Message != "" {
			return requestErr.Message
		}
		return http.StatusText(requestErr.Status)
	default:
		return serverMessage
	}
}
