package client

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned when a request failed with 401, the refresh
// attempt did not produce a usable token (or the retried request was rejected
// again) and the session has been logged out.
var ErrSessionExpired = errors.New("session expired, please log in again")

// NetworkError wraps a transport failure: the request never produced a
// response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError carries a 4xx rejection and the server-supplied message
// when one was present in the body.
type ValidationError struct {
	StatusCode int
	Message    string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request rejected with status %d", e.StatusCode)
}

// ServerError covers 5xx responses and bodies that could not be decoded.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server error with status %d", e.StatusCode)
}
