package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited is the failure of an attempt whose body carries the
	// platform's "429" page.
	ErrRateLimited = errors.New("rate limited by server")
	errChallenged  = errors.New("challenge issued")
)

// ConnectionFailure is returned once every attempt of a call failed.
type ConnectionFailure struct {
	URL      string
	Attempts int
	Last     error
}

func (e *ConnectionFailure) Error() string {
	return fmt.Sprintf("call %s failed after %d attempts: %v", e.URL, e.Attempts, e.Last)
}

func (e *ConnectionFailure) Unwrap() error {
	return e.Last
}

// HttpStatusFailure is returned by strict calls whose final response is not 2xx.
type HttpStatusFailure struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *HttpStatusFailure) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// AuthenticationFailure carries the reason the server gave for rejecting a login.
type AuthenticationFailure struct {
	Reason string
}

func (e *AuthenticationFailure) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}
