package redopssdk

import (
	"fmt"
	"time"
)

// NetworkError wraps transport failures: DNS, refused connections, resets.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError reports a request that exceeded the client timeout. It unwraps
// to a *NetworkError so callers that only care about transport failures can
// treat both alike.
type TimeoutError struct {
	Method string
	URL    string
	After  time.Duration
	Err    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s %s", e.After, e.Method, e.URL)
}

func (e *TimeoutError) Unwrap() error {
	return &NetworkError{Method: e.Method, URL: e.URL, Err: e.Err}
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// AuthError means a login response was missing the principal or the token.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "invalid login response: " + e.Reason
}
