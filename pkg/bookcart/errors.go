package bookcart

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTransport matches any failure to obtain an HTTP response at all.
var ErrTransport = errors.New("transport failure")

// RequestError wraps a transport-level failure (connection refused, DNS,
// context cancellation) for a single operation.
type RequestError struct {
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTransport) match any RequestError.
func (e *RequestError) Is(target error) bool { return target == ErrTransport }

// StatusError reports a status code the caller did not expect.
type StatusError struct {
	StatusCode int
	Expected   []int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (want %v): %s", e.StatusCode, e.Expected, e.Body)
}

// MalformedBodyError reports a body that could not be decoded as expected.
type MalformedBodyError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *MalformedBodyError) Error() string {
	return fmt.Sprintf("malformed response body (status %d): %v: %s", e.StatusCode, e.Err, e.Body)
}

func (e *MalformedBodyError) Unwrap() error { return e.Err }

func bodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
