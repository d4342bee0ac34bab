package practiceapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRequestFailed matches every transport failure: network errors,
	// non-2xx statuses, undecodable bodies and application-level errors.
	ErrRequestFailed = errors.New("request failed")
	// ErrEmptyQuery is returned by lookups called with an empty query.
	ErrEmptyQuery = errors.New("empty lookup query")
)

// RequestError is the single error kind produced by the client.
// Message is human readable and safe to show to users.
type RequestError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrRequestFailed) hold for every RequestError.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// statusMessage is the fallback when the body carries no usable message.
func statusMessage(code int) string {
	return fmt.Sprintf("request failed: %d", code)
}

// undecodableMessage describes a response whose body is not JSON.
func undecodableMessage(code int) string {
	return fmt.Sprintf("server error: %d %s", code, http.StatusText(code))
}
