package aad

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedResponse is returned when a failure body is not the
	// token endpoint's JSON error document
	ErrUnexpectedResponse = errors.New("unexpected token endpoint response")

	// ErrUnknownCloud is returned for a cloud name with no known authority host
	ErrUnknownCloud = errors.New("unknown cloud")
)

// ResponseError describes a failure body that could not be interpreted
type ResponseError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ResponseError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: status %d: %v: %q", ErrUnexpectedResponse, e.StatusCode, e.Err, body)
	}
	return fmt.Sprintf("%v: status %d: %q", ErrUnexpectedResponse, e.StatusCode, body)
}

func (e *ResponseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnexpectedResponse}
	}
	return []error{ErrUnexpectedResponse, e.Err}
}
