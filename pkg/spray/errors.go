package spray

import (
	"errors"
	"fmt"
)

// ErrInterrupted is returned by Run when its context is cancelled before
// every candidate was handled
var ErrInterrupted = errors.New("spray interrupted")

// AttemptError is a transport failure tagged with the candidate that caused it
type AttemptError struct {
	User     string
	Password string
	Err      error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("error trying %s:%s: %v", e.User, e.Password, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}
