package candidates

import "errors"

var (
	// ErrNoCandidates is returned when the inputs produce nothing to attempt
	ErrNoCandidates = errors.New("no credentials to test")

	// ErrMalformedPair is reported for a pair line without a ':' separator
	ErrMalformedPair = errors.New("invalid user:pass record")
)
