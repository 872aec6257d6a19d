package datamart

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers timeouts, connection failures and non-200 responses.
	ErrTransport = errors.New("datamart transport failure")

	// ErrDocument means the retrieved document could not be decoded or parsed
	// at the top level.
	ErrDocument = errors.New("datamart document malformed")

	// ErrRateLimited means a rate limiter refused the call. Nothing was fetched.
	ErrRateLimited = errors.New("rate limited")
)

// StatusError is returned when the server answers with anything but 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %s returned HTTP %d", ErrTransport, e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrTransport
}
