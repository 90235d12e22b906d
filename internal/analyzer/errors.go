package analyzer

import (
	"errors"
	"fmt"
)

var (
	// ErrEndpointUnreachable means the inference server did not answer the startup probe
	ErrEndpointUnreachable = errors.New("inference endpoint unreachable")

	// ErrTransport matches every *TransportError
	ErrTransport = errors.New("transport error")

	// ErrMalformedResponse means the model reply was not a JSON object
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrIncompleteResponse means the model reply lacked one of the required keys
	ErrIncompleteResponse = errors.New("incomplete model response")
)

// TransportError carries the underlying failure of a request to the inference endpoint:
// connection refused, timeout or a non-2xx status
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransport, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports ErrTransport as a match so callers can test for the category
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
