// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongResponseType is returned when the response tag does not match
	// the tag of the request that was sent. A matched client and server never
	// produce it; it means the server misbehaves or the transport points at
	// the wrong endpoint.
	ErrWrongResponseType = errors.New("link: response was for a different method than the request")

	ErrUnknownMethod   = errors.New("link: unknown method")
	ErrMalformed       = errors.New("link: malformed payload")
	ErrNilMessage      = errors.New("link: nil message")
	ErrMethodMismatch  = errors.New("link: frame method does not match payload")
	ErrDuplicateMethod = errors.New("link: method already registered")
	ErrClosed          = errors.New("link: connection closed")
)

// TransportError reports a failure to exchange a request for a response:
// encoding, decoding or the underlying connection.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("link: transport: %v", e.Err)
	}
	return fmt.Sprintf("link: transport %q: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err carries a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Expect narrows the result of a Transport.Send to the response case C.
// Send errors pass through untouched; any other case is ErrWrongResponseType.
func Expect[C Message](resp any, err error) (C, error) {
	var want C
	if err != nil {
		return want, err
	}
	if got, ok := resp.(C); ok {
		return got, nil
	}
	return want, wrongResponse(want.Method(), resp)
}

func wrongResponse(want string, resp any) error {
	got := "<nil>"
	if m, ok := resp.(Message); ok && m != nil {
		got = m.Method()
	}
	return fmt.Errorf("%w: sent %q, received %q", ErrWrongResponseType, want, got)
}
