// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Result carries a business outcome inside a response payload: either a
// value or a domain error. Handlers are infallible, so this is how a server
// reports that, say, a record does not exist.
type Result[T, E any] struct {
	Ok  *T `json:"ok,omitempty" cbor:"ok,omitempty"`
	Err *E `json:"err,omitempty" cbor:"err,omitempty"`
}

// Ok returns a successful Result
func Ok[T, E any](v T) Result[T, E] {
	return Result[T, E]{Ok: &v}
}

// Fail returns a failed Result
func Fail[T, E any](e E) Result[T, E] {
	return Result[T, E]{Err: &e}
}

// Failed reports whether the result holds an error
func (r Result[T, E]) Failed() bool {
	return r.Err != nil
}

// Get returns the value, or the zero value and the error
func (r Result[T, E]) Get() (T, *E) {
	if r.Err != nil || r.Ok == nil {
		var zero T
		return zero, r.Err
	}
	return *r.Ok, nil
}

// UnmarshalJSON requires exactly one of ok and err
func (r *Result[T, E]) UnmarshalJSON(data []byte) error {
	var wire struct {
		Ok  json.RawMessage `json:"ok"`
		Err json.RawMessage `json:"err"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: result: %v", ErrMalformed, err)
	}
	return r.set(wire.Ok, wire.Err, json.Unmarshal)
}

// UnmarshalCBOR requires exactly one of ok and err
func (r *Result[T, E]) UnmarshalCBOR(data []byte) error {
	var wire struct {
		Ok  cbor.RawMessage `cbor:"ok"`
		Err cbor.RawMessage `cbor:"err"`
	}
	if err := cborDec.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: result: %v", ErrMalformed, err)
	}
	return r.set(wire.Ok, wire.Err, cborDec.Unmarshal)
}

func (r *Result[T, E]) set(ok, fail []byte, decode func([]byte, any) error) error {
	switch {
	case len(ok) > 0 && len(fail) > 0:
		return fmt.Errorf("%w: result carries both ok and err", ErrMalformed)
	case len(ok) > 0:
		var v T
		if err := decode(ok, &v); err != nil {
			return fmt.Errorf("%w: result ok: %v", ErrMalformed, err)
		}
		*r = Result[T, E]{Ok: &v}
	case len(fail) > 0:
		var e E
		if err := decode(fail, &e); err != nil {
			return fmt.Errorf("%w: result err: %v", ErrMalformed, err)
		}
		*r = Result[T, E]{Err: &e}
	default:
		return fmt.Errorf("%w: result carries neither ok nor err", ErrMalformed)
	}
	return nil
}
