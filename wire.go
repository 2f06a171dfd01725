// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"fmt"
)

// RequestEnvelope is the encoded shape of a request:
// {"method": tag, "args": [positional...]}
type RequestEnvelope struct {
	Method string `json:"method" cbor:"method"`
	Args   []any  `json:"args" cbor:"args"`
}

// ResponseEnvelope is the encoded shape of a response:
// {"method": tag, "result": value}
type ResponseEnvelope struct {
	Method string `json:"method" cbor:"method"`
	Result any    `json:"result" cbor:"result"`
}

type rawRequest struct {
	Method string     `json:"method" cbor:"method"`
	Args   []RawValue `json:"args" cbor:"args"`
}

type rawResponse struct {
	Method string   `json:"method" cbor:"method"`
	Result RawValue `json:"result" cbor:"result"`
}

// EmbedRequest converts a request into its envelope so it can travel as
// the last argument of a parent request. A nil request embeds as null.
func EmbedRequest(req Request) any {
	if req == nil {
		return nil
	}
	args := req.Args()
	if args == nil {
		args = []any{}
	}
	return RequestEnvelope{Method: req.Method(), Args: args}
}

// EmbedResponse converts a response into its envelope so it can travel as
// the result of a parent response. A nil response embeds as null.
func EmbedResponse(resp Response) any {
	if resp == nil {
		return nil
	}
	return ResponseEnvelope{Method: resp.Method(), Result: resp.Result()}
}

// RawValue holds one encoded value exactly as the codec produced it. It is
// only meaningful to the codec that decoded it.
type RawValue []byte

func (r *RawValue) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

func (r *RawValue) UnmarshalCBOR(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

func (r RawValue) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r RawValue) MarshalCBOR() ([]byte, error) {
	if len(r) == 0 {
		return []byte{0xf6}, nil
	}
	return r, nil
}

// nestedTarget decodes an embedded envelope through another Protocol
type nestedTarget interface {
	decodeNested(c Codec, raw RawValue) error
}

// decodeValue decodes one raw value. An absent value decodes as the codec's
// null.
func decodeValue(c Codec, raw RawValue, target any) error {
	if len(raw) == 0 {
		null, err := c.Encode(nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		raw = null
	}
	if n, ok := target.(nestedTarget); ok {
		return n.decodeNested(c, raw)
	}
	if err := c.Decode(raw, target); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// ArgDecoder hands the positional arguments of one request to the
// generated decoder of its case.
type ArgDecoder struct {
	codec  Codec
	method string
	args   []RawValue
}

// Decode decodes the arguments into targets in order. The request must
// carry exactly len(targets) arguments. Use NestedRequest for an embedded
// request.
func (a *ArgDecoder) Decode(targets ...any) error {
	if len(targets) != len(a.args) {
		return fmt.Errorf("%w: %q takes %d arguments, got %d", ErrMalformed, a.method, len(targets), len(a.args))
	}
	for i, target := range targets {
		if err := decodeValue(a.codec, a.args[i], target); err != nil {
			return fmt.Errorf("%q argument %d: %w", a.method, i, err)
		}
	}
	return nil
}

// ResultDecoder hands the result of one response to the generated decoder
// of its case.
type ResultDecoder struct {
	codec  Codec
	method string
	result RawValue
}

// Decode decodes the result into target. Use NestedResponse for an
// embedded response.
func (d *ResultDecoder) Decode(target any) error {
	if err := decodeValue(d.codec, d.result, target); err != nil {
		return fmt.Errorf("%q result: %w", d.method, err)
	}
	return nil
}

type nestedRequest[Req Request, Resp Response] struct {
	dst   *Req
	proto *Protocol[Req, Resp]
}

func (n nestedRequest[Req, Resp]) decodeNested(c Codec, raw RawValue) error {
	req, err := n.proto.DecodeRequest(c, raw)
	if err != nil {
		return err
	}
	*n.dst = req
	return nil
}

// NestedRequest is a decode target for an embedded request of protocol p
func NestedRequest[Req Request, Resp Response](dst *Req, p *Protocol[Req, Resp]) any {
	return nestedRequest[Req, Resp]{dst: dst, proto: p}
}

type nestedResponse[Req Request, Resp Response] struct {
	dst   *Resp
	proto *Protocol[Req, Resp]
}

func (n nestedResponse[Req, Resp]) decodeNested(c Codec, raw RawValue) error {
	resp, err := n.proto.DecodeResponse(c, raw)
	if err != nil {
		return err
	}
	*n.dst = resp
	return nil
}

// NestedResponse is a decode target for an embedded response of protocol p
func NestedResponse[Req Request, Resp Response](dst *Resp, p *Protocol[Req, Resp]) any {
	return nestedResponse[Req, Resp]{dst: dst, proto: p}
}

// Unit is the result of a method that returns nothing. It encodes as null
// and accepts any value when decoded.
type Unit struct{}

func (Unit) MarshalJSON() ([]byte, error) { return []byte("null"), nil }
func (Unit) MarshalCBOR() ([]byte, error) { return []byte{0xf6}, nil }

func (*Unit) UnmarshalJSON([]byte) error { return nil }
func (*Unit) UnmarshalCBOR([]byte) error { return nil }
