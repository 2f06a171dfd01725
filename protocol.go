// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"fmt"
)

// MethodCodec decodes the request and response cases of one method.
// Generated code builds one per method.
type MethodCodec[Req Request, Resp Response] struct {
	Method         string
	DecodeRequest  func(*ArgDecoder) (Req, error)
	DecodeResponse func(*ResultDecoder) (Resp, error)
}

// Protocol is the codec table of a service: the closed request and response
// unions keyed by tag. It is built once per service and is safe for
// concurrent use.
type Protocol[Req Request, Resp Response] struct {
	name    string
	methods []string
	cases   map[string]MethodCodec[Req, Resp]
}

// NewProtocol builds the table for service name. Method order is kept.
// NewProtocol panics on a duplicate tag, which only a hand-edited table can
// contain.
func NewProtocol[Req Request, Resp Response](name string, cases ...MethodCodec[Req, Resp]) *Protocol[Req, Resp] {
	p := &Protocol[Req, Resp]{
		name:    name,
		methods: make([]string, 0, len(cases)),
		cases:   make(map[string]MethodCodec[Req, Resp], len(cases)),
	}
	for _, c := range cases {
		if _, dup := p.cases[c.Method]; dup {
			panic(fmt.Sprintf("link: %s: duplicate method %q", name, c.Method))
		}
		p.methods = append(p.methods, c.Method)
		p.cases[c.Method] = c
	}
	return p
}

// Name returns the service name
func (p *Protocol[Req, Resp]) Name() string {
	return p.name
}

// Methods returns the wire tags in declaration order
func (p *Protocol[Req, Resp]) Methods() []string {
	return append([]string(nil), p.methods...)
}

// Has reports whether tag belongs to the service
func (p *Protocol[Req, Resp]) Has(tag string) bool {
	_, ok := p.cases[tag]
	return ok
}

// EncodeRequest encodes req as a request envelope
func (p *Protocol[Req, Resp]) EncodeRequest(c Codec, req Req) ([]byte, error) {
	if any(req) == nil {
		return nil, ErrNilMessage
	}
	if !p.Has(req.Method()) {
		return nil, fmt.Errorf("%w: %s has no method %q", ErrUnknownMethod, p.name, req.Method())
	}
	return c.Encode(EmbedRequest(req))
}

// DecodeRequest decodes a request envelope. Unknown tags, wrong arity and
// malformed arguments are errors.
func (p *Protocol[Req, Resp]) DecodeRequest(c Codec, data []byte) (Req, error) {
	var zero Req
	var raw rawRequest
	if err := c.Decode(data, &raw); err != nil {
		return zero, fmt.Errorf("%w: %s request: %v", ErrMalformed, p.name, err)
	}
	mc, ok := p.cases[raw.Method]
	if !ok {
		return zero, fmt.Errorf("%w: %s has no method %q", ErrUnknownMethod, p.name, raw.Method)
	}
	return mc.DecodeRequest(&ArgDecoder{codec: c, method: raw.Method, args: raw.Args})
}

// EncodeResponse encodes resp as a response envelope
func (p *Protocol[Req, Resp]) EncodeResponse(c Codec, resp Resp) ([]byte, error) {
	if any(resp) == nil {
		return nil, ErrNilMessage
	}
	if !p.Has(resp.Method()) {
		return nil, fmt.Errorf("%w: %s has no method %q", ErrUnknownMethod, p.name, resp.Method())
	}
	return c.Encode(EmbedResponse(resp))
}

// DecodeResponse decodes a response envelope
func (p *Protocol[Req, Resp]) DecodeResponse(c Codec, data []byte) (Resp, error) {
	var zero Resp
	var raw rawResponse
	if err := c.Decode(data, &raw); err != nil {
		return zero, fmt.Errorf("%w: %s response: %v", ErrMalformed, p.name, err)
	}
	mc, ok := p.cases[raw.Method]
	if !ok {
		return zero, fmt.Errorf("%w: %s has no method %q", ErrUnknownMethod, p.name, raw.Method)
	}
	return mc.DecodeResponse(&ResultDecoder{codec: c, method: raw.Method, result: raw.Result})
}
