// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"context"
	"fmt"
)

type codecKey struct{}

// callCodec returns the codec Bind encoded the call with, or fallback when
// the Conn is used directly
func callCodec(ctx context.Context, fallback Codec) Codec {
	if c, ok := ctx.Value(codecKey{}).(Codec); ok {
		return c
	}
	return fallback
}

type boundTransport[Req Request, Resp Response] struct {
	conn  Conn
	codec Codec
	proto *Protocol[Req, Resp]
}

// Bind returns a Transport that encodes requests with c, sends them over
// conn and decodes the responses. Every failure is a *TransportError.
func Bind[Req Request, Resp Response](conn Conn, c Codec, p *Protocol[Req, Resp]) Transport[Req, Resp] {
	return boundTransport[Req, Resp]{conn: conn, codec: c, proto: p}
}

func (b boundTransport[Req, Resp]) Send(ctx context.Context, req Req) (Resp, error) {
	var zero Resp
	method := ""
	if any(req) != nil {
		method = req.Method()
	}
	payload, err := b.proto.EncodeRequest(b.codec, req)
	if err != nil {
		return zero, &TransportError{Method: method, Err: fmt.Errorf("encode request: %w", err)}
	}
	data, err := b.conn.CallRaw(context.WithValue(ctx, codecKey{}, b.codec), method, payload)
	if err != nil {
		return zero, &TransportError{Method: method, Err: err}
	}
	resp, err := b.proto.DecodeResponse(b.codec, data)
	if err != nil {
		return zero, &TransportError{Method: method, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp, nil
}

// Endpoint serves encoded requests of one service with a Handler.
type Endpoint struct {
	name    string
	codec   Codec
	methods []string
	serve   func(ctx context.Context, method string, payload []byte) ([]byte, error)
}

// NewEndpoint binds h to the wire: requests are decoded with c through p,
// handled, and the responses encoded again.
func NewEndpoint[Req Request, Resp Response](c Codec, p *Protocol[Req, Resp], h Handler[Req, Resp]) *Endpoint {
	return &Endpoint{
		name:    p.Name(),
		codec:   c,
		methods: p.Methods(),
		serve: func(ctx context.Context, method string, payload []byte) ([]byte, error) {
			req, err := p.DecodeRequest(c, payload)
			if err != nil {
				return nil, fmt.Errorf("decode request: %w", err)
			}
			if method != "" && method != req.Method() {
				return nil, fmt.Errorf("%w: routed as %q, payload is %q", ErrMethodMismatch, method, req.Method())
			}
			return p.EncodeResponse(c, h.Handle(ctx, req))
		},
	}
}

// Name returns the service name
func (e *Endpoint) Name() string {
	return e.name
}

// Codec returns the codec the endpoint speaks
func (e *Endpoint) Codec() Codec {
	return e.codec
}

// Methods returns the top level tags the endpoint answers
func (e *Endpoint) Methods() []string {
	return append([]string(nil), e.methods...)
}

// ServeRaw handles one encoded request. method is the tag the request was
// routed by; an empty method skips the routing check.
func (e *Endpoint) ServeRaw(ctx context.Context, method string, payload []byte) ([]byte, error) {
	resp, err := e.serve(ctx, method, payload)
	if err != nil {
		logger().Debug().Err(err).Str("service", e.name).Str("method", method).Msg("request rejected")
		return nil, err
	}
	return resp, nil
}

// RawHandler returns a handler for method that serves through e
func (e *Endpoint) RawHandler(method string) RawHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		return e.ServeRaw(ctx, method, payload)
	}
}

type loopback struct {
	e *Endpoint
}

// Loopback returns an in-process Conn that serves every call with e. The
// bytes still go through the codec, so it exercises the full wire path.
func Loopback(e *Endpoint) Conn {
	return loopback{e: e}
}

func (l loopback) CallRaw(ctx context.Context, method string, payload []byte) ([]byte, error) {
	return l.e.ServeRaw(ctx, method, payload)
}

func (loopback) Close() error {
	return nil
}
