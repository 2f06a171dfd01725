// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import "context"

// Message is a single case of a generated request or response union.
type Message interface {
	// Method returns the wire tag, which is the declared method name unaltered
	Method() string
}

// Request is one case of a service's request union.
type Request interface {
	Message

	// Args returns the positional wire arguments. A nested request is the
	// last argument and is already wrapped with EmbedRequest.
	Args() []any
}

// Response is one case of a service's response union.
type Response interface {
	Message

	// Result returns the wire payload. A nested response is wrapped with
	// EmbedResponse.
	Result() any
}

// Transport exchanges one request for one response.
//
// A request value is sent exactly once; implementations may be cheap handles
// (a pooled connection, a shared client) reused across many calls.
type Transport[Req, Resp any] interface {
	Send(ctx context.Context, req Req) (Resp, error)
}

// TransportFunc is a function adapter for Transport
type TransportFunc[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

func (f TransportFunc[Req, Resp]) Send(ctx context.Context, req Req) (Resp, error) {
	return f(ctx, req)
}

// Handler answers requests for one service. Handling is infallible at this
// layer: business failures travel inside the response payload (see Result).
type Handler[Req, Resp any] interface {
	Handle(ctx context.Context, req Req) Resp
}

// HandlerFunc is a function adapter for Handler
type HandlerFunc[Req, Resp any] func(ctx context.Context, req Req) Resp

func (f HandlerFunc[Req, Resp]) Handle(ctx context.Context, req Req) Resp {
	return f(ctx, req)
}

// Local returns a Transport that hands requests straight to h in the calling
// goroutine. Nothing is encoded, so it never fails.
func Local[Req, Resp any](h Handler[Req, Resp]) Transport[Req, Resp] {
	return TransportFunc[Req, Resp](func(ctx context.Context, req Req) (Resp, error) {
		return h.Handle(ctx, req), nil
	})
}
