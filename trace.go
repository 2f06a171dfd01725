// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/luxfi/link"

func tracerFrom(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName)
}

func spanAttributes(service, method string) trace.SpanStartEventOption {
	return trace.WithAttributes(
		attribute.String("rpc.system", "link"),
		attribute.String("rpc.service", service),
		attribute.String("rpc.method", method),
	)
}

func messageMethod(m Message) string {
	if m == nil {
		return ""
	}
	return m.Method()
}

// TraceTransport wraps a Transport with one client span per send. Wrapping
// the base transport of a nested chain yields one span for the whole chain,
// named after the outermost method.
type TraceTransport[Req Request, Resp Response] struct {
	next    Transport[Req, Resp]
	service string
	tracer  trace.Tracer
}

// NewTraceTransport wraps next. A nil tp uses the global provider.
func NewTraceTransport[Req Request, Resp Response](service string, next Transport[Req, Resp], tp trace.TracerProvider) TraceTransport[Req, Resp] {
	return TraceTransport[Req, Resp]{next: next, service: service, tracer: tracerFrom(tp)}
}

func (t TraceTransport[Req, Resp]) Send(ctx context.Context, req Req) (Resp, error) {
	method := messageMethod(req)
	ctx, span := t.tracer.Start(ctx, t.service+"/"+method,
		trace.WithSpanKind(trace.SpanKindClient),
		spanAttributes(t.service, method),
	)
	defer span.End()

	resp, err := t.next.Send(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}
	if got := messageMethod(resp); got != method {
		span.SetAttributes(attribute.String("link.response.method", got))
	}
	return resp, nil
}

// TraceHandler wraps a Handler with one server span per request
type TraceHandler[Req Request, Resp Response] struct {
	next    Handler[Req, Resp]
	service string
	tracer  trace.Tracer
}

// NewTraceHandler wraps next. A nil tp uses the global provider.
func NewTraceHandler[Req Request, Resp Response](service string, next Handler[Req, Resp], tp trace.TracerProvider) TraceHandler[Req, Resp] {
	return TraceHandler[Req, Resp]{next: next, service: service, tracer: tracerFrom(tp)}
}

func (h TraceHandler[Req, Resp]) Handle(ctx context.Context, req Req) Resp {
	method := messageMethod(req)
	ctx, span := h.tracer.Start(ctx, h.service+"/"+method,
		trace.WithSpanKind(trace.SpanKindServer),
		spanAttributes(h.service, method),
	)
	defer span.End()
	return h.next.Handle(ctx, req)
}
