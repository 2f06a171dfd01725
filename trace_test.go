// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/luxfi/link"
	"github.com/luxfi/link/examples/nested"
	"github.com/luxfi/link/examples/todo"
)

func TestTraceSpans(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	handler := link.NewTraceHandler("TodoService", todo.NewTodoServiceHandler(todo.NewStore()), tp)
	transport := link.NewTraceTransport("TodoService", link.Local(handler), tp)
	client := todo.NewTodoServiceClient(transport)

	_, err := client.GetTodos(ctx)
	require.NoError(err)

	spans := sr.Ended()
	require.Len(spans, 2)

	server, clientSpan := spans[0], spans[1]
	require.Equal("TodoService/get_todos", clientSpan.Name())
	require.Equal(trace.SpanKindClient, clientSpan.SpanKind())
	require.Equal(trace.SpanKindServer, server.SpanKind())
	require.Equal(clientSpan.SpanContext().SpanID(), server.Parent().SpanID())
	require.Contains(clientSpan.Attributes(), attribute.String("rpc.method", "get_todos"))
	require.Contains(clientSpan.Attributes(), attribute.String("rpc.system", "link"))
}

func TestTraceNestedChainIsOneSpan(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	base := link.Local(nested.NewApiServiceHandler(nested.NewDirectory()))
	api := nested.NewApiServiceClient(link.NewTraceTransport("ApiService", base, tp))

	res, err := api.Users().ByID(1).Get(ctx)
	require.NoError(err)
	require.True(res.Failed())

	spans := sr.Ended()
	require.Len(spans, 1)
	require.Equal("ApiService/users", spans[0].Name())
}

func TestTraceRecordsErrors(t *testing.T) {
	require := require.New(t)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	errDown := errors.New("down")
	failing := link.TransportFunc[todo.TodoServiceRequest, todo.TodoServiceResponse](
		func(context.Context, todo.TodoServiceRequest) (todo.TodoServiceResponse, error) {
			return nil, errDown
		})
	client := todo.NewTodoServiceClient(link.NewTraceTransport("TodoService", failing, tp))

	_, err := client.GetTodo(context.Background(), "x")
	require.Equal(errDown, err)

	spans := sr.Ended()
	require.Len(spans, 1)
	require.Equal(codes.Error, spans[0].Status().Code)
	require.Equal("down", spans[0].Status().Description)
	require.Len(spans[0].Events(), 1)
}
