// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package link is the runtime for services generated by linkgen.
//
// A service is described once (see package model) and compiled to Go
// (see package compiler). The generated code talks to this package only:
// request and response unions implement Request and Response, clients send
// through a Transport, servers answer through a Handler.
//
// # Nested services
//
// A method may return another service instead of a value. The nested
// service has its own request and response unions, but it travels inside
// its parent's: a call such as
//
//	api.Users().ByID(7).Get(ctx)
//
// issues exactly one send on the base transport, carrying
//
//	{"method":"users","args":[{"method":"by_id","args":[7,{"method":"get","args":[]}]}]}
//
// Each nested client is bound to a MappedTransport, which folds the inner
// request into the parent request using the arguments captured at the call
// site and unfolds the parent response again.
//
// # Wire
//
// Envelopes are {"method": tag, "args": [...]} and {"method": tag,
// "result": value}. Any registered Codec can carry them; JSONCodec is the
// default and CBORCodec is available.
//
// Client usage:
//
//	conn, err := link.Dial(ctx, "localhost:9000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	todos := todo.NewTodoServiceClient(link.Bind(conn, link.JSONCodec{}, todo.TodoServiceProtocol()))
//	list, err := todos.GetTodos(ctx)
//
// Server usage:
//
//	server, err := link.Listen(":9000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	handler := todo.NewTodoServiceHandler(todo.NewStore())
//	server.Register(link.NewEndpoint(link.JSONCodec{}, todo.TodoServiceProtocol(), handler))
//	server.Serve(ctx)
//
// # Transports
//
// Byte level bindings are selected by name at Dial and Listen:
//
//   - tcp: length-prefixed frames multiplexed by request id (default)
//   - http: one POST per call
//   - jsonrpc: JSON-RPC 2.0 Link.Call over HTTP
//   - ws: frames multiplexed over a websocket
//   - grpc: unary /link.Link/Call
//
// Application code depends on Transport and Handler only, making transport
// selection a deployment decision rather than a code change.
package link
