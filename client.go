// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/grpc"
)

// Conn is a byte-level connection to a remote endpoint. Every transport
// binding (tcp, http, jsonrpc, ws, grpc) provides one; Bind turns it into a
// typed Transport.
type Conn interface {
	// CallRaw sends an encoded request envelope and returns the encoded
	// response envelope. method is the request tag, used for routing.
	CallRaw(ctx context.Context, method string, payload []byte) ([]byte, error)

	// Close closes the connection
	Close() error
}

// Server is the byte-level server side of a transport binding.
type Server interface {
	// Register routes every method of the endpoint to it
	Register(e *Endpoint) error

	// RegisterRaw registers a raw byte handler for one method
	RegisterRaw(method string, handler RawHandler) error

	// Serve starts serving requests (blocks until context cancelled or Close)
	Serve(ctx context.Context) error

	// Close stops the server
	Close() error

	// Addr returns the server's listen address
	Addr() string
}

// RawHandler handles one encoded request
type RawHandler func(ctx context.Context, payload []byte) ([]byte, error)

// DialOption configures client connections
type DialOption func(*dialOptions)

type dialOptions struct {
	codec      Codec
	transport  string // "tcp", "http", "jsonrpc", "ws", "grpc"
	httpClient *http.Client
	retries    int
	retryWait  time.Duration
	path       string
	grpcOpts   []grpc.DialOption
}

func newDialOptions(opts []DialOption) *dialOptions {
	o := &dialOptions{
		codec:     DefaultCodec,
		transport: DefaultTransport,
		retries:   defaultRetries,
		retryWait: defaultRetryWait,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCodec sets the codec whose content type the connection advertises
func WithCodec(c Codec) DialOption {
	return func(o *dialOptions) { o.codec = c }
}

// WithTransport explicitly sets the transport type
func WithTransport(t string) DialOption {
	return func(o *dialOptions) { o.transport = t }
}

// WithHTTPClient sets the client used by the http and jsonrpc transports
func WithHTTPClient(c *http.Client) DialOption {
	return func(o *dialOptions) { o.httpClient = c }
}

// WithRetries sets how many attempts the http transports make when the
// connection cannot be established, and the base wait between them. A
// request that may have reached the server is not retried.
func WithRetries(attempts int, wait time.Duration) DialOption {
	return func(o *dialOptions) {
		o.retries = attempts
		o.retryWait = wait
	}
}

// WithPath sets the URL path the http, jsonrpc and ws transports call
func WithPath(path string) DialOption {
	return func(o *dialOptions) { o.path = path }
}

// WithGRPCDialOptions appends options to the grpc transport's client
func WithGRPCDialOptions(opts ...grpc.DialOption) DialOption {
	return func(o *dialOptions) { o.grpcOpts = append(o.grpcOpts, opts...) }
}

// ServerOption configures servers
type ServerOption func(*serverOptions)

type serverOptions struct {
	codec     Codec
	transport string
	path      string
	grpcOpts  []grpc.ServerOption
}

func newServerOptions(opts []ServerOption) *serverOptions {
	o := &serverOptions{
		codec:     DefaultCodec,
		transport: DefaultTransport,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithServerCodec sets the codec the server advertises in responses
func WithServerCodec(c Codec) ServerOption {
	return func(o *serverOptions) { o.codec = c }
}

// WithServerTransport explicitly sets the transport type for the server
func WithServerTransport(t string) ServerOption {
	return func(o *serverOptions) { o.transport = t }
}

// WithServerPath sets the URL path served by the http, jsonrpc and ws
// transports
func WithServerPath(path string) ServerOption {
	return func(o *serverOptions) { o.path = path }
}

// WithGRPCServerOptions appends options to the grpc transport's server
func WithGRPCServerOptions(opts ...grpc.ServerOption) ServerOption {
	return func(o *serverOptions) { o.grpcOpts = append(o.grpcOpts, opts...) }
}
