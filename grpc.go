// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const grpcCallMethod = "/link.Link/Call"

// rawCodec passes byte slices through untouched. Envelopes are already
// encoded by the link Codec, so gRPC only moves bytes.
type rawCodec struct{}

func (rawCodec) Name() string { return "link" }

func (rawCodec) Marshal(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case *[]byte:
		return *b, nil
	default:
		return nil, fmt.Errorf("grpc: cannot marshal %T", v)
	}
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	b, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("grpc: cannot unmarshal into %T", v)
	}
	*b = append((*b)[:0], data...)
	return nil
}

// grpcCaller is the handler type of the Link service
type grpcCaller interface {
	call(ctx context.Context, body []byte) ([]byte, error)
}

var grpcServiceDesc = grpc.ServiceDesc{
	ServiceName: "link.Link",
	HandlerType: (*grpcCaller)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Call",
			Handler:    grpcCallHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "link",
}

func grpcCallHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	var in []byte
	if err := dec(&in); err != nil {
		return nil, err
	}
	caller := srv.(grpcCaller)
	if interceptor == nil {
		return caller.call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: grpcCallMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return caller.call(ctx, req.([]byte))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCConn carries each call as one unary Link/Call. The request message is
// a frame body naming the method; the response message is the encoded
// response envelope.
type GRPCConn struct {
	conn *grpc.ClientConn
}

// DialGRPC creates a client for the gRPC server at target. The connection
// is established lazily.
func DialGRPC(target string, opts ...DialOption) (*GRPCConn, error) {
	return newGRPCConn(target, newDialOptions(opts))
}

func newGRPCConn(target string, o *dialOptions) (*GRPCConn, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rawCodec{})),
	}, o.grpcOpts...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCConn{conn: conn}, nil
}

func dialGRPC(_ context.Context, addr string, o *dialOptions) (Conn, error) {
	return newGRPCConn(addr, o)
}

// CallRaw implements Conn
func (c *GRPCConn) CallRaw(ctx context.Context, method string, payload []byte) ([]byte, error) {
	req := frame{typ: frameRequest, method: method, payload: payload}.marshal()
	var resp []byte
	if err := c.conn.Invoke(ctx, grpcCallMethod, req, &resp); err != nil {
		if st, ok := status.FromError(err); ok && st.Code() != codes.Unavailable {
			return nil, remoteError(st.Message())
		}
		return nil, fmt.Errorf("grpc call: %w", err)
	}
	return resp, nil
}

// Close closes the client connection
func (c *GRPCConn) Close() error {
	return c.conn.Close()
}

// GRPCServer serves the Link service
type GRPCServer struct {
	*router
	grpc     *grpc.Server
	listener net.Listener
}

// NewGRPCServer creates a server on an existing listener
func NewGRPCServer(listener net.Listener, opts ...ServerOption) *GRPCServer {
	return newGRPCServer(listener, newServerOptions(opts))
}

func newGRPCServer(listener net.Listener, o *serverOptions) *GRPCServer {
	serverOpts := append([]grpc.ServerOption{grpc.ForceServerCodec(rawCodec{})}, o.grpcOpts...)
	s := &GRPCServer{
		router:   newRouter(),
		grpc:     grpc.NewServer(serverOpts...),
		listener: listener,
	}
	s.grpc.RegisterService(&grpcServiceDesc, s)
	return s
}

func listenGRPC(addr string, o *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return newGRPCServer(listener, o), nil
}

func (s *GRPCServer) call(ctx context.Context, body []byte) ([]byte, error) {
	f, err := parseFrame(body)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	data, err := s.dispatch(ctx, f.method, f.payload)
	if err != nil {
		return nil, status.Error(grpcCode(err), err.Error())
	}
	return data, nil
}

func grpcCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return codes.Unimplemented
	case errors.Is(err, ErrMalformed), errors.Is(err, ErrMethodMismatch):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// Serve serves gRPC on the listener until ctx ends or Close
func (s *GRPCServer) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()
	return s.grpc.Serve(s.listener)
}

// Close stops the server and closes every open connection
func (s *GRPCServer) Close() error {
	s.grpc.Stop()
	return nil
}

// Addr returns the listener address
func (s *GRPCServer) Addr() string {
	return s.listener.Addr().String()
}
