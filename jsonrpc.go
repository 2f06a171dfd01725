// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	rpc "github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
)

const (
	// JSONRPCService is the service name the jsonrpc transport registers
	JSONRPCService = "Link"

	jsonRPCCallMethod = JSONRPCService + ".Call"
)

var errJSONRPCCodec = errors.New("jsonrpc: transport carries json envelopes only")

// JSONRPCCall is the params object of a Link.Call request
type JSONRPCCall struct {
	Method  string          `json:"method"`
	Payload json.RawMessage `json:"payload"`
}

// JSONRPCReply is the result object of a Link.Call response
type JSONRPCReply struct {
	Payload json.RawMessage `json:"payload"`
}

// JSONRPCConn calls Link.Call over JSON-RPC 2.0
type JSONRPCConn struct {
	url    string
	client *http.Client
	opts   *dialOptions
}

// DialJSONRPC returns a Conn calling the JSON-RPC endpoint at addr
func DialJSONRPC(addr string, opts ...DialOption) (*JSONRPCConn, error) {
	return newJSONRPCConn(addr, newDialOptions(opts))
}

func newJSONRPCConn(addr string, o *dialOptions) (*JSONRPCConn, error) {
	if o.codec.Name() != (JSONCodec{}).Name() {
		return nil, fmt.Errorf("%w: got %s", errJSONRPCCodec, o.codec.Name())
	}
	client := o.httpClient
	if client == nil {
		client = newHTTPClient()
	}
	return &JSONRPCConn{url: endpointURL("http", addr, o.path), client: client, opts: o}, nil
}

func dialJSONRPC(_ context.Context, addr string, o *dialOptions) (Conn, error) {
	return newJSONRPCConn(addr, o)
}

// CallRaw implements Conn
func (c *JSONRPCConn) CallRaw(ctx context.Context, method string, payload []byte) ([]byte, error) {
	if codec := callCodec(ctx, c.opts.codec); codec.Name() != (JSONCodec{}).Name() {
		return nil, fmt.Errorf("%w: got %s", errJSONRPCCodec, codec.Name())
	}
	// Marshal the request
	body, err := json2.EncodeClientRequest(jsonRPCCallMethod, &JSONRPCCall{
		Method:  method,
		Payload: json.RawMessage(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode client params: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	resp, err := postWithRetry(ctx, c.client, c.url, header, body, c.opts)
	if err != nil {
		return nil, err
	}
	defer CleanlyCloseBody(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var reply JSONRPCReply
	if err := json2.DecodeClientResponse(bytes.NewReader(data), &reply); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("received status code %d: %w", resp.StatusCode, remoteError(strings.TrimSpace(string(data))))
		}
		var rpcErr *json2.Error
		if errors.As(err, &rpcErr) {
			return nil, remoteError(rpcErr.Message)
		}
		return nil, fmt.Errorf("failed to decode client response: %w", err)
	}
	return reply.Payload, nil
}

// Close implements Conn
func (c *JSONRPCConn) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// jsonRPCService is the receiver registered with the gorilla rpc server
type jsonRPCService struct {
	r *router
}

// Call routes one envelope to the registered handler
func (s *jsonRPCService) Call(r *http.Request, args *JSONRPCCall, reply *JSONRPCReply) error {
	data, err := s.r.dispatch(r.Context(), args.Method, args.Payload)
	if err != nil {
		return err
	}
	reply.Payload = data
	return nil
}

// JSONRPCServer serves Link.Call over JSON-RPC 2.0. Like HTTPServer it can
// be mounted on an existing mux or own a listener.
type JSONRPCServer struct {
	*router
	rpc      *rpc.Server
	path     string
	listener net.Listener
	server   *http.Server
	closed   atomic.Bool
}

// NewJSONRPCServer creates a JSON-RPC handler
func NewJSONRPCServer(opts ...ServerOption) (*JSONRPCServer, error) {
	return newJSONRPCServer(nil, newServerOptions(opts))
}

func newJSONRPCServer(listener net.Listener, o *serverOptions) (*JSONRPCServer, error) {
	path := o.path
	if path == "" {
		path = DefaultPath
	}
	s := &JSONRPCServer{
		router:   newRouter(),
		rpc:      rpc.NewServer(),
		path:     path,
		listener: listener,
	}
	s.rpc.RegisterCodec(json2.NewCodec(), "application/json")
	if err := s.rpc.RegisterService(&jsonRPCService{r: s.router}, JSONRPCService); err != nil {
		return nil, fmt.Errorf("jsonrpc: register service: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle(path, s.rpc)
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	return s, nil
}

func listenJSONRPC(addr string, o *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s, err := newJSONRPCServer(listener, o)
	if err != nil {
		listener.Close()
		return nil, err
	}
	return s, nil
}

// Register routes every method of e, which must speak JSON
func (s *JSONRPCServer) Register(e *Endpoint) error {
	if e.Codec().Name() != (JSONCodec{}).Name() {
		return fmt.Errorf("register %s: %w: got %s", e.Name(), errJSONRPCCodec, e.Codec().Name())
	}
	return s.router.Register(e)
}

// ServeHTTP implements http.Handler
func (s *JSONRPCServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.rpc.ServeHTTP(w, r)
}

// Serve serves JSON-RPC on the server's listener until ctx ends or Close
func (s *JSONRPCServer) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("jsonrpc: server has no listener, mount it as an http.Handler")
	}
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()
	err := s.server.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops the server
func (s *JSONRPCServer) Close() error {
	if s.closed.Swap(true) || s.listener == nil {
		return nil
	}
	return s.server.Close()
}

// Addr returns the listen address, or the path when mounted as a handler
func (s *JSONRPCServer) Addr() string {
	if s.listener == nil {
		return s.path
	}
	return s.listener.Addr().String()
}
