// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

const (
	defaultRetries   = 3
	defaultRetryWait = 500 * time.Millisecond

	// DefaultPath is the URL path served and called by the http, jsonrpc and
	// ws transports
	DefaultPath = "/link"

	// MethodHeader carries the request tag on the http transport
	MethodHeader = "X-Link-Method"
)

var errUnsupportedMediaType = errors.New("http: unsupported content type")

// newHTTPClient creates a fresh HTTP client with disabled connection reuse.
// This avoids EOF errors that can occur with connection pooling in complex
// process hierarchies.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DisableKeepAlives: true,
		},
	}
}

// CleanlyCloseBody drains and closes an HTTP response body to prevent
// HTTP/2 GOAWAY errors caused by closing bodies with unread data.
// See: https://github.com/golang/go/issues/46071
func CleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

// isRetryableError reports whether err happened before the request left
// this process. Only those are retried: a request that may have reached the
// server is never sent twice.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

// endpointURL turns a dial address into a URL with the given path
func endpointURL(scheme, addr, path string) string {
	if path == "" {
		path = DefaultPath
	}
	if strings.Contains(addr, "://") {
		return strings.TrimSuffix(addr, "/") + path
	}
	return scheme + "://" + addr + path
}

// postWithRetry POSTs body to url, retrying transient connection errors
// with exponential backoff. The caller closes the returned body.
func postWithRetry(ctx context.Context, client *http.Client, url string, header http.Header, body []byte, o *dialOptions) (*http.Response, error) {
	attempts := max(o.retries, 1)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			waitTime := o.retryWait * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(waitTime):
			}
		}

		// Create fresh request for each attempt (body buffer is consumed)
		request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		request.Header = header.Clone()

		resp, err := client.Do(request)
		if err != nil {
			lastErr = err
			logger().Warn().Err(err).Str("url", url).Int("attempt", attempt+1).Bool("retryable", isRetryableError(err)).Msg("request attempt failed")
			if isRetryableError(err) {
				continue
			}
			return nil, fmt.Errorf("failed to issue request: %w", err)
		}
		if attempt > 0 {
			logger().Debug().Str("url", url).Int("attempt", attempt+1).Msg("request succeeded after retry")
		}
		return resp, nil
	}
	return nil, fmt.Errorf("failed to issue request after %d attempts: %w", attempts, lastErr)
}

// HTTPConn POSTs each encoded envelope to one URL
type HTTPConn struct {
	url    string
	client *http.Client
	opts   *dialOptions
}

// DialHTTP returns a Conn posting to addr, which is host:port or a URL
func DialHTTP(addr string, opts ...DialOption) *HTTPConn {
	return newHTTPConn(addr, newDialOptions(opts))
}

func newHTTPConn(addr string, o *dialOptions) *HTTPConn {
	client := o.httpClient
	if client == nil {
		client = newHTTPClient()
	}
	return &HTTPConn{url: endpointURL("http", addr, o.path), client: client, opts: o}
}

func dialHTTP(_ context.Context, addr string, o *dialOptions) (Conn, error) {
	return newHTTPConn(addr, o), nil
}

// CallRaw implements Conn
func (c *HTTPConn) CallRaw(ctx context.Context, method string, payload []byte) ([]byte, error) {
	header := http.Header{}
	header.Set("Content-Type", callCodec(ctx, c.opts.codec).ContentType())
	header.Set(MethodHeader, method)

	resp, err := postWithRetry(ctx, c.client, c.url, header, payload, c.opts)
	if err != nil {
		return nil, err
	}
	defer CleanlyCloseBody(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	// Return an error for any non successful status code
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("received status code %d: %w", resp.StatusCode, remoteError(strings.TrimSpace(string(body))))
	}
	return body, nil
}

// Close implements Conn
func (c *HTTPConn) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// HTTPServer serves envelopes POSTed to one path. It is an http.Handler, so
// it can be mounted on an existing mux, and a Server when it owns a listener.
type HTTPServer struct {
	*router
	codec    Codec
	path     string
	listener net.Listener
	server   *http.Server
	closed   atomic.Bool
}

// NewHTTPServer creates a handler. Each method answers in the codec of the
// endpoint registered for it; c covers raw handlers and unknown methods.
func NewHTTPServer(c Codec, opts ...ServerOption) *HTTPServer {
	o := newServerOptions(append([]ServerOption{WithServerCodec(c)}, opts...))
	return newHTTPServer(nil, o)
}

func newHTTPServer(listener net.Listener, o *serverOptions) *HTTPServer {
	path := o.path
	if path == "" {
		path = DefaultPath
	}
	s := &HTTPServer{
		router:   newRouter(),
		codec:    o.codec,
		path:     path,
		listener: listener,
	}
	mux := http.NewServeMux()
	mux.Handle(path, s)
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	return s
}

func listenHTTP(addr string, o *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return newHTTPServer(listener, o), nil
}

// requestCodec returns the codec named by the request content type, nil
// when the request carries none
func requestCodec(r *http.Request) (Codec, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return nil, nil
	}
	c, ok := CodecForContentType(contentType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnsupportedMediaType, contentType)
	}
	return c, nil
}

// ServeHTTP implements http.Handler. The endpoint serving the method fixes
// the codec; a request labelled with another content type is refused.
func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	labelled, err := requestCodec(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameSize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	method := r.Header.Get(MethodHeader)
	if method == "" {
		peekCodec := s.codec
		if labelled != nil {
			peekCodec = labelled
		}
		var peek struct {
			Method string `json:"method" cbor:"method"`
		}
		if err := peekCodec.Decode(body, &peek); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		method = peek.Method
	}

	codec := s.codec
	if c, ok := s.codecOf(method); ok {
		codec = c
	}
	if labelled != nil && labelled.Name() != codec.Name() {
		http.Error(w, fmt.Sprintf("%v: %s is served as %s", errUnsupportedMediaType, method, codec.ContentType()),
			http.StatusUnsupportedMediaType)
		return
	}

	data, err := s.dispatch(r.Context(), method, body)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	w.Header().Set("Content-Type", codec.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return http.StatusNotFound
	case errors.Is(err, ErrMalformed), errors.Is(err, ErrMethodMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Serve serves HTTP on the server's listener until ctx ends or Close
func (s *HTTPServer) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("http: server has no listener, mount it as an http.Handler")
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
func (s *HTTPServer) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.listener == nil {
		return nil
	}
	return s.server.Close()
}

// Addr returns the listen address, or the path when mounted as a handler
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return s.path
	}
	return s.listener.Addr().String()
}
