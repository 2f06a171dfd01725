// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"context"
	"fmt"
	"sync"
)

// Dial connects to a server using the default transport (TCP).
// Use WithTransport for transport selection.
func Dial(ctx context.Context, addr string, opts ...DialOption) (Conn, error) {
	o := newDialOptions(opts)
	t, ok := lookupTransport(o.transport)
	if !ok {
		return nil, fmt.Errorf("unknown transport: %s", o.transport)
	}
	return t.dial(ctx, addr, o)
}

// Listen creates a server listener using the default transport (TCP).
func Listen(addr string, opts ...ServerOption) (Server, error) {
	o := newServerOptions(opts)
	t, ok := lookupTransport(o.transport)
	if !ok {
		return nil, fmt.Errorf("unknown transport: %s", o.transport)
	}
	return t.listen(addr, o)
}

// router maps top level method tags to raw handlers. Every Server binding
// embeds one.
type router struct {
	mu       sync.RWMutex
	handlers map[string]RawHandler
	codecs   map[string]Codec // set for methods served by an Endpoint
}

func newRouter() *router {
	return &router{
		handlers: make(map[string]RawHandler),
		codecs:   make(map[string]Codec),
	}
}

func (r *router) Register(e *Endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	methods := e.Methods()
	for _, method := range methods {
		if _, dup := r.handlers[method]; dup {
			return fmt.Errorf("register %s: %w: %s", e.Name(), ErrDuplicateMethod, method)
		}
	}
	for _, method := range methods {
		r.handlers[method] = e.RawHandler(method)
		r.codecs[method] = e.Codec()
	}
	return nil
}

func (r *router) RegisterRaw(method string, handler RawHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[method]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateMethod, method)
	}
	r.handlers[method] = handler
	return nil
}

// codecOf returns the codec of the endpoint serving method
func (r *router) codecOf(method string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[method]
	return c, ok
}

// dispatch runs the handler registered for method
func (r *router) dispatch(ctx context.Context, method string, payload []byte) ([]byte, error) {
	r.mu.RLock()
	handler, ok := r.handlers[method]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	return handler(ctx, payload)
}
