// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// TCPConn multiplexes calls over one TCP connection. Calls are matched to
// responses by request id, so any number may be in flight.
type TCPConn struct {
	conn     net.Conn
	writeMu  sync.Mutex
	pending  sync.Map // requestID -> chan frame
	nextID   atomic.Uint32
	closed   atomic.Bool
	readDone chan struct{}
}

// DialTCP connects to a TCP server
func DialTCP(ctx context.Context, addr string) (*TCPConn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp dial: %w", err)
	}
	return newTCPConn(conn), nil
}

func newTCPConn(conn net.Conn) *TCPConn {
	tc := &TCPConn{
		conn:     conn,
		readDone: make(chan struct{}),
	}
	go tc.readLoop()
	return tc
}

func dialTCP(ctx context.Context, addr string, _ *dialOptions) (Conn, error) {
	return DialTCP(ctx, addr)
}

// CallRaw implements Conn
func (c *TCPConn) CallRaw(ctx context.Context, method string, payload []byte) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	requestID := c.nextID.Add(1)
	respCh := make(chan frame, 1)
	c.pending.Store(requestID, respCh)
	defer c.pending.Delete(requestID)

	c.writeMu.Lock()
	err := writeFrame(c.conn, frame{typ: frameRequest, id: requestID, method: method, payload: payload})
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("tcp write: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-respCh:
		if resp.typ == frameError {
			return nil, remoteError(resp.payload)
		}
		return resp.payload, nil
	case <-c.readDone:
		return nil, ErrClosed
	}
}

func (c *TCPConn) readLoop() {
	defer close(c.readDone)
	for {
		f, err := readFrame(c.conn)
		if err != nil {
			if !c.closed.Load() {
				logger().Debug().Err(err).Str("transport", TransportTCP).Msg("read loop ended")
			}
			return
		}
		if ch, ok := c.pending.Load(f.id); ok {
			ch.(chan frame) <- f
		}
	}
}

// Close closes the connection
func (c *TCPConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

// TCPServer serves framed requests on a TCP listener
type TCPServer struct {
	*router
	listener net.Listener
	conns    sync.Map
	closed   atomic.Bool
}

// NewTCPServer creates a server on an existing listener
func NewTCPServer(listener net.Listener) *TCPServer {
	return &TCPServer{
		router:   newRouter(),
		listener: listener,
	}
}

func listenTCP(addr string, _ *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewTCPServer(listener), nil
}

// Serve accepts connections until ctx ends or the server is closed
func (s *TCPServer) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("tcp accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *TCPServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	s.conns.Store(conn, struct{}{})
	defer s.conns.Delete(conn)

	var writeMu sync.Mutex
	for {
		f, err := readFrame(conn)
		if err != nil {
			return
		}
		if f.typ != frameRequest {
			continue
		}
		go func() {
			data, err := s.dispatch(ctx, f.method, f.payload)
			writeMu.Lock()
			defer writeMu.Unlock()
			conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if err := writeFrame(conn, replyFrame(f.id, data, err)); err != nil {
				logger().Debug().Err(err).Str("transport", TransportTCP).Str("method", f.method).Msg("write response")
			}
		}()
	}
}

// Close closes the server and every open connection
func (s *TCPServer) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.conns.Range(func(key, _ any) bool {
		key.(net.Conn).Close()
		return true
	})
	return s.listener.Close()
}

// Addr returns the listener address
func (s *TCPServer) Addr() string {
	return s.listener.Addr().String()
}
