// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSConn multiplexes calls over one websocket. Every binary message is one
// frame body; responses are matched to calls by request id.
type WSConn struct {
	ws       *websocket.Conn
	writeMu  sync.Mutex
	pending  sync.Map // requestID -> chan frame
	nextID   atomic.Uint32
	closed   atomic.Bool
	readDone chan struct{}
}

// DialWS opens a websocket to addr, which is host:port or a ws:// URL
func DialWS(ctx context.Context, addr string, opts ...DialOption) (*WSConn, error) {
	return newWSConn(ctx, addr, newDialOptions(opts))
}

func newWSConn(ctx context.Context, addr string, o *dialOptions) (*WSConn, error) {
	url := endpointURL("ws", addr, o.path)
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial %s: %w", url, err)
	}
	c := &WSConn{
		ws:       ws,
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func dialWS(ctx context.Context, addr string, o *dialOptions) (Conn, error) {
	return newWSConn(ctx, addr, o)
}

// CallRaw implements Conn
func (c *WSConn) CallRaw(ctx context.Context, method string, payload []byte) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	requestID := c.nextID.Add(1)
	respCh := make(chan frame, 1)
	c.pending.Store(requestID, respCh)
	defer c.pending.Delete(requestID)

	req := frame{typ: frameRequest, id: requestID, method: method, payload: payload}
	c.writeMu.Lock()
	c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	err := c.ws.WriteMessage(websocket.BinaryMessage, req.marshal())
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("ws write: %w", err)
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

func (c *WSConn) readLoop() {
	defer close(c.readDone)
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				logger().Debug().Err(err).Str("transport", TransportWS).Msg("read loop ended")
			}
			return
		}
		f, err := parseFrame(msg)
		if err != nil {
			logger().Debug().Err(err).Str("transport", TransportWS).Msg("dropping frame")
			continue
		}
		if ch, ok := c.pending.Load(f.id); ok {
			ch.(chan frame) <- f
		}
	}
}

// Close sends a close message and closes the websocket
func (c *WSConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.writeMu.Lock()
	// Tell the other end we are closing.
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
	c.writeMu.Unlock()
	return c.ws.Close()
}

// WSServer upgrades requests on one path to websockets and serves frames
// on them. It can be mounted on an existing mux or own a listener.
type WSServer struct {
	*router
	path     string
	listener net.Listener
	server   *http.Server
	sockets  sync.Map
	ctx      context.Context
	cancel   context.CancelFunc
	closed   atomic.Bool
}

// NewWSServer creates a websocket handler
func NewWSServer(opts ...ServerOption) *WSServer {
	return newWSServer(nil, newServerOptions(opts))
}

func newWSServer(listener net.Listener, o *serverOptions) *WSServer {
	path := o.path
	if path == "" {
		path = DefaultPath
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &WSServer{
		router:   newRouter(),
		path:     path,
		listener: listener,
		ctx:      ctx,
		cancel:   cancel,
	}
	mux := http.NewServeMux()
	mux.Handle(path, s)
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	return s
}

func listenWS(addr string, o *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return newWSServer(listener, o), nil
}

// ServeHTTP implements http.Handler
func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger().Debug().Err(err).Str("transport", TransportWS).Msg("problem initiating websocket")
		return
	}
	s.handleSocket(ws)
}

func (s *WSServer) handleSocket(ws *websocket.Conn) {
	defer ws.Close()
	s.sockets.Store(ws, struct{}{})
	defer s.sockets.Delete(ws)

	var writeMu sync.Mutex
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return
		}
		f, err := parseFrame(msg)
		if err != nil || f.typ != frameRequest {
			continue
		}
		go func() {
			data, err := s.dispatch(s.ctx, f.method, f.payload)
			writeMu.Lock()
			defer writeMu.Unlock()
			ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.BinaryMessage, replyFrame(f.id, data, err).marshal()); err != nil {
				logger().Debug().Err(err).Str("transport", TransportWS).Str("method", f.method).Msg("write response")
			}
		}()
	}
}

// Serve serves websockets on the server's listener until ctx ends or Close
func (s *WSServer) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("ws: server has no listener, mount it as an http.Handler")
	}
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()
	err := s.server.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops the server and closes every open socket
func (s *WSServer) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cancel()
	s.sockets.Range(func(key, _ any) bool {
		key.(*websocket.Conn).Close()
		return true
	})
	if s.listener == nil {
		return nil
	}
	return s.server.Close()
}

// Addr returns the listen address, or the path when mounted as a handler
func (s *WSServer) Addr() string {
	if s.listener == nil {
		return s.path
	}
	return s.listener.Addr().String()
}
