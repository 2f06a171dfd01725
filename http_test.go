// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/link"
	"github.com/luxfi/link/examples/todo"
)

func todoEndpoint(c link.Codec, todos ...todo.Todo) *link.Endpoint {
	return link.NewEndpoint(c, todo.TodoServiceProtocol(), todo.NewTodoServiceHandler(todo.NewStore(todos...)))
}

func TestHTTPMounted(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := link.NewHTTPServer(link.JSONCodec{})
	require.NoError(server.Register(todoEndpoint(link.JSONCodec{}, todo.Todo{Name: "mounted"})))
	require.Equal(link.DefaultPath, server.Addr())

	ts := httptest.NewServer(server)
	defer ts.Close()

	conn := link.DialHTTP(ts.URL)
	defer conn.Close()
	client := todo.NewTodoServiceClient(link.Bind(conn, link.JSONCodec{}, todo.TodoServiceProtocol()))

	got, err := client.GetTodo(ctx, "mounted")
	require.NoError(err)
	require.Equal("mounted", got.Name)

	require.Error(server.Serve(ctx))
}

func TestHTTPStatus(t *testing.T) {
	server := link.NewHTTPServer(link.JSONCodec{})
	require.NoError(t, server.Register(todoEndpoint(link.JSONCodec{})))
	ts := httptest.NewServer(server)
	defer ts.Close()

	tests := []struct {
		name   string
		method string
		header string
		body   string
		status int
	}{
		{"get not allowed", http.MethodGet, "", "", http.StatusMethodNotAllowed},
		{"unknown method", http.MethodPost, "delete_todo", `{"method":"delete_todo","args":[]}`, http.StatusNotFound},
		{"malformed args", http.MethodPost, "get_todo", `{"method":"get_todo","args":[]}`, http.StatusBadRequest},
		{"routed elsewhere", http.MethodPost, "get_todo", `{"method":"get_todos","args":[]}`, http.StatusBadRequest},
		{"garbage without header", http.MethodPost, "", `{{`, http.StatusBadRequest},
		{"method from envelope", http.MethodPost, "", `{"method":"get_todos","args":[]}`, http.StatusOK},
		{"ok", http.MethodPost, "get_todos", `{"method":"get_todos","args":[]}`, http.StatusOK},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req, err := http.NewRequest(test.method, ts.URL+link.DefaultPath, strings.NewReader(test.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			if test.header != "" {
				req.Header.Set(link.MethodHeader, test.header)
			}
			resp, err := ts.Client().Do(req)
			require.NoError(t, err)
			defer link.CleanlyCloseBody(resp.Body)
			require.Equal(t, test.status, resp.StatusCode)
		})
	}
}

func TestHTTPContentType(t *testing.T) {
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen []string
	)
	server := link.NewHTTPServer(link.JSONCodec{})
	require.NoError(t, server.Register(todoEndpoint(link.CBORCodec{}, todo.Todo{Name: "c"})))
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Content-Type"))
		mu.Unlock()
		server.ServeHTTP(w, r)
	}))
	defer ts.Close()

	// The request is labelled by the codec given to Bind, not the dial default.
	conn := link.DialHTTP(ts.URL)
	client := todo.NewTodoServiceClient(link.Bind(conn, link.CBORCodec{}, todo.TodoServiceProtocol()))
	got, err := client.GetTodo(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, "c", got.Name)
	mu.Lock()
	require.Equal(t, []string{"application/cbor"}, seen)
	mu.Unlock()

	body, err := todo.TodoServiceProtocol().EncodeRequest(link.CBORCodec{}, todo.TodoServiceGetTodosRequest{})
	require.NoError(t, err)

	tests := []struct {
		name        string
		contentType string
		status      int
	}{
		{"matching", "application/cbor", http.StatusOK},
		{"with parameters", "application/cbor; charset=binary", http.StatusOK},
		{"unlabelled", "", http.StatusOK},
		{"mislabelled", "application/json", http.StatusUnsupportedMediaType},
		{"unknown", "text/plain", http.StatusUnsupportedMediaType},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, ts.URL+link.DefaultPath, bytes.NewReader(body))
			require.NoError(t, err)
			req.Header.Set(link.MethodHeader, "get_todos")
			if test.contentType != "" {
				req.Header.Set("Content-Type", test.contentType)
			}
			resp, err := ts.Client().Do(req)
			require.NoError(t, err)
			defer link.CleanlyCloseBody(resp.Body)
			require.Equal(t, test.status, resp.StatusCode)
			if test.status != http.StatusOK {
				return
			}

			require.Equal(t, "application/cbor", resp.Header.Get("Content-Type"))
			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			_, err = todo.TodoServiceProtocol().DecodeResponse(link.CBORCodec{}, data)
			require.NoError(t, err)
		})
	}
}

func TestHTTPContentTypeFollowsEndpoint(t *testing.T) {
	require := require.New(t)

	server := link.NewHTTPServer(link.CBORCodec{})
	require.NoError(server.Register(todoEndpoint(link.JSONCodec{})))
	ts := httptest.NewServer(server)
	defer ts.Close()

	post := func(contentType string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{"method":"get_todos","args":[]}`))
		require.NoError(err)
		req.Header.Set(link.MethodHeader, "get_todos")
		req.Header.Set("Content-Type", contentType)
		resp, err := ts.Client().Do(req)
		require.NoError(err)
		require.NoError(link.CleanlyCloseBody(resp.Body))
		return resp
	}

	resp := post("application/cbor")
	require.Equal(http.StatusUnsupportedMediaType, resp.StatusCode)

	resp = post("application/json")
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Equal("application/json", resp.Header.Get("Content-Type"))
}

func TestHTTPRemoteErrors(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	ts := httptest.NewServer(link.NewHTTPServer(link.JSONCodec{}))
	defer ts.Close()

	conn := link.DialHTTP(ts.URL, link.WithRetries(1, time.Millisecond))
	_, err := conn.CallRaw(ctx, "get_todos", []byte(`{"method":"get_todos","args":[]}`))
	require.ErrorContains(err, "received status code 404")
	require.ErrorContains(err, "unknown method")
}

func TestHTTPRetries(t *testing.T) {
	require := require.New(t)

	// Nothing listens here once the server is closed.
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	conn := link.DialHTTP(addr, link.WithRetries(2, time.Millisecond))
	_, err := conn.CallRaw(context.Background(), "get_todos", nil)
	require.ErrorContains(err, "after 2 attempts")
}

func TestHTTPNoRetryAfterSend(t *testing.T) {
	require := require.New(t)

	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		// Drop the connection after the request arrived.
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer ts.Close()

	conn := link.DialHTTP(ts.URL, link.WithRetries(3, time.Millisecond))
	_, err := conn.CallRaw(context.Background(), "new_todo", []byte(`{"method":"new_todo","args":[{"name":"once"}]}`))
	require.Error(err)
	require.NotContains(err.Error(), "attempts")
	require.Equal(int32(1), hits.Load())
}

func TestJSONRPC(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server, err := link.NewJSONRPCServer()
	require.NoError(err)
	require.NoError(server.Register(todoEndpoint(link.JSONCodec{})))
	ts := httptest.NewServer(server)
	defer ts.Close()

	conn, err := link.DialJSONRPC(ts.URL)
	require.NoError(err)
	defer conn.Close()
	client := todo.NewTodoServiceClient(link.Bind(conn, link.JSONCodec{}, todo.TodoServiceProtocol()))

	require.NoError(client.NewTodo(ctx, todo.Todo{Name: "rpc"}))
	todos, err := client.GetTodos(ctx)
	require.NoError(err)
	require.Equal([]todo.Todo{{Name: "rpc"}}, todos)

	_, err = conn.CallRaw(ctx, "nope", []byte(`{"method":"nope","args":[]}`))
	require.ErrorContains(err, "unknown method")

	// The envelope travels as a JSON-RPC 2.0 Link.Call.
	body := `{"jsonrpc":"2.0","method":"Link.Call","params":{"method":"get_todos","payload":{"method":"get_todos","args":[]}},"id":1}`
	resp, err := http.Post(ts.URL+link.DefaultPath, "application/json", bytes.NewBufferString(body))
	require.NoError(err)
	defer link.CleanlyCloseBody(resp.Body)
	data, err := io.ReadAll(resp.Body)
	require.NoError(err)
	require.JSONEq(`{"jsonrpc":"2.0","result":{"payload":{"method":"get_todos","result":[{"name":"rpc","description":""}]}},"id":1}`, string(data))
}

func TestJSONRPCRequiresJSON(t *testing.T) {
	require := require.New(t)

	_, err := link.DialJSONRPC("localhost:1", link.WithCodec(link.CBORCodec{}))
	require.ErrorContains(err, "json envelopes only")

	conn, err := link.DialJSONRPC("localhost:1")
	require.NoError(err)
	client := todo.NewTodoServiceClient(link.Bind(conn, link.CBORCodec{}, todo.TodoServiceProtocol()))
	_, err = client.GetTodos(context.Background())
	require.True(link.IsTransportError(err))
	require.ErrorContains(err, "json envelopes only")

	server, err := link.NewJSONRPCServer()
	require.NoError(err)
	require.ErrorContains(server.Register(todoEndpoint(link.CBORCodec{})), "json envelopes only")
}
