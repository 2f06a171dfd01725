// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/link"
	"github.com/luxfi/link/examples/todo"
)

func TestWSMounted(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := link.NewWSServer()
	defer server.Close()
	require.NoError(server.Register(todoEndpoint(link.CBORCodec{})))

	ts := httptest.NewServer(server)
	defer ts.Close()

	conn, err := link.DialWS(ctx, "ws://"+strings.TrimPrefix(ts.URL, "http://"))
	require.NoError(err)
	defer conn.Close()
	client := todo.NewTodoServiceClient(link.Bind(conn, link.CBORCodec{}, todo.TodoServiceProtocol()))

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := client.NewTodo(ctx, todo.Todo{Name: fmt.Sprint(i)}); err != nil {
				t.Errorf("NewTodo %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	todos, err := client.GetTodos(ctx)
	require.NoError(err)
	require.Len(todos, 16)

	_, err = conn.CallRaw(ctx, "nope", nil)
	require.ErrorContains(err, "unknown method")

	require.NoError(conn.Close())
	_, err = conn.CallRaw(ctx, "get_todos", nil)
	require.ErrorIs(err, link.ErrClosed)
}
