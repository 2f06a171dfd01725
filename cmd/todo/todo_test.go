// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/link/examples/todo"
)

func startServer(t *testing.T, transport, codec string) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	cfg := config{Addr: "127.0.0.1:0", Transport: transport, Codec: codec, Timeout: 5 * time.Second}
	go func() {
		errCh <- serve(ctx, zerolog.Nop(), cfg, func(addr string) { addrCh <- addr })
	}()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errCh)
	})

	select {
	case addr := <-addrCh:
		return addr
	case err := <-errCh:
		t.Fatalf("serve: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	return ""
}

func TestCommands(t *testing.T) {
	for _, transport := range []string{"tcp", "http", "ws"} {
		t.Run(transport, func(t *testing.T) {
			require := require.New(t)
			addr := startServer(t, transport, "cbor")

			var out bytes.Buffer
			app := newApp(&out)
			base := []string{"todo", "--addr", addr, "--transport", transport, "--codec", "cbor"}
			run := func(args ...string) {
				out.Reset()
				require.NoError(app.Run(append(append([]string{}, base...), args...)))
			}

			run("add", "milk", "two liters")
			run("add", "bread")

			run("list")
			var todos []todo.Todo
			require.NoError(json.Unmarshal(out.Bytes(), &todos))
			require.Equal([]todo.Todo{{Name: "milk", Description: "two liters"}, {Name: "bread"}}, todos)

			run("get", "bread")
			var got *todo.Todo
			require.NoError(json.Unmarshal(out.Bytes(), &got))
			require.Equal(&todo.Todo{Name: "bread"}, got)

			run("get", "cheese")
			require.Equal("null\n", out.String())
		})
	}
}

func TestConfig(t *testing.T) {
	require := require.New(t)

	cfg, err := configFromEnv()
	require.NoError(err)
	require.Equal(config{Addr: "127.0.0.1:7070", Transport: "tcp", Codec: "json", Timeout: 10 * time.Second}, cfg)

	t.Setenv("TODO_TRANSPORT", "grpc")
	t.Setenv("TODO_TIMEOUT", "1m")
	cfg, err = configFromEnv()
	require.NoError(err)
	require.Equal("grpc", cfg.Transport)
	require.Equal(time.Minute, cfg.Timeout)

	cfg.Transport = "carrier-pigeon"
	_, err = cfg.validate()
	require.ErrorContains(err, `unknown transport "carrier-pigeon"`)

	cfg.Transport = "tcp"
	cfg.Codec = "xml"
	_, err = cfg.validate()
	require.Error(err)
}
