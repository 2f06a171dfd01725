// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func startTCP(ctx context.Context, t testing.TB) Server {
	server, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	// Register echo handler
	server.RegisterRaw("echo", func(ctx context.Context, payload []byte) ([]byte, error) {
		return payload, nil
	})

	go server.Serve(ctx)
	return server
}

func TestTCPRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startTCP(ctx, t)

	client, err := Dial(ctx, server.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	payload := []byte("hello world")
	resp, err := client.CallRaw(ctx, "echo", payload)
	if err != nil {
		t.Fatalf("CallRaw: %v", err)
	}

	if string(resp) != string(payload) {
		t.Errorf("got %q, want %q", resp, payload)
	}
}

func TestTCPConcurrentCalls(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startTCP(ctx, t)

	client, err := Dial(ctx, server.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := fmt.Sprintf("call-%d", i)
			resp, err := client.CallRaw(ctx, "echo", []byte(payload))
			if err != nil {
				t.Errorf("CallRaw %d: %v", i, err)
				return
			}
			if string(resp) != payload {
				t.Errorf("got %q, want %q", resp, payload)
			}
		}()
	}
	wg.Wait()
}

func TestTCPUnknownMethod(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startTCP(ctx, t)

	client, err := Dial(ctx, server.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	_, err = client.CallRaw(ctx, "missing", nil)
	if _, ok := err.(remoteError); !ok {
		t.Fatalf("got %v, want a remote error", err)
	}
}

func TestTCPClosed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startTCP(ctx, t)

	client, err := Dial(ctx, server.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	client.Close()

	if _, err := client.CallRaw(ctx, "echo", nil); err != ErrClosed {
		t.Fatalf("got %v, want ErrClosed", err)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	server := NewTCPServer(nil)
	echo := func(ctx context.Context, payload []byte) ([]byte, error) { return payload, nil }
	if err := server.RegisterRaw("echo", echo); err != nil {
		t.Fatalf("RegisterRaw: %v", err)
	}
	if err := server.RegisterRaw("echo", echo); err == nil {
		t.Fatal("second registration succeeded")
	}
}

func BenchmarkTCPRoundTrip(b *testing.B) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := startTCP(ctx, b)

	client, err := Dial(ctx, server.Addr())
	if err != nil {
		b.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	payload := make([]byte, 1024)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := client.CallRaw(ctx, "echo", payload)
		if err != nil {
			b.Fatal(err)
		}
	}
}
