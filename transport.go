// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"context"
	"sort"
	"sync"
)

// Transport types
const (
	TransportTCP     = "tcp"     // Length-prefixed frames over TCP, default
	TransportHTTP    = "http"    // Envelope POSTed as the request body
	TransportJSONRPC = "jsonrpc" // JSON-RPC 2.0 over HTTP
	TransportWS      = "ws"      // Multiplexed websocket
	TransportGRPC    = "grpc"    // Unary gRPC call carrying raw frames
)

// DefaultTransport is the default transport type (TCP)
const DefaultTransport = TransportTCP

type dialFunc func(ctx context.Context, addr string, o *dialOptions) (Conn, error)
type listenFunc func(addr string, o *serverOptions) (Server, error)

type transportEntry struct {
	dial   dialFunc
	listen listenFunc
}

var (
	transportsMu sync.RWMutex
	transports   = map[string]transportEntry{
		TransportTCP:     {dialTCP, listenTCP},
		TransportHTTP:    {dialHTTP, listenHTTP},
		TransportJSONRPC: {dialJSONRPC, listenJSONRPC},
		TransportWS:      {dialWS, listenWS},
		TransportGRPC:    {dialGRPC, listenGRPC},
	}
)

// registerTransport registers a new transport
func registerTransport(name string, dial dialFunc, listen listenFunc) {
	transportsMu.Lock()
	defer transportsMu.Unlock()
	transports[name] = transportEntry{dial, listen}
}

func lookupTransport(name string) (transportEntry, bool) {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	t, ok := transports[name]
	return t, ok
}

// AvailableTransports returns list of available transport types, sorted
func AvailableTransports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	result := make([]string, 0, len(transports))
	for name := range transports {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// HasTransport checks if a transport is available
func HasTransport(name string) bool {
	_, ok := lookupTransport(name)
	return ok
}
