// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type upperJSON struct {
	JSONCodec
}

func (upperJSON) Name() string        { return "json-test" }
func (upperJSON) ContentType() string { return "application/x-link-test" }

func TestCodecRegistry(t *testing.T) {
	require := require.New(t)

	c, err := CodecByName("cbor")
	require.NoError(err)
	require.Equal(CBORCodec{}, c)

	_, err = CodecByName("gob")
	require.Error(err)

	c, ok := CodecForContentType("application/json")
	require.True(ok)
	require.Equal(JSONCodec{}, c)

	_, ok = CodecForContentType("text/plain")
	require.False(ok)

	RegisterCodec(upperJSON{})
	c, ok = CodecForContentType("application/x-link-test")
	require.True(ok)
	require.Equal("json-test", c.Name())
	require.Subset(AvailableCodecs(), []string{"cbor", "json", "json-test"})
}

func TestCBORDeterministic(t *testing.T) {
	require := require.New(t)

	v := map[string]any{"zeta": 1, "alpha": []any{"x", 2}, "mid": nil}
	first, err := CBORCodec{}.Encode(v)
	require.NoError(err)
	for range 5 {
		again, err := CBORCodec{}.Encode(v)
		require.NoError(err)
		require.Equal(first, again)
	}
}

func TestTransportRegistry(t *testing.T) {
	require := require.New(t)

	require.Subset(AvailableTransports(), []string{"grpc", "http", "jsonrpc", "tcp", "ws"})
	require.True(HasTransport(DefaultTransport))
	require.False(HasTransport("carrier-pigeon"))

	_, err := Listen("127.0.0.1:0", WithServerTransport("carrier-pigeon"))
	require.ErrorContains(err, "unknown transport")
	_, err = Dial(context.Background(), "nowhere", WithTransport("carrier-pigeon"))
	require.ErrorContains(err, "unknown transport")

	e := NewEndpoint(JSONCodec{}, pingProtocol(), Handler[Request, Response](pingHandler{}))
	registerTransport("loopback-test",
		func(context.Context, string, *dialOptions) (Conn, error) { return Loopback(e), nil },
		func(string, *serverOptions) (Server, error) { return NewTCPServer(nil), nil },
	)
	require.True(HasTransport("loopback-test"))

	conn, err := Dial(context.Background(), "anywhere", WithTransport("loopback-test"))
	require.NoError(err)
	resp, err := Bind(conn, JSONCodec{}, pingProtocol()).Send(context.Background(), pingRequest{Seq: 1})
	require.NoError(err)
	require.Equal(pingResponse{Seq: 2}, resp)
}
