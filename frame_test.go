// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	sent := frame{typ: frameRequest, id: 42, method: "get_todo", payload: []byte(`{"method":"get_todo","args":["x"]}`)}
	require.NoError(writeFrame(&buf, sent))
	require.NoError(writeFrame(&buf, replyFrame(42, nil, errors.New("boom"))))

	got, err := readFrame(&buf)
	require.NoError(err)
	require.Equal(sent, got)

	reply, err := readFrame(&buf)
	require.NoError(err)
	require.Equal(frameError, reply.typ)
	require.Equal(uint32(42), reply.id)
	require.Equal("boom", string(reply.payload))
}

func TestParseFrameRejects(t *testing.T) {
	_, err := parseFrame([]byte{1, 0, 0})
	require.ErrorIs(t, err, ErrFrameInvalid)

	body := frame{typ: frameRequest, method: "abc"}.marshal()
	binary.BigEndian.PutUint16(body[5:7], 200)
	_, err = parseFrame(body)
	require.ErrorIs(t, err, ErrFrameInvalid)
}

func TestReadFrameRejectsSize(t *testing.T) {
	var header [4]byte
	_, err := readFrame(bytes.NewReader(header[:]))
	require.ErrorIs(t, err, ErrFrameTooLarge)

	binary.BigEndian.PutUint32(header[:], maxFrameSize+1)
	_, err = readFrame(bytes.NewReader(header[:]))
	require.ErrorIs(t, err, ErrFrameTooLarge)
}
