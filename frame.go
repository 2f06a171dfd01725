// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	ErrFrameTooLarge = errors.New("link: frame too large")
	ErrFrameInvalid  = errors.New("link: invalid frame")
)

// frameType identifies frame kinds shared by the tcp, ws and grpc bindings
type frameType uint8

const (
	frameRequest  frameType = 0x01
	frameResponse frameType = 0x02
	frameError    frameType = 0x03
)

// maxFrameSize bounds a single frame body (64MB)
const maxFrameSize = 64 * 1024 * 1024

// frame body: [1 type][4 id][2 methodLen][method][payload]
type frame struct {
	typ     frameType
	id      uint32
	method  string
	payload []byte
}

const frameHeaderLen = 1 + 4 + 2

func (f frame) marshal() []byte {
	buf := make([]byte, frameHeaderLen+len(f.method)+len(f.payload))
	buf[0] = byte(f.typ)
	binary.BigEndian.PutUint32(buf[1:5], f.id)
	binary.BigEndian.PutUint16(buf[5:7], uint16(len(f.method)))
	copy(buf[frameHeaderLen:], f.method)
	copy(buf[frameHeaderLen+len(f.method):], f.payload)
	return buf
}

func parseFrame(msg []byte) (frame, error) {
	if len(msg) < frameHeaderLen {
		return frame{}, fmt.Errorf("%w: %d byte body", ErrFrameInvalid, len(msg))
	}
	methodLen := int(binary.BigEndian.Uint16(msg[5:7]))
	if len(msg) < frameHeaderLen+methodLen {
		return frame{}, fmt.Errorf("%w: method overruns body", ErrFrameInvalid)
	}
	return frame{
		typ:     frameType(msg[0]),
		id:      binary.BigEndian.Uint32(msg[1:5]),
		method:  string(msg[frameHeaderLen : frameHeaderLen+methodLen]),
		payload: msg[frameHeaderLen+methodLen:],
	}, nil
}

// writeFrame writes f with a 4 byte length prefix
func writeFrame(w io.Writer, f frame) error {
	body := f.marshal()
	if len(body) > maxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(body)))
	copy(buf[4:], body)
	_, err := w.Write(buf)
	return err
}

// readFrame reads one length-prefixed frame
func readFrame(r io.Reader) (frame, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return frame{}, err
	}
	msgLen := binary.BigEndian.Uint32(header)
	if msgLen == 0 || msgLen > maxFrameSize {
		return frame{}, ErrFrameTooLarge
	}
	msg := make([]byte, msgLen)
	if _, err := io.ReadFull(r, msg); err != nil {
		return frame{}, err
	}
	return parseFrame(msg)
}

// replyFrame turns a handler result into a response or error frame
func replyFrame(id uint32, data []byte, err error) frame {
	if err != nil {
		return frame{typ: frameError, id: id, payload: []byte(err.Error())}
	}
	return frame{typ: frameResponse, id: id, payload: data}
}

// remoteError is an error reported by the far side of a connection
type remoteError string

func (e remoteError) Error() string {
	return "remote: " + string(e)
}
