// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"encoding/json"
	"fmt"
	"mime"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Codec encodes/decodes wire envelopes. Any self-describing format that can
// carry a tagged value with a positional argument list works.
type Codec interface {
	Name() string
	ContentType() string
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSONCodec is a JSON-based codec
type JSONCodec struct{}

func (JSONCodec) Name() string        { return "json" }
func (JSONCodec) ContentType() string { return "application/json" }

func (JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	if cborEnc, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(fmt.Sprintf("link: cbor encoder: %v", err))
	}
	if cborDec, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(fmt.Sprintf("link: cbor decoder: %v", err))
	}
}

// CBORCodec encodes with deterministic core CBOR (RFC 8949)
type CBORCodec struct{}

func (CBORCodec) Name() string        { return "cbor" }
func (CBORCodec) ContentType() string { return "application/cbor" }

func (CBORCodec) Encode(v any) ([]byte, error) {
	return cborEnc.Marshal(v)
}

func (CBORCodec) Decode(data []byte, v any) error {
	return cborDec.Unmarshal(data, v)
}

// DefaultCodec is used when no codec is specified
var DefaultCodec Codec = JSONCodec{}

var (
	codecsMu sync.RWMutex
	codecs   = map[string]Codec{
		"json": JSONCodec{},
		"cbor": CBORCodec{},
	}
)

// RegisterCodec makes c available to CodecByName and CodecForContentType
func RegisterCodec(c Codec) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	codecs[c.Name()] = c
}

// CodecByName returns the registered codec called name
func CodecByName(name string) (Codec, error) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
	return c, nil
}

// CodecForContentType returns the registered codec for an HTTP content
// type. Media type parameters such as charset are ignored.
func CodecForContentType(contentType string) (Codec, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, false
	}
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	for _, c := range codecs {
		if c.ContentType() == mediaType {
			return c, true
		}
	}
	return nil, false
}

// AvailableCodecs returns the registered codec names, sorted
func AvailableCodecs() []string {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
