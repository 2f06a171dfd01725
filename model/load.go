// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a description file syntax
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown description format %q", ErrInvalidDescription, filepath.Ext(path))
	}
}

// Load reads, decodes and parses the description file at path
func Load(path string) (*Schema, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	schema, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return schema, nil
}

// Decode decodes a description in format and parses it. Unknown keys are
// rejected.
func Decode(r io.Reader, format Format) (*Schema, error) {
	raw, err := DecodeRaw(r, format)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// DecodeRaw decodes a description without validating it
func DecodeRaw(r io.Reader, format Format) (*RawSchema, error) {
	var raw RawSchema
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown keys %v", ErrInvalidDescription, undecoded)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown description format %q", ErrInvalidDescription, format)
	}
	return &raw, nil
}
