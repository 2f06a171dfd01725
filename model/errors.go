// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package model

import (
	"errors"
	"strings"
)

var (
	ErrUnsupportedFeature  = errors.New("model: unsupported feature")
	ErrInvalidReceiver     = errors.New("model: invalid receiver")
	ErrUnsupportedModifier = errors.New("model: unsupported modifier")
	ErrInvalidReturnType   = errors.New("model: invalid return type")
	ErrDuplicateName       = errors.New("model: duplicate name")
	ErrInvalidDescription  = errors.New("model: invalid description")
)

// ParseError locates a rejected construct. Kind is one of the sentinels
// above, so errors.Is(err, ErrInvalidReceiver) works on it.
type ParseError struct {
	Kind    error
	Service string
	Method  string
	Detail  string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Service != "" {
		b.WriteString(": ")
		b.WriteString(e.Service)
		if e.Method != "" {
			b.WriteString(".")
			b.WriteString(e.Method)
		}
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}
