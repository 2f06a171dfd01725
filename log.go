// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logPtr atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	logPtr.Store(&nop)
}

// SetLogger sets the logger used by the transport bindings and endpoints.
// The default discards everything.
func SetLogger(l zerolog.Logger) {
	l = l.With().Str("component", "link").Logger()
	logPtr.Store(&l)
}

func logger() *zerolog.Logger {
	return logPtr.Load()
}
