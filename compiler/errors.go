// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compiler

import "errors"

var (
	ErrUnknownService      = errors.New("compiler: unknown service")
	ErrCyclicService       = errors.New("compiler: cyclic service reference")
	ErrTypeArgCount        = errors.New("compiler: wrong number of type arguments")
	ErrIdentifierCollision = errors.New("compiler: generated identifiers collide")
	ErrNoPackage           = errors.New("compiler: no package name")
)
