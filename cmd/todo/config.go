// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/luxfi/link"
)

type config struct {
	Addr      string        `env:"TODO_ADDR" envDefault:"127.0.0.1:7070"`
	Transport string        `env:"TODO_TRANSPORT" envDefault:"tcp"`
	Codec     string        `env:"TODO_CODEC" envDefault:"json"`
	Timeout   time.Duration `env:"TODO_TIMEOUT" envDefault:"10s"`
}

func configFromEnv() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c config) validate() (link.Codec, error) {
	if !link.HasTransport(c.Transport) {
		return nil, fmt.Errorf("unknown transport %q, have %v", c.Transport, link.AvailableTransports())
	}
	return link.CodecByName(c.Codec)
}
