// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package logging builds the zerolog loggers of the link commands.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/luxfi/link"
)

// Config is read from the environment
type Config struct {
	Level   string `env:"LINK_LOG_LEVEL" envDefault:"info"`
	NoColor bool   `env:"LINK_LOG_NOCOLOR"`
	// JSON switches from the console writer to plain JSON lines
	JSON bool `env:"LINK_LOG_JSON"`
}

// ConfigFromEnv parses Config from LINK_LOG_* variables
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// New returns a logger for app writing to w. It also becomes the global
// zerolog logger and the logger of the link runtime.
func New(app string, w io.Writer, cfg Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    cfg.NoColor,
			TimeFormat: time.RFC3339,
		}
	}
	logger := zerolog.New(out).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	link.SetLogger(logger)
	return logger, nil
}
