// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/luxfi/link/compiler"
)

// config is layered: the toml file, then LINKGEN_* variables, then flags
type config struct {
	RuntimeImport string `toml:"runtime_import" env:"LINKGEN_RUNTIME_IMPORT"`
	Header        string `toml:"header" env:"LINKGEN_HEADER"`
	Package       string `toml:"package" env:"LINKGEN_PACKAGE"`
}

// loadConfig reads path and applies the environment on top. A missing
// file is only an error when required is set.
func loadConfig(path string, required bool) (config, error) {
	var cfg config
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !required:
		case err != nil:
			return config{}, fmt.Errorf("config %s: %w", path, err)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c config) options() compiler.Options {
	return compiler.Options{
		Package:       c.Package,
		RuntimeImport: c.RuntimeImport,
		Header:        c.Header,
	}
}
