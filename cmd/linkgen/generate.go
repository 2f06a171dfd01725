// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/link/compiler"
	"github.com/luxfi/link/model"
)

var errOutputWithMany = errors.New("-o names one file but several descriptions were given")

// outputPath is todo_link.go for todo.link.toml, next to the input
func outputPath(input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, ".link")
	return filepath.Join(filepath.Dir(input), base+"_link.go")
}

// generate compiles every input concurrently and writes the outputs only
// once all of them compiled. out, if set, is resolved against the directory
// of the single input.
func generate(ctx context.Context, log zerolog.Logger, cfg config, inputs []string, out string) error {
	if out != "" && len(inputs) > 1 {
		return errOutputWithMany
	}

	files := make([]generated, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		dest := outputPath(input)
		if out != "" {
			dest = out
			if !filepath.IsAbs(dest) {
				dest = filepath.Join(filepath.Dir(input), dest)
			}
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			file, err := compileOne(cfg, input, dest)
			if err != nil {
				return err
			}
			files[i] = file
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, file := range files {
		if err := os.WriteFile(file.dest, file.src, 0o644); err != nil {
			return err
		}
		log.Info().
			Str("input", file.input).
			Str("output", file.dest).
			Int("services", file.services).
			Msg("generated")
	}
	return nil
}

type generated struct {
	input    string
	dest     string
	src      []byte
	services int
}

func compileOne(cfg config, input, dest string) (generated, error) {
	schema, err := model.Load(input)
	if err != nil {
		return generated{}, err
	}
	opts := cfg.options()
	opts.Source = filepath.Base(input)
	src, err := compiler.Compile(schema, opts)
	if err != nil {
		return generated{}, fmt.Errorf("%s: %w", input, err)
	}
	return generated{input: input, dest: dest, src: src, services: len(schema.Services)}, nil
}
