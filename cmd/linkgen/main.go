// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command linkgen compiles service descriptions (.toml, .yaml or .json) into
// Go wire, server and client code.
//
//	linkgen [-config linkgen.toml] [-o out.go] [-package name] desc.link.toml...
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/luxfi/link/internal/logging"
)

const defaultConfig = "linkgen.toml"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "linkgen:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "linkgen"
	app.Usage = "generate Go code from link service descriptions"
	app.ArgsUsage = "description..."
	app.HideVersion = true

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "config file path",
			Value: defaultConfig,
		},
		cli.StringFlag{
			Name:  "out, o",
			Usage: "output file, relative to the description (single description only)",
		},
		cli.StringFlag{
			Name:  "package, p",
			Usage: "package name of the generated file, overrides the description",
		},
		cli.StringFlag{
			Name:  "runtime-import",
			Usage: "import path of the link runtime",
		},
	}
	app.Action = run
	return app
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("no description files given", 2)
	}

	logCfg, err := logging.ConfigFromEnv()
	if err != nil {
		return err
	}
	log, err := logging.New("linkgen", os.Stderr, logCfg)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c.String("config"), c.IsSet("config"))
	if err != nil {
		return err
	}
	if c.IsSet("package") {
		cfg.Package = c.String("package")
	}
	if c.IsSet("runtime-import") {
		cfg.RuntimeImport = c.String("runtime-import")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return generate(ctx, log, cfg, c.Args(), c.String("out"))
}
