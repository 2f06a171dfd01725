// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command todo serves the todo example service over any link transport and
// calls it from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli"

	"github.com/luxfi/link"
	"github.com/luxfi/link/examples/todo"
	"github.com/luxfi/link/internal/logging"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "todo:", err)
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	var (
		cfg config
		log zerolog.Logger
	)

	app := cli.NewApp()
	app.Name = "todo"
	app.Usage = "todo list over link"
	app.HideVersion = true
	app.Writer = stdout

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "addr, a", Usage: "server address (TODO_ADDR)"},
		cli.StringFlag{Name: "transport, t", Usage: "one of tcp, http, jsonrpc, ws, grpc (TODO_TRANSPORT)"},
		cli.StringFlag{Name: "codec", Usage: "json or cbor (TODO_CODEC)"},
	}
	app.Before = func(c *cli.Context) error {
		var err error
		if cfg, err = configFromEnv(); err != nil {
			return err
		}
		if c.IsSet("addr") {
			cfg.Addr = c.String("addr")
		}
		if c.IsSet("transport") {
			cfg.Transport = c.String("transport")
		}
		if c.IsSet("codec") {
			cfg.Codec = c.String("codec")
		}
		logCfg, err := logging.ConfigFromEnv()
		if err != nil {
			return err
		}
		log, err = logging.New("todo", os.Stderr, logCfg)
		return err
	}

	app.Commands = []cli.Command{
		{
			Name:  "serve",
			Usage: "serve an in-memory todo list",
			Action: func(c *cli.Context) error {
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return serve(ctx, log, cfg, nil)
			},
		},
		{
			Name:  "list",
			Usage: "print every todo",
			Action: func(c *cli.Context) error {
				return withClient(cfg, func(ctx context.Context, client todo.TodoServiceClient) error {
					todos, err := client.GetTodos(ctx)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, todos)
				})
			},
		},
		{
			Name:      "get",
			Usage:     "print one todo",
			ArgsUsage: "name",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.NewExitError("get takes a name", 2)
				}
				return withClient(cfg, func(ctx context.Context, client todo.TodoServiceClient) error {
					t, err := client.GetTodo(ctx, c.Args().First())
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, t)
				})
			},
		},
		{
			Name:      "add",
			Usage:     "append a todo",
			ArgsUsage: "name [description]",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 || c.NArg() > 2 {
					return cli.NewExitError("add takes a name and an optional description", 2)
				}
				t := todo.Todo{Name: c.Args().Get(0), Description: c.Args().Get(1)}
				return withClient(cfg, func(ctx context.Context, client todo.TodoServiceClient) error {
					return client.NewTodo(ctx, t)
				})
			},
		},
	}
	return app
}

// serve runs a todo server until ctx ends. ready, if set, gets the bound
// address once the server is registered.
func serve(ctx context.Context, log zerolog.Logger, cfg config, ready func(addr string)) error {
	codec, err := cfg.validate()
	if err != nil {
		return err
	}
	server, err := link.Listen(cfg.Addr,
		link.WithServerTransport(cfg.Transport),
		link.WithServerCodec(codec),
	)
	if err != nil {
		return err
	}
	defer server.Close()

	handler := link.NewTraceHandler("TodoService", todo.NewTodoServiceHandler(todo.NewStore()), nil)
	if err := server.Register(link.NewEndpoint(codec, todo.TodoServiceProtocol(), handler)); err != nil {
		return err
	}

	log.Info().
		Str("addr", server.Addr()).
		Str("transport", cfg.Transport).
		Str("codec", codec.Name()).
		Msg("serving")
	if ready != nil {
		ready(server.Addr())
	}
	err = server.Serve(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func withClient(cfg config, call func(context.Context, todo.TodoServiceClient) error) error {
	codec, err := cfg.validate()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	conn, err := link.Dial(ctx, cfg.Addr,
		link.WithTransport(cfg.Transport),
		link.WithCodec(codec),
	)
	if err != nil {
		return err
	}
	defer conn.Close()
	return call(ctx, todo.NewTodoServiceClient(link.Bind(conn, codec, todo.TodoServiceProtocol())))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
