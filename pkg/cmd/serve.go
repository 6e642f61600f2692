package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/server"
	"github.com/urfave/cli/v3"
)

// serveCmd creates a CLI command that serves POST /plan until interrupted.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve reconciliation plans over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address (overrides server.addr)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := e.cfg.Validate(); err != nil {
				return err
			}

			addr := e.cfg.Server.Addr
			if cmd.IsSet("addr") {
				addr = cmd.String("addr")
			}

			conn, err := connect(ctx, e.cfg)
			if err != nil {
				return errors.Wrap(err, "failed to connect")
			}
			defer func() { _ = conn.Close() }()

			return server.New(server.Config{
				Addr:    addr,
				Catalog: conn,
				Schema:  e.cfg.Schema,
				Options: reconcileOptions(e.cfg),
				Logger:  e.logger,
			}).Serve(ctx)
		},
	}
}
