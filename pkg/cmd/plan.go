package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/catalog"
	"github.com/pseudomuto/dbmover/pkg/schema"
	"github.com/urfave/cli/v3"
)

// planCmd creates a CLI command that prints the operations needed to converge
// the database to the declared schema without executing them.
//
// Output is a SQL script: each operation group is introduced by its
// description as a comment, and whatever the declared schema holds besides
// tables (views, indexes, inserts) follows under a Residual comment.
//
// With --offline the plan is computed against an empty catalog, which shows
// the statements a fresh database would receive.
//
// Example usage:
//
//	dbmover plan
//	dbmover plan --offline --dialect postgres --entrypoint db/schema.sql
func planCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Print the statements needed to converge the database (dry run)",
		Flags: []cli.Flag{
			entrypointFlag(),
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "plan against an empty catalog instead of connecting",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if e.cfg.Dialect == "" {
				return errors.New("dialect is required")
			}

			script, err := loadScript(ctx, cmd, e.cfg)
			if err != nil {
				return err
			}

			var cat catalog.Catalog = catalog.NewStatic(e.cfg.Dialect)
			if !cmd.Bool("offline") {
				if err := e.cfg.Validate(); err != nil {
					return err
				}

				conn, err := connect(ctx, e.cfg)
				if err != nil {
					return errors.Wrap(err, "failed to connect")
				}
				defer func() { _ = conn.Close() }()

				cat = conn
			}

			plan := schema.NewPlan()
			residual, err := schema.NewReconciler(schema.NewInspector(cat, e.cfg.Schema), plan, reconcileOptions(e.cfg)).
				Reconcile(ctx, script)
			if err != nil {
				return errors.Wrap(err, "failed to plan")
			}

			if plan.Empty() {
				fmt.Fprintln(cmd.Writer, "-- No changes")
			} else if _, err := plan.WriteTo(cmd.Writer); err != nil {
				return errors.Wrap(err, "failed to write plan")
			}

			writeResidual(cmd.Writer, residual)
			return nil
		},
	}
}
