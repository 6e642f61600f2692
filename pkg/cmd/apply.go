package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/executor"
	"github.com/pseudomuto/dbmover/pkg/schema"
	"github.com/urfave/cli/v3"
)

// applyCmd creates a CLI command that reconciles the database and executes the
// resulting operations as they are delivered.
//
// Execution stops at the first failing statement. Statements applied before it
// stay applied; running apply again after fixing the cause picks up where it
// stopped, since reconciliation only plans what still differs.
//
// The residual script is printed rather than executed.
func applyCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Converge the database to the declared schema",
		Flags: []cli.Flag{
			entrypointFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := e.cfg.Validate(); err != nil {
				return err
			}

			script, err := loadScript(ctx, cmd, e.cfg)
			if err != nil {
				return err
			}

			conn, err := connect(ctx, e.cfg)
			if err != nil {
				return errors.Wrap(err, "failed to connect")
			}
			defer func() { _ = conn.Close() }()

			exec := executor.New(executor.Config{DB: conn})
			residual, reconcileErr := schema.NewReconciler(schema.NewInspector(conn, e.cfg.Schema), exec, reconcileOptions(e.cfg)).
				Reconcile(ctx, script)

			results := exec.Results()
			for _, r := range results {
				fmt.Fprintf(cmd.Writer, "%-7s %s (%d/%d) %s\n",
					r.Status, r.Description, r.StatementsApplied, r.TotalStatements, r.Hash)
			}

			if reconcileErr != nil {
				return errors.Wrap(reconcileErr, "failed to apply")
			}

			if len(results) == 0 {
				fmt.Fprintln(cmd.Writer, "No changes")
			}

			writeResidual(cmd.Writer, residual)
			return nil
		},
	}
}
