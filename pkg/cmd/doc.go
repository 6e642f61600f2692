// Package cmd provides the CLI commands for dbmover.
//
// # Available Commands
//
//   - plan: print the operations needed to converge a database to the declared schema
//   - apply: reconcile and execute the operations, stopping at the first failure
//   - serve: expose planning over HTTP
//
// Each command is implemented as a function returning a *cli.Command, following
// the urfave/cli/v3 pattern. Commands share an env that the root command fills
// in before they run: the loaded configuration and the process logger.
//
// # Global Options
//
//   - --config, -c: configuration file (defaults to dbmover.yaml, optional)
//   - --dialect, --dsn, --schema: override the matching configuration keys
//   - --log-level: override log.level
//
// # Example Usage
//
//	dbmover plan                                   # dry run against the configured database
//	dbmover plan --offline --entrypoint db/        # plan against an empty catalog
//	dbmover apply --entrypoint s3://schemas/app/   # converge from a bucket prefix
//	dbmover serve --addr :8080                     # POST a script to /plan
package cmd
