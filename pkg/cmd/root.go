package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/catalog"
	"github.com/pseudomuto/dbmover/pkg/catalog/clickhouse"
	"github.com/pseudomuto/dbmover/pkg/catalog/mysql"
	"github.com/pseudomuto/dbmover/pkg/catalog/postgres"
	"github.com/pseudomuto/dbmover/pkg/config"
	"github.com/pseudomuto/dbmover/pkg/consts"
	"github.com/pseudomuto/dbmover/pkg/dialect"
	"github.com/pseudomuto/dbmover/pkg/logging"
	"github.com/pseudomuto/dbmover/pkg/schema"
	"github.com/pseudomuto/dbmover/pkg/source"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

type (
	// Version describes the running build.
	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}

	// env is shared by every command and populated by the root Before hook.
	env struct {
		cfg    *config.Config
		logger zerolog.Logger
	}
)

// connect opens a catalog connection for the configured dialect. Tests replace
// it to avoid reaching a real database.
var connect = func(ctx context.Context, cfg *config.Config) (catalog.Conn, error) {
	switch cfg.Dialect {
	case dialect.MySQL:
		c, err := mysql.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return c, nil
	case dialect.Postgres:
		c, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return c, nil
	case dialect.ClickHouse:
		var opts []clickhouse.Option
		if settings := clickhouse.TLSSettings(cfg.TLS); settings.Enabled() {
			tlsConfig, err := clickhouse.LoadTLSConfig(settings)
			if err != nil {
				return nil, err
			}
			opts = append(opts, clickhouse.WithTLS(tlsConfig))
		}

		c, err := clickhouse.Open(ctx, cfg.DSN, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errors.Wrapf(dialect.ErrUnknownDialect, "%q", cfg.Dialect)
	}
}

// Run creates and executes the dbmover CLI with the given version and
// command-line arguments.
//
// Example usage:
//
//	err := Run(ctx, Version{Version: "v1.0.0"}, []string{"dbmover", "plan", "--offline"})
func Run(ctx context.Context, v Version, args []string) error {
	return NewApp(v, os.Stdout, os.Stderr).Run(ctx, args)
}

// NewApp builds the root command. Command output goes to stdout and logs go to
// stderr.
func NewApp(v Version, stdout, stderr io.Writer) *cli.Command {
	e := new(env)

	return &cli.Command{
		Name:  "dbmover",
		Usage: "Converge MySQL, Postgres and ClickHouse tables to a declared schema",
		Description: `dbmover reads CREATE TABLE and ALTER TABLE statements, compares them with
the tables of a live database and plans the statements needed to make the
database match. Creates and alters run first; drops of undeclared tables run
last.`,
		Version:   v.Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "the dbmover config file",
				Sources: cli.EnvVars("DBMOVER_CONFIG"),
				Value:   consts.DefaultConfigFile,
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:    "dialect",
				Usage:   "database family: mysql, postgres or clickhouse",
				Sources: cli.EnvVars("DBMOVER_DIALECT"),
			},
			&cli.StringFlag{
				Name:    "dsn",
				Usage:   "connection string of the target database",
				Sources: cli.EnvVars("DBMOVER_DSN"),
			},
			&cli.StringFlag{
				Name:  "schema",
				Usage: "catalog schema to reconcile (defaults per dialect)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return ctx, err
			}

			logger, err := logging.New(cfg.Log, stderr)
			if err != nil {
				return ctx, err
			}

			e.cfg = cfg
			e.logger = logger
			return logger.WithContext(ctx), nil
		},
		Commands: []*cli.Command{
			planCmd(e),
			applyCmd(e),
			serveCmd(e),
		},
	}
}

// loadConfig reads the config file when it exists and applies flag overrides.
// A missing file is only an error when its path was given explicitly.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")

	var cfg *config.Config
	if _, err := os.Stat(path); err == nil {
		if cfg, err = config.LoadConfigFile(path); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) && !cmd.IsSet("config") {
		cfg = config.Default()
	} else {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}

	if cmd.IsSet("dialect") {
		d, err := dialect.Parse(cmd.String("dialect"))
		if err != nil {
			return nil, err
		}
		cfg.Dialect = d
	}

	if cmd.IsSet("dsn") {
		cfg.DSN = cmd.String("dsn")
	}

	if cmd.IsSet("schema") {
		cfg.Schema = cmd.String("schema")
	}

	if cmd.IsSet("log-level") {
		cfg.Log.Level = strings.ToLower(cmd.String("log-level"))
	}

	return cfg, nil
}

// loadScript compiles the declared schema from the entrypoint flag or the
// configured entrypoint.
func loadScript(ctx context.Context, cmd *cli.Command, cfg *config.Config) (string, error) {
	location := cfg.Entrypoint
	if cmd.IsSet("entrypoint") {
		location = cmd.String("entrypoint")
	}

	if location == "" {
		return "", errors.New("entrypoint is required")
	}

	var store source.ObjectStore
	if cfg.S3.Endpoint != "" {
		s3, err := source.NewS3Store(source.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return "", err
		}
		store = s3
	}

	script, err := source.NewLoader(store).Load(ctx, location)
	if err != nil {
		return "", errors.Wrap(err, "failed to load schema")
	}

	return script, nil
}

func reconcileOptions(cfg *config.Config) schema.Options {
	return schema.Options{
		SkipDrop:     cfg.SkipDrop,
		IgnoreTables: cfg.IgnoreTables,
		Strict:       cfg.Strict,
	}
}

func entrypointFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "entrypoint",
		Aliases: []string{"e"},
		Usage:   "schema file, directory or s3:// location (overrides the config)",
	}
}

func writeResidual(w io.Writer, residual string) {
	if strings.TrimSpace(residual) == "" {
		return
	}

	fmt.Fprintln(w, "\n-- Residual:")
	fmt.Fprintln(w, strings.TrimSpace(residual))
}
