package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/catalog"
	"github.com/pseudomuto/dbmover/pkg/config"
	"github.com/pseudomuto/dbmover/pkg/consts"
	"github.com/pseudomuto/dbmover/pkg/dialect"
	"github.com/pseudomuto/dbmover/pkg/utils"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"
)

const usersSchema = `CREATE TABLE users (
  id BIGSERIAL PRIMARY KEY,
  email TEXT NOT NULL
);

ALTER TABLE users ADD CONSTRAINT users_email_key UNIQUE (email);

CREATE INDEX users_email ON users (email);
`

// failingConn is a catalog that inspects fine but rejects every statement.
type failingConn struct {
	*catalog.Static
	err error
}

func (f failingConn) Exec(context.Context, string) error { return f.err }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), consts.ModeFile))

	return path
}

// useConn replaces connect for the duration of the test.
func useConn(t *testing.T, conn catalog.Conn) *config.Config {
	t.Helper()

	var seen config.Config
	orig := connect
	connect = func(_ context.Context, cfg *config.Config) (catalog.Conn, error) {
		seen = *cfg
		return conn, nil
	}
	t.Cleanup(func() { connect = orig })

	return &seen
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := NewApp(Version{Version: "test"}, &stdout, &stderr).
		Run(context.Background(), append([]string{"dbmover"}, args...))

	return stdout.String(), err
}

func TestPlanCommand(t *testing.T) {
	dir := t.TempDir()
	entrypoint := writeFile(t, dir, "schema.sql", usersSchema)

	t.Run("offline", func(t *testing.T) {
		out, err := run(t, "--dialect", "pg", "--log-level", "error", "plan", "--offline", "--entrypoint", entrypoint)
		require.NoError(t, err)
		golden.Assert(t, out, "plan_offline.golden")
	})

	t.Run("against a live catalog", func(t *testing.T) {
		cat := catalog.NewStatic(dialect.Postgres).
			AddTable("users",
				catalog.Column{Name: "id", Type: "int8", IsNullable: "NO", PrimaryKey: true, Default: utils.Ptr("nextval('users_id_seq'::regclass)")},
				catalog.Column{Name: "email", Type: "text", IsNullable: "NO"},
			).
			AddTable("legacy", catalog.Column{Name: "id", Type: "int4", IsNullable: "NO"})
		seen := useConn(t, cat)

		cfg := writeFile(t, dir, "dbmover.yaml", `dialect: postgres
dsn: postgres://localhost/app
entrypoint: `+entrypoint+`
log:
  level: error
`)

		out, err := run(t, "--config", cfg, "plan")
		require.NoError(t, err)
		require.Equal(t, "postgres://localhost/app", seen.DSN)
		require.Equal(t, `-- Applying table alterations...
ALTER TABLE users ADD CONSTRAINT users_email_key UNIQUE (email);

-- Dropping deprecated tables...
DROP TABLE legacy;

-- Residual:
CREATE INDEX users_email ON users (email);
`, out)
		require.Empty(t, cat.Executed())
	})

	t.Run("no changes", func(t *testing.T) {
		cat := catalog.NewStatic(dialect.MySQL).AddTable("widgets",
			catalog.Column{Name: "id", Type: "int", IsNullable: "NO"},
		)
		useConn(t, cat)
		widgets := writeFile(t, dir, "widgets.sql", "CREATE TABLE widgets (\n  id INT NOT NULL\n);\n")

		out, err := run(t, "--dialect", "mysql", "--dsn", "root@tcp(localhost)/app", "--log-level", "error", "plan", "-e", widgets)
		require.NoError(t, err)
		require.Equal(t, "-- No changes\n", out)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := run(t, "plan", "--offline", "--entrypoint", entrypoint)
		require.ErrorContains(t, err, "dialect is required")

		_, err = run(t, "--dialect", "mysql", "plan", "--offline")
		require.ErrorContains(t, err, "entrypoint is required")

		_, err = run(t, "--dialect", "mysql", "plan", "--entrypoint", entrypoint)
		require.ErrorContains(t, err, "dsn is required")

		_, err = run(t, "--dialect", "oracle", "plan")
		require.ErrorIs(t, err, dialect.ErrUnknownDialect)

		_, err = run(t, "--config", filepath.Join(dir, "missing.yaml"), "plan")
		require.ErrorContains(t, err, "failed to open file")

		_, err = run(t, "--dialect", "mysql", "plan", "--offline", "--entrypoint", filepath.Join(dir, "missing.sql"))
		require.ErrorContains(t, err, "failed to load schema")
	})
}

func TestApplyCommand(t *testing.T) {
	dir := t.TempDir()
	entrypoint := writeFile(t, dir, "schema.sql", usersSchema)

	t.Run("executes operations in order", func(t *testing.T) {
		cat := catalog.NewStatic(dialect.Postgres).
			AddTable("legacy", catalog.Column{Name: "id", Type: "int4", IsNullable: "NO"})
		useConn(t, cat)

		out, err := run(t, "--dialect", "postgres", "--dsn", "postgres://localhost/app", "--log-level", "error",
			"apply", "--entrypoint", entrypoint)
		require.NoError(t, err)
		require.Equal(t, []string{
			"CREATE TABLE users (\n  id BIGSERIAL PRIMARY KEY,\n  email TEXT NOT NULL\n);",
			"ALTER TABLE users ADD CONSTRAINT users_email_key UNIQUE (email);",
			"DROP TABLE legacy;",
		}, cat.Executed())
		require.Contains(t, out, "success Creating table users... (1/1) h1:")
		require.Contains(t, out, "success Dropping deprecated tables... (1/1) h1:")
		require.Contains(t, out, "-- Residual:\nCREATE INDEX users_email ON users (email);")
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		boom := errors.New("permission denied")
		useConn(t, failingConn{Static: catalog.NewStatic(dialect.Postgres), err: boom})

		out, err := run(t, "--dialect", "postgres", "--dsn", "postgres://localhost/app", "--log-level", "error",
			"apply", "--entrypoint", entrypoint)
		require.ErrorIs(t, err, boom)
		require.Contains(t, out, "failed  Creating table users... (0/1)")
		require.NotContains(t, out, "Residual")
	})

	t.Run("requires a dsn", func(t *testing.T) {
		_, err := run(t, "--dialect", "postgres", "apply", "--entrypoint", entrypoint)
		require.ErrorContains(t, err, "dsn is required")
	})
}

func TestServeCommand_RequiresConfig(t *testing.T) {
	_, err := run(t, "serve")
	require.ErrorContains(t, err, "dialect is required")
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dbmover.yaml", `dialect: mysql
dsn: root@tcp(db)/app
schema: app
log:
  level: warn
`)

	cat := catalog.NewStatic(dialect.Postgres)
	seen := useConn(t, cat)
	entrypoint := writeFile(t, dir, "schema.sql", "CREATE TABLE a (\n  id INT\n);\n")

	_, err := run(t, "--config", path, "--dialect", "postgresql", "--dsn", "postgres://other/app", "--schema", "billing",
		"--log-level", "ERROR", "plan", "--entrypoint", entrypoint)
	require.NoError(t, err)
	require.Equal(t, dialect.Postgres, seen.Dialect)
	require.Equal(t, "postgres://other/app", seen.DSN)
	require.Equal(t, "billing", seen.Schema)
	require.Equal(t, "error", seen.Log.Level)
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown dialect", func(t *testing.T) {
		_, err := connect(ctx, &config.Config{Dialect: dialect.Dialect("oracle")})
		require.ErrorIs(t, err, dialect.ErrUnknownDialect)
	})

	t.Run("invalid mysql dsn", func(t *testing.T) {
		_, err := connect(ctx, &config.Config{Dialect: dialect.MySQL, DSN: "not a dsn"})
		require.ErrorContains(t, err, "invalid mysql dsn")
	})

	t.Run("clickhouse tls files are loaded first", func(t *testing.T) {
		_, err := connect(ctx, &config.Config{
			Dialect: dialect.ClickHouse,
			DSN:     "localhost:9000",
			TLS:     config.TLS{CertFile: "missing.crt", KeyFile: "missing.key", CAFile: "missing.crt"},
		})
		require.ErrorContains(t, err, "unable to load certfile/keyfile")
	})
}
