package mysql_test

import (
	"context"
	"testing"

	"github.com/pseudomuto/dbmover/pkg/catalog"
	. "github.com/pseudomuto/dbmover/pkg/catalog/mysql"
	"github.com/pseudomuto/dbmover/pkg/dialect"
	"github.com/pseudomuto/dbmover/pkg/docker"
	"github.com/pseudomuto/dbmover/pkg/utils"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

func TestOpen_InvalidDSN(t *testing.T) {
	_, err := Open(context.Background(), "not a dsn")
	require.ErrorContains(t, err, "invalid mysql dsn")
}

func TestCatalog(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container := docker.New(dialect.MySQL)
	require.NoError(t, container.Start(ctx))
	t.Cleanup(func() { _ = container.Stop(ctx) })

	dsn, err := container.DSN(ctx)
	require.NoError(t, err)

	cat, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	require.Equal(t, dialect.MySQL, cat.Dialect())
	require.NoError(t, cat.Exec(ctx, `CREATE TABLE users (
  id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  email VARCHAR(255) NOT NULL,
  name VARCHAR(100) DEFAULT 'anonymous',
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`))
	require.NoError(t, cat.Exec(ctx, "CREATE VIEW user_emails AS SELECT email FROM users"))

	t.Run("TableExists", func(t *testing.T) {
		exists, err := cat.TableExists(ctx, "", "users")
		require.NoError(t, err)
		require.True(t, exists)

		exists, err = cat.TableExists(ctx, "", "user_emails")
		require.NoError(t, err)
		require.False(t, exists)

		exists, err = cat.TableExists(ctx, "mysql", "users")
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("ListBaseTables", func(t *testing.T) {
		tables, err := cat.ListBaseTables(ctx, docker.DefaultDatabase)
		require.NoError(t, err)
		require.Equal(t, []string{"users"}, tables)
	})

	t.Run("ListColumns", func(t *testing.T) {
		cols, err := cat.ListColumns(ctx, "", "users")
		require.NoError(t, err)
		require.Equal(t, []catalog.Column{
			{Name: "id", IsNullable: "NO", Type: "int unsigned", PrimaryKey: true},
			{Name: "email", IsNullable: "NO", Type: "varchar(255)"},
			{Name: "name", IsNullable: "YES", Type: "varchar(100)", Default: utils.Ptr("anonymous")},
			{
				Name:       "updated_at",
				IsNullable: "NO",
				Type:       "timestamp",
				Default:    utils.Ptr("CURRENT_TIMESTAMP"),
				OnUpdate:   utils.Ptr("CURRENT_TIMESTAMP"),
			},
		}, cols)
	})

	t.Run("Exec errors", func(t *testing.T) {
		require.ErrorContains(t, cat.Exec(ctx, "ALTER TABLE missing ADD COLUMN x INT"), "failed to execute statement")
	})
}
