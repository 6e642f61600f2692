// Package postgres reads the live schema of Postgres databases from
// information_schema using a pgx connection pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/catalog"
	"github.com/pseudomuto/dbmover/pkg/dialect"
)

const (
	defaultMaxConns = 10
	defaultMinConns = 1
)

// Catalog implements catalog.Conn for Postgres.
type Catalog struct {
	pool *pgxpool.Pool
}

var _ catalog.Conn = (*Catalog)(nil)

// Open connects to the database described by a postgres:// URL or key/value
// DSN and verifies the connection.
func Open(ctx context.Context, dsn string) (*Catalog, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "invalid postgres dsn")
	}

	cfg.MaxConns = defaultMaxConns
	cfg.MinConns = defaultMinConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}

	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) Dialect() dialect.Dialect { return dialect.Postgres }

// TableExists reports whether a base table with the given name exists in the
// current database and schema.
func (c *Catalog) TableExists(ctx context.Context, schema, table string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_catalog = current_database()
			  AND table_schema = $1
			  AND table_name = $2
			  AND table_type = 'BASE TABLE'
		)`

	var exists bool
	if err := c.pool.QueryRow(ctx, q, schemaOrDefault(schema), table).Scan(&exists); err != nil {
		return false, errors.Wrapf(err, "failed to check table %s", table)
	}

	return exists, nil
}

// ListBaseTables returns the names of all base tables, sorted.
func (c *Catalog) ListBaseTables(ctx context.Context, schema string) ([]string, error) {
	const q = `
		SELECT table_name::text
		FROM information_schema.tables
		WHERE table_catalog = current_database()
		  AND table_schema = $1
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := c.pool.Query(ctx, q, schemaOrDefault(schema))
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan table row")
		}
		tables = append(tables, name)
	}

	return tables, errors.Wrap(rows.Err(), "error iterating table rows")
}

// ListColumns returns the columns of a table in ordinal order. The type is the
// underlying udt_name with its length or precision appended, e.g. varchar(255)
// or numeric(10,2).
func (c *Catalog) ListColumns(ctx context.Context, schema, table string) ([]catalog.Column, error) {
	const q = `
		SELECT
			c.column_name::text,
			c.column_default::text,
			c.is_nullable::text,
			c.udt_name::text,
			c.data_type::text,
			c.character_maximum_length::int,
			c.numeric_precision::int,
			c.numeric_scale::int,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
				  ON kcu.constraint_name = tc.constraint_name
				 AND kcu.table_schema = tc.table_schema
				 AND kcu.table_name = tc.table_name
				WHERE tc.constraint_type = 'PRIMARY KEY'
				  AND tc.table_schema = c.table_schema
				  AND tc.table_name = c.table_name
				  AND kcu.column_name = c.column_name
			)
		FROM information_schema.columns c
		WHERE c.table_catalog = current_database()
		  AND c.table_schema = $1
		  AND c.table_name = $2
		ORDER BY c.ordinal_position`

	rows, err := c.pool.Query(ctx, q, schemaOrDefault(schema), table)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query columns of %s", table)
	}
	defer rows.Close()

	var cols []catalog.Column
	for rows.Next() {
		var (
			col                 catalog.Column
			udt, dataType       string
			maxLen, prec, scale *int32
		)

		if err := rows.Scan(&col.Name, &col.Default, &col.IsNullable, &udt, &dataType, &maxLen, &prec, &scale, &col.PrimaryKey); err != nil {
			return nil, errors.Wrap(err, "failed to scan column row")
		}

		col.Type = formatType(udt, dataType, maxLen, prec, scale)
		cols = append(cols, col)
	}

	return cols, errors.Wrap(rows.Err(), "error iterating column rows")
}

// Exec runs a single DDL statement.
func (c *Catalog) Exec(ctx context.Context, sql string) error {
	_, err := c.pool.Exec(ctx, sql)
	return errors.Wrap(err, "failed to execute statement")
}

// Close closes the pool.
func (c *Catalog) Close() error {
	c.pool.Close()
	return nil
}

func schemaOrDefault(schema string) string {
	if schema == "" {
		return dialect.Postgres.DefaultSchema()
	}

	return schema
}

// formatType concatenates the underlying type name with the declared length
// or numeric precision so it compares against declared type expressions.
func formatType(udt, dataType string, maxLen, prec, scale *int32) string {
	switch {
	case maxLen != nil:
		return fmt.Sprintf("%s(%d)", udt, *maxLen)
	case dataType == "numeric" && prec != nil:
		s := int32(0)
		if scale != nil {
			s = *scale
		}
		return fmt.Sprintf("%s(%d,%d)", udt, *prec, s)
	}

	return udt
}
