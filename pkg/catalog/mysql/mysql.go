// Package mysql reads the live schema of MySQL and MariaDB databases from
// information_schema.
package mysql

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/catalog"
	"github.com/pseudomuto/dbmover/pkg/dialect"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 10 * time.Minute

	// An empty schema argument falls back to the connection's database.
	schemaFilter = "table_schema = COALESCE(NULLIF(?, ''), DATABASE())"
)

var onUpdateExtra = regexp.MustCompile(`(?i)\bon update\s+(.+)$`)

// Catalog implements catalog.Conn for MySQL.
type Catalog struct {
	db *sql.DB
}

var _ catalog.Conn = (*Catalog)(nil)

// Open connects to the database described by a go-sql-driver DSN such as
// "user:pass@tcp(localhost:3306)/app" and verifies the connection.
func Open(ctx context.Context, dsn string) (*Catalog, error) {
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return nil, errors.Wrap(err, "invalid mysql dsn")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open mysql")
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to connect to mysql")
	}

	return New(db), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) Dialect() dialect.Dialect { return dialect.MySQL }

// TableExists reports whether a base table with the given name exists.
func (c *Catalog) TableExists(ctx context.Context, schema, table string) (bool, error) {
	const q = `
		SELECT COUNT(*) > 0
		FROM information_schema.tables
		WHERE ` + schemaFilter + `
		  AND table_name = ?
		  AND table_type = 'BASE TABLE'`

	var exists bool
	if err := c.db.QueryRowContext(ctx, q, schema, table).Scan(&exists); err != nil {
		return false, errors.Wrapf(err, "failed to check table %s", table)
	}

	return exists, nil
}

// ListBaseTables returns the names of all base tables, sorted.
func (c *Catalog) ListBaseTables(ctx context.Context, schema string) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE ` + schemaFilter + `
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := c.db.QueryContext(ctx, q, schema)
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

// ListColumns returns the columns of a table in ordinal order. The type is
// COLUMN_TYPE, which carries lengths and modifiers such as unsigned.
func (c *Catalog) ListColumns(ctx context.Context, schema, table string) ([]catalog.Column, error) {
	const q = `
		SELECT column_name, column_default, is_nullable, column_type, column_key = 'PRI', extra
		FROM information_schema.columns
		WHERE ` + schemaFilter + `
		  AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := c.db.QueryContext(ctx, q, schema, table)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query columns of %s", table)
	}
	defer rows.Close()

	var cols []catalog.Column
	for rows.Next() {
		var (
			col   catalog.Column
			def   sql.NullString
			extra string
		)

		if err := rows.Scan(&col.Name, &def, &col.IsNullable, &col.Type, &col.PrimaryKey, &extra); err != nil {
			return nil, errors.Wrap(err, "failed to scan column row")
		}

		if def.Valid {
			col.Default = &def.String
		}
		col.OnUpdate = onUpdate(extra)
		cols = append(cols, col)
	}

	return cols, errors.Wrap(rows.Err(), "error iterating column rows")
}

// onUpdate extracts the ON UPDATE expression from an EXTRA value such as
// "DEFAULT_GENERATED on update CURRENT_TIMESTAMP".
func onUpdate(extra string) *string {
	m := onUpdateExtra.FindStringSubmatch(extra)
	if m == nil {
		return nil
	}

	expr := strings.TrimSpace(m[1])
	return &expr
}

// Exec runs a single DDL statement.
func (c *Catalog) Exec(ctx context.Context, sql string) error {
	_, err := c.db.ExecContext(ctx, sql)
	return errors.Wrap(err, "failed to execute statement")
}

// Close closes the connection pool.
func (c *Catalog) Close() error {
	return c.db.Close()
}
