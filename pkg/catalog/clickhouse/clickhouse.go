// Package clickhouse reads the live schema of ClickHouse databases from the
// system.tables and system.columns tables.
package clickhouse

import (
	"context"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/catalog"
	"github.com/pseudomuto/dbmover/pkg/dialect"
)

const (
	// An empty schema argument falls back to the connection's database.
	databaseFilter = "database = coalesce(nullIf(?, ''), currentDatabase())"

	// Views, dictionaries and the hidden storage of materialized views are not
	// base tables.
	baseTableFilter = `engine NOT IN ('View', 'MaterializedView', 'LiveView', 'WindowView', 'Dictionary')
		  AND is_temporary = 0
		  AND name NOT LIKE '.inner%'`
)

// Catalog implements catalog.Conn for ClickHouse.
type Catalog struct {
	conn driver.Conn
}

var _ catalog.Conn = (*Catalog)(nil)

// Open connects to ClickHouse and verifies the connection. The DSN is either a
// clickhouse:// URL or a plain host:port address.
//
// Example:
//
//	cat, err := clickhouse.Open(ctx, "clickhouse://default:@localhost:9000/analytics")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cat.Close()
func Open(ctx context.Context, dsn string, with ...Option) (*Catalog, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil || !strings.Contains(dsn, "://") {
		opts = &clickhouse.Options{Addr: []string{dsn}}
	}

	o := new(options)
	for _, apply := range with {
		apply(o)
	}

	if o.tls != nil {
		opts.TLS = o.tls
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open clickhouse")
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to connect to clickhouse")
	}

	return New(conn), nil
}

// New wraps an existing connection.
func New(conn driver.Conn) *Catalog {
	return &Catalog{conn: conn}
}

func (c *Catalog) Dialect() dialect.Dialect { return dialect.ClickHouse }

// TableExists reports whether a base table with the given name exists.
func (c *Catalog) TableExists(ctx context.Context, schema, table string) (bool, error) {
	const q = `
		SELECT count()
		FROM system.tables
		WHERE ` + databaseFilter + `
		  AND name = ?
		  AND ` + baseTableFilter

	var n uint64
	if err := c.conn.QueryRow(ctx, q, schema, table).Scan(&n); err != nil {
		return false, errors.Wrapf(err, "failed to check table %s", table)
	}

	return n > 0, nil
}

// ListBaseTables returns the names of all base tables, sorted.
func (c *Catalog) ListBaseTables(ctx context.Context, schema string) ([]string, error) {
	const q = `
		SELECT name
		FROM system.tables
		WHERE ` + databaseFilter + `
		  AND ` + baseTableFilter + `
		ORDER BY name`

	rows, err := c.conn.Query(ctx, q, schema)
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

// ListColumns returns the columns of a table in ordinal order. Nullability is
// derived from the type since ClickHouse has no separate NULL attribute.
func (c *Catalog) ListColumns(ctx context.Context, schema, table string) ([]catalog.Column, error) {
	const q = `
		SELECT name, type, default_kind, default_expression, is_in_primary_key
		FROM system.columns
		WHERE ` + databaseFilter + `
		  AND table = ?
		ORDER BY position`

	rows, err := c.conn.Query(ctx, q, schema, table)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query columns of %s", table)
	}
	defer rows.Close()

	var cols []catalog.Column
	for rows.Next() {
		var (
			name, typ, kind, expr string
			pk                    uint8
		)

		if err := rows.Scan(&name, &typ, &kind, &expr, &pk); err != nil {
			return nil, errors.Wrap(err, "failed to scan column row")
		}

		cols = append(cols, buildColumn(name, typ, kind, expr, pk == 1))
	}

	return cols, errors.Wrap(rows.Err(), "error iterating column rows")
}

// Exec runs a single DDL statement.
func (c *Catalog) Exec(ctx context.Context, sql string) error {
	return errors.Wrap(c.conn.Exec(ctx, sql), "failed to execute statement")
}

// Close closes the connection.
func (c *Catalog) Close() error {
	return c.conn.Close()
}

func buildColumn(name, typ, kind, expr string, pk bool) catalog.Column {
	col := catalog.Column{
		Name:       name,
		Type:       typ,
		IsNullable: "NO",
		PrimaryKey: pk,
	}

	if isNullableType(typ) {
		col.IsNullable = "YES"
	}

	// MATERIALIZED, ALIAS and EPHEMERAL expressions are not defaults
	if kind == "DEFAULT" {
		col.Default = &expr
	}

	return col
}

func isNullableType(typ string) bool {
	typ = strings.TrimSpace(typ)
	if strings.HasPrefix(typ, "LowCardinality(") {
		typ = strings.TrimPrefix(typ, "LowCardinality(")
	}

	return strings.HasPrefix(typ, "Nullable(")
}
