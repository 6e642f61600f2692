// Package catalog defines how dbmover reads the live schema of a database.
//
// A Catalog answers three questions for a schema: which base tables exist, does
// a given table exist, and what columns does it have. Drivers for each dialect
// live in the mysql, postgres and clickhouse subpackages. Static is an
// in-memory catalog used for offline planning and tests.
package catalog

import (
	"context"

	"github.com/pseudomuto/dbmover/pkg/dialect"
)

type (
	// Column is a column as reported by a catalog.
	Column struct {
		Name string
		// Default is the catalog's default expression, nil when there is none.
		Default *string
		// IsNullable is the catalog's YES/NO indicator.
		IsNullable string
		// Type is the catalog's type text, e.g. varchar(255) or Nullable(String).
		Type string
		// PrimaryKey is set for columns that are part of the table's primary key.
		PrimaryKey bool
		// OnUpdate is the MySQL ON UPDATE expression, nil when there is none.
		OnUpdate *string
	}

	// Catalog reads live schema information. An empty schema argument means the
	// connection's current database (or public on Postgres).
	Catalog interface {
		Dialect() dialect.Dialect
		TableExists(ctx context.Context, schema, table string) (bool, error)
		ListBaseTables(ctx context.Context, schema string) ([]string, error)
		ListColumns(ctx context.Context, schema, table string) ([]Column, error)
	}

	// Conn is a Catalog backed by a connection that can also run DDL.
	Conn interface {
		Catalog
		Exec(ctx context.Context, sql string) error
		Close() error
	}
)

// Nullable reports whether the catalog flagged the column as nullable.
func (c Column) Nullable() bool {
	return c.IsNullable == "YES"
}
