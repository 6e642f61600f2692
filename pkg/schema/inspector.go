package schema

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/catalog"
	"github.com/pseudomuto/dbmover/pkg/dialect"
)

// LiveColumn is a column as reported by the catalog.
type LiveColumn struct {
	Name string
	// Type is the upper-cased catalog type, e.g. INT(11) or VARCHAR(255).
	Type       string
	Nullable   bool
	Default    *string
	PrimaryKey bool
	// OnUpdate is the MySQL ON UPDATE expression, nil when there is none.
	OnUpdate *string
}

// Inspector answers questions about the live schema in a single catalog schema.
type Inspector struct {
	catalog catalog.Catalog
	schema  string
}

// NewInspector returns an Inspector for the given catalog schema. An empty
// schema selects the dialect default: the current database on MySQL and
// ClickHouse, public on Postgres.
func NewInspector(cat catalog.Catalog, schema string) *Inspector {
	if schema == "" {
		schema = cat.Dialect().DefaultSchema()
	}

	return &Inspector{catalog: cat, schema: schema}
}

// Dialect returns the dialect of the inspected catalog.
func (i *Inspector) Dialect() dialect.Dialect {
	return i.catalog.Dialect()
}

// Schema returns the inspected catalog schema. It is empty when the
// connection's current database is used.
func (i *Inspector) Schema() string {
	return i.schema
}

// TableExists reports whether a base table with the given catalog name exists.
func (i *Inspector) TableExists(ctx context.Context, name string) (bool, error) {
	ok, err := i.catalog.TableExists(ctx, i.schema, name)
	if err != nil {
		return false, errors.Wrapf(err, "failed to check existence of table %s", name)
	}

	return ok, nil
}

// LiveColumns returns the columns of a live table in ordinal order.
func (i *Inspector) LiveColumns(ctx context.Context, name string) ([]LiveColumn, error) {
	cols, err := i.catalog.ListColumns(ctx, i.schema, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to inspect columns of table %s", name)
	}

	live := make([]LiveColumn, len(cols))
	for n, c := range cols {
		live[n] = LiveColumn{
			Name:       c.Name,
			Type:       strings.ToUpper(c.Type),
			Nullable:   c.Nullable(),
			Default:    c.Default,
			PrimaryKey: c.PrimaryKey,
			OnUpdate:   c.OnUpdate,
		}
	}

	return live, nil
}

// LiveTables returns the names of every base table in the inspected schema.
func (i *Inspector) LiveTables(ctx context.Context) ([]string, error) {
	tables, err := i.catalog.ListBaseTables(ctx, i.schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list live tables")
	}

	return tables, nil
}
