// Package dialect describes the database families dbmover can reconcile and
// the DDL each of them accepts.
//
// A Dialect answers three questions for the schema differ:
//
//   - How are column alterations written? MySQL and ClickHouse restate the whole
//     column in one statement (CHANGE COLUMN / MODIFY COLUMN). Postgres edits the
//     type, default and nullability with discrete ALTER COLUMN statements.
//   - How is a primary key established on an existing table? MySQL accepts it inline
//     in a column definition, Postgres needs ADD PRIMARY KEY, and ClickHouse keys
//     cannot be changed after creation.
//   - How should declared and live text be compared? CanonicalType and
//     CanonicalDefault fold aliases, casts and quoting so that `INTEGER` declared
//     in a file matches `int4` reported by the Postgres catalog.
//
// Statement builders return complete SQL terminated by a semicolon:
//
//	d := dialect.Postgres
//	d.SetDefault("orders", "price", "'0.00'")
//	// ALTER TABLE orders ALTER COLUMN price SET DEFAULT '0.00';
package dialect
