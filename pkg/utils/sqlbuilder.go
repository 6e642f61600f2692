package utils

import "strings"

// SQLBuilder provides a fluent interface for building the DDL statements
// emitted during reconciliation.
//
// Example usage:
//
//	sql := NewSQLBuilder().
//		Alter("TABLE").
//		Name("orders").
//		AlterColumn("price").
//		Clause("SET DEFAULT").
//		Raw("'0.00'").
//		String()
//	// Output: ALTER TABLE orders ALTER COLUMN price SET DEFAULT '0.00';
type SQLBuilder struct {
	parts []string
}

// NewSQLBuilder creates a new SQLBuilder instance.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{
		parts: make([]string, 0, 8),
	}
}

// Drop adds a DROP clause with the specified object type.
//
// Example:
//
//	builder.Drop("TABLE")       // DROP TABLE
func (b *SQLBuilder) Drop(objectType string) *SQLBuilder {
	b.parts = append(b.parts, "DROP", objectType)
	return b
}

// Alter adds an ALTER clause with the specified object type.
//
// Example:
//
//	builder.Alter("TABLE")      // ALTER TABLE
func (b *SQLBuilder) Alter(objectType string) *SQLBuilder {
	b.parts = append(b.parts, "ALTER", objectType)
	return b
}

// Name adds an object name exactly as given. Empty names are ignored.
func (b *SQLBuilder) Name(name string) *SQLBuilder {
	if name != "" {
		b.parts = append(b.parts, name)
	}
	return b
}

// AlterColumn adds an ALTER COLUMN clause for the named column.
//
// Example:
//
//	builder.AlterColumn("price")  // ALTER COLUMN price
func (b *SQLBuilder) AlterColumn(name string) *SQLBuilder {
	b.parts = append(b.parts, "ALTER", "COLUMN", name)
	return b
}

// Clause adds a keyword clause such as "ADD COLUMN" or "SET NOT NULL".
func (b *SQLBuilder) Clause(keywords string) *SQLBuilder {
	if keywords != "" {
		b.parts = append(b.parts, keywords)
	}
	return b
}

// List adds a parenthesised, comma separated list.
//
// Example:
//
//	builder.List("id", "tenant_id")  // (id, tenant_id)
func (b *SQLBuilder) List(items ...string) *SQLBuilder {
	b.parts = append(b.parts, "("+strings.Join(items, ", ")+")")
	return b
}

// Raw adds raw SQL text to the builder. Column definitions and default
// expressions are passed through this way so their original spelling survives.
func (b *SQLBuilder) Raw(sql string) *SQLBuilder {
	if sql != "" {
		b.parts = append(b.parts, sql)
	}
	return b
}

// String builds and returns the final SQL statement with a semicolon.
//
// Example:
//
//	sql := builder.Drop("TABLE").Name("legacy").String()
//	// Returns: "DROP TABLE legacy;"
func (b *SQLBuilder) String() string {
	if len(b.parts) == 0 {
		return ""
	}
	return strings.Join(b.parts, " ") + ";"
}
