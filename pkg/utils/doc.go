// Package utils provides small helpers shared by the dialect, parser and
// schema packages.
//
// # Identifier Utilities (identifier.go)
//
// Declared schemas and live catalogs spell identifiers differently. A file may
// write `users`, "users" or users while the catalog reports users. The
// identifier helpers strip quoting so both sides can be compared by name:
//
//	utils.StripQuotes("`shop`.`orders`")  // shop.orders
//	utils.IsQuoted(`"Orders"`)            // true
//	utils.Unqualified("shop.orders")      // orders
//
// # SQL Builder (sqlbuilder.go)
//
// SQLBuilder assembles the single-line ALTER and DROP statements emitted during
// reconciliation. Names are written verbatim, exactly as the schema file spells
// them, so generated statements target the same object the file declared:
//
//	sql := utils.NewSQLBuilder().
//		Alter("TABLE").
//		Name("orders").
//		Clause("ADD COLUMN").
//		Raw("note TEXT").
//		String()
//	// Output: ALTER TABLE orders ADD COLUMN note TEXT;
package utils
