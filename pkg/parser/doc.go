// Package parser turns a schema script into table declarations.
//
// It works in two stages. Extract scans the script line by line for
// CREATE TABLE blocks and standalone ALTER TABLE statements and cuts them out,
// leaving every other statement in the residual text untouched:
//
//	ext := parser.Extract(script)
//	for _, tbl := range ext.Tables {
//		fmt.Println(tbl.Name, tbl.Raw)
//	}
//	fmt.Println(ext.Residual) // CREATE INDEX, CREATE VIEW, ...
//
// ParseTableBody then splits a table body on top-level commas and parses each
// clause with a small participle grammar. A clause is a table-level primary key,
// another table constraint (kept raw, never diffed) or a column definition:
//
//	body, err := parser.ParseTableBody(tbl.Body)
//	for _, col := range body.Columns {
//		fmt.Println(col.Name, col.Type, col.Nullable, col.DefaultRaw)
//	}
//
// The grammar only understands enough of a column definition to separate its
// name, type, nullability, default and inline primary key. Everything else is
// carried along verbatim in Raw so emitted statements keep the author's syntax.
// Clauses that do not fit the grammar are reported as *ParseError values in
// TableBody.Errors instead of aborting the whole table.
package parser
