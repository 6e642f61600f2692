package schema

import (
	"github.com/pseudomuto/dbmover/pkg/dialect"
	"github.com/pseudomuto/dbmover/pkg/parser"
	"github.com/pseudomuto/dbmover/pkg/utils"
)

type (
	// DeclaredTable is a CREATE TABLE statement from the script, parsed into
	// column definitions.
	DeclaredTable struct {
		// Name is the catalog name of the table.
		Name string
		// Ref is the table reference as written, used verbatim in generated DDL.
		Ref string
		// RawDefinition is the complete CREATE TABLE statement as written.
		RawDefinition string
		Columns       []*parser.ColumnDefinition
		// PrimaryKey is nil when the table declares no primary key.
		PrimaryKey  *PrimaryKeyDeclaration
		Constraints []string
		// Unparsed names the columns whose clauses could not be parsed. Their
		// live counterparts are left alone.
		Unparsed []string
		// Line is the line of the CREATE TABLE keyword in the script.
		Line int
	}

	// PrimaryKeyDeclaration lists the declared primary key columns as written.
	PrimaryKeyDeclaration struct {
		Columns []string
		// Inline is set when the key comes from a column-level PRIMARY KEY.
		Inline bool
	}
)

// NewDeclaredTable parses a table block. Clauses that fail to parse are
// returned alongside the table, which holds every clause that did parse.
// Their line numbers are relative to the script.
func NewDeclaredTable(d dialect.Dialect, block parser.TableBlock) (*DeclaredTable, []*parser.ParseError, error) {
	var opts []parser.Option
	if d.ReservesIndexKeywords() {
		opts = append(opts, parser.WithIndexKeywords())
	}

	body, err := parser.ParseTableBody(block.Body, opts...)
	if err != nil {
		return nil, nil, err
	}

	var unparsed []string
	for _, pe := range body.Errors {
		pe.Line += block.BodyLine - 1
		if pe.Name != "" {
			unparsed = append(unparsed, pe.Name)
		}
	}

	tbl := &DeclaredTable{
		Name:          tableName(d, block.Ref),
		Ref:           block.Ref,
		RawDefinition: block.Raw,
		Columns:       body.Columns,
		Constraints:   body.Constraints,
		Unparsed:      unparsed,
		Line:          block.Line,
	}

	if len(body.PrimaryKey) > 0 {
		tbl.PrimaryKey = &PrimaryKeyDeclaration{Columns: body.PrimaryKey}
	} else {
		var cols []string
		for _, col := range body.Columns {
			if col.PrimaryKey {
				cols = append(cols, col.Name)
			}
		}

		if len(cols) > 0 {
			tbl.PrimaryKey = &PrimaryKeyDeclaration{Columns: cols, Inline: true}
		}
	}

	// Primary key columns are implicitly NOT NULL.
	if tbl.PrimaryKey != nil {
		for _, name := range tbl.PrimaryKey.Columns {
			if col := tbl.Column(d, name); col != nil {
				col.Nullable = false
			}
		}
	}

	for _, col := range body.Columns {
		col.Line += block.BodyLine - 1
	}

	return tbl, body.Errors, nil
}

// Column returns the declared column matching name, or nil.
func (t *DeclaredTable) Column(d dialect.Dialect, name string) *parser.ColumnDefinition {
	key := columnKey(d, name)
	for _, col := range t.Columns {
		if columnKey(d, col.Name) == key {
			return col
		}
	}

	return nil
}

func columnKey(d dialect.Dialect, declared string) string {
	return d.FoldIdentifier(d.NormalizeIdentifier(declared))
}

// tableName returns the catalog name of a possibly qualified table reference.
func tableName(d dialect.Dialect, ref string) string {
	parts := utils.SplitQualified(ref)
	return d.NormalizeIdentifier(parts[len(parts)-1])
}
