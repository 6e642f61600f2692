package schema

import (
	"context"
	"strings"

	"github.com/pseudomuto/dbmover/pkg/dialect"
	"github.com/pseudomuto/dbmover/pkg/parser"
	"github.com/rs/zerolog"
)

// Differ computes the statements that bring a live table in line with its
// declaration.
type Differ struct {
	dialect dialect.Dialect
}

// NewDiffer returns a Differ producing DDL for the given dialect.
func NewDiffer(d dialect.Dialect) *Differ {
	return &Differ{dialect: d}
}

// Diff compares a declared table with the live columns of the same table and
// returns the statements needed to reconcile them, in this order:
//
//  1. DROP COLUMN for live columns that are no longer declared. A column whose
//     declaration could not be parsed still counts as declared.
//  2. ADD COLUMN for declared columns missing from the live table, using the
//     declared definition verbatim.
//  3. Column rewrites for declared columns whose type, nullability, default or
//     ON UPDATE expression differ from the live column.
//  4. ADD PRIMARY KEY when the table has no primary key but declares one.
//
// Columns that match their declaration produce nothing, so diffing a table
// against the state produced by its own diff yields no statements.
//
// Combined dialects restate a changed column in a single statement. Discrete
// dialects emit TYPE only when the type differs and then restate the default
// and the nullability of the column.
//
// A live primary key that differs from the declared one is never rewritten. It
// is logged as a warning through the logger carried by ctx.
func (df *Differ) Diff(ctx context.Context, table *DeclaredTable, live []LiveColumn) []Operation {
	d := df.dialect
	s := &diffState{
		differ: df,
		table:  table,
		live:   make(map[string]LiveColumn, len(live)),
	}

	for _, lc := range live {
		s.live[d.FoldIdentifier(lc.Name)] = lc
		if lc.PrimaryKey {
			s.livePK = append(s.livePK, lc.Name)
		}
	}

	declared := make(map[string]bool, len(table.Columns))
	for _, col := range table.Columns {
		declared[columnKey(d, col.Name)] = true
	}
	for _, name := range table.Unparsed {
		declared[columnKey(d, name)] = true
	}

	for _, lc := range live {
		if !declared[d.FoldIdentifier(lc.Name)] {
			s.emit(d.DropColumn(table.Ref, d.QuoteIdentifier(lc.Name)))
		}
	}

	for _, col := range table.Columns {
		if _, ok := s.live[columnKey(d, col.Name)]; !ok {
			s.emit(d.AddColumn(table.Ref, s.definition(col)))
		}
	}

	for _, col := range table.Columns {
		lc, ok := s.live[columnKey(d, col.Name)]
		if !ok {
			continue
		}

		s.alter(col, lc)
	}

	s.primaryKey(ctx)

	return s.ops
}

type diffState struct {
	differ *Differ
	table  *DeclaredTable
	live   map[string]LiveColumn
	livePK []string
	ops    []Operation
	// pkInline is set once an emitted definition carries the primary key.
	pkInline bool
}

func (s *diffState) emit(sql string) {
	s.ops = append(s.ops, Operation{SQL: sql, Class: Immediate, Table: s.table.Name})
}

// definition returns the column definition to use in ADD/CHANGE statements.
// PRIMARY KEY stays inline only when the dialect allows it, the table has no
// live primary key and the column alone forms the declared key.
func (s *diffState) definition(col *parser.ColumnDefinition) string {
	d := s.differ.dialect
	pk := s.table.PrimaryKey

	keep := d.PrimaryKeyStrategy() == dialect.Inline &&
		col.PrimaryKey &&
		len(s.livePK) == 0 &&
		pk != nil && pk.Inline && len(pk.Columns) == 1

	if keep {
		s.pkInline = true
		return col.Raw
	}

	return col.RawWithoutPrimaryKey()
}

func (s *diffState) alter(col *parser.ColumnDefinition, lc LiveColumn) {
	d := s.differ.dialect
	serial := d.IsSerial(col.Type)

	typeChanged := d.CanonicalType(col.Type) != d.CanonicalType(lc.Type)

	nullable := col.Nullable && !serial
	if d.NullabilityInType() {
		nullable = d.TypeIsNullable(col.Type)
	}
	nullChanged := nullable != lc.Nullable

	declaredDefault := defaultOf(col)
	defaultChanged := !d.DefaultsEqual(declaredDefault, lc.Default)
	if serial && declaredDefault == nil && d.IsSequenceDefault(lc.Default) {
		defaultChanged = false
	}

	onUpdateChanged := d.HasOnUpdate() && !d.DefaultsEqual(onUpdateOf(col), lc.OnUpdate)

	if !typeChanged && !nullChanged && !defaultChanged && !onUpdateChanged {
		return
	}

	ref := s.table.Ref
	if d.AlterStrategy() == dialect.Combined {
		s.emit(d.ChangeColumn(ref, col.Name, s.definition(col)))
		return
	}

	if typeChanged {
		s.emit(d.SetType(ref, col.Name, d.StripTypeModifiers(col.Type)))
	}

	switch {
	case declaredDefault != nil:
		s.emit(d.SetDefault(ref, col.Name, col.DefaultRaw))
	case !serial:
		s.emit(d.DropDefault(ref, col.Name))
	}

	if nullable {
		s.emit(d.DropNotNull(ref, col.Name))
	} else {
		s.emit(d.SetNotNull(ref, col.Name))
	}
}

func (s *diffState) primaryKey(ctx context.Context) {
	d := s.differ.dialect
	pk := s.table.PrimaryKey
	if pk == nil || d.PrimaryKeyStrategy() == dialect.Unsupported {
		return
	}

	if len(s.livePK) > 0 {
		if !samePrimaryKey(d, pk.Columns, s.livePK) {
			zerolog.Ctx(ctx).Warn().
				Str("table", s.table.Name).
				Strs("declared", pk.Columns).
				Strs("live", s.livePK).
				Msg("primary key differs from declaration; not changing it")
		}

		return
	}

	if !s.pkInline {
		s.emit(d.AddPrimaryKey(s.table.Ref, pk.Columns...))
	}
}

// defaultOf returns the declared default as written, or nil when the column
// has no default or defaults to NULL.
func defaultOf(col *parser.ColumnDefinition) *string {
	if col.DefaultRaw == "" || strings.EqualFold(col.DefaultRaw, "NULL") {
		return nil
	}

	raw := col.DefaultRaw
	return &raw
}

func onUpdateOf(col *parser.ColumnDefinition) *string {
	if col.OnUpdate == "" {
		return nil
	}

	expr := col.OnUpdate
	return &expr
}

func samePrimaryKey(d dialect.Dialect, declared, live []string) bool {
	if len(declared) != len(live) {
		return false
	}

	seen := make(map[string]bool, len(live))
	for _, name := range live {
		seen[d.FoldIdentifier(name)] = true
	}

	for _, name := range declared {
		if !seen[columnKey(d, name)] {
			return false
		}
	}

	return true
}
