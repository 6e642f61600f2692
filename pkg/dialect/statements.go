package dialect

import (
	"strings"

	"github.com/pseudomuto/dbmover/pkg/utils"
)

func alterTable(table string) *utils.SQLBuilder {
	return utils.NewSQLBuilder().Alter("TABLE").Name(table)
}

// AddColumn returns ALTER TABLE ... ADD COLUMN with the column definition
// exactly as declared.
func (d Dialect) AddColumn(table, definition string) string {
	return alterTable(table).Clause("ADD COLUMN").Raw(definition).String()
}

// DropColumn returns ALTER TABLE ... DROP COLUMN.
func (d Dialect) DropColumn(table, column string) string {
	return alterTable(table).Clause("DROP COLUMN").Name(column).String()
}

// ChangeColumn restates a column's full definition in one statement. Only
// Combined dialects support it; Discrete dialects return an empty string.
//
//	MySQL:      ALTER TABLE t CHANGE COLUMN c <definition>;
//	ClickHouse: ALTER TABLE t MODIFY COLUMN <definition>;
func (d Dialect) ChangeColumn(table, column, definition string) string {
	switch d {
	case MySQL:
		return alterTable(table).Clause("CHANGE COLUMN").Name(column).Raw(definition).String()
	case ClickHouse:
		return alterTable(table).Clause("MODIFY COLUMN").Raw(definition).String()
	}

	return ""
}

// SetType returns ALTER COLUMN ... TYPE. Serial pseudo-types are replaced by
// the integer type they expand to.
func (d Dialect) SetType(table, column, typ string) string {
	if d.IsSerial(typ) {
		typ = d.SerialBaseType(typ)
	}

	return alterTable(table).AlterColumn(column).Clause("TYPE").Raw(typ).String()
}

// SetDefault returns ALTER COLUMN ... SET DEFAULT with the default text as written.
func (d Dialect) SetDefault(table, column, defaultRaw string) string {
	return alterTable(table).AlterColumn(column).Clause("SET DEFAULT").Raw(defaultRaw).String()
}

// DropDefault returns ALTER COLUMN ... DROP DEFAULT.
func (d Dialect) DropDefault(table, column string) string {
	return alterTable(table).AlterColumn(column).Clause("DROP DEFAULT").String()
}

// SetNotNull returns ALTER COLUMN ... SET NOT NULL.
func (d Dialect) SetNotNull(table, column string) string {
	return alterTable(table).AlterColumn(column).Clause("SET NOT NULL").String()
}

// DropNotNull returns ALTER COLUMN ... DROP NOT NULL.
func (d Dialect) DropNotNull(table, column string) string {
	return alterTable(table).AlterColumn(column).Clause("DROP NOT NULL").String()
}

// AddPrimaryKey returns ALTER TABLE ... ADD PRIMARY KEY (cols).
func (d Dialect) AddPrimaryKey(table string, columns ...string) string {
	return alterTable(table).Clause("ADD PRIMARY KEY").List(columns...).String()
}

// DropTable returns DROP TABLE for a deprecated table.
func (d Dialect) DropTable(table string) string {
	return utils.NewSQLBuilder().Drop("TABLE").Name(table).String()
}

// SerialBaseType returns the integer type a serial pseudo-type expands to.
func (d Dialect) SerialBaseType(typ string) string {
	switch firstWord(strings.ToUpper(typ)) {
	case "BIGSERIAL", "SERIAL8":
		return "BIGINT"
	case "SMALLSERIAL", "SERIAL2":
		return "SMALLINT"
	}

	if d == MySQL {
		return "BIGINT UNSIGNED"
	}

	return "INTEGER"
}
