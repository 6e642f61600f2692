package dialect

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/utils"
)

// Dialect identifies a family of database engines sharing DDL syntax and
// catalog shape.
type Dialect string

const (
	MySQL      Dialect = "mysql"
	Postgres   Dialect = "postgres"
	ClickHouse Dialect = "clickhouse"
)

// AlterStrategy describes how a changed column is rewritten.
type AlterStrategy int

const (
	// Combined dialects restate the full column definition in one statement.
	Combined AlterStrategy = iota
	// Discrete dialects alter type, default and nullability separately.
	Discrete
)

// PrimaryKeyStrategy describes how a primary key is added to an existing table.
type PrimaryKeyStrategy int

const (
	// Inline dialects accept PRIMARY KEY inside ADD/CHANGE COLUMN.
	Inline PrimaryKeyStrategy = iota
	// Separate dialects require ALTER TABLE ... ADD PRIMARY KEY.
	Separate
	// Unsupported dialects cannot change a primary key after creation.
	Unsupported
)

// ErrUnknownDialect is returned by Parse for names outside the supported set.
var ErrUnknownDialect = errors.New("unknown dialect")

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var aliases = map[string]Dialect{
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pgsql":      Postgres,
	"pg":         Postgres,
	"clickhouse": ClickHouse,
	"ch":         ClickHouse,
}

// Parse resolves a dialect name (case-insensitive, common aliases accepted).
func Parse(name string) (Dialect, error) {
	if d, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d, nil
	}

	return "", errors.Wrapf(ErrUnknownDialect, "%q", name)
}

// All returns the supported dialects.
func All() []Dialect {
	return []Dialect{MySQL, Postgres, ClickHouse}
}

func (d Dialect) String() string { return string(d) }

// AlterStrategy returns how the dialect rewrites a changed column.
func (d Dialect) AlterStrategy() AlterStrategy {
	if d == Postgres {
		return Discrete
	}

	return Combined
}

// PrimaryKeyStrategy returns how the dialect adds a primary key to an existing table.
func (d Dialect) PrimaryKeyStrategy() PrimaryKeyStrategy {
	switch d {
	case Postgres:
		return Separate
	case ClickHouse:
		return Unsupported
	default:
		return Inline
	}
}

// NullabilityInType reports whether nullability is part of the column type
// (Nullable(T)) rather than a separate NULL/NOT NULL attribute.
func (d Dialect) NullabilityInType() bool {
	return d == ClickHouse
}

// HasOnUpdate reports whether columns can carry an ON UPDATE expression.
func (d Dialect) HasOnUpdate() bool {
	return d == MySQL
}

// ReservesIndexKeywords reports whether KEY, INDEX, FULLTEXT and SPATIAL are
// reserved words, so an unquoted clause starting with one defines an index.
func (d Dialect) ReservesIndexKeywords() bool {
	return d == MySQL
}

// DefaultSchema is the catalog schema used when none is configured. An empty
// result means the connection's current database.
func (d Dialect) DefaultSchema() string {
	if d == Postgres {
		return "public"
	}

	return ""
}

// NormalizeIdentifier returns the name the catalog reports for a declared
// identifier. Quoting is removed and, on Postgres, unquoted names fold to
// lower case.
func (d Dialect) NormalizeIdentifier(name string) string {
	name = strings.TrimSpace(name)
	if d == Postgres && !strings.Contains(name, `"`) {
		return strings.ToLower(name)
	}

	return utils.StripQuotes(name)
}

// FoldIdentifier returns the key under which the catalog compares an
// identifier already in catalog form. MySQL column names are case-insensitive.
func (d Dialect) FoldIdentifier(name string) string {
	if d == MySQL {
		return strings.ToLower(name)
	}

	return name
}

// QuoteIdentifier quotes a catalog-reported name when it cannot be written bare.
func (d Dialect) QuoteIdentifier(name string) string {
	if d == Postgres {
		if plainIdentifier.MatchString(name) && name == strings.ToLower(name) {
			return name
		}

		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}

	if plainIdentifier.MatchString(name) {
		return name
	}

	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// IsSerial reports whether a declared type expression uses an auto-generated
// sequence default (SERIAL and friends).
func (d Dialect) IsSerial(typ string) bool {
	if d != Postgres && d != MySQL {
		return false
	}

	switch firstWord(strings.ToUpper(typ)) {
	case "SERIAL", "BIGSERIAL", "SMALLSERIAL", "SERIAL2", "SERIAL4", "SERIAL8":
		return true
	}

	return false
}
