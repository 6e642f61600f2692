package dialect

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	mysqlModifiers = []string{
		"AUTO_INCREMENT", "CHARACTER SET", "CHARSET", "COLLATE", "COMMENT", "ON UPDATE",
		"UNIQUE", "KEY", "PRIMARY", "REFERENCES", "CHECK", "VISIBLE", "INVISIBLE",
		"GENERATED", "AS", "NOT", "NULL", "DEFAULT", "CONSTRAINT",
	}
	postgresModifiers = []string{
		"COLLATE", "REFERENCES", "UNIQUE", "PRIMARY", "CHECK", "GENERATED", "CONSTRAINT",
		"NOT", "NULL", "DEFAULT",
	}
	clickhouseModifiers = []string{
		"CODEC", "TTL", "COMMENT", "MATERIALIZED", "ALIAS", "EPHEMERAL", "SETTINGS",
		"DEFAULT", "PRIMARY",
	}

	intWidth      = regexp.MustCompile(`^(TINYINT|SMALLINT|MEDIUMINT|INT|BIGINT)\(\d+\)`)
	pgTimeType    = regexp.MustCompile(`^(TIMESTAMP|TIME)(\(\d+\))? ?(WITH(OUT)? TIME ZONE)?$`)
	trailingCast  = regexp.MustCompile(`^(.+?)::[A-Za-z_][A-Za-z0-9_ ]*(\([0-9, ]*\))?(\[\])*$`)
	spaceRun      = regexp.MustCompile(`\s+`)
	spaceInsidePs = regexp.MustCompile(`\s*([(,])\s*|\s+(\))`)

	mysqlAliases = map[string]string{
		"INTEGER":           "INT",
		"BOOL":              "TINYINT(1)",
		"BOOLEAN":           "TINYINT(1)",
		"DECIMAL":           "DECIMAL(10,0)",
		"NUMERIC":           "DECIMAL(10,0)",
		"DEC":               "DECIMAL(10,0)",
		"REAL":              "DOUBLE",
		"DOUBLE PRECISION":  "DOUBLE",
		"CHARACTER":         "CHAR(1)",
		"CHAR":              "CHAR(1)",
		"SERIAL":            "BIGINT UNSIGNED",
		"CHARACTER VARYING": "VARCHAR",
	}
	postgresAliases = map[string]string{
		"INT":               "INT4",
		"INTEGER":           "INT4",
		"SMALLINT":          "INT2",
		"BIGINT":            "INT8",
		"SERIAL":            "INT4",
		"SERIAL4":           "INT4",
		"BIGSERIAL":         "INT8",
		"SERIAL8":           "INT8",
		"SMALLSERIAL":       "INT2",
		"SERIAL2":           "INT2",
		"REAL":              "FLOAT4",
		"FLOAT":             "FLOAT8",
		"DOUBLE PRECISION":  "FLOAT8",
		"BOOLEAN":           "BOOL",
		"DECIMAL":           "NUMERIC",
		"CHARACTER VARYING": "VARCHAR",
		"CHARACTER":         "BPCHAR",
		"CHAR":              "BPCHAR",
		"BIT VARYING":       "VARBIT",
	}
)

// CanonicalType normalises a type expression for comparison. Declared types
// and catalog-reported types of the same column canonicalise to the same text.
// The result is never emitted as SQL.
func (d Dialect) CanonicalType(typ string) string {
	s := d.StripTypeModifiers(normalize(typ))

	switch d {
	case MySQL:
		return canonicalMySQLType(s)
	case Postgres:
		return canonicalPostgresType(s)
	}

	return s
}

// StripTypeModifiers removes column attributes that are not part of the type
// itself (COLLATE, REFERENCES, CODEC, ...) from an upper-cased type expression.
func (d Dialect) StripTypeModifiers(typ string) string {
	switch d {
	case MySQL:
		return cutAtKeywords(typ, mysqlModifiers)
	case Postgres:
		return cutAtKeywords(typ, postgresModifiers)
	case ClickHouse:
		return cutAtKeywords(typ, clickhouseModifiers)
	}

	return strings.TrimSpace(typ)
}

// TypeIsNullable reports whether a type admits NULL on dialects where
// nullability is part of the type, e.g. Nullable(String).
func (d Dialect) TypeIsNullable(typ string) bool {
	s := normalize(typ)
	s = strings.TrimPrefix(s, "LOWCARDINALITY(")

	return strings.HasPrefix(s, "NULLABLE(")
}

func canonicalMySQLType(s string) string {
	s = replaceAlias(s, mysqlAliases)
	if m := intWidth.FindString(s); m != "" && m != "TINYINT(1)" {
		s = intWidth.ReplaceAllString(s, "$1")
	}

	return s
}

func canonicalPostgresType(s string) string {
	array := false
	for strings.HasSuffix(s, "[]") {
		array = true
		s = strings.TrimSuffix(s, "[]")
	}

	if m := pgTimeType.FindStringSubmatch(s); m != nil {
		s = m[1]
		if m[3] == "WITH TIME ZONE" {
			s += "TZ"
		}
	} else {
		s = replaceAlias(s, postgresAliases)
		if s == "BPCHAR" {
			s = "BPCHAR(1)"
		}
	}

	if array {
		base, _ := splitArgs(s)
		return "_" + base
	}

	return s
}

// replaceAlias rewrites the leading type name of s using aliases, longest name
// first. Explicit arguments in s win over arguments baked into the alias.
func replaceAlias(s string, aliases map[string]string) string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		if !hasWordPrefix(s, name) {
			continue
		}

		rest, alias := s[len(name):], aliases[name]
		if strings.HasPrefix(rest, "(") {
			alias, _ = splitArgs(alias)
		}

		return alias + rest
	}

	return s
}

func hasWordPrefix(s, prefix string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}

	return len(s) == len(prefix) || s[len(prefix)] == ' ' || s[len(prefix)] == '('
}

// CanonicalDefault normalises a default value for comparison. Casts and one
// level of quoting are dropped and NULL becomes nil. Expressions are
// upper-cased; string literals keep their case. The result is never emitted
// as SQL.
func (d Dialect) CanonicalDefault(value *string) *string {
	s, quoted, ok := d.stripDefault(value)
	if !ok {
		return nil
	}

	if quoted {
		return &s
	}

	s = normalize(s)
	switch s {
	case "NOW()", "CURRENT_TIMESTAMP()", "LOCALTIMESTAMP", "LOCALTIMESTAMP()":
		s = "CURRENT_TIMESTAMP"
	case "TRUE":
		if d == MySQL {
			s = "1"
		}
	case "FALSE":
		if d == MySQL {
			s = "0"
		}
	}

	return &s
}

// DefaultsEqual reports whether two defaults are equivalent once canonicalised.
// Numeric values compare by value, so 0.00 matches 0.
func (d Dialect) DefaultsEqual(a, b *string) bool {
	ca, cb := d.CanonicalDefault(a), d.CanonicalDefault(b)
	if ca == nil || cb == nil {
		return ca == nil && cb == nil
	}

	if *ca == *cb {
		return true
	}

	// MySQL reports string defaults without their quotes.
	if d == MySQL {
		la, qa, _ := d.stripDefault(a)
		lb, qb, _ := d.stripDefault(b)
		if qa != qb && la == lb {
			return true
		}
	}

	fa, errA := strconv.ParseFloat(*ca, 64)
	fb, errB := strconv.ParseFloat(*cb, 64)

	return errA == nil && errB == nil && fa == fb
}

// stripDefault removes Postgres casts and one level of quoting from a default.
// ok is false when there is no default or it is NULL.
func (d Dialect) stripDefault(value *string) (s string, quoted, ok bool) {
	if value == nil {
		return "", false, false
	}

	s = strings.TrimSpace(*value)
	if d == Postgres {
		for {
			m := trailingCast.FindStringSubmatch(s)
			if m == nil {
				break
			}
			s = strings.TrimSpace(m[1])
		}
	}

	if unquoted, isQuoted := unquote(s); isQuoted {
		return unquoted, true, true
	}

	if strings.EqualFold(s, "NULL") {
		return "", false, false
	}

	return s, false, true
}

// IsSequenceDefault reports whether a live default is generated by a sequence,
// as it is for serial columns.
func (d Dialect) IsSequenceDefault(value *string) bool {
	return value != nil && strings.HasPrefix(strings.ToLower(strings.TrimSpace(*value)), "nextval(")
}

// normalize upper-cases s, collapses whitespace runs and removes spaces inside
// parentheses and around commas.
func normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = spaceRun.ReplaceAllString(s, " ")
	return spaceInsidePs.ReplaceAllString(s, "$1$2")
}

// splitArgs separates a type into its name and parenthesised arguments.
func splitArgs(s string) (string, string) {
	if i := strings.Index(s, "("); i >= 0 {
		return strings.TrimSpace(s[:i]), s[i:]
	}

	return s, ""
}

// cutAtKeywords truncates s before the first top-level occurrence of any of
// the keywords. Matches inside parentheses or quotes are ignored.
func cutAtKeywords(s string, keywords []string) string {
	depth := 0
	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			continue
		case c == '\'' || c == '"' || c == '`':
			quote = c
			continue
		case c == '(':
			depth++
			continue
		case c == ')':
			depth--
			continue
		}

		if c != ' ' || depth != 0 {
			continue
		}

		rest := s[i+1:]
		for _, kw := range keywords {
			if !strings.HasPrefix(rest, kw) {
				continue
			}
			if len(rest) == len(kw) || rest[len(kw)] == ' ' || rest[len(kw)] == '(' {
				return strings.TrimSpace(s[:i])
			}
		}
	}

	return strings.TrimSpace(s)
}

func unquote(s string) (string, bool) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return s, false
	}

	return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " ("); i >= 0 {
		return s[:i]
	}

	return s
}
