package parser_test

import (
	"testing"

	"github.com/pkg/errors"
	. "github.com/pseudomuto/dbmover/pkg/parser"
	"github.com/pseudomuto/dbmover/pkg/utils"
	"github.com/stretchr/testify/require"
)

func TestParseColumn(t *testing.T) {
	tests := []struct {
		name       string
		clause     string
		colName    string
		typ        string
		nullable   bool
		def        *string
		defaultRaw string
		primaryKey bool
	}{
		{
			name:     "bare column",
			clause:   "name TEXT",
			colName:  "name",
			typ:      "TEXT",
			nullable: true,
		},
		{
			name:     "lower case type is upper-cased",
			clause:   "name varchar(255) not null",
			colName:  "name",
			typ:      "VARCHAR(255)",
			nullable: false,
		},
		{
			name:       "quoted default",
			clause:     "price NUMERIC DEFAULT '0.00'",
			colName:    "price",
			typ:        "NUMERIC",
			nullable:   true,
			def:        utils.Ptr("0.00"),
			defaultRaw: "'0.00'",
		},
		{
			name:       "not null after default",
			clause:     "status VARCHAR(20) DEFAULT 'new' NOT NULL",
			colName:    "status",
			typ:        "VARCHAR(20)",
			def:        utils.Ptr("new"),
			defaultRaw: "'new'",
		},
		{
			name:       "expression default",
			clause:     "created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP",
			colName:    "created_at",
			typ:        "TIMESTAMP",
			def:        utils.Ptr("CURRENT_TIMESTAMP"),
			defaultRaw: "CURRENT_TIMESTAMP",
		},
		{
			name:       "function default",
			clause:     "id UUID DEFAULT gen_random_uuid() PRIMARY KEY",
			colName:    "id",
			typ:        "UUID",
			def:        utils.Ptr("gen_random_uuid()"),
			defaultRaw: "gen_random_uuid()",
			primaryKey: true,
		},
		{
			name:       "escaped quote in default",
			clause:     "note TEXT DEFAULT 'it''s'",
			colName:    "note",
			typ:        "TEXT",
			nullable:   true,
			def:        utils.Ptr("it's"),
			defaultRaw: "'it''s'",
		},
		{
			name:       "default null",
			clause:     "note TEXT DEFAULT NULL",
			colName:    "note",
			typ:        "TEXT",
			nullable:   true,
			defaultRaw: "NULL",
		},
		{
			name:       "inline primary key",
			clause:     "id SERIAL PRIMARY KEY",
			colName:    "id",
			typ:        "SERIAL",
			primaryKey: true,
		},
		{
			name:       "modifiers stay in the type",
			clause:     "`id` int(11) unsigned NOT NULL AUTO_INCREMENT",
			colName:    "`id`",
			typ:        "INT(11) UNSIGNED AUTO_INCREMENT",
			primaryKey: false,
		},
		{
			name:       "postgres cast default",
			clause:     `"Label" character varying(32) DEFAULT 'x'::character varying`,
			colName:    `"Label"`,
			typ:        "CHARACTER VARYING(32)",
			nullable:   true,
			def:        utils.Ptr("'x'::character varying"),
			defaultRaw: "'x'::character varying",
		},
		{
			name:       "clickhouse column",
			clause:     "amount Nullable(Decimal(18, 4)) DEFAULT 0 CODEC(ZSTD(1))",
			colName:    "amount",
			typ:        "NULLABLE(DECIMAL(18, 4)) CODEC(ZSTD(1))",
			nullable:   true,
			def:        utils.Ptr("0"),
			defaultRaw: "0",
		},
		{
			name:     "check constraint on the column",
			clause:   "qty INT NOT NULL CHECK (qty > 0)",
			colName:  "qty",
			typ:      "INT CHECK (QTY > 0)",
			nullable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, err := ParseColumn(tt.clause)
			require.NoError(t, err)
			require.Equal(t, tt.colName, col.Name)
			require.Equal(t, tt.typ, col.Type)
			require.Equal(t, tt.nullable, col.Nullable)
			require.Equal(t, tt.def, col.Default)
			require.Equal(t, tt.defaultRaw, col.DefaultRaw)
			require.Equal(t, tt.primaryKey, col.PrimaryKey)
			require.Equal(t, tt.clause, col.Raw)
		})
	}
}

func TestParseColumn_Errors(t *testing.T) {
	t.Run("table constraint", func(t *testing.T) {
		_, err := ParseColumn("PRIMARY KEY (id)")
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrNotColumn))
	})

	t.Run("dangling default", func(t *testing.T) {
		_, err := ParseColumn("price NUMERIC DEFAULT")

		var perr *ParseError
		require.True(t, errors.As(err, &perr))
		require.Equal(t, 1, perr.Line)
		require.Equal(t, "price NUMERIC DEFAULT", perr.Clause)
	})

	t.Run("index definition", func(t *testing.T) {
		_, err := ParseColumn("KEY idx_name (name)", WithIndexKeywords())
		require.True(t, errors.Is(err, ErrNotColumn))

		col, err := ParseColumn("key VARCHAR(255) NOT NULL")
		require.NoError(t, err)
		require.Equal(t, "VARCHAR(255)", col.Type)
	})

	t.Run("unbalanced parentheses", func(t *testing.T) {
		_, err := ParseColumn("price NUMERIC(10")
		require.Error(t, err)
	})
}

func TestColumnDefinition_Identifier(t *testing.T) {
	col, err := ParseColumn("`Order Id` INT")
	require.NoError(t, err)
	require.Equal(t, "Order Id", col.Identifier())
}

func TestColumnDefinition_RawWithoutPrimaryKey(t *testing.T) {
	tests := []struct {
		clause   string
		expected string
	}{
		{"id SERIAL PRIMARY KEY", "id SERIAL"},
		{"id INT PRIMARY KEY AUTO_INCREMENT", "id INT AUTO_INCREMENT"},
		{"id UUID primary key DEFAULT gen_random_uuid()", "id UUID DEFAULT gen_random_uuid()"},
		{"name TEXT", "name TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.clause, func(t *testing.T) {
			col, err := ParseColumn(tt.clause)
			require.NoError(t, err)
			require.Equal(t, tt.expected, col.RawWithoutPrimaryKey())
		})
	}
}

func TestParseTableBody(t *testing.T) {
	body := `id INT NOT NULL, -- surrogate key, never reused
  tenant_id INT NOT NULL,
  price DECIMAL(10, 2) DEFAULT '0.00',
  /* free text, optional */
  note TEXT,
  PRIMARY KEY (id, tenant_id),
  UNIQUE KEY uniq_note (note(10)),
  CONSTRAINT fk_tenant FOREIGN KEY (tenant_id) REFERENCES tenants (id),
  broken DEFAULT`

	tb, err := ParseTableBody(body)
	require.NoError(t, err)

	require.Len(t, tb.Columns, 4)
	require.Equal(t, "id", tb.Columns[0].Name)
	require.Equal(t, "id INT NOT NULL", tb.Columns[0].Raw)
	require.Equal(t, 1, tb.Columns[0].Line)
	require.Equal(t, "tenant_id", tb.Columns[1].Name)
	require.Equal(t, "DECIMAL(10, 2)", tb.Columns[2].Type)
	require.Equal(t, utils.Ptr("0.00"), tb.Columns[2].Default)
	require.Equal(t, "note", tb.Columns[3].Name)
	require.Equal(t, 5, tb.Columns[3].Line)

	require.Equal(t, []string{"id", "tenant_id"}, tb.PrimaryKey)
	require.Equal(t, []string{
		"UNIQUE KEY uniq_note (note(10))",
		"CONSTRAINT fk_tenant FOREIGN KEY (tenant_id) REFERENCES tenants (id)",
	}, tb.Constraints)

	require.Len(t, tb.Errors, 1)
	require.Equal(t, "broken DEFAULT", tb.Errors[0].Clause)
	require.Equal(t, "broken", tb.Errors[0].Name)
	require.Equal(t, 9, tb.Errors[0].Line)
}

func TestParseTableBody_KeywordColumnNames(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		opts        []Option
		columns     []string
		constraints []string
	}{
		{
			name:    "key and value columns",
			body:    "key VARCHAR(255) NOT NULL,\n  value TEXT",
			columns: []string{"key", "value"},
		},
		{
			name:    "clickhouse key column",
			body:    "key String,\n  attrs Map(String, String)",
			columns: []string{"key", "attrs"},
		},
		{
			name:    "index and exclude columns",
			body:    "index INT NOT NULL,\n  exclude BOOLEAN DEFAULT false,\n  projection Nullable(String)",
			columns: []string{"index", "exclude", "projection"},
		},
		{
			name:        "clickhouse data skipping index",
			body:        "id UInt64,\n  INDEX idx_id id TYPE minmax GRANULARITY 4,\n  PROJECTION by_id (SELECT * ORDER BY id)",
			columns:     []string{"id"},
			constraints: []string{"INDEX idx_id id TYPE minmax GRANULARITY 4", "PROJECTION by_id (SELECT * ORDER BY id)"},
		},
		{
			name:        "postgres table constraints",
			body:        "id INT,\n  CHECK (id > 0),\n  EXCLUDE USING gist (id WITH =)",
			columns:     []string{"id"},
			constraints: []string{"CHECK (id > 0)", "EXCLUDE USING gist (id WITH =)"},
		},
		{
			name:        "reserved index keywords",
			body:        "`key` VARCHAR(255),\n  KEY idx_key (`key`),\n  INDEX (`key`),\n  FULLTEXT ft (`key`)",
			opts:        []Option{WithIndexKeywords()},
			columns:     []string{"`key`"},
			constraints: []string{"KEY idx_key (`key`)", "INDEX (`key`)", "FULLTEXT ft (`key`)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb, err := ParseTableBody(tt.body, tt.opts...)
			require.NoError(t, err)
			require.Empty(t, tb.Errors)

			names := make([]string, 0, len(tb.Columns))
			for _, col := range tb.Columns {
				names = append(names, col.Name)
			}

			require.Equal(t, tt.columns, names)
			require.Equal(t, tt.constraints, tb.Constraints)
		})
	}
}

func TestParseTableBody_NamedPrimaryKey(t *testing.T) {
	tb, err := ParseTableBody("id BIGINT,\nCONSTRAINT orders_pkey PRIMARY KEY (\"id\")")
	require.NoError(t, err)
	require.Len(t, tb.Columns, 1)
	require.Equal(t, []string{`"id"`}, tb.PrimaryKey)
	require.Empty(t, tb.Constraints)
}

func TestParseTableBody_UnterminatedString(t *testing.T) {
	_, err := ParseTableBody("name TEXT DEFAULT 'oops")
	require.Error(t, err)
}
