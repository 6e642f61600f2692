package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatType(t *testing.T) {
	i := func(v int32) *int32 { return &v }

	require.Equal(t, "varchar(255)", formatType("varchar", "character varying", i(255), nil, nil))
	require.Equal(t, "bpchar(1)", formatType("bpchar", "character", i(1), nil, nil))
	require.Equal(t, "numeric(10,2)", formatType("numeric", "numeric", nil, i(10), i(2)))
	require.Equal(t, "numeric", formatType("numeric", "numeric", nil, nil, nil))
	require.Equal(t, "int4", formatType("int4", "integer", nil, i(32), i(0)))
	require.Equal(t, "_text", formatType("_text", "ARRAY", nil, nil, nil))
}

func TestSchemaOrDefault(t *testing.T) {
	require.Equal(t, "public", schemaOrDefault(""))
	require.Equal(t, "billing", schemaOrDefault("billing"))
}
