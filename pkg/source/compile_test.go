package source_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pseudomuto/dbmover/pkg/consts"
	"github.com/pseudomuto/dbmover/pkg/source"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), consts.ModeDir))
		require.NoError(t, os.WriteFile(path, []byte(content), consts.ModeFile))
	}
}

func TestCompile(t *testing.T) {
	t.Run("compiles a file without imports", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"schema.sql": "CREATE TABLE users (\n  id INT NOT NULL\n);\n",
		})

		var buf bytes.Buffer
		require.NoError(t, source.Compile(filepath.Join(dir, "schema.sql"), &buf))
		require.Equal(t, "CREATE TABLE users (\n  id INT NOT NULL\n);\n", buf.String())
	})

	t.Run("inlines nested imports relative to the importing file", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"main.sql": "-- dbmover:import tables/users.sql\n-- dbmover:import tables/orders.sql\nCREATE VIEW v AS SELECT 1;",
			"tables/users.sql": `CREATE TABLE users (
  id INT NOT NULL
);
-- dbmover:import ../shared/audit.sql`,
			"tables/orders.sql": `CREATE TABLE orders (
  id INT NOT NULL,
  user_id INT NOT NULL
);`,
			"shared/audit.sql": `CREATE TABLE audit (
  id BIGINT NOT NULL
);`,
		})

		var buf bytes.Buffer
		require.NoError(t, source.Compile(filepath.Join(dir, "main.sql"), &buf))

		compiled := buf.String()
		require.NotContains(t, compiled, consts.ImportDirective)

		users := strings.Index(compiled, "CREATE TABLE users")
		audit := strings.Index(compiled, "CREATE TABLE audit")
		orders := strings.Index(compiled, "CREATE TABLE orders")
		view := strings.Index(compiled, "CREATE VIEW v")
		require.True(t, users >= 0 && users < audit && audit < orders && orders < view, compiled)
	})

	t.Run("handles absolute import paths", func(t *testing.T) {
		dir := t.TempDir()
		imported := filepath.Join(dir, "imported.sql")
		writeFiles(t, dir, map[string]string{
			"imported.sql": "CREATE TABLE imported (\n  id INT\n);",
			"main.sql":     "-- dbmover:import " + imported,
		})

		var buf bytes.Buffer
		require.NoError(t, source.Compile(filepath.Join(dir, "main.sql"), &buf))
		require.Contains(t, buf.String(), "CREATE TABLE imported")
	})

	t.Run("keeps similar comments", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"main.sql": "-- dbmover:imports are documented elsewhere\n-- dbmover:import\n",
		})

		var buf bytes.Buffer
		require.NoError(t, source.Compile(filepath.Join(dir, "main.sql"), &buf))
		require.Equal(t, "-- dbmover:imports are documented elsewhere\n-- dbmover:import\n", buf.String())
	})

	t.Run("returns error for missing files", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"main.sql": "-- dbmover:import missing.sql",
		})

		var buf bytes.Buffer
		err := source.Compile(filepath.Join(dir, "main.sql"), &buf)
		require.ErrorContains(t, err, "failed to read file")
		require.ErrorContains(t, err, "missing.sql")

		err = source.Compile(filepath.Join(dir, "nope.sql"), &buf)
		require.ErrorContains(t, err, "failed to read file")
	})

	t.Run("detects import cycles", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"a.sql": "-- dbmover:import b.sql",
			"b.sql": "-- dbmover:import a.sql",
		})

		var buf bytes.Buffer
		err := source.Compile(filepath.Join(dir, "a.sql"), &buf)
		require.ErrorIs(t, err, source.ErrImportCycle)
	})
}
