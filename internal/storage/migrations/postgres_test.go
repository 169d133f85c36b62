package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresFiles(t *testing.T) {
	files, err := PostgresFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_leaderboard.sql", files[0])

	for _, f := range files {
		data, err := fs.ReadFile(PostgresFS, "postgres/"+f)
		require.NoError(t, err)
		sql := string(data)
		assert.NotContains(t, sql, "DROP ", "%s must be additive", f)
		assert.Equal(t, strings.Count(sql, "CREATE TABLE"), strings.Count(sql, "CREATE TABLE IF NOT EXISTS"), "%s must be idempotent", f)
	}
}

func TestPostgresSchema_Tables(t *testing.T) {
	data, err := fs.ReadFile(PostgresFS, "postgres/001_leaderboard.sql")
	require.NoError(t, err)

	assert.Contains(t, string(data), "leaderboard_reports")
	assert.Contains(t, string(data), "leaderboard_entries")
}

func TestClickhouseFiles(t *testing.T) {
	files, err := ClickhouseFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_swaps.sql", files[0])

	for _, f := range files {
		data, err := fs.ReadFile(ClickhouseFS, "clickhouse/"+f)
		require.NoError(t, err)
		require.NoError(t, validateNoSemicolonInStrings(string(data)), f)
		for _, stmt := range splitStatements(string(data)) {
			assert.Contains(t, stmt, "IF NOT EXISTS", "%s must be idempotent", f)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	sql := `
-- header comment
CREATE TABLE IF NOT EXISTS a (x UInt8) ENGINE = Memory;

  -- indented comment
CREATE TABLE IF NOT EXISTS b (
    y String
) ENGINE = Memory;
`
	stmts := splitStatements(sql)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS a (x UInt8) ENGINE = Memory", stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE IF NOT EXISTS b ("))
	assert.NotContains(t, stmts[1], "--")

	assert.Empty(t, splitStatements("-- only a comment\n\n"))
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings("SELECT 'a''b'; SELECT 1;"))
	assert.Error(t, validateNoSemicolonInStrings("SELECT 'a;b'"))
}
