package sqlfile_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/pgbulk/sqlfile"
)

func TestLoad_SuffixOptional(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "truncate_users.sql"), []byte("TRUNCATE users;"), 0o600))
	l := sqlfile.New(dir)

	for _, name := range []string{"truncate_users", "truncate_users.sql"} {
		sql, err := l.Load(name)
		require.NoError(t, err, name)
		assert.Equal(t, "TRUNCATE users;", sql)
	}
}

func TestLoad_NotFound(t *testing.T) {
	dir := t.TempDir()

	_, err := sqlfile.New(dir).Load("missing")
	require.ErrorIs(t, err, sqlfile.ErrNotFound)
	assert.Contains(t, err.Error(), "SQL file not found")
	assert.Contains(t, err.Error(), filepath.ToSlash(filepath.Join(dir, "missing.sql")))
}

func TestRender(t *testing.T) {
	l := sqlfile.NewFS(fstest.MapFS{
		"truncate.sql": {Data: []byte(`TRUNCATE {{ quoteIdent .Table }};`)},
		"bad.sql":      {Data: []byte(`SELECT {{ .Missing }}`)},
	})

	sql, err := l.Render("truncate", map[string]any{"Table": "sales.orders"})
	require.NoError(t, err)
	assert.Equal(t, `TRUNCATE "sales"."orders";`, sql)

	_, err = l.Render("bad", map[string]any{})
	assert.Error(t, err)
}
