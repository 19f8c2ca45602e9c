package sqlitemigrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func createItems() *fstest.MapFile {
	return &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;")}
}

func TestApplyMigrationsRecordsApplied(t *testing.T) {
	t.Parallel()
	db := openInMemoryDB(t)

	applied, err := ApplyMigrations(context.Background(), db, fstest.MapFS{"001_create.sql": createItems()}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create.sql"}, applied)
	assert.EqualValues(t, 1, queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"))
	assert.True(t, tableExists(t, db, "items"))
}

func TestApplyMigrationsSkipsAlreadyApplied(t *testing.T) {
	t.Parallel()
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{"001_create.sql": createItems()}

	_, err := ApplyMigrations(context.Background(), db, migrations, "")
	require.NoError(t, err)
	applied, err := ApplyMigrations(context.Background(), db, migrations, "")
	require.NoError(t, err)

	assert.Empty(t, applied)
	assert.EqualValues(t, 1, queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"))
}

func TestApplyMigrationsRunsInLexicalOrder(t *testing.T) {
	t.Parallel()
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"migrations/002_index.sql":  &fstest.MapFile{Data: []byte("CREATE INDEX idx_items_id ON items(id);")},
		"migrations/001_create.sql": createItems(),
	}

	applied, err := ApplyMigrations(context.Background(), db, migrations, "migrations")
	require.NoError(t, err)
	assert.Equal(t, []string{"migrations/001_create.sql", "migrations/002_index.sql"}, applied)
}

func TestApplyMigrationsDoesNotRecordFailedMigration(t *testing.T) {
	t.Parallel()
	db := openInMemoryDB(t)

	bad := fstest.MapFS{"001_bad.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREAT table things(id INT);")}}
	_, err := ApplyMigrations(context.Background(), db, bad, "")
	require.Error(t, err)
	assert.EqualValues(t, 0, queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"))

	good := fstest.MapFS{"001_bad.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE things(id INT);")}}
	_, err = ApplyMigrations(context.Background(), db, good, "")
	require.NoError(t, err)
	assert.True(t, tableExists(t, db, "things"))
}

func TestApplyMigrationsRequiresDB(t *testing.T) {
	t.Parallel()

	_, err := ApplyMigrations(context.Background(), nil, fstest.MapFS{}, "")
	require.Error(t, err)
}

func TestExtractUpMigration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SELECT 1;", ExtractUpMigration("SELECT 1;"))
	assert.Equal(t, "\nA;\n", ExtractUpMigration("-- +migrate Up\nA;\n-- +migrate Down\nB;"))
	assert.Equal(t, "\nA;", ExtractUpMigration("-- +migrate Up\nA;"))
}

func TestIsAlreadyExistsError(t *testing.T) {
	t.Parallel()

	assert.False(t, IsAlreadyExistsError(nil))
	assert.True(t, IsAlreadyExistsError(errString("table items already exists")))
	assert.True(t, IsAlreadyExistsError(errString("duplicate column name: x")))
	assert.False(t, IsAlreadyExistsError(errString("syntax error")))
}

type errString string

func (e errString) Error() string { return string(e) }

func openInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func queryInt64(t *testing.T, db *sql.DB, query string) int64 {
	t.Helper()
	var value int64
	require.NoError(t, db.QueryRow(query).Scan(&value))
	return value
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var found string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false
	}
	require.NoError(t, err)
	return found == name
}
