package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMigrations = fstest.MapFS{
	"sqlite/0001_init.sql": {Data: []byte(`-- +migrate Up
CREATE TABLE widgets (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE);
-- +migrate Down
DROP TABLE widgets;
`)},
	"sqlite/0002_more.sql": {Data: []byte(`CREATE TABLE gadgets (id TEXT PRIMARY KEY);
CREATE TABLE gizmos (id TEXT PRIMARY KEY);`)},
	"sqlite/README.md":      {Data: []byte("not a migration")},
	"sqlite/0003_empty.sql": {Data: []byte("-- +migrate Up\n\n-- +migrate Down\nSELECT 1;")},
}

func TestSQLiteConfig_DSN(t *testing.T) {
	cfg := &SQLiteConfig{Path: "data/../app.db", BusyTimeout: 2 * time.Second}
	assert.Equal(t, "file:app.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cfg.DSN())

	mem := &SQLiteConfig{Path: ":memory:"}
	assert.Contains(t, mem.DSN(), "file::memory:?")
	assert.Contains(t, mem.DSN(), "busy_timeout(5000)")
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), &SQLiteConfig{})
	assert.Error(t, err)

	_, err = OpenSQLite(context.Background(), nil)
	assert.Error(t, err)
}

func TestApplySQLiteMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, &SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	applied, err := ApplySQLiteMigrations(ctx, db, testMigrations, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	// second run is a no-op
	applied, err = ApplySQLiteMigrations(ctx, db, testMigrations, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	_, err = db.ExecContext(ctx, `INSERT INTO widgets (id, name) VALUES ('1', 'a')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO gizmos (id) VALUES ('1')`)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestApplySQLiteMigrations_BadSQL(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, &SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bad := fstest.MapFS{"m/0001_bad.sql": {Data: []byte("CREATE TABLE (;")}}
	_, err = ApplySQLiteMigrations(ctx, db, bad, "m")
	assert.ErrorContains(t, err, "0001_bad.sql")
}

func TestExtractUpMigration(t *testing.T) {
	assert.Equal(t, "\nA\n", ExtractUpMigration("-- +migrate Up\nA\n-- +migrate Down\nB"))
	assert.Equal(t, "\nA", ExtractUpMigration("-- +migrate Up\nA"))
	assert.Equal(t, "plain", ExtractUpMigration("plain"))
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{}, "nope")
	assert.Error(t, err)
}
