package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	migrations, err := fs.Sub(EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := New(filepath.Join(t.TempDir(), "blogme.db"), migrations)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSplitStatements(t *testing.T) {
	sql := `-- header; with semicolon
CREATE TABLE a (x TEXT);
INSERT INTO a VALUES ('semi;colon');
INSERT INTO a VALUES ('it''s')`

	got := splitStatements(sql)
	require.Len(t, got, 3)
	assert.Equal(t, "CREATE TABLE a (x TEXT)", got[0])
	assert.Equal(t, "INSERT INTO a VALUES ('semi;colon')", got[1])
	assert.Equal(t, "INSERT INTO a VALUES ('it''s')", got[2])
}

func TestNewAppliesMigrationsOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blogme.db")
	migrations, err := fs.Sub(EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := New(path, migrations)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening must not re-run the schema.
	db, err = New(path, migrations)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv_store (key, value) VALUES ('k', '1')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM kv_store").Scan(&count))
	assert.Zero(t, count)
}

func TestWithTxCommits(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv_store (key, value) VALUES ('k', '1')`)
		return err
	})
	require.NoError(t, err)

	var value string
	require.NoError(t, db.Conn.QueryRow("SELECT value FROM kv_store WHERE key = 'k'").Scan(&value))
	assert.Equal(t, "1", value)
}
