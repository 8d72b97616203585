package migrations

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrator_UpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	m := NewMigrator(db)

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx))

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.Equal(t, "001", status[0].Version)
	assert.Equal(t, "selection_runs", status[0].Name)
	for _, s := range status {
		assert.True(t, s.Applied, s.Version)
	}

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM selection_runs"))
	assert.Equal(t, 0, count)
}

func TestMigrator_DetectsModifiedMigration(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	first := &Migrator{db: db, logger: NewMigrator(db).logger, files: fstest.MapFS{
		"sql/001_t.sql": {Data: []byte("CREATE TABLE t (id INTEGER)")},
	}}
	require.NoError(t, first.Up(ctx))

	changed := &Migrator{db: db, logger: first.logger, files: fstest.MapFS{
		"sql/001_t.sql": {Data: []byte("CREATE TABLE t (id TEXT)")},
	}}
	err := changed.Up(ctx)
	var mismatch *ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "001", mismatch.Version)
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x INT);\n\n  CREATE INDEX i ON a (x);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a (x)"}, got)
}
