package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := Open(Config{Path: dbPath})
	require.NoError(t, err)

	require.NoError(t, s.Migrate(context.Background(), ""))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := Open(Config{Path: dbPath})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx, ""))

	var count int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMigrate_CreatesExpectedTables(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, table := range []string{"users", "labels", "issues", "issue_labels"} {
		var name string
		err := s.DB.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_FromOnDiskDir(t *testing.T) {
	dir := t.TempDir()
	migrationDir := filepath.Join(dir, "migrations")
	require.NoError(t, os.MkdirAll(migrationDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(migrationDir, "0001_custom.sql"),
		[]byte("CREATE TABLE custom_marker (id TEXT PRIMARY KEY);"), 0o644))

	s, err := Open(Config{Path: filepath.Join(dir, "test.db")})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Migrate(context.Background(), migrationDir))

	var name string
	err = s.DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='custom_marker'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "custom_marker", name)
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestNewID_UniqueAndHex(t *testing.T) {
	a, err := NewID()
	require.NoError(t, err)
	b, err := NewID()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
	for _, c := range a {
		assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	s := newTestStore(t)
	_, err := s.DB.Exec(
		`INSERT INTO issues (id, title, description, status, priority, assignee_id, created_at, updated_at, order_index)
		 VALUES ('i1', 't', '', 'Todo', 'Low', 'missing-user', datetime('now'), datetime('now'), 0)`,
	)
	assert.Error(t, err, "dangling assignee_id should violate the foreign key")
}
