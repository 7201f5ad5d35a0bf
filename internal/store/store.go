// Package store owns the embedded relational engine: opening the
// database file, configuring the connection pool, and applying
// migrations. It has no knowledge of issues, users, or labels — typed
// queries live in internal/repository, which is the sole consumer of
// the *sql.DB this package exposes.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var defaultMigrations embed.FS

// Config configures pool sizing. Zero values fall back to sensible
// defaults rather than "unlimited".
type Config struct {
	Path            string
	MigrationDir    string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store wraps the database handle and its pool. Process-wide: opened
// once at boot, closed once at shutdown, never reopened per request.
type Store struct {
	DB *sql.DB
}

// Open creates (if absent) the database file, configures the pool, and
// enables foreign-key enforcement and WAL journaling. It does not run
// migrations — call Migrate separately so callers can log/ordering the
// two steps distinctly, matching the teacher's NewSQLiteStore/Migrate
// split.
func Open(cfg Config) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// PRAGMAs set via a bare Exec only bind to whichever single
	// connection happens to run it, not to every connection the pool
	// later opens. They're encoded in the DSN instead so modernc.org/sqlite
	// applies them on each new connection it creates.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &Store{DB: db}, nil
}

// Migrate applies every .sql file under dir in lexicographic order,
// each file as one batch, tracking applied filenames in
// schema_migrations so repeated boots are no-ops. If dir is empty or
// does not exist on disk, the compiled-in default migration set is
// used instead.
func (s *Store) Migrate(ctx context.Context, dir string) error {
	_, err := s.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	names, read, err := s.migrationSource(dir)
	if err != nil {
		return err
	}

	for _, name := range names {
		var count int
		if err := s.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name,
		).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := read(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.DB.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.DB.ExecContext(ctx,
			"INSERT INTO schema_migrations (filename) VALUES (?)", name,
		); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// migrationSource returns the sorted list of migration filenames and a
// reader for their contents, choosing between an on-disk directory and
// the embedded default set.
func (s *Store) migrationSource(dir string) ([]string, func(string) ([]byte, error), error) {
	if dir != "" {
		if entries, err := os.ReadDir(dir); err == nil {
			return sortedSQLNames(entries), func(name string) ([]byte, error) {
				return os.ReadFile(filepath.Join(dir, name))
			}, nil
		}
	}

	entries, err := fs.ReadDir(defaultMigrations, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	return sortedSQLNames(entries), func(name string) ([]byte, error) {
		return defaultMigrations.ReadFile("migrations/" + name)
	}, nil
}

func sortedSQLNames(entries []os.DirEntry) []string {
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// Ping verifies connectivity, used by the health handler.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

// NewID generates an opaque identifier: 16 random bytes, hex-encoded
// (32 lowercase characters, no separators). Used for issues, and by
// tests seeding users/labels, per spec.md §3's "random 128-bit token,
// serialized canonical hex" requirement — neither oklog/ulid (base32)
// nor google/uuid (dashed canonical form) produce this literal shape.
func NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
