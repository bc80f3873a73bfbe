// Package sqlite provides a SQLite credential backend.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/gravitational/trace"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Backend stores credentials in a single SQLite table.
type Backend struct {
	db *sql.DB
}

// New opens (creating when needed) the database at dbPath and applies
// migrations.
func New(dbPath string) (*Backend, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, trace.Wrap(err, "creating database directory")
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, trace.Wrap(err, "opening sqlite database")
	}
	// a single writer avoids SQLITE_BUSY between concurrent Save calls
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, trace.Wrap(err, "pinging database")
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, trace.Wrap(err, "running migrations")
	}
	return &Backend{db: db}, nil
}

// runMigrations uses its own connection, closing the migrate instance closes it.
func runMigrations(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return trace.Wrap(err)
	}
	defer db.Close()
	driver, err := msqlite.WithInstance(db, &msqlite.Config{})
	if err != nil {
		return trace.Wrap(err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return trace.Wrap(err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return trace.Wrap(err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return trace.Wrap(err)
	}
	return nil
}

func (b *Backend) Load(ctx context.Context, key string) (string, error) {
	var value string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE name = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", trace.NotFound("credential %q not found", key)
	}
	return value, trace.Wrap(err)
}

func (b *Backend) Save(ctx context.Context, key, value string) error {
	_, err := b.db.ExecContext(ctx, `INSERT INTO credentials (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, key, value)
	return trace.Wrap(err)
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM credentials WHERE name = ?`, key)
	return trace.Wrap(err)
}

// Close closes the database.
func (b *Backend) Close() error {
	return trace.Wrap(b.db.Close())
}
