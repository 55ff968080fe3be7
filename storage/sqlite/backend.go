// Package sqlite provides a SQLite-backed content storage implementation.
//
// Posts live in the items table and are identified by the engine rowid,
// rendered in decimal. Categories use client-generated UUID primary keys.
// A foreign key ties items.category to categories.id.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hwebs/content/storage"
	"github.com/hwebs/content/storage/sqlite/migrations"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"

	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
)

// Backend wraps a SQLite handle and owns the schema.
type Backend struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var _ storage.Resetter = (*Backend)(nil)

// migrateLoggerAdapter adapts slog.Logger to migrate.Logger interface.
type migrateLoggerAdapter struct {
	logger *slog.Logger
}

var _ migrate.Logger = (*migrateLoggerAdapter)(nil)

func (ml *migrateLoggerAdapter) Printf(format string, v ...any) {
	ml.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml *migrateLoggerAdapter) Verbose() bool {
	return ml.logger.Enabled(context.Background(), slog.LevelDebug)
}

// OpenBackend opens the SQLite database at path and applies migrations.
// Use MemoryPath for a throwaway database.
func OpenBackend(path string) (*Backend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sqlx.Open(driverName, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite serializes writers anyway, and an in-memory database exists
	// only on the connection that created it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	b := &Backend{
		db:     db,
		logger: slog.Default(),
	}
	if err := b.migrateUp(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func dsn(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the SQLite handle.
func (b *Backend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// DB exposes the underlying handle for callers that need raw access.
func (b *Backend) DB() *sqlx.DB {
	return b.db
}

// Reset drops both tables and recreates them empty.
func (b *Backend) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := b.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running down migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}
	b.logger.Info("sqlite schema reset")
	return nil
}

func (b *Backend) migrateUp() error {
	m, err := b.newMigrate()
	if err != nil {
		return err
	}
	err = m.Up()
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			b.logger.Debug("migration state is up to date")
			return nil
		}
		return fmt.Errorf("error running migrations: %w", err)
	}
	b.logger.Debug("ran migrations successfully")
	return nil
}

// newMigrate builds a migrator over the shared handle. The migrator is never
// closed: closing it would close b.db.
func (b *Backend) newMigrate() (*migrate.Migrate, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(b.db.DB, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("error creating sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return nil, fmt.Errorf("error creating migration instance: %w", err)
	}
	m.Log = &migrateLoggerAdapter{logger: b.logger}
	return m, nil
}

// NewRepositories opens a backend at path and creates both repositories.
// Caller must close the backend when done.
func NewRepositories(path string) (storage.PostRepository, storage.CategoryRepository, *Backend, error) {
	backend, err := OpenBackend(path)
	if err != nil {
		return nil, nil, nil, err
	}
	return NewPostRepository(backend), NewCategoryRepository(backend), backend, nil
}
