package convdb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsTable records the applied schema version.
const MigrationsTable = "schema_migrations"

// Migrate brings the database at path up to the latest schema. It is a
// setup step; Store operations assume the tables already exist.
func Migrate(ctx context.Context, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &StorageError{Op: "migrate", Err: err}
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return &StorageError{Op: "migrate", Err: err}
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return &StorageError{Op: "migrate", Err: err}
	}

	m, err := newMigrator(db)
	if err != nil {
		return &StorageError{Op: "migrate", Err: err}
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return &StorageError{Op: "migrate", Err: err}
	}
	return nil
}

// SchemaVersion returns the applied migration version of the database at
// path. A database without migrations reports version 0.
func SchemaVersion(path string) (uint, bool, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return 0, false, &StorageError{Op: "schema version", Err: err}
	}
	defer db.Close()

	m, err := newMigrator(db)
	if err != nil {
		return 0, false, &StorageError{Op: "schema version", Err: err}
	}
	defer m.Close()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &StorageError{Op: "schema version", Err: err}
	}
	return v, dirty, nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	drv, err := sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, "sqlite", drv)
}
