package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // database/sql driver for the migration runner

	"github.com/penshort/userapi/migrations"
)

// ErrMigration indicates the schema could not be brought up to date.
var ErrMigration = errors.New("failed to apply migrations")

// Migrate applies all pending embedded migrations in version order.
// It returns the schema version after the run.
func Migrate(databaseURL string) (uint, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return 0, fmt.Errorf("%w: open database: %w", ErrMigration, err)
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return 0, fmt.Errorf("%w: init postgres driver: %w", ErrMigration, err)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return 0, fmt.Errorf("%w: load migration files: %w", ErrMigration, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMigration, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("%w: %w", ErrMigration, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("%w: read version: %w", ErrMigration, err)
	}
	if dirty {
		return version, fmt.Errorf("%w: schema version %d is dirty", ErrMigration, version)
	}

	return version, nil
}
