// Package database owns the Postgres schema of the image catalog and the
// tooling that applies it.
package database

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the pgx5 scheme
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateScheme is the URL scheme the golang-migrate pgx/v5 driver registers.
const migrateScheme = "pgx5"

func migrationsSource() (source.Driver, error) {
	return iofs.New(migrationsFS, "migrations")
}

// Migrator is the subset of *migrate.Migrate the CLI and tests rely on.
type Migrator interface {
	Up() error
	Down() error
	Steps(int) error
	Version() (uint, bool, error)
	Close() (error, error)
}

// NewFromConnectionString returns a migrator bound to the embedded migrations.
// Both postgres:// and postgresql:// URLs are accepted.
func NewFromConnectionString(connString string) (Migrator, error) {
	d, err := migrationsSource()
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, toMigrateURL(connString))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration. Already being at the latest
// version is not an error.
func MigrateUp(connString string) (uint, error) {
	return run(connString, func(m Migrator) error { return m.Up() })
}

// MigrateDown rolls back the given number of migrations. A non-positive
// count rolls back everything.
func MigrateDown(connString string, steps int) (uint, error) {
	return run(connString, func(m Migrator) error {
		if steps <= 0 {
			return m.Down()
		}
		return m.Steps(-steps)
	})
}

func run(connString string, fn func(Migrator) error) (uint, error) {
	m, err := NewFromConnectionString(connString)
	if err != nil {
		return 0, err
	}
	defer func() { _, _ = m.Close() }()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, err
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, err
	}
	return version, nil
}

func toMigrateURL(connString string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(connString, prefix) {
			return migrateScheme + "://" + strings.TrimPrefix(connString, prefix)
		}
	}
	return connString
}
