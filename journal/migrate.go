package journal

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateUp applies all pending schema migrations
func migrateUp(db *sql.DB) error {

	m, err := newMigrate(db)

	if err != nil {
		return err
	}

	// m is not closed as that would close the shared database handle

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	return nil
}

// schemaVersion returns the applied migration version
func schemaVersion(db *sql.DB) (uint, error) {

	m, err := newMigrate(db)

	if err != nil {
		return 0, err
	}

	version, _, err := m.Version()

	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}

	return version, err
}

// newMigrate creates a migrate instance over the embedded migrations
func newMigrate(db *sql.DB) (*migrate.Migrate, error) {

	src, err := iofs.New(migrationsFS, "migrations")

	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})

	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)

	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	m.Log = &migrateLogger{}

	return m, nil
}

// migrateLogger implements migrate.Logger interface
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
