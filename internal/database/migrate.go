package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const migrationsTable = "shopkart_schema_migrations"

// ErrDirtySchema means an earlier migration failed part-way and needs a manual force.
var ErrDirtySchema = errors.New("schema is dirty")

// MigrationStatus is the schema version before and after a run; 0 means an empty database.
type MigrationStatus struct {
	From uint
	To   uint
}

func (s MigrationStatus) Applied() bool { return s.To != s.From }

// RunMigrations brings the schema up to the newest migration under migrationsPath.
// A dirty schema is reported instead of being migrated over.
func RunMigrations(databaseURL, migrationsPath string) (MigrationStatus, error) {
	var status MigrationStatus

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return status, fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	migrator, err := newMigrator(db, migrationsPath)
	if err != nil {
		return status, err
	}

	if status.From, err = schemaVersion(migrator); err != nil {
		return status, err
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return status, fmt.Errorf("apply migrations from version %d: %w", status.From, err)
	}

	status.To, err = schemaVersion(migrator)
	return status, err
}

func newMigrator(db *sql.DB, migrationsPath string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("load migrations from %s: %w", migrationsPath, err)
	}
	return migrator, nil
}

func schemaVersion(m *migrate.Migrate) (uint, error) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("read schema version: %w", err)
	case dirty:
		return version, fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}
	return version, nil
}
