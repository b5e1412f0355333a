package repository

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// newMigrator binds the embedded migrations to db. The postgres driver closes db on
// Close, so the migrator is left open and the caller keeps ownership of the connection.
func newMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("could not load embedded migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	return m, nil
}

func MigrateUp(db *sqlx.DB, logger *logrus.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Errorf("Repository: Migration up failed: %v", err)
		return fmt.Errorf("migration up failed: %w", err)
	}
	logMigrationVersion(m, logger)
	return nil
}

// MigrateDown rolls back the given number of steps.
func MigrateDown(db *sqlx.DB, steps int, logger *logrus.Logger) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Errorf("Repository: Migration down (%d steps) failed: %v", steps, err)
		return fmt.Errorf("migration down failed: %w", err)
	}
	logMigrationVersion(m, logger)
	return nil
}

func logMigrationVersion(m *migrate.Migrate, logger *logrus.Logger) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Info("Repository: Database has no migrations applied")
		return
	}
	if err != nil {
		logger.Warnf("Repository: Could not read migration version: %v", err)
		return
	}
	logger.Infof("Repository: Database schema at version %d (dirty=%t)", version, dirty)
}
