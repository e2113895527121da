package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"startup-intake/internal/common/config"
	"startup-intake/internal/common/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies every pending migration. It uses a dedicated
// connection because closing the migrator closes its database handle.
func RunMigrations(cfg config.PostgresConfig, log logger.Logger) error {
	migrator, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer closeMigrator(migrator, log)

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no pending migrations", nil)
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	log.Info("migrations applied", map[string]interface{}{
		"version": version,
		"dirty":   dirty,
	})
	return nil
}

// MigrationVersion reports the schema version recorded in the database.
func MigrationVersion(cfg config.PostgresConfig, log logger.Logger) (uint, bool, error) {
	migrator, err := newMigrator(cfg)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(migrator, log)

	version, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, nil
}

func newMigrator(cfg config.PostgresConfig) (*migrate.Migrate, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return migrator, nil
}

func closeMigrator(m *migrate.Migrate, log logger.Logger) {
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		log.Warn("failed to close migrator", map[string]interface{}{
			"sourceError": fmt.Sprint(sourceErr),
			"dbError":     fmt.Sprint(dbErr),
		})
	}
}
