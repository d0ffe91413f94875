package taskstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/saiid2001/vsf-analyzer/internal/config"
)

func openSQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("taskstore: opening database for migration: %w", err)
	}
	return db, nil
}

// Migrate applies every pending up migration under cfg.MigrationsPath to
// the database named by cfg.DSN, grounded on the migrator entry point's
// config/validate/run shape.
func Migrate(cfg config.DatabaseConfig) error {
	if cfg.MigrationsPath == "" {
		return fmt.Errorf("taskstore: migrations path not configured")
	}

	db, err := openSQL(cfg.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("taskstore: building postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("taskstore: building migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("taskstore: applying migrations: %w", err)
	}
	return nil
}
