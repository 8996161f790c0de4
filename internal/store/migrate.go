package store

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

func newMigrate(path string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+path)
	if err != nil {
		return nil, fmt.Errorf("migrate new: %w", err)
	}
	return m, nil
}

// MigrateUp applies all pending migrations to the sqlite file at path and
// returns the resulting schema version.
func MigrateUp(path string) (uint, error) {
	m, err := newMigrate(path)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Debug().Str("module", "store").Str("path", path).Msg("migrate: no pending migrations")
	case err != nil:
		return 0, fmt.Errorf("migrate up: %w", err)
	default:
		log.Info().Str("module", "store").Str("path", path).Msg("migrate: up ok")
	}

	v, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("migrate version: %w", err)
	}
	return v, nil
}

// MigrateDown rolls back every migration. Used by the migrate command only.
func MigrateDown(path string) error {
	m, err := newMigrate(path)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	log.Info().Str("module", "store").Str("path", path).Msg("migrate: down ok")
	return nil
}
