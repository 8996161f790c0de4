// Package store persists sessions and records in sqlite through gorm.
package store

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dkeye/voicewatch/internal/core"
)

const dateLayout = "2006-01-02"

// Store implements core.SessionStore.
type Store struct {
	db *gorm.DB
}

var _ core.SessionStore = (*Store)(nil)

// gormLog routes gorm's warnings into zerolog.
type gormLog struct{}

func (gormLog) Printf(format string, args ...any) {
	log.Warn().Str("module", "store").Msgf(format, args...)
}

// Open migrates the sqlite file at path and opens it.
func Open(path string) (*Store, error) {
	if _, err := MigrateUp(path); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(gormLog{}, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// sqlite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	log.Info().Str("module", "store").Str("path", path).Msg("database ready")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
