package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/voicewatch/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all migrations (drops every table)",
	RunE:  runMigrateDown,
}

func init() {
	migrateCmd.AddCommand(migrateDownCmd)
}

func runMigrateUp(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := store.MigrateUp(cfg.DatabasePath)
	if err != nil {
		return err
	}
	log.Info().Str("module", "main").Str("db", cfg.DatabasePath).Uint("version", v).Msg("migrations applied")
	return nil
}

func runMigrateDown(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := store.MigrateDown(cfg.DatabasePath); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	log.Info().Str("module", "main").Str("db", cfg.DatabasePath).Msg("migrations reverted")
	return nil
}
