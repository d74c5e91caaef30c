package main

import (
	"fmt"

	"familyfitness/wod-server/internal/config"
	"familyfitness/wod-server/internal/repository/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Postgres.DSN == "" {
			return config.ErrMissingPostgresDSN
		}

		db, err := postgres.Open(cmd.Context(), cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.RunMigrations(cmd.Context()); err != nil {
			return err
		}
		version, err := db.MigrationVersion(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		log.Info("Migrations applied", zap.Int64("version", version))
		return nil
	},
}
