package main

import (
	"fmt"

	"familyfitness/wod-server/internal/config"
	"familyfitness/wod-server/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "wod-server"

var (
	configPath string

	cfg config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Family workout-of-the-day server",
	Long: `wod-server runs the family workout API.

Groups plan sessions with up to four stations, members join, and every
participant works three rounds through the stations. Completing or
cancelling a session fills in any missing interval score with zero.

COMMANDS:

  serve     Start the HTTP API (default)
  migrate   Apply PostgreSQL schema migrations
  indexes   Create MongoDB indexes`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("could not load config: %w", err)
		}
		log, err = logger.New(&cfg.Log, serviceName)
		if err != nil {
			return fmt.Errorf("could not create logger: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if log != nil {
			_ = log.Sync()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory holding config.yaml and .env")
	rootCmd.AddCommand(serveCmd, migrateCmd, indexesCmd)
}
