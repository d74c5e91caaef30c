package main

import (
	"context"
	"fmt"
	"time"

	"familyfitness/wod-server/internal/repository/mongo"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create MongoDB indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := mongo.ConnectDB(cmd.Context(), cfg.Database.URI)
		if err != nil {
			return fmt.Errorf("could not connect to MongoDB: %w", err)
		}
		defer func() {
			if err := mongo.DisconnectDB(client); err != nil {
				log.Error("Failed to disconnect MongoDB", zap.Error(err))
			}
		}()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, client.Database(cfg.Database.Name), log); err != nil {
			return err
		}
		log.Info("Index creation process completed.", zap.String("database", cfg.Database.Name))
		return nil
	},
}
