package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"familyfitness/wod-server/internal/api"
	"familyfitness/wod-server/internal/config"
	"familyfitness/wod-server/internal/repository"
	"familyfitness/wod-server/internal/repository/memory"
	"familyfitness/wod-server/internal/repository/mongo"
	"familyfitness/wod-server/internal/repository/postgres"
	"familyfitness/wod-server/internal/service"
	"familyfitness/wod-server/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	log.Info("Starting WOD server...", zap.String("driver", cfg.Database.Driver))

	// --- Database Connection ---
	repos, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Initialize Storage ---
	fileStorage, err := openFileStorage(ctx, cfg.S3)
	if err != nil {
		return err
	}

	// --- Initialize Services ---
	sessionService := service.NewSessionService(repos, log)
	scoreService := service.NewScoreService(repos, log)
	services := api.Services{
		Users:        service.NewUserService(repos.Users, log),
		Groups:       service.NewGroupService(repos, log),
		WorkoutTypes: service.NewWorkoutTypeService(repos.WorkoutTypes),
		Sessions:     sessionService,
		Participants: service.NewParticipantService(repos, log),
		Stations:     service.NewStationService(repos, log),
		Scores:       scoreService,
		Exports:      service.NewExportService(sessionService, scoreService, fileStorage, cfg.S3.PresignExpiry, log),
	}

	// --- Initialize Gin Engine ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(log))
	api.SetupRoutes(router, api.AuthConfig{JWTSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}, services, log)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// --- Graceful Shutdown ---
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exiting.")
	return nil
}

// openStore connects the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config) (repository.Repositories, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, err := mongo.ConnectDB(ctx, cfg.Database.URI)
		if err != nil {
			return repository.Repositories{}, nil, fmt.Errorf("could not connect to MongoDB: %w", err)
		}
		db := client.Database(cfg.Database.Name)

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(indexCtx, db, log); err != nil {
			_ = mongo.DisconnectDB(client)
			return repository.Repositories{}, nil, fmt.Errorf("could not ensure MongoDB indexes: %w", err)
		}

		log.Info("Database connection established.", zap.String("database", cfg.Database.Name))
		return mongo.NewRepositories(db), func() {
			log.Info("Disconnecting MongoDB...")
			if err := mongo.DisconnectDB(client); err != nil {
				log.Error("Failed to disconnect MongoDB", zap.Error(err))
			}
		}, nil

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		if err := db.RunMigrations(ctx); err != nil {
			_ = db.Close()
			return repository.Repositories{}, nil, err
		}

		log.Info("Database connection established.")
		return postgres.NewRepositories(db), func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL", zap.Error(err))
			}
		}, nil

	case config.DriverMemory:
		log.Warn("Using the in-memory store; data is lost on restart.")
		return memory.NewRepositories(), func() {}, nil
	}
	return repository.Repositories{}, nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Database.Driver)
}

func openFileStorage(ctx context.Context, s3cfg config.S3Config) (storage.FileStorage, error) {
	if !s3cfg.Enabled() {
		log.Warn("No S3 bucket configured; exports are kept in memory.")
		return storage.NewMemoryStorage(), nil
	}
	files, err := storage.NewS3Storage(ctx, s3cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
	}
	return files, nil
}
