package main

import (
	"context"
	"os"
	"time"

	"github.com/kaan/schoolhub/internal/app/migrations"
	"github.com/kaan/schoolhub/internal/app/repositories"
	"github.com/kaan/schoolhub/internal/app/services"
	"github.com/kaan/schoolhub/internal/config"
	"github.com/kaan/schoolhub/internal/db"
	"github.com/kaan/schoolhub/internal/pkg/blobstore"
	"github.com/kaan/schoolhub/internal/pkg/logger"
	"github.com/kaan/schoolhub/internal/seed"
)

// The serving layer lives in a separate deployment; this binary prepares
// the stores it depends on: schema migrations, optional seed data, and a
// wiring check of the avatar service.
func main() {
	cfg, err := config.LoadConfig(config.GetEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger.Configure(logger.Config{
		Level:  logger.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Format != "json",
	})

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		os.Exit(1)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	migrator := migrations.NewMigrator(database.Pool)
	if err := migrator.MigrateFromDirectory(ctx, cfg.Migrations.Dir); err != nil {
		logger.Error().Err(err).Msg("Failed to run migrations")
		os.Exit(1)
	}

	if cfg.Seed.Enabled {
		if err := seed.CreateDefaultData(ctx, database); err != nil {
			logger.Error().Err(err).Msg("Failed to seed default data")
			os.Exit(1)
		}
	}

	repos := repositories.NewRepositories(database.Pool)
	svcs := services.NewServices(repos, blobstore.NewLocal(), cfg.Storage.AvatarDir)

	count, err := svcs.Avatar.Count(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Avatar store check failed")
		os.Exit(1)
	}

	logger.Info().
		Str("avatarDir", cfg.Storage.AvatarDir).
		Int64("avatars", count).
		Msg("Store is migrated and ready")
}
