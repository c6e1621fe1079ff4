package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
)

const (
	migrationsDir  = "migrations"
	shortLinkCache = 1024
)

func main() {
	if err := run(); err != nil {
		logging.L().Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if err := database.RunMigrations(db, migrationsDir); err != nil {
		return err
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		// rate limiting is optional; run without it
		log.Warn().Err(err).Msg("redis unavailable, recipe creation is not rate limited")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	ingredients := service.NewIngredientService(db)
	if cfg.IngredientsCSV != "" {
		n, err := ingredients.ImportCSV(ctx, cfg.IngredientsCSV)
		if err != nil {
			return fmt.Errorf("failed to import ingredients: %w", err)
		}
		log.Info().Int("inserted", n).Str("file", cfg.IngredientsCSV).Msg("ingredient catalogue loaded")
	}

	cache, err := service.NewShortLinkCache(shortLinkCache)
	if err != nil {
		return err
	}
	auth := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL)

	srv := server.New(cfg, db, redisClient, api.NewServices(db, images, cache, auth))
	if err := srv.Start(ctx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	switch cfg.StorageBackend {
	case "s3":
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewS3StoreFromConfig(s3cfg), nil
	default:
		return storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	}
}
