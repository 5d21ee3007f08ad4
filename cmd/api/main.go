package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/plataforma-media/user-accounts-api/internal/api"
	"github.com/plataforma-media/user-accounts-api/internal/core/service"
	"github.com/plataforma-media/user-accounts-api/internal/infrastructure/config"
	mongodb "github.com/plataforma-media/user-accounts-api/internal/infrastructure/db/mongo"
	"github.com/plataforma-media/user-accounts-api/internal/infrastructure/db/postgres"
	redisdb "github.com/plataforma-media/user-accounts-api/internal/infrastructure/db/redis"
	"github.com/plataforma-media/user-accounts-api/internal/infrastructure/http/handlers"
	"github.com/plataforma-media/user-accounts-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Credential store (PostgreSQL) ---
	credentialDB, err := postgres.Connect(ctx, cfg.CredentialDB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to credential database")
	}
	defer credentialDB.Close()

	// --- Profile store (MongoDB) ---
	mongoClient, profileDB, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.ProfileDB.URI,
		Database: cfg.ProfileDB.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to profile database")
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	// --- Redis (token denylist) ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer func() {
		_ = rdb.Close()
	}()

	// --- Core components ---
	hasher := service.NewBcryptHasher(cfg.BcryptCost)
	issuer := service.NewJWTIssuer(cfg.JWTSecret, cfg.JWTExpiration)
	revoker := redisdb.NewRevoker(rdb, issuer.TTL())

	coordinator := service.NewCoordinator(
		postgres.NewCredentialStore(credentialDB),
		mongodb.NewProfileStore(profileDB),
		hasher,
		issuer,
		revoker,
		logger.Component("coordinator"),
	)

	e := api.NewRouter(api.Deps{
		Identities: coordinator,
		Tokens:     issuer,
		Revoker:    revoker,
		Health:     handlers.NewHealthDependenciesHandler(credentialDB, profileDB, rdb),
		Logger:     log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting user accounts API")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
