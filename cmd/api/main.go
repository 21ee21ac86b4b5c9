package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Coding-M1-AI/backend-flight-ai/config"
	"github.com/Coding-M1-AI/backend-flight-ai/handlers"
	"github.com/Coding-M1-AI/backend-flight-ai/logging"
	"github.com/Coding-M1-AI/backend-flight-ai/models"
	"github.com/Coding-M1-AI/backend-flight-ai/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Env, cfg.Log.Level)
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	for _, f := range cfg.Model.Features {
		if !models.IsKnownFeature(f) {
			log.Fatal().Str("feature", f).Strs("known", models.KnownFeatures).Msg("unknown MODEL_FEATURES entry")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := services.OpenDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	store := services.NewStore(db).WithTrainingSampling(cfg.Model.MaxSamples, cfg.Model.Seed)
	if err := store.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Redis is optional: without it caching and model events are disabled.
	cache, err := services.NewCacheService(cfg.Redis, log)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, continuing without cache")
	}
	defer cache.Close()

	actor := services.NewModelActor(services.ModelActorOptions{
		Path:        cfg.Model.Path,
		BaseVersion: cfg.Model.Version,
		Seed:        cfg.Model.Seed,
		MaxSamples:  cfg.Model.MaxSamples,
		Fallback:    cfg.Model.Fallback,
		Publisher:   cache,
		Logger:      log,
	})
	defer actor.Stop()

	if _, err := actor.Reload(ctx); err != nil {
		log.Warn().Err(err).Str("path", cfg.Model.Path).Bool("fallback", cfg.Model.Fallback).
			Msg("no model loaded at startup, predict unavailable until fit or artifact import")
	}

	if cfg.Model.Watch {
		watcher, err := services.NewArtifactWatcher(cfg.Model.Path, actor, log)
		if err != nil {
			log.Error().Err(err).Msg("artifact watcher disabled")
		} else {
			defer watcher.Close()
			go watcher.Run(ctx)
		}
	}

	deps := handlers.RouterDeps{
		Config:    cfg,
		Logger:    log,
		Model:     actor,
		Training:  store,
		Recorder:  store,
		Reference: services.NewReferenceService(store, cache, cfg.Redis.CacheTTL, cfg.Data, log),
		Database:  store,
		Cache:     cache,
		Events:    cache,
	}
	if cfg.Auth.Enabled() {
		deps.Auth = services.NewAuthService(cfg.Auth)
	} else {
		log.Warn().Msg("AUTH_JWT_SECRET not set, /fit is unauthenticated")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("starting flight delay api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	shutdown(srv, log)
}

func shutdown(srv *http.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}
