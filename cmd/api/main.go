package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verso-press/verso-backend/config"
	"github.com/verso-press/verso-backend/internal/auth"
	"github.com/verso-press/verso-backend/internal/bootstrap"
	"github.com/verso-press/verso-backend/internal/database"
	"github.com/verso-press/verso-backend/internal/live"
	"github.com/verso-press/verso-backend/internal/maintenance"
	"github.com/verso-press/verso-backend/internal/media"
	"github.com/verso-press/verso-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Environment, cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.DSN); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	firebaseClient, err := auth.InitializeFirebase(&cfg.Firebase)
	if err != nil {
		log.Fatal().Err(err).Msg("firebase initialization failed")
	}

	bus := live.NewBus(rdb, log)
	stores := bootstrap.NewStores(db, bus, log)

	var mediaStore *media.Store
	if cfg.Media.Bucket != "" {
		mediaStore, err = media.NewStore(ctx, cfg.Media, log)
		if err != nil {
			log.Fatal().Err(err).Msg("media store initialization failed")
		}
	}

	deps := bootstrap.RouterDeps{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Firebase: firebaseClient,
		Log:      log,
	}
	if mediaStore != nil {
		deps.Media = mediaStore
	}

	router, rateLimiter := bootstrap.BuildRouter(deps, bus, stores)
	defer rateLimiter.Stop()

	scheduler := maintenance.NewScheduler(stores.Subscriptions, log)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("maintenance scheduler failed to start")
	}
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
