// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Charboard session API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Build the character API client.
//  4. Connect to Redis when configured (shared detail cache).
//  5. Wire the session registry and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/charboard/internal/api"
	"github.com/taibuivan/charboard/internal/character"
	"github.com/taibuivan/charboard/internal/dashboard"
	"github.com/taibuivan/charboard/internal/platform/config"
	"github.com/taibuivan/charboard/internal/platform/constants"
	redisstore "github.com/taibuivan/charboard/internal/platform/redis"
	"github.com/taibuivan/charboard/internal/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String(constants.FieldApp, constants.AppName))
	slog.SetDefault(log)

	log.Info("[Charboard] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String(constants.FieldApp, constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("character_api", cfg.CharacterAPIURL),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Character Source ───────────────────────────────────────────────
	source, err := character.NewClient(character.Options{
		BaseURL: cfg.CharacterAPIURL,
		Timeout: cfg.CharacterAPITimeout,
		RPS:     cfg.CharacterAPIRPS,
		Burst:   cfg.CharacterAPIBurst,
	}, log)
	must(log, err, "build character client")

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var (
		rdb  *goredis.Client
		tier dashboard.DetailTier
	)
	if cfg.RedisURL != "" {
		rdb, err = redisstore.Connect(startupCtx, redisstore.OptionsFrom(cfg), log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
		tier = dashboard.NewRedisTier(rdb, cfg.DetailCacheTTL)
	} else {
		log.Info("shared_detail_cache_disabled")
	}

	// ── 5. Sessions ───────────────────────────────────────────────────────
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	registry := session.NewRegistry(func() *dashboard.Session {
		return dashboard.New(dashboard.Options{
			Source:   source,
			Tier:     tier,
			PageSize: cfg.DefaultPageSize,
			Debounce: cfg.SearchDebounce,
			Logger:   log,
		})
	}, cfg.SessionIdleTTL, log)
	defer registry.Close()

	go registry.Run(rootCtx)

	health := api.HealthDependencies{LiveSessions: registry.Len}
	if rdb != nil {
		health.CheckCache = redisstore.Checker(rdb, cfg.RedisTimeout)
	}
	liveness, readiness := api.NewHealthHandlers(health, log)

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(rootCtx, cfg, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Session:   session.NewHandler(registry),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly", slog.Int("open_sessions", registry.Len()))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
