// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command tui is the terminal character dashboard.
//
// # Startup Sequence
//
//  1. Load configuration from environment variables.
//  2. Open the log file (the terminal itself belongs to the dashboard).
//  3. Build the character API client and the optional Redis tier.
//  4. Start one dashboard session and run the bubbletea program over it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taibuivan/charboard/internal/character"
	"github.com/taibuivan/charboard/internal/dashboard"
	"github.com/taibuivan/charboard/internal/platform/config"
	"github.com/taibuivan/charboard/internal/platform/constants"
	redisstore "github.com/taibuivan/charboard/internal/platform/redis"
	"github.com/taibuivan/charboard/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "charboard:", err)
		os.Exit(1)
	}
}

func run() error {
	// ── 1. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// ── 2. Logger ─────────────────────────────────────────────────────────
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	log := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level})).
		With(slog.String(constants.FieldApp, constants.AppName+"-tui"))
	slog.SetDefault(log)

	// ── 3. Character Source ───────────────────────────────────────────────
	source, err := character.NewClient(character.Options{
		BaseURL: cfg.CharacterAPIURL,
		Timeout: cfg.CharacterAPITimeout,
		RPS:     cfg.CharacterAPIRPS,
		Burst:   cfg.CharacterAPIBurst,
	}, log)
	if err != nil {
		return fmt.Errorf("build character client: %w", err)
	}

	var tier dashboard.DetailTier
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		rdb, err := redisstore.Connect(ctx, redisstore.OptionsFrom(cfg), log)
		cancel()
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()

		tier = dashboard.NewRedisTier(rdb, cfg.DetailCacheTTL)
	}

	// ── 4. Dashboard ──────────────────────────────────────────────────────
	session := dashboard.New(dashboard.Options{
		Source:   source,
		Tier:     tier,
		PageSize: cfg.DefaultPageSize,
		Debounce: cfg.SearchDebounce,
		Logger:   log,
	})
	defer session.Close()

	log.Info("dashboard_started", slog.String("character_api", cfg.CharacterAPIURL))

	program := tea.NewProgram(tui.New(session, cfg.ExportDir, log), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}

	log.Info("dashboard_stopped")
	return nil
}
