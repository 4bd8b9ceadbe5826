// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. Both binaries (the
session API and the terminal dashboard) load the same schema.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (character client, Redis, sessions) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/charboard/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for Charboard.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Remote character source
	CharacterAPIURL     string        `env:"CHARACTER_API_URL"     envDefault:"https://api.disneyapi.dev"`
	CharacterAPITimeout time.Duration `env:"CHARACTER_API_TIMEOUT" envDefault:"10s"`
	CharacterAPIRPS     float64       `env:"CHARACTER_API_RPS"     envDefault:"5"`
	CharacterAPIBurst   int           `env:"CHARACTER_API_BURST"   envDefault:"10"`

	// Dashboard behaviour
	DefaultPageSize int           `env:"DEFAULT_PAGE_SIZE" envDefault:"50"`
	SearchDebounce  time.Duration `env:"SEARCH_DEBOUNCE"   envDefault:"300ms"`
	SessionIdleTTL  time.Duration `env:"SESSION_IDLE_TTL"  envDefault:"30m"`

	// Key-Value Cache (Redis). Optional: the shared detail tier is disabled when empty.
	RedisURL       string        `env:"REDIS_URL"`
	RedisPoolSize  int           `env:"REDIS_POOL_SIZE"  envDefault:"10"`
	RedisTimeout   time.Duration `env:"REDIS_TIMEOUT"    envDefault:"2s"`
	DetailCacheTTL time.Duration `env:"DETAIL_CACHE_TTL" envDefault:"1h"`

	// LogFile receives structured logs from the terminal dashboard.
	LogFile string `env:"LOG_FILE" envDefault:"charboard.log"`

	// ExportDir is where the terminal dashboard writes spreadsheets.
	ExportDir string `env:"EXPORT_DIR" envDefault:"."`

	// Cross-Origin Resource Sharing
	ExtraOrigins []string `env:"EXTRA_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects values the dashboard cannot work with.
func (c *Config) validate() error {
	if !slices.Contains(constants.PageSizes, c.DefaultPageSize) {
		return fmt.Errorf("config: DEFAULT_PAGE_SIZE must be one of %v, got %d", constants.PageSizes, c.DefaultPageSize)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("config: SEARCH_DEBOUNCE must not be negative")
	}
	if c.CharacterAPIRPS <= 0 || c.CharacterAPIBurst < 1 {
		return fmt.Errorf("config: CHARACTER_API_RPS and CHARACTER_API_BURST must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the extra CORS origins accepted outside development.
func (c *Config) AllowedOrigins() []string {
	return c.ExtraOrigins
}
