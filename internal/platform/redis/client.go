// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis connects the shared detail cache.

Character detail records resolved by one dashboard session are written to
Redis with a TTL (see dashboard.RedisTier) so that other sessions, and other
server instances, can reuse them without calling the remote character API
again. The cache is optional: both binaries only connect when REDIS_URL is set.

Usage:

	client, err := redis.Connect(ctx, redis.OptionsFrom(cfg), logger)
	...
	health.CheckCache = redis.Checker(client, cfg.RedisTimeout)
*/
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/charboard/internal/platform/config"
)

// # Connection Options

// Options configures the detail cache connection.
type Options struct {
	// URL is a redis:// or rediss:// connection URL.
	URL string

	// PoolSize caps open connections. Detail reads and writes are short, so
	// the idle pool is kept at a quarter of it.
	PoolSize int

	// Timeout bounds dialing, every command and the startup ping.
	Timeout time.Duration
}

// OptionsFrom reads the cache settings of cfg.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		URL:      cfg.RedisURL,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	}
}

// clientOptions converts options into go-redis settings.
func (options Options) clientOptions() (*goredis.Options, error) {
	parsed, err := goredis.ParseURL(options.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	if options.PoolSize > 0 {
		parsed.PoolSize = options.PoolSize
		parsed.MaxIdleConns = max(1, options.PoolSize/4)
		parsed.MinIdleConns = 1
	}

	if options.Timeout > 0 {
		parsed.DialTimeout = options.Timeout
		parsed.ReadTimeout = options.Timeout
		parsed.WriteTimeout = options.Timeout
	}

	return parsed, nil
}

// # Connection

// Connect opens the detail cache and pings it once before returning.
func Connect(ctx context.Context, options Options, logger *slog.Logger) (*goredis.Client, error) {
	parsed, err := options.clientOptions()
	if err != nil {
		return nil, err
	}

	client := goredis.NewClient(parsed)

	if err := Checker(client, options.Timeout)(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("detail_cache_connected",
		slog.String("addr", parsed.Addr),
		slog.Int("pool_size", parsed.PoolSize),
	)

	return client, nil
}

// Checker returns a ping bounded by timeout, for startup and the readiness
// probe. A non-positive timeout leaves the bound to ctx.
func Checker(client goredis.UniversalClient, timeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: ping failed: %w", err)
		}
		return nil
	}
}
