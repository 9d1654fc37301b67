// Package cache provides the Redis client used by caching decorators.
package cache

import (
	"context"
	"log/slog"
	"time"

	"credvault/config"
	"credvault/internal/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const pingTimeout = 5 * time.Second

type RedisParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *slog.Logger
}

// NewRedis returns nil when Redis is disabled. The client is pinged on start and closed on stop.
func NewRedis(params RedisParams) (*redis.Client, error) {
	if params.Cfg.Redis == nil || !params.Cfg.Redis.Enabled {
		return nil, nil
	}

	client, err := NewClient(params.Cfg.Redis)
	if err != nil {
		return nil, err
	}

	params.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "redis ping")
			}
			params.Logger.Info("Redis connected", slog.String("addr", client.Options().Addr))

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return errors.WithStack(client.Close())
		},
	})

	return client, nil
}

// NewClient builds a client from a redis:// URL without connecting.
func NewClient(cfg *config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}

	return redis.NewClient(opts), nil
}
