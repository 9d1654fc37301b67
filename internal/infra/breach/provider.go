package breach

import (
	"log/slog"

	"credvault/config"
	"credvault/internal/domain/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

type OracleParams struct {
	fx.In

	Cfg    *config.Config
	Logger *slog.Logger
	Redis  *redis.Client `optional:"true"`
}

// NewBreachOracle assembles the oracle from config. It returns nil when the
// breach check is disabled, and caches ranges in Redis when a client is available.
func NewBreachOracle(params OracleParams) service.BreachOracle {
	cfg := params.Cfg.Breach
	if cfg == nil {
		cfg = config.DefaultBreachConfig()
	}
	if !cfg.IsEnabled() {
		params.Logger.Warn("Breach check disabled by configuration")

		return nil
	}

	fetcher := NewHIBPClient(cfg)
	if params.Redis != nil {
		fetcher = NewRedisRangeCache(params.Redis, fetcher, cfg.CacheTTL, params.Logger)
	}

	return NewOracle(fetcher, cfg.MinOccurrences)
}
