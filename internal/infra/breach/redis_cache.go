package breach

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"credvault/internal/errors"

	"github.com/redis/go-redis/v9"
)

const (
	rangeKeyPrefix = "credvault:breach:range:"

	// emptyRangeField marks a cached range that had no entries
	emptyRangeField = "_"
)

// redisRangeCache caches whole ranges in Redis hashes of suffix to count.
// Cache failures are logged and the upstream fetcher answers instead.
type redisRangeCache struct {
	client   *redis.Client
	upstream RangeFetcher
	ttl      time.Duration
	logger   *slog.Logger
}

// NewRedisRangeCache wraps upstream with a Redis read-through cache.
func NewRedisRangeCache(client *redis.Client, upstream RangeFetcher, ttl time.Duration, logger *slog.Logger) RangeFetcher {
	return &redisRangeCache{
		client:   client,
		upstream: upstream,
		ttl:      ttl,
		logger:   logger,
	}
}

func rangeKey(prefix string) string {
	return rangeKeyPrefix + prefix
}

func (c *redisRangeCache) FetchRange(ctx context.Context, prefix string) (map[string]int, error) {
	entries, hit, err := c.load(ctx, prefix)
	if err != nil {
		c.logger.WarnContext(ctx, "Breach range cache read failed", slog.String("prefix", prefix), slog.Any("error", err))
	}
	if hit {
		return entries, nil
	}

	entries, err = c.upstream.FetchRange(ctx, prefix)
	if err != nil {
		return nil, err
	}

	if err := c.store(ctx, prefix, entries); err != nil {
		c.logger.WarnContext(ctx, "Breach range cache write failed", slog.String("prefix", prefix), slog.Any("error", err))
	}

	return entries, nil
}

func (c *redisRangeCache) load(ctx context.Context, prefix string) (map[string]int, bool, error) {
	raw, err := c.client.HGetAll(ctx, rangeKey(prefix)).Result()
	if err != nil {
		return nil, false, errors.Wrap(err, "hgetall")
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	entries := make(map[string]int, len(raw))
	for suffix, rawCount := range raw {
		if suffix == emptyRangeField {
			continue
		}
		count, err := strconv.Atoi(rawCount)
		if err != nil {
			return nil, false, errors.Wrapf(err, "corrupt cached count for %s", suffix)
		}
		entries[suffix] = count
	}

	return entries, true, nil
}

func (c *redisRangeCache) store(ctx context.Context, prefix string, entries map[string]int) error {
	values := make(map[string]any, len(entries)+1)
	for suffix, count := range entries {
		values[suffix] = count
	}
	if len(values) == 0 {
		values[emptyRangeField] = 0
	}

	key := rangeKey(prefix)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}

		return nil
	})

	return errors.Wrap(err, "cache range")
}
