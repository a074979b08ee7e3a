// api/cache/stats_cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"visitstats/api/models"
)

const statsCachePrefix = "visitstats:report:"

// StatsCache memoizes computed reports per calendar week.
type StatsCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, weekStart time.Time) (*models.StatsReport, error)
	Set(ctx context.Context, weekStart time.Time, report *models.StatsReport) error
}

var (
	_ StatsCache = (*RedisStatsCache)(nil)
	_ StatsCache = (*noopStatsCache)(nil)
)

type RedisStatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStatsCache returns a no-op cache when rdb is nil or ttl is not
// positive.
func NewRedisStatsCache(rdb *redis.Client, ttl time.Duration) StatsCache {
	if rdb == nil || ttl <= 0 {
		return &noopStatsCache{}
	}
	return &RedisStatsCache{rdb: rdb, ttl: ttl}
}

// Key identifies a week by its Monday, offset included, so servers in
// different zones never share entries.
func Key(weekStart time.Time) string {
	return statsCachePrefix + weekStart.Format(time.RFC3339)
}

func (c *RedisStatsCache) Get(ctx context.Context, weekStart time.Time) (*models.StatsReport, error) {
	data, err := c.rdb.Get(ctx, Key(weekStart)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stats report from cache: %w", err)
	}

	var report models.StatsReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached stats report: %w", err)
	}
	return &report, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, weekStart time.Time, report *models.StatsReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal stats report for cache: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(weekStart), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache stats report: %w", err)
	}
	return nil
}

type noopStatsCache struct{}

func (noopStatsCache) Get(context.Context, time.Time) (*models.StatsReport, error) { return nil, nil }

func (noopStatsCache) Set(context.Context, time.Time, *models.StatsReport) error { return nil }
