//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"visitstats/api/cache"
	"visitstats/api/models"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisStatsCache_Integration(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	c := cache.NewRedisStatsCache(rdb, time.Minute)
	week := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	got, err := c.Get(ctx, week)
	require.NoError(t, err)
	assert.Nil(t, got)

	report := &models.StatsReport{
		TotalVisits:       7,
		TotalUniqueVisits: 3,
		TopCountries:      []models.CountryCount{{Country: "US", Amount: 7}},
	}
	require.NoError(t, c.Set(ctx, week, report))

	got, err = c.Get(ctx, week)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, report.TotalVisits, got.TotalVisits)
	assert.Equal(t, report.TopCountries, got.TopCountries)

	ttl, err := rdb.TTL(ctx, cache.Key(week)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}
