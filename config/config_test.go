package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))

	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Stats.TopCountries)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL.Std())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := writeConfig(t, `
[server]
port = "9001"
allowed_origins = ["https://example.com"]

[cache]
ttl = "2m"

[stats]
timezone = "UTC"
top_countries = 5
`)
	t.Setenv("PORT", "9100")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, ,10.0.0.2")
	t.Setenv("GEO_CACHE_TTL", "5m")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port, "environment wins over file")
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Server.TrustedProxies)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL.Std())
	assert.Equal(t, 5*time.Minute, cfg.Geo.CacheTTL.Std())
	assert.Equal(t, 5, cfg.Stats.TopCountries)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "lots")

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_BURST")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, "unsupported store driver"},
		{"clickhouse without host", func(c *Config) {
			c.Store.Driver = DriverClickHouse
			c.Store.ClickHouse.Host = ""
		}, "CLICKHOUSE_HOST"},
		{"zero rate limit", func(c *Config) { c.Server.RateLimitPerMinute = 0 }, "rate limit"},
		{"bad timezone", func(c *Config) { c.Stats.Timezone = "Mars/Olympus" }, "invalid stats timezone"},
		{"zero top countries", func(c *Config) { c.Stats.TopCountries = 0 }, "top_countries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.NoError(t, Default().Validate())
}
