package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "euw1", cfg.API.Platform)
	assert.Equal(t, "europe", cfg.API.Region)
	assert.Equal(t, 20, cfg.RateLimit.PerSecond)
	assert.Equal(t, 100, cfg.RateLimit.PerMinute)
	assert.Equal(t, time.Second, cfg.RateLimit.QuotaWindow)
	assert.Equal(t, 32, cfg.RateLimit.QueueSize)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.RequestTimeout)
	assert.Equal(t, 5, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, 7, cfg.Activity.MaxDays)
	assert.Equal(t, 24*time.Hour, cfg.Redis.CacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.RedisEnabled())

	assert.NoError(t, cfg.Validate())
	assert.Error(t, cfg.ValidateAPIKey(), "no key by default")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LOL_API_KEY", "RGAPI-test")
	t.Setenv("LOL_ACTIVITY_MAX_PAGES", "3")
	t.Setenv("LOL_API_PLATFORM", "na1")
	t.Setenv("LOL_RATE_LIMIT_PER_SECOND", "5")
	t.Setenv("LOL_RATE_LIMIT_QUOTA_WINDOW", "2s")
	t.Setenv("LOL_REDIS_ADDR", "localhost:6379")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "RGAPI-test", cfg.API.Key)
	assert.Equal(t, "na1", cfg.API.Platform)
	assert.Equal(t, 5, cfg.RateLimit.PerSecond)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.QuotaWindow)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, 3, cfg.Activity.MaxPages)
	assert.NoError(t, cfg.ValidateAPIKey())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  key: from-file
  region: americas
rate_limit:
  per_minute: 50
activity:
  max_days: 30
logging:
  format: console
`), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.API.Key)
	assert.Equal(t, "americas", cfg.API.Region)
	assert.Equal(t, "euw1", cfg.API.Platform, "unset keys keep defaults")
	assert.Equal(t, 50, cfg.RateLimit.PerMinute)
	assert.Equal(t, 7, cfg.Activity.MaxDays, "max_days is capped")
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  key: from-file\n"), 0o600))
	t.Setenv("LOL_API_KEY", "from-env")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.Key)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"per second", func(c *Config) { c.RateLimit.PerSecond = 0 }, "per_second"},
		{"per minute below per second", func(c *Config) { c.RateLimit.PerMinute = 1 }, "per_minute"},
		{"quota window", func(c *Config) { c.RateLimit.QuotaWindow = 0 }, "quota_window"},
		{"attempts", func(c *Config) { c.RateLimit.MaxAttempts = 0 }, "max_attempts"},
		{"platform", func(c *Config) { c.API.Platform = "" }, "api.platform"},
		{"max pages", func(c *Config) { c.Activity.MaxPages = -1 }, "activity.max_pages"},
		{"page timeout", func(c *Config) { c.Activity.PageTimeout = -time.Second }, "activity.page_timeout"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(New(), "")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConversions(t *testing.T) {
	t.Setenv("LOL_API_KEY", "k")
	t.Setenv("LOL_RATE_LIMIT_MAX_ATTEMPTS", "3")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	d := cfg.Dispatcher()
	assert.Equal(t, 20, d.PerSecond)
	assert.Equal(t, 3, d.Retry.MaxAttempts)
	assert.NotNil(t, d.Retry.Sleep)

	c := cfg.Client()
	assert.Equal(t, "k", c.APIKey)
	assert.Equal(t, "europe", c.Region)
	assert.Equal(t, 7, c.MaxDays)
	assert.Equal(t, 24*time.Hour, c.CacheTTL)
	assert.Equal(t, 20, c.MaxPages)
	assert.Equal(t, time.Minute, c.PageTimeout)

	l := cfg.LoggingSetup()
	assert.Equal(t, "info", string(l.Level))
}
