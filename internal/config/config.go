// Package config loads the service configuration with viper: built-in
// defaults, then an optional YAML file, then LOL_* environment variables,
// then any flags bound by the command line.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gruposillas/lol-activity/pkg/client"
	"github.com/gruposillas/lol-activity/pkg/logging"
	"github.com/gruposillas/lol-activity/pkg/lol"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (api.key -> LOL_API_KEY).
const EnvPrefix = "LOL"

// Config is the complete service configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Activity  ActivityConfig  `mapstructure:"activity"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
}

// APIConfig holds upstream access settings.
type APIConfig struct {
	Key             string `mapstructure:"key"`
	Platform        string `mapstructure:"platform"`
	Region          string `mapstructure:"region"`
	PlatformBaseURL string `mapstructure:"platform_base_url"`
	RegionBaseURL   string `mapstructure:"region_base_url"`
}

// RateLimitConfig holds the dispatcher settings.
type RateLimitConfig struct {
	PerSecond      int           `mapstructure:"per_second"`
	PerMinute      int           `mapstructure:"per_minute"`
	QuotaWindow    time.Duration `mapstructure:"quota_window"`
	QueueSize      int           `mapstructure:"queue_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
}

// ActivityConfig holds lookup settings.
type ActivityConfig struct {
	MaxDays     int           `mapstructure:"max_days"`
	MaxPages    int           `mapstructure:"max_pages"`
	PageTimeout time.Duration `mapstructure:"page_timeout"`
}

// RedisConfig enables the match cache and the quota snapshot when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP worker settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SetDefaults registers every key with its default. Keys must be known to
// viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.key", "")
	v.SetDefault("api.platform", "euw1")
	v.SetDefault("api.region", "europe")
	v.SetDefault("api.platform_base_url", "")
	v.SetDefault("api.region_base_url", "")

	v.SetDefault("rate_limit.per_second", 20)
	v.SetDefault("rate_limit.per_minute", 100)
	v.SetDefault("rate_limit.quota_window", "1s")
	v.SetDefault("rate_limit.queue_size", 32)
	v.SetDefault("rate_limit.request_timeout", "30s")
	v.SetDefault("rate_limit.max_attempts", client.DefaultMaxAttempts)

	v.SetDefault("activity.max_days", lol.MaxDays)
	v.SetDefault("activity.max_pages", 20)
	v.SetDefault("activity.page_timeout", "1m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", "24h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", logging.FormatJSON)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
}

// New returns a viper instance with defaults and environment overrides wired.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile (optional) into v and decodes the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Activity.MaxDays <= 0 || cfg.Activity.MaxDays > lol.MaxDays {
		cfg.Activity.MaxDays = lol.MaxDays
	}

	return cfg, nil
}

// Validate checks settings every command relies on.
func (c *Config) Validate() error {
	var errs []error

	if c.RateLimit.PerSecond < 1 {
		errs = append(errs, fmt.Errorf("rate_limit.per_second must be >= 1"))
	}
	if c.RateLimit.PerMinute < c.RateLimit.PerSecond {
		errs = append(errs, fmt.Errorf("rate_limit.per_minute must be >= rate_limit.per_second"))
	}
	if c.RateLimit.QuotaWindow <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.quota_window must be positive"))
	}
	if c.RateLimit.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("rate_limit.max_attempts must be >= 1"))
	}
	if c.Activity.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("activity.max_pages must be >= 0"))
	}
	if c.Activity.PageTimeout < 0 {
		errs = append(errs, fmt.Errorf("activity.page_timeout must not be negative"))
	}
	if c.API.Platform == "" {
		errs = append(errs, fmt.Errorf("api.platform is required"))
	}
	if c.API.Region == "" {
		errs = append(errs, fmt.Errorf("api.region is required"))
	}
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if f := strings.ToLower(c.Logging.Format); f != logging.FormatJSON && f != logging.FormatConsole {
		errs = append(errs, fmt.Errorf("logging.format %q is not one of json, console", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// ValidateAPIKey checks that upstream calls can be authenticated.
func (c *Config) ValidateAPIKey() error {
	if strings.TrimSpace(c.API.Key) == "" {
		return fmt.Errorf("api.key is required (set %s_API_KEY)", EnvPrefix)
	}
	return nil
}

// LoggingSetup returns the logger configuration.
func (c *Config) LoggingSetup() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Logging.Level)
	cfg.Format = strings.ToLower(c.Logging.Format)
	return cfg
}

// Dispatcher returns the dispatcher configuration. Snapshots are wired by the caller.
func (c *Config) Dispatcher() client.Config {
	cfg := client.DefaultConfig()
	cfg.PerSecond = c.RateLimit.PerSecond
	cfg.PerMinute = c.RateLimit.PerMinute
	cfg.QuotaWindow = c.RateLimit.QuotaWindow
	cfg.QueueSize = c.RateLimit.QueueSize
	cfg.RequestTimeout = c.RateLimit.RequestTimeout
	cfg.Retry.MaxAttempts = c.RateLimit.MaxAttempts
	return cfg
}

// Client returns the API client configuration. The cache is wired by the caller.
func (c *Config) Client() lol.Config {
	cfg := lol.DefaultConfig()
	cfg.APIKey = c.API.Key
	cfg.Platform = c.API.Platform
	cfg.Region = c.API.Region
	cfg.PlatformBaseURL = c.API.PlatformBaseURL
	cfg.RegionBaseURL = c.API.RegionBaseURL
	cfg.MaxDays = c.Activity.MaxDays
	cfg.MaxPages = c.Activity.MaxPages
	cfg.PageTimeout = c.Activity.PageTimeout
	cfg.CacheTTL = c.Redis.CacheTTL
	return cfg
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
