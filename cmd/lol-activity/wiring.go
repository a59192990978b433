package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gruposillas/lol-activity/internal/config"
	"github.com/gruposillas/lol-activity/pkg/cache"
	"github.com/gruposillas/lol-activity/pkg/client"
	"github.com/gruposillas/lol-activity/pkg/logging"
	"github.com/gruposillas/lol-activity/pkg/lol"
	"github.com/gruposillas/lol-activity/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// snapshotTTL bounds how long a quota snapshot outlives the process.
const snapshotTTL = time.Hour

// app is the dispatcher and API client shared by a command, plus Redis when
// configured.
type app struct {
	dispatcher *client.Dispatcher
	client     *lol.Client
	redis      *redis.Client
	cache      *cache.Manager
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.ValidateAPIKey(); err != nil {
		return nil, err
	}

	a := &app{}
	dispatcherCfg := cfg.Dispatcher()
	clientCfg := cfg.Client()

	if cfg.RedisEnabled() {
		rdb, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
		a.cache = cache.NewManager(rdb)
		clientCfg.Cache = a.cache
		dispatcherCfg.Snapshots = ratelimit.NewRedisSnapshotStore(rdb, snapshotTTL)
	}

	dispatcher, err := client.New(dispatcherCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}
	a.dispatcher = dispatcher

	lolClient, err := lol.New(dispatcher, clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}
	a.client = lolClient

	return a, nil
}

// Close stops the dispatcher, logs its final quota belief and releases Redis.
func (a *app) Close() {
	if a.dispatcher != nil {
		_ = a.dispatcher.Close()
		logQuota(logging.NewLogger("app"), a.dispatcher.Budget())
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func logQuota(logger zerolog.Logger, b ratelimit.Budget) {
	event := logger.Info().
		Int("remaining", b.Remaining).
		Int("used", b.Used).
		Int("per_second", b.PerSecond)
	if !b.ObservedAt.IsZero() {
		event = event.Time("observed_at", b.ObservedAt)
	}
	event.Msg("Dispatcher stopped")
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
