//go:build integration

package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start Redis container")

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err, "Redis endpoint")

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})
	require.NoError(t, client.Ping(ctx).Err(), "connect to Redis")

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedisSnapshotStore_Integration_Empty(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewRedisSnapshotStore(redisClient, time.Minute)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestRedisSnapshotStore_Integration_RoundTrip(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewRedisSnapshotStore(redisClient, time.Minute)
	ctx := context.Background()
	observed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, Budget{PerSecond: 20, Remaining: 8, ObservedAt: observed}))

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 8, snap.Remaining)
	assert.True(t, snap.ObservedAt.Equal(observed))

	ttl := redisClient.TTL(ctx, RedisKeyRemaining).Val()
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestTracker_Integration_SeedFromRedis(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	store := NewRedisSnapshotStore(redisClient, time.Minute)
	ctx := context.Background()

	first := NewTracker(20, 100, store, logger)
	first.Observe(Observation{Remaining: 2, At: time.Now().UTC()})
	require.NoError(t, first.Save(ctx))

	second := NewTracker(20, 100, store, logger)
	seeded, err := second.Seed(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, seeded)
	assert.Equal(t, 2, second.Allowance())
}
