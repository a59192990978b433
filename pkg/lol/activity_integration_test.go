//go:build integration

package lol

import (
	"context"
	"testing"
	"time"

	"github.com/gruposillas/lol-activity/internal/testutil"
	"github.com/gruposillas/lol-activity/pkg/cache"
	"github.com/gruposillas/lol-activity/pkg/client"
	"github.com/gruposillas/lol-activity/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "start Redis container")

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err)

	redisClient := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, redisClient.Ping(ctx).Err())

	t.Cleanup(func() {
		redisClient.Close()
		redisContainer.Terminate(ctx)
	})

	return redisClient
}

func TestActivity_Integration_CacheAndSnapshot(t *testing.T) {
	redisClient := setupRedis(t)
	mock := testutil.NewMockRiot()
	defer mock.Close()
	seedAda(mock)
	mock.SetRateLimitRemaining(15)

	dcfg := client.DefaultConfig()
	dcfg.PerMinute = 6000
	dcfg.Snapshots = ratelimit.NewRedisSnapshotStore(redisClient, time.Minute)
	dispatcher, err := client.New(dcfg)
	require.NoError(t, err)
	defer dispatcher.Close()

	cfg := DefaultConfig()
	cfg.APIKey = "mock-key"
	cfg.PlatformBaseURL = mock.URL()
	cfg.RegionBaseURL = mock.URL()
	cfg.Cache = cache.NewManager(redisClient)

	c, err := New(dispatcher, cfg)
	require.NoError(t, err)

	ctx := context.Background()

	first, err := c.Activity(ctx, "Ada", 7, false)
	require.NoError(t, err)
	assert.Equal(t, 7, first.Report.Wins)
	assert.Equal(t, 12, mock.PathCount("/lol/match/v5/matches/EUW1_"))

	second, err := c.Activity(ctx, "Ada", 7, false)
	require.NoError(t, err)
	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, 12, mock.PathCount("/lol/match/v5/matches/EUW1_"), "details served from Redis")

	snap, err := ratelimit.NewRedisSnapshotStore(redisClient, time.Minute).Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap, "dispatcher persisted its quota belief")
	assert.Equal(t, 15, snap.Remaining)
}
