package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore persists the quota belief between process restarts.
type SnapshotStore interface {
	Save(ctx context.Context, b Budget) error
	// Load returns nil, nil when no snapshot exists.
	Load(ctx context.Context) (*Budget, error)
}

// RedisSnapshotStore stores the budget under the RedisKey* keys.
type RedisSnapshotStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisSnapshotStore creates a store whose keys expire after ttl (0 = never).
func NewRedisSnapshotStore(redisClient *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Save writes the budget atomically.
func (s *RedisSnapshotStore) Save(ctx context.Context, b Budget) error {
	observedAt, err := json.Marshal(b.ObservedAt)
	if err != nil {
		return fmt.Errorf("marshal observed_at: %w", err)
	}
	savedAt, err := json.Marshal(time.Now().UTC())
	if err != nil {
		return fmt.Errorf("marshal saved_at: %w", err)
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyRemaining, b.Remaining, s.ttl)
	pipe.Set(ctx, RedisKeyObservedAt, observedAt, s.ttl)
	pipe.Set(ctx, RedisKeySavedAt, savedAt, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store quota snapshot in redis: %w", err)
	}
	return nil
}

// Load reads the budget written by Save. The ceilings are not persisted and
// are left zero; callers keep their configured values.
func (s *RedisSnapshotStore) Load(ctx context.Context) (*Budget, error) {
	remaining, err := s.redis.Get(ctx, RedisKeyRemaining).Int()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get remaining: %w", err)
	}

	observedStr, err := s.redis.Get(ctx, RedisKeyObservedAt).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get observed_at: %w", err)
	}

	var observedAt time.Time
	if err := json.Unmarshal([]byte(observedStr), &observedAt); err != nil {
		return nil, fmt.Errorf("parse observed_at: %w", err)
	}

	return &Budget{
		Remaining:  remaining,
		ObservedAt: observedAt,
	}, nil
}
