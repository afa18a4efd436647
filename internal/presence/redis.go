package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTracker stores markers as Redis string keys with expiry.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTracker wraps an existing client.
func NewRedisTracker(client *redis.Client, ttl time.Duration) *RedisTracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisTracker{client: client, ttl: ttl}
}

func (t *RedisTracker) Heartbeat(ctx context.Context, orgID, agentID int64) error {
	return t.client.Set(ctx, Key(orgID, agentID), "online", t.ttl).Err()
}

func (t *RedisTracker) MarkOffline(ctx context.Context, orgID, agentID int64) error {
	return t.client.Del(ctx, Key(orgID, agentID)).Err()
}

func (t *RedisTracker) IsOnline(ctx context.Context, orgID, agentID int64) (bool, error) {
	n, err := t.client.Exists(ctx, Key(orgID, agentID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
