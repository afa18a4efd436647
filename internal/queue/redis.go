package queue

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisQueue implements WaitQueue on Redis lists. LPOP/LPUSH/RPUSH are atomic
// per key on the server, which is the only atomicity the dispatch protocol
// relies on.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue wraps an existing client.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, orgID, categoryID int64, chatID string) error {
	return q.client.RPush(ctx, Key(orgID, categoryID), chatID).Err()
}

func (q *RedisQueue) PeekHead(ctx context.Context, orgID, categoryID int64) (string, error) {
	val, err := q.client.LIndex(ctx, Key(orgID, categoryID), 0).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (q *RedisQueue) PopHead(ctx context.Context, orgID, categoryID int64) (string, error) {
	val, err := q.client.LPop(ctx, Key(orgID, categoryID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (q *RedisQueue) PushFront(ctx context.Context, orgID, categoryID int64, chatID string) error {
	return q.client.LPush(ctx, Key(orgID, categoryID), chatID).Err()
}

func (q *RedisQueue) Len(ctx context.Context, orgID, categoryID int64) (int64, error) {
	return q.client.LLen(ctx, Key(orgID, categoryID)).Result()
}
