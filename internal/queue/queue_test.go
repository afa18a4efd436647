package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisQueue(t *testing.T) *RedisQueue {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisQueue(client)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "queue:org:7:category:3", Key(7, 3))
}

func TestWaitQueueFIFO(t *testing.T) {
	impls := map[string]WaitQueue{
		"memory": NewMemoryQueue(),
		"redis":  newTestRedisQueue(t),
	}

	for name, q := range impls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, q.Enqueue(ctx, 1, 10, "chat-a"))
			require.NoError(t, q.Enqueue(ctx, 1, 10, "chat-b"))
			require.NoError(t, q.Enqueue(ctx, 1, 10, "chat-c"))

			n, err := q.Len(ctx, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)

			head, err := q.PeekHead(ctx, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, "chat-a", head)

			// Peek does not consume.
			n, err = q.Len(ctx, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)

			for _, want := range []string{"chat-a", "chat-b", "chat-c"} {
				got, err := q.PopHead(ctx, 1, 10)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}

			got, err := q.PopHead(ctx, 1, 10)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestWaitQueuePushFrontRestoresHead(t *testing.T) {
	impls := map[string]WaitQueue{
		"memory": NewMemoryQueue(),
		"redis":  newTestRedisQueue(t),
	}

	for name, q := range impls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, q.Enqueue(ctx, 1, 10, "chat-a"))
			require.NoError(t, q.Enqueue(ctx, 1, 10, "chat-b"))

			popped, err := q.PopHead(ctx, 1, 10)
			require.NoError(t, err)
			require.Equal(t, "chat-a", popped)

			require.NoError(t, q.PushFront(ctx, 1, 10, popped))

			head, err := q.PeekHead(ctx, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, "chat-a", head)

			n, err := q.Len(ctx, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)
		})
	}
}

func TestWaitQueueKeysAreIndependent(t *testing.T) {
	impls := map[string]WaitQueue{
		"memory": NewMemoryQueue(),
		"redis":  newTestRedisQueue(t),
	}

	for name, q := range impls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, q.Enqueue(ctx, 1, 10, "org1-cat10"))
			require.NoError(t, q.Enqueue(ctx, 1, 20, "org1-cat20"))
			require.NoError(t, q.Enqueue(ctx, 2, 10, "org2-cat10"))

			head, err := q.PeekHead(ctx, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, "org1-cat10", head)

			head, err = q.PeekHead(ctx, 1, 20)
			require.NoError(t, err)
			assert.Equal(t, "org1-cat20", head)

			head, err = q.PeekHead(ctx, 2, 10)
			require.NoError(t, err)
			assert.Equal(t, "org2-cat10", head)

			_, err = q.PopHead(ctx, 1, 10)
			require.NoError(t, err)

			n, err := q.Len(ctx, 1, 20)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			n, err = q.Len(ctx, 2, 10)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
		})
	}
}

func TestWaitQueueEmptyPeek(t *testing.T) {
	impls := map[string]WaitQueue{
		"memory": NewMemoryQueue(),
		"redis":  newTestRedisQueue(t),
	}

	for name, q := range impls {
		t.Run(name, func(t *testing.T) {
			head, err := q.PeekHead(context.Background(), 9, 9)
			require.NoError(t, err)
			assert.Empty(t, head)
		})
	}
}
