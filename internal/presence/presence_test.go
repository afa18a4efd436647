package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "presence:4:agent:17", Key(4, 17))
}

func TestMemoryTrackerLifecycle(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryTracker(30 * time.Second)

	base := time.Now()
	current := base
	tracker.SetClock(func() time.Time { return current })

	online, err := tracker.IsOnline(ctx, 1, 42)
	require.NoError(t, err)
	assert.False(t, online, "agent without heartbeat must be offline")

	require.NoError(t, tracker.Heartbeat(ctx, 1, 42))
	online, err = tracker.IsOnline(ctx, 1, 42)
	require.NoError(t, err)
	assert.True(t, online)

	// Repeated heartbeats extend the window instead of erroring.
	current = base.Add(20 * time.Second)
	require.NoError(t, tracker.Heartbeat(ctx, 1, 42))
	current = base.Add(45 * time.Second)
	online, err = tracker.IsOnline(ctx, 1, 42)
	require.NoError(t, err)
	assert.True(t, online, "heartbeat at t+20s keeps the agent alive through t+45s")

	current = base.Add(51 * time.Second)
	online, err = tracker.IsOnline(ctx, 1, 42)
	require.NoError(t, err)
	assert.False(t, online, "marker expires once heartbeats stop")
}

func TestMemoryTrackerMarkOffline(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryTracker(30 * time.Second)

	require.NoError(t, tracker.Heartbeat(ctx, 1, 7))
	require.NoError(t, tracker.MarkOffline(ctx, 1, 7))

	online, err := tracker.IsOnline(ctx, 1, 7)
	require.NoError(t, err)
	assert.False(t, online)

	// Offline for an unknown agent is a no-op.
	require.NoError(t, tracker.MarkOffline(ctx, 1, 999))
}

func TestMemoryTrackerScopesByOrganization(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryTracker(30 * time.Second)

	require.NoError(t, tracker.Heartbeat(ctx, 1, 42))

	online, err := tracker.IsOnline(ctx, 2, 42)
	require.NoError(t, err)
	assert.False(t, online, "same agent id in another organization is distinct")
}

func TestRedisTrackerLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tracker := NewRedisTracker(client, 30*time.Second)

	online, err := tracker.IsOnline(ctx, 1, 42)
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, tracker.Heartbeat(ctx, 1, 42))
	online, err = tracker.IsOnline(ctx, 1, 42)
	require.NoError(t, err)
	assert.True(t, online)

	// TTL elapses without a refresh.
	srv.FastForward(31 * time.Second)
	online, err = tracker.IsOnline(ctx, 1, 42)
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, tracker.Heartbeat(ctx, 1, 42))
	require.NoError(t, tracker.MarkOffline(ctx, 1, 42))
	online, err = tracker.IsOnline(ctx, 1, 42)
	require.NoError(t, err)
	assert.False(t, online)
}
