package presence

import (
	"context"
	"sync"
	"time"
)

// MemoryTracker keeps markers in-process with lazy expiry: a marker past its
// deadline is treated as absent the next time it is read.
type MemoryTracker struct {
	mu        sync.Mutex
	ttl       time.Duration
	deadlines map[string]time.Time
	now       func() time.Time
}

// NewMemoryTracker creates an empty tracker.
func NewMemoryTracker(ttl time.Duration) *MemoryTracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryTracker{
		ttl:       ttl,
		deadlines: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (t *MemoryTracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

func (t *MemoryTracker) Heartbeat(ctx context.Context, orgID, agentID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deadlines[Key(orgID, agentID)] = t.now().Add(t.ttl)
	return nil
}

func (t *MemoryTracker) MarkOffline(ctx context.Context, orgID, agentID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.deadlines, Key(orgID, agentID))
	return nil
}

func (t *MemoryTracker) IsOnline(ctx context.Context, orgID, agentID int64) (bool, error) {
	key := Key(orgID, agentID)
	t.mu.Lock()
	defer t.mu.Unlock()
	deadline, ok := t.deadlines[key]
	if !ok {
		return false, nil
	}
	if t.now().After(deadline) {
		delete(t.deadlines, key)
		return false, nil
	}
	return true, nil
}
