package queue

import (
	"context"
	"sync"
)

// MemoryQueue implements WaitQueue with in-process lists. It backs
// single-process deployments without Redis and substitutes for it in tests.
type MemoryQueue struct {
	mu    sync.Mutex
	lists map[string][]string
}

// NewMemoryQueue creates an empty queue set.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{lists: make(map[string][]string)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, orgID, categoryID int64, chatID string) error {
	key := Key(orgID, categoryID)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lists[key] = append(q.lists[key], chatID)
	return nil
}

func (q *MemoryQueue) PeekHead(ctx context.Context, orgID, categoryID int64) (string, error) {
	key := Key(orgID, categoryID)
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.lists[key]) == 0 {
		return "", nil
	}
	return q.lists[key][0], nil
}

func (q *MemoryQueue) PopHead(ctx context.Context, orgID, categoryID int64) (string, error) {
	key := Key(orgID, categoryID)
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.lists[key]
	if len(list) == 0 {
		return "", nil
	}
	head := list[0]
	q.lists[key] = list[1:]
	return head, nil
}

func (q *MemoryQueue) PushFront(ctx context.Context, orgID, categoryID int64, chatID string) error {
	key := Key(orgID, categoryID)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lists[key] = append([]string{chatID}, q.lists[key]...)
	return nil
}

func (q *MemoryQueue) Len(ctx context.Context, orgID, categoryID int64) (int64, error) {
	key := Key(orgID, categoryID)
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.lists[key])), nil
}
