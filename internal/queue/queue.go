// Package queue maintains the per-(organization, category) FIFO lists of
// waiting chat ids that the dispatch engine claims from.
package queue

import (
	"context"
	"fmt"
)

// WaitQueue is the persistent FIFO of waiting chat ids for each
// (organization, category) pair. Implementations must make PopHead atomic
// with respect to concurrent pops and pushes on the same key; no cross-key
// atomicity is provided. Failures surface as errors and never silently drop
// or duplicate an id.
type WaitQueue interface {
	// Enqueue appends a chat id to the tail of its queue. The caller is
	// responsible for calling it exactly once per chat.
	Enqueue(ctx context.Context, orgID, categoryID int64, chatID string) error

	// PeekHead returns the head without removing it, or "" when the queue is
	// empty. Never mutates state.
	PeekHead(ctx context.Context, orgID, categoryID int64) (string, error)

	// PopHead atomically removes and returns the head, or "" when the queue
	// was empty at the moment of the call.
	PopHead(ctx context.Context, orgID, categoryID int64) (string, error)

	// PushFront reinserts a chat id at the head, used only to undo a pop that
	// claimed the wrong id. The reinserted id becomes the new head.
	PushFront(ctx context.Context, orgID, categoryID int64, chatID string) error

	// Len reports the number of waiting chats for the key.
	Len(ctx context.Context, orgID, categoryID int64) (int64, error)
}

// Key builds the storage key for one (organization, category) queue.
func Key(orgID, categoryID int64) string {
	return fmt.Sprintf("queue:org:%d:category:%d", orgID, categoryID)
}
