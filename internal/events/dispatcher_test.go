package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var received []Event
	d.Subscribe(EventChatAssigned, func(ctx context.Context, event Event) error {
		received = append(received, event)
		return nil
	})

	event := Event{
		ID:             "evt-1",
		Type:           EventChatAssigned,
		ChatID:         "chat-1",
		OrganizationID: 1,
		Recipient:      Recipient{Type: RecipientAgent, ID: 7},
		Timestamp:      time.Now(),
	}
	require.NoError(t, d.Publish(context.Background(), event))

	require.Len(t, received, 1)
	assert.Equal(t, "chat-1", received[0].ChatID)
	assert.Equal(t, RecipientAgent, received[0].Recipient.Type)
}

func TestDispatcherIgnoresUnrelatedTypes(t *testing.T) {
	d := NewInMemoryDispatcher()

	var calls int
	d.Subscribe(EventChatClosed, func(ctx context.Context, event Event) error {
		calls++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventChatCreated}))
	assert.Zero(t, calls)
}

func TestDispatcherHandlerErrorDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var secondCalled bool
	d.Subscribe(EventChatRequeued, func(ctx context.Context, event Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventChatRequeued, func(ctx context.Context, event Event) error {
		secondCalled = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventChatRequeued}))
	assert.True(t, secondCalled)
}
