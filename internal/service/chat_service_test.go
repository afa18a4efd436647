package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/livechat-service/internal/domain"
	"github.com/spec-kit/livechat-service/internal/events"
	"github.com/spec-kit/livechat-service/internal/queue"
	"github.com/spec-kit/livechat-service/internal/repository"
)

func (f *fakeChatStore) Create(ctx context.Context, chat *domain.Chat) error {
	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	f.add(*chat)
	return nil
}

func (f *fakeChatStore) GetByID(ctx context.Context, id string, orgID int64) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[id]
	if !ok || chat.OrganizationID != orgID {
		return nil, pgx.ErrNoRows
	}
	clone := *chat
	return &clone, nil
}

func (f *fakeChatStore) Close(ctx context.Context, id string, orgID int64) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[id]
	if !ok || chat.OrganizationID != orgID || chat.Status == domain.ChatStatusClosed {
		return nil, pgx.ErrNoRows
	}
	now := time.Now()
	chat.Status = domain.ChatStatusClosed
	chat.ClosedAt = &now
	chat.UpdatedAt = now
	clone := *chat
	return &clone, nil
}

// fakeCategories recognizes a fixed set of (category, organization) pairs.
type fakeCategories struct {
	repository.CategoryRepository
	known map[int64]int64 // category id -> organization id
}

func (f *fakeCategories) GetByID(ctx context.Context, id, orgID int64) (*domain.Category, error) {
	owner, ok := f.known[id]
	if !ok || owner != orgID {
		return nil, pgx.ErrNoRows
	}
	return &domain.Category{ID: id, OrganizationID: orgID}, nil
}

type chatFixture struct {
	store   *fakeChatStore
	queue   *queue.MemoryQueue
	bus     events.Dispatcher
	service *ChatService
}

func newChatFixture(t *testing.T, known map[int64]int64) *chatFixture {
	t.Helper()
	store := newFakeChatStore()
	q := queue.NewMemoryQueue()
	bus := events.NewInMemoryDispatcher()
	svc := NewChatService(ChatDependencies{
		ChatRepo:     store,
		CategoryRepo: &fakeCategories{known: known},
		WaitQueue:    q,
		Bus:          bus,
		Logger:       zap.NewNop(),
	})
	return &chatFixture{store: store, queue: q, bus: bus, service: svc}
}

func TestStartChatEnqueuesAtTail(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, map[int64]int64{10: 1})
	customer := &domain.Customer{ID: 100, OrganizationID: 1}

	var captured []events.Event
	f.bus.Subscribe(events.EventChatCreated, func(ctx context.Context, event events.Event) error {
		captured = append(captured, event)
		return nil
	})

	first, err := f.service.StartChat(ctx, customer, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, domain.ChatStatusWaiting, first.Status)
	assert.Equal(t, int64(1), first.OrganizationID)

	second, err := f.service.StartChat(ctx, customer, 10)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	head, err := f.queue.PeekHead(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, first.ID, head, "earlier chat stays at the head")
	n, err := f.queue.Len(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.Len(t, captured, 2)
	assert.Equal(t, first.ID, captured[0].ChatID)
	assert.Equal(t, events.RecipientCustomer, captured[0].Recipient.Type)
	assert.Equal(t, customer.ID, captured[0].Recipient.ID)
}

func TestStartChatRejectsForeignCategory(t *testing.T) {
	ctx := context.Background()
	// Category 10 belongs to organization 2, not the customer's.
	f := newChatFixture(t, map[int64]int64{10: 2})
	customer := &domain.Customer{ID: 100, OrganizationID: 1}

	_, err := f.service.StartChat(ctx, customer, 10)
	require.Error(t, err)

	n, err := f.queue.Len(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "nothing queued on validation failure")
}

func TestCloseChatPublishesAndIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, map[int64]int64{10: 1})

	agentID := int64(7)
	f.store.add(domain.Chat{
		ID:             "chat-1",
		OrganizationID: 1,
		CategoryID:     10,
		CustomerID:     100,
		AgentID:        &agentID,
		Status:         domain.ChatStatusActive,
		CreatedAt:      time.Now(),
	})

	var captured []events.Event
	f.bus.Subscribe(events.EventChatClosed, func(ctx context.Context, event events.Event) error {
		captured = append(captured, event)
		return nil
	})

	chat, err := f.service.CloseChat(ctx, "chat-1", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ChatStatusClosed, chat.Status)
	require.NotNil(t, chat.ClosedAt)

	require.Len(t, captured, 1)
	assert.Equal(t, "chat-1", captured[0].ChatID)

	// Closing again is rejected.
	_, err = f.service.CloseChat(ctx, "chat-1", 1)
	require.Error(t, err)
}

func TestGetChatForAgentEnforcesAssignment(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, map[int64]int64{10: 1})

	agentID := int64(7)
	f.store.add(domain.Chat{
		ID:             "chat-1",
		OrganizationID: 1,
		CategoryID:     10,
		CustomerID:     100,
		AgentID:        &agentID,
		Status:         domain.ChatStatusActive,
		CreatedAt:      time.Now(),
	})

	chat, err := f.service.GetChatForAgent(ctx, "chat-1", 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "chat-1", chat.ID)

	_, err = f.service.GetChatForAgent(ctx, "chat-1", 1, 8)
	require.Error(t, err, "another agent cannot read the chat")

	_, err = f.service.GetChatForAgent(ctx, "chat-1", 2, 7)
	require.Error(t, err, "chat is invisible outside its organization")
}
