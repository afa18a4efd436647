package service

import (
	"context"
	"sync"
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

// fakeChatStore is an in-memory ChatRepository covering the methods the
// dispatch engine touches, with the same conditional-update semantics as the
// SQL implementation.
type fakeChatStore struct {
	repository.ChatRepository
	mu    sync.Mutex
	chats map[string]*domain.Chat
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{chats: make(map[string]*domain.Chat)}
}

func (f *fakeChatStore) add(chat domain.Chat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats[chat.ID] = &chat
}

func (f *fakeChatStore) get(id string) domain.Chat {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.chats[id]
}

func (f *fakeChatStore) GetCreatedAt(ctx context.Context, id string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[id]
	if !ok {
		return time.Time{}, pgx.ErrNoRows
	}
	return chat.CreatedAt, nil
}

func (f *fakeChatStore) Assign(ctx context.Context, id string, orgID, agentID int64) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[id]
	if !ok || chat.OrganizationID != orgID || chat.Status != domain.ChatStatusWaiting {
		return nil, pgx.ErrNoRows
	}
	chat.AgentID = &agentID
	chat.Status = domain.ChatStatusActive
	chat.UpdatedAt = time.Now()
	clone := *chat
	return &clone, nil
}

func (f *fakeChatStore) Requeue(ctx context.Context, id string, orgID, agentID int64) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[id]
	if !ok || chat.OrganizationID != orgID || chat.Status != domain.ChatStatusActive ||
		chat.AgentID == nil || *chat.AgentID != agentID {
		return nil, pgx.ErrNoRows
	}
	chat.AgentID = nil
	chat.Status = domain.ChatStatusWaiting
	chat.UpdatedAt = time.Now()
	clone := *chat
	return &clone, nil
}

// fakeTeams maps each agent to a fixed eligible category set.
type fakeTeams struct {
	repository.TeamRepository
	eligible map[int64][]int64
}

func (f *fakeTeams) EligibleCategoryIDs(ctx context.Context, orgID, agentID int64) ([]int64, error) {
	return f.eligible[agentID], nil
}

// divergingQueue makes PopHead return a different id than the last peek, the
// shape of a lost race against another consumer.
type divergingQueue struct {
	queue.WaitQueue
	popResult  string
	mu         sync.Mutex
	pushedBack []string
}

func (q *divergingQueue) PopHead(ctx context.Context, orgID, categoryID int64) (string, error) {
	return q.popResult, nil
}

func (q *divergingQueue) PushFront(ctx context.Context, orgID, categoryID int64, chatID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushedBack = append(q.pushedBack, chatID)
	return q.WaitQueue.PushFront(ctx, orgID, categoryID, chatID)
}

type dispatchFixture struct {
	store   *fakeChatStore
	queue   queue.WaitQueue
	bus     events.Dispatcher
	service *DispatchService
}

func newDispatchFixture(t *testing.T, eligible map[int64][]int64, q queue.WaitQueue) *dispatchFixture {
	t.Helper()
	if q == nil {
		q = queue.NewMemoryQueue()
	}
	store := newFakeChatStore()
	bus := events.NewInMemoryDispatcher()
	svc := NewDispatchService(DispatchDependencies{
		ChatRepo:  store,
		TeamRepo:  &fakeTeams{eligible: eligible},
		WaitQueue: q,
		Bus:       bus,
		Logger:    zap.NewNop(),
	})
	return &dispatchFixture{store: store, queue: q, bus: bus, service: svc}
}

func (f *dispatchFixture) seedWaiting(t *testing.T, ctx context.Context, chatID string, orgID, categoryID int64, createdAt time.Time) {
	t.Helper()
	f.store.add(domain.Chat{
		ID:             chatID,
		OrganizationID: orgID,
		CategoryID:     categoryID,
		CustomerID:     100,
		Status:         domain.ChatStatusWaiting,
		CreatedAt:      createdAt,
	})
	require.NoError(t, f.queue.Enqueue(ctx, orgID, categoryID, chatID))
}

func TestRequestDispatchFIFOWithinCategory(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, map[int64][]int64{7: {10}}, nil)

	base := time.Now().Add(-time.Hour)
	f.seedWaiting(t, ctx, "chat-1", 1, 10, base)
	f.seedWaiting(t, ctx, "chat-2", 1, 10, base.Add(time.Minute))
	f.seedWaiting(t, ctx, "chat-3", 1, 10, base.Add(2*time.Minute))

	for _, want := range []string{"chat-1", "chat-2", "chat-3"} {
		chat, err := f.service.RequestDispatch(ctx, 1, 7)
		require.NoError(t, err)
		assert.Equal(t, want, chat.ID)
		assert.Equal(t, domain.ChatStatusActive, chat.Status)
		require.NotNil(t, chat.AgentID)
		assert.Equal(t, int64(7), *chat.AgentID)
	}

	_, err := f.service.RequestDispatch(ctx, 1, 7)
	assert.ErrorIs(t, err, ErrNoWaitingChats)
}

func TestRequestDispatchPicksGloballyOldest(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, map[int64][]int64{7: {10, 20}}, nil)

	base := time.Now().Add(-time.Hour)
	f.seedWaiting(t, ctx, "newer", 1, 10, base.Add(5*time.Minute))
	f.seedWaiting(t, ctx, "oldest", 1, 20, base)

	chat, err := f.service.RequestDispatch(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "oldest", chat.ID)
	assert.Equal(t, int64(20), chat.CategoryID)

	chat, err = f.service.RequestDispatch(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "newer", chat.ID)
}

func TestRequestDispatchTieBreaksOnChatID(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, map[int64][]int64{7: {10, 20}}, nil)

	createdAt := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	f.seedWaiting(t, ctx, "bbb", 1, 10, createdAt)
	f.seedWaiting(t, ctx, "aaa", 1, 20, createdAt)

	chat, err := f.service.RequestDispatch(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "aaa", chat.ID)
}

func TestRequestDispatchNoEligibleCategories(t *testing.T) {
	f := newDispatchFixture(t, map[int64][]int64{}, nil)

	_, err := f.service.RequestDispatch(context.Background(), 1, 7)
	assert.ErrorIs(t, err, ErrNoWaitingChats)
}

func TestRequestDispatchSkipsQueuedIDMissingFromStore(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, map[int64][]int64{7: {10, 20}}, nil)

	// Queue entry without a backing row in one category, a real chat in the
	// other.
	require.NoError(t, f.queue.Enqueue(ctx, 1, 10, "ghost"))
	f.seedWaiting(t, ctx, "real", 1, 20, time.Now().Add(-time.Minute))

	chat, err := f.service.RequestDispatch(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "real", chat.ID)
}

func TestRequestDispatchConcurrentSingleChat(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, map[int64][]int64{1: {10}, 2: {10}, 3: {10}, 4: {10}}, nil)

	f.seedWaiting(t, ctx, "contested", 1, 10, time.Now().Add(-time.Minute))

	type result struct {
		chat *domain.Chat
		err  error
	}
	agents := []int64{1, 2, 3, 4}
	results := make([]result, len(agents))

	var wg sync.WaitGroup
	for i, agentID := range agents {
		wg.Add(1)
		go func(i int, agentID int64) {
			defer wg.Done()
			chat, err := f.service.RequestDispatch(ctx, 1, agentID)
			results[i] = result{chat: chat, err: err}
		}(i, agentID)
	}
	wg.Wait()

	var winners int
	for _, r := range results {
		switch {
		case r.err == nil:
			winners++
		default:
			assert.True(t,
				r.err == ErrContention || r.err == ErrNoWaitingChats,
				"loser must observe contention or an empty queue, got %v", r.err)
		}
	}
	require.Equal(t, 1, winners, "exactly one agent claims the chat")

	stored := f.store.get("contested")
	assert.Equal(t, domain.ChatStatusActive, stored.Status)
	require.NotNil(t, stored.AgentID)
}

func TestRequestDispatchMismatchedPopRestoresHead(t *testing.T) {
	ctx := context.Background()
	inner := queue.NewMemoryQueue()
	dq := &divergingQueue{WaitQueue: inner, popResult: "stranger"}
	f := newDispatchFixture(t, map[int64][]int64{7: {10}}, dq)

	f.seedWaiting(t, ctx, "intended", 1, 10, time.Now().Add(-time.Minute))
	f.store.add(domain.Chat{
		ID:             "stranger",
		OrganizationID: 1,
		CategoryID:     10,
		CustomerID:     101,
		Status:         domain.ChatStatusWaiting,
		CreatedAt:      time.Now(),
	})

	_, err := f.service.RequestDispatch(ctx, 1, 7)
	assert.ErrorIs(t, err, ErrContention)

	// The unexpected id went back to the head; nothing was assigned.
	assert.Equal(t, []string{"stranger"}, dq.pushedBack)
	head, err := inner.PeekHead(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "stranger", head)
	assert.Equal(t, domain.ChatStatusWaiting, f.store.get("intended").Status)
	assert.Equal(t, domain.ChatStatusWaiting, f.store.get("stranger").Status)
}

func TestRequestDispatchRowNoLongerWaiting(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, map[int64][]int64{7: {10}}, nil)

	// Row already claimed in the store while its id still sits in the queue.
	other := int64(99)
	f.store.add(domain.Chat{
		ID:             "stale",
		OrganizationID: 1,
		CategoryID:     10,
		CustomerID:     100,
		AgentID:        &other,
		Status:         domain.ChatStatusActive,
		CreatedAt:      time.Now().Add(-time.Minute),
	})
	require.NoError(t, f.queue.Enqueue(ctx, 1, 10, "stale"))

	_, err := f.service.RequestDispatch(ctx, 1, 7)
	assert.ErrorIs(t, err, ErrContention)

	// The stale id is consumed and deliberately not restored.
	n, err := f.queue.Len(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	stored := f.store.get("stale")
	require.NotNil(t, stored.AgentID)
	assert.Equal(t, other, *stored.AgentID)
}

func TestRequestDispatchPublishesToAgentAndCustomer(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, map[int64][]int64{7: {10}}, nil)

	var mu sync.Mutex
	var captured []events.Event
	f.bus.Subscribe(events.EventChatAssigned, func(ctx context.Context, event events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		captured = append(captured, event)
		return nil
	})

	f.seedWaiting(t, ctx, "chat-1", 1, 10, time.Now().Add(-time.Minute))

	chat, err := f.service.RequestDispatch(ctx, 1, 7)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, captured, 2)
	recipients := map[events.RecipientType]int64{}
	for _, event := range captured {
		assert.Equal(t, chat.ID, event.ChatID)
		assert.Equal(t, int64(1), event.OrganizationID)
		recipients[event.Recipient.Type] = event.Recipient.ID
	}
	assert.Equal(t, int64(7), recipients[events.RecipientAgent])
	assert.Equal(t, int64(100), recipients[events.RecipientCustomer])
}

func TestCancelAndRequeueAppendsToTail(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, map[int64][]int64{7: {10}}, nil)

	f.seedWaiting(t, ctx, "first", 1, 10, time.Now().Add(-2*time.Minute))
	f.seedWaiting(t, ctx, "second", 1, 10, time.Now().Add(-time.Minute))

	claimed, err := f.service.RequestDispatch(ctx, 1, 7)
	require.NoError(t, err)
	require.Equal(t, "first", claimed.ID)

	var captured []events.Event
	f.bus.Subscribe(events.EventChatRequeued, func(ctx context.Context, event events.Event) error {
		captured = append(captured, event)
		return nil
	})

	chat, err := f.service.CancelAndRequeue(ctx, "first", 1, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.ChatStatusWaiting, chat.Status)
	assert.Nil(t, chat.AgentID)

	// The abandoned chat loses seniority: it lines up behind "second".
	head, err := f.queue.PeekHead(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "second", head)
	n, err := f.queue.Len(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.Len(t, captured, 1)
	assert.Equal(t, "first", captured[0].ChatID)
	assert.Equal(t, events.RecipientCustomer, captured[0].Recipient.Type)
}

func TestCancelAndRequeueRejectsWrongAgent(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t, map[int64][]int64{7: {10}}, nil)

	f.seedWaiting(t, ctx, "chat-1", 1, 10, time.Now().Add(-time.Minute))
	_, err := f.service.RequestDispatch(ctx, 1, 7)
	require.NoError(t, err)

	_, err = f.service.CancelAndRequeue(ctx, "chat-1", 1, 8)
	require.Error(t, err)

	// The claim stands.
	stored := f.store.get("chat-1")
	assert.Equal(t, domain.ChatStatusActive, stored.Status)
	require.NotNil(t, stored.AgentID)
	assert.Equal(t, int64(7), *stored.AgentID)

	n, err := f.queue.Len(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
