package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/livechat-service/internal/domain"
	"github.com/spec-kit/livechat-service/internal/events"
	"github.com/spec-kit/livechat-service/internal/queue"
	"github.com/spec-kit/livechat-service/internal/repository"
	apperrors "github.com/spec-kit/livechat-service/pkg/util"
)

// ErrNoWaitingChats reports that no eligible waiting chat exists. A normal
// outcome, not a failure.
var ErrNoWaitingChats = errors.New("no waiting chats")

// ErrContention reports a detected dispatch race: another agent claimed the
// intended chat between the peek and the pop. Benign; the caller decides
// whether to retry, the engine never does.
var ErrContention = apperrors.NewConflict("chat already picked up by another agent", nil)

// DispatchService claims the oldest eligible waiting chat for an agent,
// with at-most-one-agent-per-chat guaranteed under concurrent requests.
type DispatchService struct {
	chats   repository.ChatRepository
	teams   repository.TeamRepository
	waiting queue.WaitQueue
	bus     events.Dispatcher
	logger  *zap.Logger
}

// DispatchDependencies bundles collaborators.
type DispatchDependencies struct {
	ChatRepo  repository.ChatRepository
	TeamRepo  repository.TeamRepository
	WaitQueue queue.WaitQueue
	Bus       events.Dispatcher
	Logger    *zap.Logger
}

// NewDispatchService creates the service.
func NewDispatchService(deps DispatchDependencies) *DispatchService {
	return &DispatchService{
		chats:   deps.ChatRepo,
		teams:   deps.TeamRepo,
		waiting: deps.WaitQueue,
		bus:     deps.Bus,
		logger:  deps.Logger,
	}
}

type candidate struct {
	chatID     string
	categoryID int64
	createdAt  time.Time
}

// RequestDispatch finds and claims the globally-oldest waiting chat across
// the agent's eligible categories.
//
// The peek-then-pop sequence is not atomic across queues and the chat store,
// so after the optimistic pop the claimed id is re-validated against the
// intended one; on mismatch the popped id is pushed back to the head (it was
// evicted only to check, nobody consumed it) and ErrContention is returned.
// On a matching pop the store update runs immediately, with no intervening
// calls: if it still fails the chat is neither queued nor ACTIVE, which is a
// known recovery gap that gets logged rather than silently repaired.
func (s *DispatchService) RequestDispatch(ctx context.Context, orgID, agentID int64) (*domain.Chat, error) {
	categoryIDs, err := s.teams.EligibleCategoryIDs(ctx, orgID, agentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(categoryIDs) == 0 {
		return nil, ErrNoWaitingChats
	}

	winner, err := s.pickOldest(ctx, orgID, categoryIDs)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, ErrNoWaitingChats
	}

	popped, err := s.waiting.PopHead(ctx, orgID, winner.categoryID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if popped == "" {
		// Queue drained between peek and pop.
		return nil, ErrContention
	}
	if popped != winner.chatID {
		if pushErr := s.waiting.PushFront(ctx, orgID, winner.categoryID, popped); pushErr != nil {
			s.logger.Error("failed to restore chat after contended pop",
				zap.String("chat_id", popped),
				zap.Int64("organization_id", orgID),
				zap.Int64("category_id", winner.categoryID),
				zap.Error(pushErr))
			return nil, apperrors.MapError(pushErr)
		}
		return nil, ErrContention
	}

	chat, err := s.chats.Assign(ctx, popped, orgID, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The row was no longer WAITING in this org. The id is already
			// out of its queue; do not restore it, it would risk a double
			// assignment if another writer raced the row.
			s.logger.Warn("popped chat not claimable in store",
				zap.String("chat_id", popped),
				zap.Int64("organization_id", orgID),
				zap.Int64("agent_id", agentID))
			return nil, ErrContention
		}
		s.logger.Error("store update failed after pop; chat is neither queued nor active",
			zap.String("chat_id", popped),
			zap.Int64("organization_id", orgID),
			zap.Error(err))
		return nil, apperrors.NewUnavailable("chat store unavailable", err)
	}

	s.publishAssigned(ctx, chat, agentID)
	return chat, nil
}

// pickOldest peeks every eligible queue and selects the candidate with the
// smallest createdAt. Ties break on the smaller chat id, keeping the rule
// stable across processes. The reads may be stale relative to concurrent
// pops; the verification after the pop carries the correctness burden.
func (s *DispatchService) pickOldest(ctx context.Context, orgID int64, categoryIDs []int64) (*candidate, error) {
	var winner *candidate
	for _, categoryID := range categoryIDs {
		chatID, err := s.waiting.PeekHead(ctx, orgID, categoryID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if chatID == "" {
			continue
		}

		createdAt, err := s.chats.GetCreatedAt(ctx, chatID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Queue/store drift: the queued id has no row. Tolerated;
				// skip it for this pass.
				s.logger.Warn("queued chat missing from store",
					zap.String("chat_id", chatID),
					zap.Int64("category_id", categoryID))
				continue
			}
			return nil, apperrors.MapError(err)
		}

		if winner == nil ||
			createdAt.Before(winner.createdAt) ||
			(createdAt.Equal(winner.createdAt) && chatID < winner.chatID) {
			winner = &candidate{chatID: chatID, categoryID: categoryID, createdAt: createdAt}
		}
	}
	return winner, nil
}

// CancelAndRequeue lets the assigned agent abandon an ACTIVE chat. The chat
// re-enters the tail of its category queue as a new arrival; it does not
// retain seniority. Store first, queue second: a crash in between leaves a
// WAITING row that is absent from its queue, never a queued id that a
// dispatch would claim and fail to assign.
func (s *DispatchService) CancelAndRequeue(ctx context.Context, chatID string, orgID, agentID int64) (*domain.Chat, error) {
	chat, err := s.chats.Requeue(ctx, chatID, orgID, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("chat", map[string]any{"chat_id": chatID})
		}
		return nil, apperrors.MapError(err)
	}

	if err := s.waiting.Enqueue(ctx, orgID, chat.CategoryID, chat.ID); err != nil {
		s.logger.Error("requeue push failed; chat is WAITING but not queued",
			zap.String("chat_id", chat.ID),
			zap.Int64("organization_id", orgID),
			zap.Error(err))
		return nil, apperrors.NewUnavailable("queue unavailable", err)
	}

	s.publish(ctx, events.Event{
		ID:             uuid.NewString(),
		Type:           events.EventChatRequeued,
		ChatID:         chat.ID,
		OrganizationID: orgID,
		Recipient:      events.Recipient{Type: events.RecipientCustomer, ID: chat.CustomerID},
		Timestamp:      time.Now(),
		Payload:        events.ChatRequeuedPayload{CategoryID: chat.CategoryID},
	})
	return chat, nil
}

func (s *DispatchService) publishAssigned(ctx context.Context, chat *domain.Chat, agentID int64) {
	payload := events.ChatAssignedPayload{
		AgentID:    agentID,
		CategoryID: chat.CategoryID,
		CustomerID: chat.CustomerID,
		AssignedAt: time.Now(),
	}
	for _, recipient := range []events.Recipient{
		{Type: events.RecipientAgent, ID: agentID},
		{Type: events.RecipientCustomer, ID: chat.CustomerID},
	} {
		s.publish(ctx, events.Event{
			ID:             uuid.NewString(),
			Type:           events.EventChatAssigned,
			ChatID:         chat.ID,
			OrganizationID: chat.OrganizationID,
			Recipient:      recipient,
			Timestamp:      time.Now(),
			Payload:        payload,
		})
	}
}

func (s *DispatchService) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, event)
}
