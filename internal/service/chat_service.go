package service

import (
	"context"
	"errors"
	"strings"
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

// ChatService coordinates chat lifecycle outside of dispatch: creation with
// enqueue, listings, closing and customer notes.
type ChatService struct {
	chats      repository.ChatRepository
	categories repository.CategoryRepository
	customers  repository.CustomerRepository
	notes      repository.CustomerNoteRepository
	waiting    queue.WaitQueue
	bus        events.Dispatcher
	logger     *zap.Logger
}

// ChatDependencies bundles collaborators.
type ChatDependencies struct {
	ChatRepo     repository.ChatRepository
	CategoryRepo repository.CategoryRepository
	CustomerRepo repository.CustomerRepository
	NoteRepo     repository.CustomerNoteRepository
	WaitQueue    queue.WaitQueue
	Bus          events.Dispatcher
	Logger       *zap.Logger
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	return &ChatService{
		chats:      deps.ChatRepo,
		categories: deps.CategoryRepo,
		customers:  deps.CustomerRepo,
		notes:      deps.NoteRepo,
		waiting:    deps.WaitQueue,
		bus:        deps.Bus,
		logger:     deps.Logger,
	}
}

// StartChat creates a WAITING chat for a customer and appends it to the tail
// of its category queue. The category must belong to the customer's
// organization.
func (s *ChatService) StartChat(ctx context.Context, customer *domain.Customer, categoryID int64) (*domain.Chat, error) {
	if customer == nil {
		return nil, apperrors.NewUnauthorized("customer required")
	}
	if _, err := s.categories.GetByID(ctx, categoryID, customer.OrganizationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("invalid category", map[string]any{"category_id": categoryID})
		}
		return nil, apperrors.MapError(err)
	}

	chat := &domain.Chat{
		ID:             uuid.NewString(),
		OrganizationID: customer.OrganizationID,
		CategoryID:     categoryID,
		CustomerID:     customer.ID,
		Status:         domain.ChatStatusWaiting,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.waiting.Enqueue(ctx, chat.OrganizationID, chat.CategoryID, chat.ID); err != nil {
		s.logger.Error("enqueue failed after chat creation; chat is WAITING but not queued",
			zap.String("chat_id", chat.ID),
			zap.Int64("organization_id", chat.OrganizationID),
			zap.Error(err))
		return nil, apperrors.NewUnavailable("queue unavailable", err)
	}

	s.publish(ctx, events.Event{
		ID:             uuid.NewString(),
		Type:           events.EventChatCreated,
		ChatID:         chat.ID,
		OrganizationID: chat.OrganizationID,
		Recipient:      events.Recipient{Type: events.RecipientCustomer, ID: chat.CustomerID},
		Timestamp:      time.Now(),
		Payload:        events.ChatCreatedPayload{CategoryID: chat.CategoryID, Status: chat.Status},
	})
	return chat, nil
}

// ListMyChats returns chats assigned to the agent in the organization.
func (s *ChatService) ListMyChats(ctx context.Context, orgID, agentID int64) ([]domain.Chat, error) {
	chats, err := s.chats.List(ctx, repository.ChatFilter{
		OrganizationID: orgID,
		AgentID:        &agentID,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return chats, nil
}

// ListWaitingChats returns all WAITING chats in the organization.
func (s *ChatService) ListWaitingChats(ctx context.Context, orgID int64) ([]domain.Chat, error) {
	chats, err := s.chats.List(ctx, repository.ChatFilter{
		OrganizationID: orgID,
		Statuses:       []domain.ChatStatus{domain.ChatStatusWaiting},
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return chats, nil
}

// ListCustomerChats returns the customer's own chats.
func (s *ChatService) ListCustomerChats(ctx context.Context, customer *domain.Customer) ([]domain.Chat, error) {
	if customer == nil {
		return nil, apperrors.NewUnauthorized("customer required")
	}
	chats, err := s.chats.List(ctx, repository.ChatFilter{
		OrganizationID: customer.OrganizationID,
		CustomerID:     &customer.ID,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return chats, nil
}

// GetChatForAgent returns the chat if it belongs to the org and is assigned
// to the agent.
func (s *ChatService) GetChatForAgent(ctx context.Context, chatID string, orgID, agentID int64) (*domain.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID, orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("chat", map[string]any{"chat_id": chatID})
		}
		return nil, apperrors.MapError(err)
	}
	if chat.AgentID == nil || *chat.AgentID != agentID {
		return nil, apperrors.NewNotFound("chat", map[string]any{"chat_id": chatID})
	}
	return chat, nil
}

// CloseChat terminates a chat in the organization.
func (s *ChatService) CloseChat(ctx context.Context, chatID string, orgID int64) (*domain.Chat, error) {
	chat, err := s.chats.Close(ctx, chatID, orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("chat", map[string]any{"chat_id": chatID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		ID:             uuid.NewString(),
		Type:           events.EventChatClosed,
		ChatID:         chat.ID,
		OrganizationID: orgID,
		Recipient:      events.Recipient{Type: events.RecipientCustomer, ID: chat.CustomerID},
		Timestamp:      time.Now(),
		Payload:        events.ChatClosedPayload{AgentID: chat.AgentID},
	})
	return chat, nil
}

// AddCustomerNote attaches an internal note to the chat's customer.
func (s *ChatService) AddCustomerNote(ctx context.Context, chatID string, orgID, authorID int64, content string) (*domain.CustomerNote, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	chat, err := s.chats.GetByID(ctx, chatID, orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("chat", map[string]any{"chat_id": chatID})
		}
		return nil, apperrors.MapError(err)
	}

	note := &domain.CustomerNote{
		OrganizationID: orgID,
		CustomerID:     chat.CustomerID,
		ChatID:         &chat.ID,
		AuthorID:       authorID,
		Content:        content,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, apperrors.MapError(err)
	}
	return note, nil
}

// ListCustomerNotes lists notes for a customer in the organization.
func (s *ChatService) ListCustomerNotes(ctx context.Context, customerID, orgID int64) ([]domain.CustomerNote, error) {
	if _, err := s.customers.GetByID(ctx, customerID, orgID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": customerID})
		}
		return nil, apperrors.MapError(err)
	}
	notes, err := s.notes.ListByCustomer(ctx, customerID, orgID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return notes, nil
}

func (s *ChatService) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, event)
}
