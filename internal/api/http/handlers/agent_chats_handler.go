package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/livechat-service/internal/api/dto"
	"github.com/spec-kit/livechat-service/internal/auth"
	"github.com/spec-kit/livechat-service/internal/domain"
	"github.com/spec-kit/livechat-service/internal/observability"
	"github.com/spec-kit/livechat-service/internal/service"
	apperrors "github.com/spec-kit/livechat-service/pkg/util"
)

// AgentChatsHandler manages agent-facing chat endpoints, including the
// dispatch entry points.
type AgentChatsHandler struct {
	chats    *service.ChatService
	dispatch *service.DispatchService
	metrics  *observability.Metrics
}

// NewAgentChatsHandler constructs handler.
func NewAgentChatsHandler(chatService *service.ChatService, dispatchService *service.DispatchService, metrics *observability.Metrics) *AgentChatsHandler {
	return &AgentChatsHandler{chats: chatService, dispatch: dispatchService, metrics: metrics}
}

// ListMyChats GET /agent/chats.
func (h *AgentChatsHandler) ListMyChats(c *fiber.Ctx) error {
	principal, ok := agentPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	chats, err := h.chats.ListMyChats(c.Context(), principal.OrganizationID, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": chatSummaries(chats)})
}

// ListWaiting GET /agent/chats/waiting.
func (h *AgentChatsHandler) ListWaiting(c *fiber.Ctx) error {
	principal, ok := agentPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	chats, err := h.chats.ListWaitingChats(c.Context(), principal.OrganizationID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": chatSummaries(chats)})
}

// GetChat GET /agent/chats/:id.
func (h *AgentChatsHandler) GetChat(c *fiber.Ctx) error {
	principal, ok := agentPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	chat, err := h.chats.GetChatForAgent(c.Context(), c.Params("id"), principal.OrganizationID, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromChat(chat)})
}

// AssignNext POST /agent/chats/next — claims the oldest eligible waiting
// chat. 200 with the chat on success, 204 when no work is available, 409 on
// detected contention (no auto-retry; the agent simply tries again).
func (h *AgentChatsHandler) AssignNext(c *fiber.Ctx) error {
	principal, ok := agentPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}

	chat, err := h.dispatch.RequestDispatch(c.Context(), principal.OrganizationID, principal.User.ID)
	if err != nil {
		if errors.Is(err, service.ErrNoWaitingChats) {
			h.metrics.RecordDispatch("empty")
			return c.SendStatus(http.StatusNoContent)
		}
		if errors.Is(err, service.ErrContention) {
			h.metrics.RecordDispatch("contention")
		}
		return err
	}

	h.metrics.RecordDispatch("assigned")
	return c.JSON(fiber.Map{"data": dto.FromChat(chat)})
}

// Cancel POST /agent/chats/:id/cancel — abandons an ACTIVE chat back to the
// tail of its queue.
func (h *AgentChatsHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := agentPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	chat, err := h.dispatch.CancelAndRequeue(c.Context(), c.Params("id"), principal.OrganizationID, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromChat(chat)})
}

// Close POST /agent/chats/:id/close.
func (h *AgentChatsHandler) Close(c *fiber.Ctx) error {
	principal, ok := agentPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	chat, err := h.chats.CloseChat(c.Context(), c.Params("id"), principal.OrganizationID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromChat(chat)})
}

// AddNote POST /agent/chats/:id/notes.
func (h *AgentChatsHandler) AddNote(c *fiber.Ctx) error {
	principal, ok := agentPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	note, err := h.chats.AddCustomerNote(c.Context(), c.Params("id"), principal.OrganizationID, principal.User.ID, req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromNote(note)})
}

// ListCustomerNotes GET /agent/customers/:id/notes.
func (h *AgentChatsHandler) ListCustomerNotes(c *fiber.Ctx) error {
	principal, ok := agentPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	customerID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid customer id", nil)
	}

	notes, err := h.chats.ListCustomerNotes(c.Context(), customerID, principal.OrganizationID)
	if err != nil {
		return err
	}
	items := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		items = append(items, dto.FromNote(&notes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func agentPrincipal(c *fiber.Ctx) (*auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, false
	}
	return principal, true
}

func chatSummaries(chats []domain.Chat) []dto.ChatSummary {
	items := make([]dto.ChatSummary, 0, len(chats))
	for i := range chats {
		items = append(items, dto.FromChat(&chats[i]))
	}
	return items
}
