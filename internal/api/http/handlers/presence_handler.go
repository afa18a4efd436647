package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/livechat-service/internal/api/dto"
	"github.com/spec-kit/livechat-service/internal/auth"
	"github.com/spec-kit/livechat-service/internal/presence"
	apperrors "github.com/spec-kit/livechat-service/pkg/util"
)

// PresenceHandler exposes the agent heartbeat endpoints.
type PresenceHandler struct {
	tracker presence.Tracker
}

// NewPresenceHandler constructs handler.
func NewPresenceHandler(tracker presence.Tracker) *PresenceHandler {
	return &PresenceHandler{tracker: tracker}
}

// Heartbeat POST /agent/presence/heartbeat — refreshes the caller's liveness
// marker. Idempotent.
func (h *PresenceHandler) Heartbeat(c *fiber.Ctx) error {
	principal, ok := agentPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	if err := h.tracker.Heartbeat(c.Context(), principal.OrganizationID, principal.User.ID); err != nil {
		return apperrors.NewUnavailable("presence store unavailable", err)
	}
	return c.JSON(fiber.Map{"status": "online"})
}

// Offline POST /agent/presence/offline — explicit removal on graceful
// disconnect.
func (h *PresenceHandler) Offline(c *fiber.Ctx) error {
	principal, ok := agentPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	if err := h.tracker.MarkOffline(c.Context(), principal.OrganizationID, principal.User.ID); err != nil {
		return apperrors.NewUnavailable("presence store unavailable", err)
	}
	return c.JSON(fiber.Map{"status": "offline"})
}

// Status GET /agent/presence/:id — reports whether an agent in the caller's
// organization is currently online.
func (h *PresenceHandler) Status(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("operator required")
	}
	agentID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid agent id", nil)
	}

	online, err := h.tracker.IsOnline(c.Context(), principal.OrganizationID, agentID)
	if err != nil {
		return apperrors.NewUnavailable("presence store unavailable", err)
	}
	return c.JSON(fiber.Map{"data": dto.PresenceResponse{AgentID: agentID, Online: online}})
}
