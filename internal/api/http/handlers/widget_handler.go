package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/livechat-service/internal/api/dto"
	"github.com/spec-kit/livechat-service/internal/auth"
	"github.com/spec-kit/livechat-service/internal/repository"
	"github.com/spec-kit/livechat-service/internal/service"
	apperrors "github.com/spec-kit/livechat-service/pkg/util"
)

// Widget host header set by the embedded chat widget; it resolves the tenant
// for unauthenticated widget calls.
const widgetDomainHeader = "X-Widget-Domain"

// WidgetHandler serves the customer-facing chat widget endpoints.
type WidgetHandler struct {
	auth       *service.AuthService
	chats      *service.ChatService
	categories repository.CategoryRepository
}

// NewWidgetHandler constructs handler.
func NewWidgetHandler(authService *service.AuthService, chatService *service.ChatService, categories repository.CategoryRepository) *WidgetHandler {
	return &WidgetHandler{auth: authService, chats: chatService, categories: categories}
}

// Login POST /widget/login — upserts the customer and issues a token.
func (h *WidgetHandler) Login(c *fiber.Ctx) error {
	org, err := h.auth.ResolveWidgetOrganization(c.Context(), c.Get(widgetDomainHeader))
	if err != nil {
		return err
	}

	var req dto.WidgetLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" {
		return apperrors.NewValidationError("name, email required", nil)
	}

	customer, token, exp, err := h.auth.IdentifyCustomer(c.Context(), org.ID, req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(dto.WidgetLoginResponse{
		Token:     token,
		ExpiresAt: exp,
		Customer: dto.CustomerResponse{
			ID:             customer.ID,
			Name:           customer.Name,
			Email:          customer.Email,
			OrganizationID: customer.OrganizationID,
		},
	})
}

// ListCategories GET /widget/categories.
func (h *WidgetHandler) ListCategories(c *fiber.Ctx) error {
	org, err := h.auth.ResolveWidgetOrganization(c.Context(), c.Get(widgetDomainHeader))
	if err != nil {
		return err
	}
	categories, err := h.categories.ListByOrganization(c.Context(), org.ID)
	if err != nil {
		return apperrors.MapError(err)
	}

	items := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		items = append(items, dto.CategoryResponse{ID: category.ID, Name: category.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// StartChat POST /widget/chats — creates a WAITING chat and queues it.
func (h *WidgetHandler) StartChat(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.StartChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CategoryID == 0 {
		return apperrors.NewValidationError("category_id required", nil)
	}

	chat, err := h.chats.StartChat(c.Context(), principal.Customer, req.CategoryID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromChat(chat)})
}

// ListChats GET /widget/chats — the customer's previous chats.
func (h *WidgetHandler) ListChats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	chats, err := h.chats.ListCustomerChats(c.Context(), principal.Customer)
	if err != nil {
		return err
	}

	items := make([]dto.ChatSummary, 0, len(chats))
	for i := range chats {
		items = append(items, dto.FromChat(&chats[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
