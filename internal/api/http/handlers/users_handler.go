package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/livechat-service/internal/api/dto"
	"github.com/spec-kit/livechat-service/internal/domain"
	"github.com/spec-kit/livechat-service/internal/service"
	apperrors "github.com/spec-kit/livechat-service/pkg/util"
)

// UsersHandler manages operator registration and login.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// CreateOrganization POST /auth/organizations — tenant bootstrap.
func (h *UsersHandler) CreateOrganization(c *fiber.Ctx) error {
	var req dto.OrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	org, err := h.auth.CreateOrganization(c.Context(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.OrganizationResponse{ID: org.ID, Name: org.Name}})
}

// Register POST /auth/users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.OrganizationID == 0 || req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("organization_id, name, email, password required", nil)
	}
	role := req.Role
	if role == "" {
		role = domain.RoleAgent
	}
	if role != domain.RoleAgent && role != domain.RoleAdmin {
		return apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}

	user, token, exp, err := h.auth.RegisterUser(c.Context(), req.OrganizationID, req.Name, req.Email, req.Password, role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.AuthResponse{
		Token:     token,
		ExpiresAt: exp,
		User:      dto.FromUser(user),
	})
}

// Login POST /auth/users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.OrganizationID == 0 || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("organization_id, email, password required", nil)
	}

	user, token, exp, err := h.auth.LoginUser(c.Context(), req.OrganizationID, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{
		Token:     token,
		ExpiresAt: exp,
		User:      dto.FromUser(user),
	})
}
