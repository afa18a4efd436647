package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/livechat-service/internal/api/dto"
	"github.com/spec-kit/livechat-service/internal/auth"
	"github.com/spec-kit/livechat-service/internal/domain"
	"github.com/spec-kit/livechat-service/internal/repository"
	apperrors "github.com/spec-kit/livechat-service/pkg/util"
)

// AdminHandler manages category and team CRUD (the relationships that feed
// the dispatch eligibility set) plus user, customer and widget-domain
// administration.
type AdminHandler struct {
	categories repository.CategoryRepository
	teams      repository.TeamRepository
	users      repository.UserRepository
	customers  repository.CustomerRepository
	orgs       repository.OrganizationRepository
}

// NewAdminHandler constructs handler.
func NewAdminHandler(
	categories repository.CategoryRepository,
	teams repository.TeamRepository,
	users repository.UserRepository,
	customers repository.CustomerRepository,
	orgs repository.OrganizationRepository,
) *AdminHandler {
	return &AdminHandler{categories: categories, teams: teams, users: users, customers: customers, orgs: orgs}
}

// CreateCategory POST /admin/categories.
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	category := &domain.Category{OrganizationID: principal.OrganizationID, Name: req.Name}
	if err := h.categories.Create(c.Context(), category); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CategoryResponse{ID: category.ID, Name: category.Name}})
}

// ListCategories GET /admin/categories.
func (h *AdminHandler) ListCategories(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	categories, err := h.categories.ListByOrganization(c.Context(), principal.OrganizationID)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		items = append(items, dto.CategoryResponse{ID: category.ID, Name: category.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateCategory PUT /admin/categories/:id.
func (h *AdminHandler) UpdateCategory(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	category := &domain.Category{ID: id, OrganizationID: principal.OrganizationID, Name: req.Name}
	if err := h.categories.Update(c.Context(), category); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("category", map[string]any{"category_id": id})
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.CategoryResponse{ID: category.ID, Name: category.Name}})
}

// DeleteCategory DELETE /admin/categories/:id.
func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.categories.Delete(c.Context(), id, principal.OrganizationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("category", map[string]any{"category_id": id})
		}
		return apperrors.MapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateTeam POST /admin/teams.
func (h *AdminHandler) CreateTeam(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.TeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	team := &domain.Team{
		OrganizationID: principal.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
	}
	if err := h.teams.Create(c.Context(), team); err != nil {
		return apperrors.MapError(err)
	}
	if err := h.applyAssignments(c, team.ID, principal.OrganizationID, req); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": teamResponse(team, req)})
}

// ListTeams GET /admin/teams.
func (h *AdminHandler) ListTeams(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	teams, err := h.teams.ListByOrganization(c.Context(), principal.OrganizationID)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, dto.TeamResponse{
			ID:          teams[i].ID,
			Name:        teams[i].Name,
			Description: teams[i].Description,
			CategoryIDs: teams[i].CategoryIDs,
			MemberIDs:   teams[i].MemberIDs,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateTeam PUT /admin/teams/:id.
func (h *AdminHandler) UpdateTeam(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.TeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	team := &domain.Team{
		ID:             id,
		OrganizationID: principal.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
	}
	if err := h.teams.Update(c.Context(), team); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("team", map[string]any{"team_id": id})
		}
		return apperrors.MapError(err)
	}
	if err := h.applyAssignments(c, team.ID, principal.OrganizationID, req); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team, req)})
}

// DeleteTeam DELETE /admin/teams/:id.
func (h *AdminHandler) DeleteTeam(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.teams.Delete(c.Context(), id, principal.OrganizationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("team", map[string]any{"team_id": id})
		}
		return apperrors.MapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	users, err := h.users.ListByOrganization(c.Context(), principal.OrganizationID)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.FromUser(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateUserRole PUT /admin/users/:id/role.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	role := domain.Role(req.Role)
	if role != domain.RoleAgent && role != domain.RoleAdmin {
		return apperrors.NewValidationError("invalid role", map[string]any{"role": req.Role})
	}

	user, err := h.users.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return apperrors.MapError(err)
	}
	if user.OrganizationID != principal.OrganizationID {
		return apperrors.NewNotFound("user", map[string]any{"user_id": id})
	}

	user.Role = role
	if err := h.users.Update(c.Context(), user); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.FromUser(user)})
}

// ListCustomers GET /admin/customers.
func (h *AdminHandler) ListCustomers(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	customers, err := h.customers.ListByOrganization(c.Context(), principal.OrganizationID)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.CustomerResponse, 0, len(customers))
	for _, customer := range customers {
		items = append(items, dto.CustomerResponse{
			ID:             customer.ID,
			Name:           customer.Name,
			Email:          customer.Email,
			OrganizationID: customer.OrganizationID,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddWidgetDomain POST /admin/domains — registers a host the chat widget may
// be embedded on.
func (h *AdminHandler) AddWidgetDomain(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.WidgetDomainRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Domain == "" {
		return apperrors.NewValidationError("domain required", nil)
	}

	orgDomain, err := h.orgs.AddDomain(c.Context(), principal.OrganizationID, req.Domain)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.WidgetDomainResponse{ID: orgDomain.ID, Domain: orgDomain.Domain}})
}

// ListWidgetDomains GET /admin/domains.
func (h *AdminHandler) ListWidgetDomains(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	domains, err := h.orgs.ListDomains(c.Context(), principal.OrganizationID)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.WidgetDomainResponse, 0, len(domains))
	for _, d := range domains {
		items = append(items, dto.WidgetDomainResponse{ID: d.ID, Domain: d.Domain})
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *AdminHandler) applyAssignments(c *fiber.Ctx, teamID, orgID int64, req dto.TeamRequest) error {
	if req.CategoryIDs != nil {
		if err := h.teams.SetCategories(c.Context(), teamID, orgID, req.CategoryIDs); err != nil {
			return apperrors.MapError(err)
		}
	}
	if req.MemberIDs != nil {
		if err := h.teams.SetMembers(c.Context(), teamID, orgID, req.MemberIDs); err != nil {
			return apperrors.MapError(err)
		}
	}
	return nil
}

func teamResponse(team *domain.Team, req dto.TeamRequest) dto.TeamResponse {
	return dto.TeamResponse{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		CategoryIDs: req.CategoryIDs,
		MemberIDs:   req.MemberIDs,
	}
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid id", nil)
	}
	return id, nil
}
