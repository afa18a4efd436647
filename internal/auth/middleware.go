package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/livechat-service/internal/domain"
	"github.com/spec-kit/livechat-service/internal/repository"
	apperrors "github.com/spec-kit/livechat-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller, always scoped to one
// organization.
type Principal struct {
	SubjectType    domain.SubjectType
	OrganizationID int64
	User           *domain.User
	Customer       *domain.Customer
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens    *TokenManager
	users     repository.UserRepository
	customers repository.CustomerRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, customers repository.CustomerRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, customers: customers}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{SubjectType: claims.Subject, OrganizationID: claims.OrganizationID}

	switch claims.Subject {
	case domain.SubjectTypeUser:
		user, err := m.users.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("user not found")
			}
			return apperrors.MapError(err)
		}
		if user.OrganizationID != claims.OrganizationID {
			return apperrors.NewUnauthorized("organization mismatch")
		}
		principal.User = user
	case domain.SubjectTypeCustomer:
		customer, err := m.customers.GetByID(c.Context(), claims.SubjectID, claims.OrganizationID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("customer not found")
			}
			return apperrors.MapError(err)
		}
		principal.Customer = customer
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
