package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/livechat-service/internal/auth"
	"github.com/spec-kit/livechat-service/internal/config"
	"github.com/spec-kit/livechat-service/internal/domain"
	"github.com/spec-kit/livechat-service/internal/repository"
	apperrors "github.com/spec-kit/livechat-service/pkg/util"
)

// AuthService coordinates operator login and widget customer identification.
type AuthService struct {
	users      repository.UserRepository
	customers  repository.CustomerRepository
	orgs       repository.OrganizationRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	CustomerRepo repository.CustomerRepository
	OrgRepo      repository.OrganizationRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		customers:  deps.CustomerRepo,
		orgs:       deps.OrgRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the configured token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// CreateOrganization bootstraps a new tenant. Widget domains and the first
// admin account are attached afterwards.
func (s *AuthService) CreateOrganization(ctx context.Context, name string) (*domain.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	org := &domain.Organization{Name: name}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, apperrors.MapError(err)
	}
	return org, nil
}

// RegisterUser creates an operator account inside an organization.
func (s *AuthService) RegisterUser(ctx context.Context, orgID int64, name, email, password string, role domain.Role) (*domain.User, string, time.Time, error) {
	if _, err := s.orgs.GetByID(ctx, orgID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewNotFound("organization", map[string]any{"organization_id": orgID})
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.users.GetByEmail(ctx, email, orgID); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	user := &domain.User{
		OrganizationID: orgID,
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, domain.SubjectTypeUser, orgID, &user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// LoginUser authenticates an operator by email and password.
func (s *AuthService) LoginUser(ctx context.Context, orgID int64, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email, orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, domain.SubjectTypeUser, orgID, &user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// IdentifyCustomer upserts a widget customer by email and issues a token.
// The widget has no passwords; possession of the org's widget domain plus an
// email is the identity model.
func (s *AuthService) IdentifyCustomer(ctx context.Context, orgID int64, name, email string) (*domain.Customer, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email required", nil)
	}

	customer := &domain.Customer{
		OrganizationID: orgID,
		Name:           strings.TrimSpace(name),
		Email:          email,
	}
	if err := s.customers.UpsertByEmail(ctx, customer); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(customer.ID, domain.SubjectTypeCustomer, orgID, nil)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return customer, token, exp, nil
}

// ResolveWidgetOrganization maps a widget host to its organization.
func (s *AuthService) ResolveWidgetOrganization(ctx context.Context, host string) (*domain.Organization, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return nil, apperrors.NewValidationError("widget domain required", nil)
	}
	org, err := s.orgs.GetByWidgetDomain(ctx, host)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", map[string]any{"domain": host})
		}
		return nil, apperrors.MapError(err)
	}
	return org, nil
}
