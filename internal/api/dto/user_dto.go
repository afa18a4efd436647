package dto

import (
	"time"

	"github.com/spec-kit/livechat-service/internal/domain"
)

// RegisterUserRequest payload.
type RegisterUserRequest struct {
	OrganizationID int64       `json:"organization_id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Password       string      `json:"password"`
	Role           domain.Role `json:"role"`
}

// LoginRequest payload.
type LoginRequest struct {
	OrganizationID int64  `json:"organization_id"`
	Email          string `json:"email"`
	Password       string `json:"password"`
}

// AuthResponse carries the issued token.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse response.
type UserResponse struct {
	ID             int64       `json:"id"`
	OrganizationID int64       `json:"organization_id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           domain.Role `json:"role"`
}

// FromUser maps the domain user.
func FromUser(user *domain.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		OrganizationID: user.OrganizationID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
	}
}
