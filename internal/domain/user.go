package domain

import "time"

// Role enumerates operator roles inside an organization.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleAgent Role = "AGENT"
)

// User models an administrator or support agent.
type User struct {
	ID             int64
	OrganizationID int64
	Name           string
	Email          string
	PasswordHash   string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
