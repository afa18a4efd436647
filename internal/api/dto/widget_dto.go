package dto

import "time"

// WidgetLoginRequest identifies a widget customer by name and email.
type WidgetLoginRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// WidgetLoginResponse carries the customer token.
type WidgetLoginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Customer  CustomerResponse `json:"customer"`
}

// CustomerResponse response.
type CustomerResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	OrganizationID int64  `json:"organization_id"`
}

// StartChatRequest payload.
type StartChatRequest struct {
	CategoryID int64 `json:"category_id"`
}

// CategoryResponse response.
type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
