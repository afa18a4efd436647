package domain

import "time"

// Customer is the originating party of a chat, identified by email per
// organization.
type Customer struct {
	ID             int64
	OrganizationID int64
	Name           string
	Email          string
	CreatedAt      time.Time
}

// CustomerNote is an internal note an operator attaches to a customer,
// optionally tied to one chat.
type CustomerNote struct {
	ID             int64
	OrganizationID int64
	CustomerID     int64
	ChatID         *string
	AuthorID       int64
	Content        string
	CreatedAt      time.Time
}
