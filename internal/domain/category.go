package domain

import "time"

// Category classifies incoming chats and routes them to the matching queue.
type Category struct {
	ID             int64
	OrganizationID int64
	Name           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
