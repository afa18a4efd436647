package domain

import "time"

// ChatStatus enumerates lifecycle states for chat sessions.
type ChatStatus string

const (
	ChatStatusWaiting ChatStatus = "WAITING"
	ChatStatusActive  ChatStatus = "ACTIVE"
	ChatStatusClosed  ChatStatus = "CLOSED"
)

// Chat is one customer-organization engagement. A WAITING chat sits in exactly
// one per-(organization, category) queue; an ACTIVE chat has an agent and sits
// in no queue; CLOSED is terminal.
type Chat struct {
	ID             string
	OrganizationID int64
	CategoryID     int64
	CustomerID     int64
	AgentID        *int64
	Status         ChatStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ClosedAt       *time.Time
}

// Assigned reports whether the chat currently has an agent.
func (c *Chat) Assigned() bool {
	return c != nil && c.AgentID != nil
}
