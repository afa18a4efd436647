package events

import (
	"time"

	"github.com/spec-kit/livechat-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventChatCreated  EventType = "chat_created"
	EventChatAssigned EventType = "chat_assigned"
	EventChatRequeued EventType = "chat_requeued"
	EventChatClosed   EventType = "chat_closed"
)

// RecipientType addresses an event to an agent or a customer connection.
type RecipientType string

const (
	RecipientAgent    RecipientType = "AGENT"
	RecipientCustomer RecipientType = "CUSTOMER"
)

// Recipient identifies the party an event is addressed to.
type Recipient struct {
	Type RecipientType `json:"type"`
	ID   int64         `json:"id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID             string      `json:"id"`
	Type           EventType   `json:"type"`
	ChatID         string      `json:"chat_id"`
	OrganizationID int64       `json:"organization_id"`
	Recipient      Recipient   `json:"recipient"`
	Timestamp      time.Time   `json:"timestamp"`
	Payload        interface{} `json:"payload"`
}

// ChatCreatedPayload payload.
type ChatCreatedPayload struct {
	CategoryID int64             `json:"category_id"`
	Status     domain.ChatStatus `json:"status"`
}

// ChatAssignedPayload payload.
type ChatAssignedPayload struct {
	AgentID    int64     `json:"agent_id"`
	CategoryID int64     `json:"category_id"`
	CustomerID int64     `json:"customer_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// ChatRequeuedPayload payload.
type ChatRequeuedPayload struct {
	CategoryID int64 `json:"category_id"`
}

// ChatClosedPayload payload.
type ChatClosedPayload struct {
	AgentID *int64 `json:"agent_id,omitempty"`
}
