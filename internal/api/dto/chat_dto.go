package dto

import (
	"time"

	"github.com/spec-kit/livechat-service/internal/domain"
)

// ChatSummary response.
type ChatSummary struct {
	ID         string            `json:"id"`
	CategoryID int64             `json:"category_id"`
	CustomerID int64             `json:"customer_id"`
	AgentID    *int64            `json:"agent_id,omitempty"`
	Status     domain.ChatStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	ClosedAt   *time.Time        `json:"closed_at,omitempty"`
}

// FromChat maps the domain chat.
func FromChat(chat *domain.Chat) ChatSummary {
	return ChatSummary{
		ID:         chat.ID,
		CategoryID: chat.CategoryID,
		CustomerID: chat.CustomerID,
		AgentID:    chat.AgentID,
		Status:     chat.Status,
		CreatedAt:  chat.CreatedAt,
		UpdatedAt:  chat.UpdatedAt,
		ClosedAt:   chat.ClosedAt,
	}
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Content string `json:"content"`
}

// NoteResponse response.
type NoteResponse struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	ChatID     *string   `json:"chat_id,omitempty"`
	AuthorID   int64     `json:"author_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromNote maps the domain note.
func FromNote(note *domain.CustomerNote) NoteResponse {
	return NoteResponse{
		ID:         note.ID,
		CustomerID: note.CustomerID,
		ChatID:     note.ChatID,
		AuthorID:   note.AuthorID,
		Content:    note.Content,
		CreatedAt:  note.CreatedAt,
	}
}
