package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/livechat-service/internal/domain"
)

// CustomerNoteRepository manages internal notes operators attach to customers.
type CustomerNoteRepository interface {
	Create(ctx context.Context, note *domain.CustomerNote) error
	ListByCustomer(ctx context.Context, customerID, orgID int64) ([]domain.CustomerNote, error)
}

type customerNoteRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerNoteRepository instantiates repository.
func NewCustomerNoteRepository(pool *pgxpool.Pool) CustomerNoteRepository {
	return &customerNoteRepository{pool: pool}
}

func (r *customerNoteRepository) Create(ctx context.Context, note *domain.CustomerNote) error {
	const query = `
        INSERT INTO customer_notes (organization_id, customer_id, chat_id, author_id, content)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		note.OrganizationID,
		note.CustomerID,
		note.ChatID,
		note.AuthorID,
		note.Content,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *customerNoteRepository) ListByCustomer(ctx context.Context, customerID, orgID int64) ([]domain.CustomerNote, error) {
	const query = `
        SELECT id, organization_id, customer_id, chat_id, author_id, content, created_at
        FROM customer_notes WHERE customer_id=$1 AND organization_id=$2
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, customerID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CustomerNote
	for rows.Next() {
		var note domain.CustomerNote
		if err := rows.Scan(
			&note.ID,
			&note.OrganizationID,
			&note.CustomerID,
			&note.ChatID,
			&note.AuthorID,
			&note.Content,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
