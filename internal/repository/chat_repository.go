package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/livechat-service/internal/domain"
)

// ChatFilter captures listing parameters.
type ChatFilter struct {
	OrganizationID int64
	AgentID        *int64
	CustomerID     *int64
	Statuses       []domain.ChatStatus
	Limit          int
	Offset         int
}

// ChatRepository encapsulates chat persistence. Assign and Requeue are
// conditional updates scoped by id and organization; both return
// pgx.ErrNoRows when the row was not in the expected state, which the
// dispatch protocol relies on to detect stale claims.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) error
	GetByID(ctx context.Context, id string, orgID int64) (*domain.Chat, error)
	GetCreatedAt(ctx context.Context, id string) (time.Time, error)
	Assign(ctx context.Context, id string, orgID, agentID int64) (*domain.Chat, error)
	Requeue(ctx context.Context, id string, orgID, agentID int64) (*domain.Chat, error)
	Close(ctx context.Context, id string, orgID int64) (*domain.Chat, error)
	List(ctx context.Context, filter ChatFilter) ([]domain.Chat, error)
}

type chatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository instantiates repository.
func NewChatRepository(pool *pgxpool.Pool) ChatRepository {
	return &chatRepository{pool: pool}
}

const chatColumns = `id, organization_id, category_id, customer_id, agent_id, status, created_at, updated_at, closed_at`

func (r *chatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	const query = `
        INSERT INTO chats (id, organization_id, category_id, customer_id, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		chat.ID,
		chat.OrganizationID,
		chat.CategoryID,
		chat.CustomerID,
		chat.Status,
	).Scan(&chat.CreatedAt, &chat.UpdatedAt)
}

func (r *chatRepository) GetByID(ctx context.Context, id string, orgID int64) (*domain.Chat, error) {
	query := fmt.Sprintf(`SELECT %s FROM chats WHERE id=$1 AND organization_id=$2`, chatColumns)
	return r.fetchSingle(ctx, query, id, orgID)
}

func (r *chatRepository) GetCreatedAt(ctx context.Context, id string) (time.Time, error) {
	const query = `SELECT created_at FROM chats WHERE id=$1`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query, id).Scan(&createdAt); err != nil {
		return time.Time{}, err
	}
	return createdAt, nil
}

func (r *chatRepository) Assign(ctx context.Context, id string, orgID, agentID int64) (*domain.Chat, error) {
	query := fmt.Sprintf(`
        UPDATE chats SET agent_id=$1, status='ACTIVE', updated_at=NOW()
        WHERE id=$2 AND organization_id=$3 AND status='WAITING'
        RETURNING %s`, chatColumns)
	return r.fetchSingle(ctx, query, agentID, id, orgID)
}

func (r *chatRepository) Requeue(ctx context.Context, id string, orgID, agentID int64) (*domain.Chat, error) {
	query := fmt.Sprintf(`
        UPDATE chats SET agent_id=NULL, status='WAITING', updated_at=NOW()
        WHERE id=$1 AND organization_id=$2 AND agent_id=$3 AND status='ACTIVE'
        RETURNING %s`, chatColumns)
	return r.fetchSingle(ctx, query, id, orgID, agentID)
}

func (r *chatRepository) Close(ctx context.Context, id string, orgID int64) (*domain.Chat, error) {
	query := fmt.Sprintf(`
        UPDATE chats SET status='CLOSED', closed_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND organization_id=$2 AND status <> 'CLOSED'
        RETURNING %s`, chatColumns)
	return r.fetchSingle(ctx, query, id, orgID)
}

func (r *chatRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Chat, error) {
	var chat domain.Chat
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&chat.ID,
		&chat.OrganizationID,
		&chat.CategoryID,
		&chat.CustomerID,
		&chat.AgentID,
		&chat.Status,
		&chat.CreatedAt,
		&chat.UpdatedAt,
		&chat.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) List(ctx context.Context, filter ChatFilter) ([]domain.Chat, error) {
	clauses := []string{"organization_id=$1"}
	args := []any{filter.OrganizationID}

	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("agent_id=$%d", len(args)))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM chats WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		chatColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChats(rows)
}

func scanChats(rows pgx.Rows) ([]domain.Chat, error) {
	var result []domain.Chat
	for rows.Next() {
		var chat domain.Chat
		if err := rows.Scan(
			&chat.ID,
			&chat.OrganizationID,
			&chat.CategoryID,
			&chat.CustomerID,
			&chat.AgentID,
			&chat.Status,
			&chat.CreatedAt,
			&chat.UpdatedAt,
			&chat.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, chat)
	}
	return result, rows.Err()
}
