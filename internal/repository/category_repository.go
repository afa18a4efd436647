package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/livechat-service/internal/domain"
)

// CategoryRepository manages persistence for chat categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id, orgID int64) error
	GetByID(ctx context.Context, id, orgID int64) (*domain.Category, error)
	ListByOrganization(ctx context.Context, orgID int64) ([]domain.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository constructs repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (organization_id, name)
        VALUES ($1,$2)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		category.OrganizationID,
		category.Name,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	const query = `
        UPDATE categories SET name=$1, updated_at=NOW()
        WHERE id=$2 AND organization_id=$3`
	cmd, err := r.pool.Exec(ctx, query, category.Name, category.ID, category.OrganizationID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id, orgID int64) error {
	const query = `DELETE FROM categories WHERE id=$1 AND organization_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, orgID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id, orgID int64) (*domain.Category, error) {
	const query = `
        SELECT id, organization_id, name, created_at, updated_at
        FROM categories WHERE id=$1 AND organization_id=$2`
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, id, orgID).Scan(
		&category.ID,
		&category.OrganizationID,
		&category.Name,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) ListByOrganization(ctx context.Context, orgID int64) ([]domain.Category, error) {
	const query = `
        SELECT id, organization_id, name, created_at, updated_at
        FROM categories WHERE organization_id=$1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.OrganizationID, &category.Name, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
