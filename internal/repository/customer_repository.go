package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/livechat-service/internal/domain"
)

// CustomerRepository manages persistence for widget customers.
type CustomerRepository interface {
	UpsertByEmail(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id, orgID int64) (*domain.Customer, error)
	ListByOrganization(ctx context.Context, orgID int64) ([]domain.Customer, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository instantiates repository.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

// UpsertByEmail finds the customer by (email, org) or creates it, mirroring
// the widget login flow.
func (r *customerRepository) UpsertByEmail(ctx context.Context, customer *domain.Customer) error {
	const get = `
        SELECT id, organization_id, name, email, created_at
        FROM customers WHERE email=$1 AND organization_id=$2`
	err := r.pool.QueryRow(ctx, get, customer.Email, customer.OrganizationID).Scan(
		&customer.ID,
		&customer.OrganizationID,
		&customer.Name,
		&customer.Email,
		&customer.CreatedAt,
	)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	const insert = `
        INSERT INTO customers (organization_id, name, email)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, insert,
		customer.OrganizationID,
		customer.Name,
		customer.Email,
	).Scan(&customer.ID, &customer.CreatedAt)
}

func (r *customerRepository) GetByID(ctx context.Context, id, orgID int64) (*domain.Customer, error) {
	const query = `
        SELECT id, organization_id, name, email, created_at
        FROM customers WHERE id=$1 AND organization_id=$2`
	var customer domain.Customer
	if err := r.pool.QueryRow(ctx, query, id, orgID).Scan(
		&customer.ID,
		&customer.OrganizationID,
		&customer.Name,
		&customer.Email,
		&customer.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) ListByOrganization(ctx context.Context, orgID int64) ([]domain.Customer, error) {
	const query = `
        SELECT id, organization_id, name, email, created_at
        FROM customers WHERE organization_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(&customer.ID, &customer.OrganizationID, &customer.Name, &customer.Email, &customer.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, customer)
	}
	return result, rows.Err()
}
