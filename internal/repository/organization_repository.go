package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/livechat-service/internal/domain"
)

// OrganizationRepository resolves tenants, including widget-domain lookup.
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id int64) (*domain.Organization, error)
	GetByWidgetDomain(ctx context.Context, host string) (*domain.Organization, error)
	AddDomain(ctx context.Context, orgID int64, host string) (*domain.OrgDomain, error)
	ListDomains(ctx context.Context, orgID int64) ([]domain.OrgDomain, error)
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository instantiates repository.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	const query = `
        INSERT INTO organizations (name)
        VALUES ($1)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, org.Name).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
}

func (r *organizationRepository) GetByID(ctx context.Context, id int64) (*domain.Organization, error) {
	const query = `
        SELECT id, name, created_at, updated_at
        FROM organizations WHERE id=$1`
	var org domain.Organization
	if err := r.pool.QueryRow(ctx, query, id).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) GetByWidgetDomain(ctx context.Context, host string) (*domain.Organization, error) {
	const query = `
        SELECT o.id, o.name, o.created_at, o.updated_at
        FROM organizations o
        JOIN org_domains d ON d.organization_id = o.id
        WHERE d.domain = $1`
	var org domain.Organization
	if err := r.pool.QueryRow(ctx, query, strings.ToLower(host)).Scan(
		&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) AddDomain(ctx context.Context, orgID int64, host string) (*domain.OrgDomain, error) {
	const query = `
        INSERT INTO org_domains (organization_id, domain)
        VALUES ($1,$2)
        RETURNING id, created_at`
	orgDomain := domain.OrgDomain{OrganizationID: orgID, Domain: strings.ToLower(host)}
	if err := r.pool.QueryRow(ctx, query, orgID, orgDomain.Domain).Scan(&orgDomain.ID, &orgDomain.CreatedAt); err != nil {
		return nil, err
	}
	return &orgDomain, nil
}

func (r *organizationRepository) ListDomains(ctx context.Context, orgID int64) ([]domain.OrgDomain, error) {
	const query = `
        SELECT id, organization_id, domain, created_at
        FROM org_domains WHERE organization_id=$1 ORDER BY domain`
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.OrgDomain
	for rows.Next() {
		var d domain.OrgDomain
		if err := rows.Scan(&d.ID, &d.OrganizationID, &d.Domain, &d.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}
