package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/livechat-service/internal/domain"
)

// TeamRepository manages teams, their category attachments and memberships.
// EligibleCategoryIDs derives the dispatch eligibility set for an agent.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	Update(ctx context.Context, team *domain.Team) error
	Delete(ctx context.Context, id, orgID int64) error
	GetByID(ctx context.Context, id, orgID int64) (*domain.Team, error)
	ListByOrganization(ctx context.Context, orgID int64) ([]domain.Team, error)
	SetCategories(ctx context.Context, teamID, orgID int64, categoryIDs []int64) error
	SetMembers(ctx context.Context, teamID, orgID int64, userIDs []int64) error
	EligibleCategoryIDs(ctx context.Context, orgID, agentID int64) ([]int64, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (organization_id, name, description)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		team.OrganizationID,
		team.Name,
		team.Description,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	const query = `
        UPDATE teams SET name=$1, description=$2, updated_at=NOW()
        WHERE id=$3 AND organization_id=$4`
	cmd, err := r.pool.Exec(ctx, query, team.Name, team.Description, team.ID, team.OrganizationID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRepository) Delete(ctx context.Context, id, orgID int64) error {
	const query = `DELETE FROM teams WHERE id=$1 AND organization_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, orgID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id, orgID int64) (*domain.Team, error) {
	const query = `
        SELECT id, organization_id, name, description, created_at, updated_at
        FROM teams WHERE id=$1 AND organization_id=$2`
	var team domain.Team
	if err := r.pool.QueryRow(ctx, query, id, orgID).Scan(
		&team.ID,
		&team.OrganizationID,
		&team.Name,
		&team.Description,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if team.CategoryIDs, err = r.teamCategoryIDs(ctx, team.ID); err != nil {
		return nil, err
	}
	if team.MemberIDs, err = r.teamMemberIDs(ctx, team.ID); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) ListByOrganization(ctx context.Context, orgID int64) ([]domain.Team, error) {
	const query = `
        SELECT id, organization_id, name, description, created_at, updated_at
        FROM teams WHERE organization_id=$1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.OrganizationID, &team.Name, &team.Description, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		if result[i].CategoryIDs, err = r.teamCategoryIDs(ctx, result[i].ID); err != nil {
			return nil, err
		}
		if result[i].MemberIDs, err = r.teamMemberIDs(ctx, result[i].ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *teamRepository) SetCategories(ctx context.Context, teamID, orgID int64, categoryIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM team_categories WHERE team_id=$1`, teamID); err != nil {
		return err
	}
	const insert = `
        INSERT INTO team_categories (team_id, category_id)
        SELECT $1, id FROM categories WHERE id=$2 AND organization_id=$3`
	for _, categoryID := range categoryIDs {
		if _, err := tx.Exec(ctx, insert, teamID, categoryID, orgID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *teamRepository) SetMembers(ctx context.Context, teamID, orgID int64, userIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM user_teams WHERE team_id=$1`, teamID); err != nil {
		return err
	}
	const insert = `
        INSERT INTO user_teams (user_id, team_id)
        SELECT id, $1 FROM users WHERE id=$2 AND organization_id=$3`
	for _, userID := range userIDs {
		if _, err := tx.Exec(ctx, insert, teamID, userID, orgID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// EligibleCategoryIDs returns the distinct categories reachable through the
// agent's team memberships inside the organization.
func (r *teamRepository) EligibleCategoryIDs(ctx context.Context, orgID, agentID int64) ([]int64, error) {
	const query = `
        SELECT DISTINCT tc.category_id
        FROM user_teams ut
        JOIN teams t ON t.id = ut.team_id AND t.organization_id = $1
        JOIN team_categories tc ON tc.team_id = ut.team_id
        WHERE ut.user_id = $2
        ORDER BY tc.category_id`
	rows, err := r.pool.Query(ctx, query, orgID, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (r *teamRepository) teamCategoryIDs(ctx context.Context, teamID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category_id FROM team_categories WHERE team_id=$1 ORDER BY category_id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (r *teamRepository) teamMemberIDs(ctx context.Context, teamID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM user_teams WHERE team_id=$1 ORDER BY user_id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows pgx.Rows) ([]int64, error) {
	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}
