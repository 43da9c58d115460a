package agents

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists agents in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const agentColumns = `id, tenant_id, name, kind, commission_rate, active, created_at, updated_at, deleted_at`

func scanAgent(row pgx.Row) (*Agent, error) {
	var a Agent
	err := row.Scan(&a.ID, &a.TenantID, &a.Name, &a.Kind, &a.CommissionRate, &a.Active, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a new agent.
func (r *Repository) Create(ctx context.Context, a Agent) (*Agent, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agents (tenant_id, name, kind, commission_rate, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		RETURNING `+agentColumns, a.TenantID, a.Name, a.Kind, a.CommissionRate)
	return scanAgent(row)
}

// Get returns a non-deleted agent scoped to the tenant.
func (r *Repository) Get(ctx context.Context, tenantID, id int64) (*Agent, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID)
	return scanAgent(row)
}

// List returns the tenant's agents.
func (r *Repository) List(ctx context.Context, tenantID int64) ([]Agent, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+agentColumns+` FROM agents WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY name, id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Name, &a.Kind, &a.CommissionRate, &a.Active, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update changes name, rate and active flag.
func (r *Repository) Update(ctx context.Context, tenantID, id int64, name string, rate *float64, active bool) (*Agent, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE agents SET name = $3, commission_rate = $4, active = $5, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
		RETURNING `+agentColumns, id, tenantID, name, rate, active)
	return scanAgent(row)
}

// SoftDelete marks the agent deleted.
func (r *Repository) SoftDelete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE agents SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore clears the soft-delete mark.
func (r *Repository) Restore(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE agents SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NOT NULL`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
