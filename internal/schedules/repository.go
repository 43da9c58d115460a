package schedules

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// Repository persists schedules in PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	ledger Ledger
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const scheduleColumns = `id, tenant_id, package_id, departure_date, return_date, quota, available_quota, status, price_override, created_by, created_at, updated_at, deleted_at`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.TenantID, &s.PackageID, &s.DepartureDate, &s.ReturnDate,
		&s.Quota, &s.AvailableQuota, &s.Status, &s.PriceOverride,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a new schedule with available_quota equal to quota.
func (r *Repository) Create(ctx context.Context, s Schedule) (*Schedule, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO schedules (tenant_id, package_id, departure_date, return_date, quota, available_quota, status, price_override, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5, $6, $7, $8, NOW(), NOW())
		RETURNING `+scheduleColumns,
		s.TenantID, s.PackageID, s.DepartureDate, s.ReturnDate, s.Quota, s.Status, s.PriceOverride, s.CreatedBy)
	return scanSchedule(row)
}

// Get returns a non-deleted schedule scoped to the tenant.
func (r *Repository) Get(ctx context.Context, tenantID, id int64) (*Schedule, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID)
	return scanSchedule(row)
}

// List returns schedules for the tenant with optional package/status filters.
func (r *Repository) List(ctx context.Context, tenantID int64, filter ListFilter) ([]Schedule, int, error) {
	conditions := "tenant_id = $1 AND deleted_at IS NULL"
	args := []any{tenantID}
	if filter.PackageID != 0 {
		args = append(args, filter.PackageID)
		conditions += fmt.Sprintf(" AND package_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM schedules WHERE `+conditions, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := shared.NormalizeLimitOffset(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE %s ORDER BY departure_date, id LIMIT $%d OFFSET $%d`,
		scheduleColumns, conditions, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Schedule
	for rows.Next() {
		var s Schedule
		if err := rows.Scan(&s.ID, &s.TenantID, &s.PackageID, &s.DepartureDate, &s.ReturnDate,
			&s.Quota, &s.AvailableQuota, &s.Status, &s.PriceOverride,
			&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// AdjustQuota applies an operator quota change through the ledger.
func (r *Repository) AdjustQuota(ctx context.Context, id int64, delta int) error {
	return r.ledger.Adjust(ctx, r.pool, id, delta)
}

// IncrementQuota returns seats through the ledger.
func (r *Repository) IncrementQuota(ctx context.Context, id int64, pax int) error {
	return r.ledger.Increment(ctx, r.pool, id, pax)
}

// UpdateStatus sets the operator-chosen status.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE schedules SET status = $3, updated_at = NOW() WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAvailability reads the live seat counters for one schedule.
func (r *Repository) GetAvailability(ctx context.Context, tenantID, id int64) (Availability, error) {
	var a Availability
	err := r.pool.QueryRow(ctx, `SELECT id, quota, available_quota, status FROM schedules WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID).
		Scan(&a.ScheduleID, &a.Quota, &a.AvailableQuota, &a.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Availability{}, ErrNotFound
		}
		return Availability{}, err
	}
	return a, nil
}

// SoftDelete marks the schedule deleted.
func (r *Repository) SoftDelete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE schedules SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID)
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
	tag, err := r.pool.Exec(ctx, `UPDATE schedules SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NOT NULL`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
