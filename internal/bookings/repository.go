package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samudra-erp/samudra-erp/internal/platform/db"
	"github.com/samudra-erp/samudra-erp/internal/schedules"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// Repository persists bookings in PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	ledger schedules.Ledger
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations the service combines inside one
// transaction: quota mutations stay atomic with the booking writes.
type TxRepository interface {
	Insert(ctx context.Context, b Booking) (*Booking, error)
	UpdateStatus(ctx context.Context, tenantID, id int64, from, to Status, cancelReason *string) (bool, error)
	SoftDelete(ctx context.Context, tenantID, id int64) (bool, error)
	// MarkQuotaReturned flips the quota_returned guard; it reports false when
	// another path already returned this booking's seats.
	MarkQuotaReturned(ctx context.Context, id int64) (bool, error)
	DecrementQuota(ctx context.Context, scheduleID int64, pax int) error
	ReturnQuota(ctx context.Context, scheduleID int64, pax int) error
}

type txRepo struct {
	tx     pgx.Tx
	ledger schedules.Ledger
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, ledger: r.ledger})
	})
}

const bookingColumns = `id, reference, tenant_id, customer_id, package_id, schedule_id, agent_id, sales_id, room_type, pax, base_price, discount, total_price, currency, status, payment_status, quota_returned, cancelled_at, cancel_reason, created_by, created_at, updated_at, deleted_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.Reference, &b.TenantID, &b.CustomerID, &b.PackageID, &b.ScheduleID,
		&b.AgentID, &b.SalesID, &b.RoomType, &b.Pax, &b.BasePrice, &b.Discount, &b.TotalPrice,
		&b.Currency, &b.Status, &b.PaymentStatus, &b.QuotaReturned, &b.CancelledAt, &b.CancelReason,
		&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Get returns a non-deleted booking scoped to the tenant.
func (r *Repository) Get(ctx context.Context, tenantID, id int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID)
	return scanBooking(row)
}

// List returns tenant bookings matching the filter, newest first.
func (r *Repository) List(ctx context.Context, tenantID int64, filter ListFilter) ([]Booking, int, error) {
	conditions := "tenant_id = $1 AND deleted_at IS NULL"
	args := []any{tenantID}
	if filter.CustomerID != 0 {
		args = append(args, filter.CustomerID)
		conditions += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.ScheduleID != 0 {
		args = append(args, filter.ScheduleID)
		conditions += fmt.Sprintf(" AND schedule_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE `+conditions, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := shared.NormalizeLimitOffset(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, conditions, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.Reference, &b.TenantID, &b.CustomerID, &b.PackageID, &b.ScheduleID,
			&b.AgentID, &b.SalesID, &b.RoomType, &b.Pax, &b.BasePrice, &b.Discount, &b.TotalPrice,
			&b.Currency, &b.Status, &b.PaymentStatus, &b.QuotaReturned, &b.CancelledAt, &b.CancelReason,
			&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// HasSuccessPayment reports whether any non-deleted SUCCESS payment
// references the booking.
func (r *Repository) HasSuccessPayment(ctx context.Context, bookingID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE booking_id = $1 AND status = 'SUCCESS' AND deleted_at IS NULL)`, bookingID).Scan(&exists)
	return exists, err
}

func (t *txRepo) Insert(ctx context.Context, b Booking) (*Booking, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO bookings (reference, tenant_id, customer_id, package_id, schedule_id, agent_id, sales_id, room_type, pax, base_price, discount, total_price, currency, status, payment_status, quota_returned, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, FALSE, $16, NOW(), NOW())
		RETURNING `+bookingColumns,
		b.Reference, b.TenantID, b.CustomerID, b.PackageID, b.ScheduleID, b.AgentID, b.SalesID,
		b.RoomType, b.Pax, b.BasePrice, b.Discount, b.TotalPrice, b.Currency, b.Status, b.PaymentStatus, b.CreatedBy)
	return scanBooking(row)
}

// UpdateStatus performs the optimistic transition: the WHERE clause re-checks
// the expected from-status so a stale read surfaces as zero rows affected.
func (t *txRepo) UpdateStatus(ctx context.Context, tenantID, id int64, from, to Status, cancelReason *string) (bool, error) {
	if to == StatusCancelled {
		res, err := t.tx.Exec(ctx, `UPDATE bookings SET status = $4, cancelled_at = $5, cancel_reason = $6, updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2 AND status = $3 AND deleted_at IS NULL`, id, tenantID, from, to, time.Now(), cancelReason)
		if err != nil {
			return false, err
		}
		return res.RowsAffected() == 1, nil
	}
	res, err := t.tx.Exec(ctx, `UPDATE bookings SET status = $4, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND status = $3 AND deleted_at IS NULL`, id, tenantID, from, to)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (t *txRepo) SoftDelete(ctx context.Context, tenantID, id int64) (bool, error) {
	res, err := t.tx.Exec(ctx, `UPDATE bookings SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND status = 'PENDING' AND deleted_at IS NULL`, id, tenantID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (t *txRepo) MarkQuotaReturned(ctx context.Context, id int64) (bool, error) {
	res, err := t.tx.Exec(ctx, `UPDATE bookings SET quota_returned = TRUE, updated_at = NOW()
		WHERE id = $1 AND quota_returned = FALSE`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (t *txRepo) DecrementQuota(ctx context.Context, scheduleID int64, pax int) error {
	return t.ledger.Decrement(ctx, t.tx, scheduleID, pax)
}

func (t *txRepo) ReturnQuota(ctx context.Context, scheduleID int64, pax int) error {
	return t.ledger.Increment(ctx, t.tx, scheduleID, pax)
}
