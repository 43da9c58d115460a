package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samudra-erp/samudra-erp/internal/bookings"
	"github.com/samudra-erp/samudra-erp/internal/platform/db"
)

// Repository persists payments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// BookingSnapshot is the slice of the booking row the ledger needs while the
// row is locked.
type BookingSnapshot struct {
	ID         int64
	TenantID   int64
	ScheduleID int64
	TotalPrice float64
	Status     bookings.Status
}

// TxRepository exposes the operations that must share one transaction with
// the payment-status recomputation.
type TxRepository interface {
	// LockBooking reads and row-locks the booking so concurrent payments
	// against it serialise on the balance check.
	LockBooking(ctx context.Context, tenantID, bookingID int64) (BookingSnapshot, error)
	SumByStatus(ctx context.Context, bookingID int64, status Status) (float64, error)
	Insert(ctx context.Context, p Payment) (*Payment, error)
	GetPayment(ctx context.Context, tenantID, id int64) (*Payment, error)
	UpdateStatus(ctx context.Context, id int64, status Status, verifiedBy *int64) error
	SoftDelete(ctx context.Context, id int64) error
	SetBookingPaymentStatus(ctx context.Context, bookingID int64, status bookings.PaymentStatus) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const paymentColumns = `id, booking_id, amount, method, status, note, verified_by, verified_at, created_by, created_at, updated_at, deleted_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Method, &p.Status, &p.Note,
		&p.VerifiedBy, &p.VerifiedAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Get returns one payment scoped to the tenant through its booking.
func (r *Repository) Get(ctx context.Context, tenantID, id int64) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT p.id, p.booking_id, p.amount, p.method, p.status, p.note, p.verified_by, p.verified_at, p.created_by, p.created_at, p.updated_at, p.deleted_at
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE p.id = $1 AND b.tenant_id = $2 AND p.deleted_at IS NULL`, id, tenantID)
	return scanPayment(row)
}

// ListByBooking returns all non-deleted payments for a booking.
func (r *Repository) ListByBooking(ctx context.Context, tenantID, bookingID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.booking_id, p.amount, p.method, p.status, p.note, p.verified_by, p.verified_at, p.created_by, p.created_at, p.updated_at, p.deleted_at
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE p.booking_id = $1 AND b.tenant_id = $2 AND p.deleted_at IS NULL
		ORDER BY p.created_at, p.id`, bookingID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Method, &p.Status, &p.Note,
			&p.VerifiedBy, &p.VerifiedAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (t *txRepo) LockBooking(ctx context.Context, tenantID, bookingID int64) (BookingSnapshot, error) {
	var snap BookingSnapshot
	err := t.tx.QueryRow(ctx, `
		SELECT id, tenant_id, schedule_id, total_price, status
		FROM bookings
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
		FOR UPDATE`, bookingID, tenantID).
		Scan(&snap.ID, &snap.TenantID, &snap.ScheduleID, &snap.TotalPrice, &snap.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BookingSnapshot{}, bookings.ErrNotFound
		}
		return BookingSnapshot{}, err
	}
	return snap, nil
}

func (t *txRepo) SumByStatus(ctx context.Context, bookingID int64, status Status) (float64, error) {
	var sum float64
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE booking_id = $1 AND status = $2 AND deleted_at IS NULL`, bookingID, status).Scan(&sum)
	return sum, err
}

func (t *txRepo) Insert(ctx context.Context, p Payment) (*Payment, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO payments (booking_id, amount, method, status, note, verified_by, verified_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING `+paymentColumns,
		p.BookingID, p.Amount, p.Method, p.Status, p.Note, p.VerifiedBy, p.VerifiedAt, p.CreatedBy)
	return scanPayment(row)
}

func (t *txRepo) GetPayment(ctx context.Context, tenantID, id int64) (*Payment, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT p.id, p.booking_id, p.amount, p.method, p.status, p.note, p.verified_by, p.verified_at, p.created_by, p.created_at, p.updated_at, p.deleted_at
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE p.id = $1 AND b.tenant_id = $2 AND p.deleted_at IS NULL
		FOR UPDATE OF p`, id, tenantID)
	return scanPayment(row)
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status, verifiedBy *int64) error {
	if status == StatusSuccess {
		_, err := t.tx.Exec(ctx, `UPDATE payments SET status = $2, verified_by = $3, verified_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id, status, verifiedBy)
		return err
	}
	_, err := t.tx.Exec(ctx, `UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id, status)
	return err
}

func (t *txRepo) SoftDelete(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE payments SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL AND status IN ('PENDING','FAILED','EXPIRED')`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment not removable: %w", ErrDeleteSuccess)
	}
	return nil
}

func (t *txRepo) SetBookingPaymentStatus(ctx context.Context, bookingID int64, status bookings.PaymentStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE bookings SET payment_status = $2, updated_at = NOW() WHERE id = $1`, bookingID, status)
	return err
}
