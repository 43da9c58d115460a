package commissions

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samudra-erp/samudra-erp/internal/bookings"
	"github.com/samudra-erp/samudra-erp/internal/platform/db"
)

// Repository persists commissions and payouts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// BookingAssignment is the slice of the booking the calculator needs.
type BookingAssignment struct {
	BookingID  int64
	TenantID   int64
	TotalPrice float64
	AgentID    *int64
	SalesID    *int64
}

// TxRepository exposes the operations that share one transaction.
type TxRepository interface {
	// SelectEligible row-locks PENDING, unlinked commissions of the agent.
	SelectEligible(ctx context.Context, tenantID, agentID int64, ids []int64) ([]Commission, error)
	InsertPayout(ctx context.Context, p Payout) (*Payout, error)
	LinkToPayout(ctx context.Context, payoutID int64, commissionIDs []int64) error
	GetPayout(ctx context.Context, tenantID, id int64) (*Payout, error)
	SetPayoutPaid(ctx context.Context, id, processedBy int64, at time.Time) error
	SetPayoutCancelled(ctx context.Context, id int64) error
	CascadePaid(ctx context.Context, payoutID int64, at time.Time) error
	CascadeUnlink(ctx context.Context, payoutID int64) error
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

const commissionColumns = `id, tenant_id, booking_id, agent_id, sales_id, amount, rate, status, payout_id, paid_at, created_at, updated_at, deleted_at`

func scanCommission(row pgx.Row) (*Commission, error) {
	var c Commission
	err := row.Scan(&c.ID, &c.TenantID, &c.BookingID, &c.AgentID, &c.SalesID, &c.Amount, &c.Rate,
		&c.Status, &c.PayoutID, &c.PaidAt, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetBookingAssignment loads the booking fields the calculator freezes.
func (r *Repository) GetBookingAssignment(ctx context.Context, tenantID, bookingID int64) (BookingAssignment, error) {
	var a BookingAssignment
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, total_price, agent_id, sales_id
		FROM bookings
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, bookingID, tenantID).
		Scan(&a.BookingID, &a.TenantID, &a.TotalPrice, &a.AgentID, &a.SalesID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BookingAssignment{}, bookings.ErrNotFound
		}
		return BookingAssignment{}, err
	}
	return a, nil
}

// Insert creates the commission. The partial unique index on booking_id
// enforces at most one non-deleted commission per booking; violations map to
// ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, c Commission) (*Commission, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO commissions (tenant_id, booking_id, agent_id, sales_id, amount, rate, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING `+commissionColumns,
		c.TenantID, c.BookingID, c.AgentID, c.SalesID, c.Amount, c.Rate, c.Status)
	created, err := scanCommission(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return created, nil
}

// Get returns one commission scoped to the tenant.
func (r *Repository) Get(ctx context.Context, tenantID, id int64) (*Commission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+commissionColumns+` FROM commissions WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID)
	return scanCommission(row)
}

// ListByAgent returns the agent's commissions, newest first.
func (r *Repository) ListByAgent(ctx context.Context, tenantID, agentID int64) ([]Commission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+commissionColumns+` FROM commissions WHERE tenant_id = $1 AND agent_id = $2 AND deleted_at IS NULL ORDER BY created_at DESC, id DESC`, tenantID, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCommissions(rows)
}

func collectCommissions(rows pgx.Rows) ([]Commission, error) {
	var result []Commission
	for rows.Next() {
		var c Commission
		if err := rows.Scan(&c.ID, &c.TenantID, &c.BookingID, &c.AgentID, &c.SalesID, &c.Amount, &c.Rate,
			&c.Status, &c.PayoutID, &c.PaidAt, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetPayout returns one payout scoped to the tenant.
func (r *Repository) GetPayout(ctx context.Context, tenantID, id int64) (*Payout, error) {
	return getPayout(ctx, r.pool, tenantID, id, false)
}

// PayoutCommissions returns the commissions linked to a payout.
func (r *Repository) PayoutCommissions(ctx context.Context, tenantID, payoutID int64) ([]Commission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+commissionColumns+` FROM commissions WHERE tenant_id = $1 AND payout_id = $2 AND deleted_at IS NULL ORDER BY id`, tenantID, payoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCommissions(rows)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const payoutColumns = `id, tenant_id, agent_id, total_amount, commission_count, status, processed_by, processed_at, payout_date, created_at, updated_at`

func getPayout(ctx context.Context, q queryRower, tenantID, id int64, forUpdate bool) (*Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM commission_payouts WHERE id = $1 AND tenant_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var p Payout
	err := q.QueryRow(ctx, query, id, tenantID).
		Scan(&p.ID, &p.TenantID, &p.AgentID, &p.TotalAmount, &p.CommissionCount, &p.Status,
			&p.ProcessedBy, &p.ProcessedAt, &p.PayoutDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t *txRepo) SelectEligible(ctx context.Context, tenantID, agentID int64, ids []int64) ([]Commission, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+commissionColumns+`
		FROM commissions
		WHERE tenant_id = $1 AND agent_id = $2 AND id = ANY($3)
		  AND status = 'PENDING' AND payout_id IS NULL AND deleted_at IS NULL
		ORDER BY id
		FOR UPDATE`, tenantID, agentID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCommissions(rows)
}

func (t *txRepo) InsertPayout(ctx context.Context, p Payout) (*Payout, error) {
	var created Payout
	err := t.tx.QueryRow(ctx, `
		INSERT INTO commission_payouts (tenant_id, agent_id, total_amount, commission_count, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING `+payoutColumns,
		p.TenantID, p.AgentID, p.TotalAmount, p.CommissionCount, p.Status).
		Scan(&created.ID, &created.TenantID, &created.AgentID, &created.TotalAmount, &created.CommissionCount,
			&created.Status, &created.ProcessedBy, &created.ProcessedAt, &created.PayoutDate, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (t *txRepo) LinkToPayout(ctx context.Context, payoutID int64, commissionIDs []int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE commissions SET payout_id = $1, updated_at = NOW() WHERE id = ANY($2)`, payoutID, commissionIDs)
	return err
}

func (t *txRepo) GetPayout(ctx context.Context, tenantID, id int64) (*Payout, error) {
	return getPayout(ctx, t.tx, tenantID, id, true)
}

func (t *txRepo) SetPayoutPaid(ctx context.Context, id, processedBy int64, at time.Time) error {
	_, err := t.tx.Exec(ctx, `UPDATE commission_payouts SET status = 'PAID', processed_by = $2, processed_at = $3, payout_date = $3, updated_at = NOW() WHERE id = $1`, id, processedBy, at)
	return err
}

func (t *txRepo) SetPayoutCancelled(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE commission_payouts SET status = 'CANCELLED', updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (t *txRepo) CascadePaid(ctx context.Context, payoutID int64, at time.Time) error {
	_, err := t.tx.Exec(ctx, `UPDATE commissions SET status = 'PAID', paid_at = $2, updated_at = NOW() WHERE payout_id = $1 AND deleted_at IS NULL`, payoutID, at)
	return err
}

func (t *txRepo) CascadeUnlink(ctx context.Context, payoutID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE commissions SET status = 'PENDING', payout_id = NULL, paid_at = NULL, updated_at = NOW() WHERE payout_id = $1 AND deleted_at IS NULL`, payoutID)
	return err
}
