package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samudra-erp/samudra-erp/internal/bookings"
	"github.com/samudra-erp/samudra-erp/internal/observability"
	"github.com/samudra-erp/samudra-erp/internal/payments"
)

// Reconciler recomputes the derived counters from their source rows and
// reports drift. Counters drift when a crash lands between a committed
// transaction and its side effects, or when someone edits rows by hand.
type Reconciler struct {
	pool    *pgxpool.Pool
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewReconciler builds Reconciler.
func NewReconciler(pool *pgxpool.Pool, metrics *observability.Metrics, logger *slog.Logger) *Reconciler {
	return &Reconciler{pool: pool, metrics: metrics, logger: logger}
}

// Handler processes TaskTypeReconcile tasks.
func (rc *Reconciler) Handler() asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReconcilePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return rc.Run(ctx, payload.Repair)
	}
}

// Run performs one reconciliation pass over schedule quota and booking
// payment status.
func (rc *Reconciler) Run(ctx context.Context, repair bool) error {
	if err := rc.reconcileQuota(ctx, repair); err != nil {
		return err
	}
	return rc.reconcilePaymentStatus(ctx, repair)
}

// reconcileQuota compares available_quota against quota minus the seats held
// by bookings that have not returned their quota.
func (rc *Reconciler) reconcileQuota(ctx context.Context, repair bool) error {
	rows, err := rc.pool.Query(ctx, `
		SELECT s.id, s.available_quota, GREATEST(s.quota - COALESCE(held.pax, 0), 0) AS expected
		FROM schedules s
		LEFT JOIN (
			SELECT schedule_id, SUM(pax) AS pax
			FROM bookings
			WHERE quota_returned = FALSE AND deleted_at IS NULL
			GROUP BY schedule_id
		) held ON held.schedule_id = s.id
		WHERE s.deleted_at IS NULL`)
	if err != nil {
		return err
	}
	defer rows.Close()

	type quotaDrift struct {
		scheduleID int64
		stored     int
		expected   int
	}
	var drifted []quotaDrift
	for rows.Next() {
		var d quotaDrift
		if err := rows.Scan(&d.scheduleID, &d.stored, &d.expected); err != nil {
			return err
		}
		if d.stored != d.expected {
			drifted = append(drifted, d)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, d := range drifted {
		rc.metrics.ObserveDrift("quota")
		rc.logger.Warn("quota drift",
			slog.Int64("schedule_id", d.scheduleID),
			slog.Int("stored", d.stored),
			slog.Int("expected", d.expected),
			slog.Bool("repair", repair))
		if !repair {
			continue
		}
		if _, err := rc.pool.Exec(ctx,
			`UPDATE schedules SET available_quota = $2, updated_at = NOW() WHERE id = $1`,
			d.scheduleID, d.expected); err != nil {
			return err
		}
	}
	return nil
}

// reconcilePaymentStatus rederives every booking's payment status from its
// payment rows and compares it with the stored value.
func (rc *Reconciler) reconcilePaymentStatus(ctx context.Context, repair bool) error {
	rows, err := rc.pool.Query(ctx, `
		SELECT b.id, b.payment_status, b.total_price,
			COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'SUCCESS'), 0) AS paid,
			COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'REFUNDED'), 0) AS refunded
		FROM bookings b
		LEFT JOIN payments p ON p.booking_id = b.id AND p.deleted_at IS NULL
		WHERE b.deleted_at IS NULL
		GROUP BY b.id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	type statusDrift struct {
		bookingID int64
		stored    bookings.PaymentStatus
		expected  bookings.PaymentStatus
	}
	var drifted []statusDrift
	for rows.Next() {
		var (
			d              statusDrift
			total          float64
			paid, refunded float64
		)
		if err := rows.Scan(&d.bookingID, &d.stored, &total, &paid, &refunded); err != nil {
			return err
		}
		d.expected = payments.Derive(total, paid, refunded)
		if d.stored != d.expected {
			drifted = append(drifted, d)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, d := range drifted {
		rc.metrics.ObserveDrift("payment_status")
		rc.logger.Warn("payment status drift",
			slog.Int64("booking_id", d.bookingID),
			slog.String("stored", string(d.stored)),
			slog.String("expected", string(d.expected)),
			slog.Bool("repair", repair))
		if !repair {
			continue
		}
		if _, err := rc.pool.Exec(ctx,
			`UPDATE bookings SET payment_status = $2, updated_at = NOW() WHERE id = $1`,
			d.bookingID, d.expected); err != nil {
			return err
		}
	}
	return nil
}
