package schedules

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgx executors the ledger operates on. Both the pool
// and an open transaction satisfy it, so callers that must combine a quota
// mutation with their own writes pass their pgx.Tx here.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ledger is the only mutator of available_quota. Every change is a single
// conditional UPDATE so concurrent bookings can never oversell a schedule.
type Ledger struct{}

// Decrement consumes pax seats. The availability check and the decrement are
// one atomic statement; zero rows affected means either the schedule is gone
// or the quota is short, and the follow-up read disambiguates the two.
func (Ledger) Decrement(ctx context.Context, db DB, scheduleID int64, pax int) error {
	if pax <= 0 {
		return ErrInvalidPax
	}
	tag, err := db.Exec(ctx, `
		UPDATE schedules
		SET available_quota = available_quota - $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND available_quota >= $2
		  AND status IN ('OPEN','ALMOST_FULL')`, scheduleID, pax)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var status Status
	err = db.QueryRow(ctx, `SELECT status FROM schedules WHERE id = $1 AND deleted_at IS NULL`, scheduleID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if !status.Bookable() {
		return ErrNotBookable
	}
	return ErrInsufficientQuota
}

// Increment returns pax seats, clamped to the configured quota.
func (Ledger) Increment(ctx context.Context, db DB, scheduleID int64, pax int) error {
	if pax <= 0 {
		return ErrInvalidPax
	}
	tag, err := db.Exec(ctx, `
		UPDATE schedules
		SET available_quota = LEAST(available_quota + $2, quota), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, scheduleID, pax)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Adjust applies an operator change to the total quota. Available quota moves
// by the same delta, floored at zero.
func (Ledger) Adjust(ctx context.Context, db DB, scheduleID int64, delta int) error {
	tag, err := db.Exec(ctx, `
		UPDATE schedules
		SET quota = quota + $2,
		    available_quota = GREATEST(available_quota + $2, 0),
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND quota + $2 >= 0`, scheduleID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
