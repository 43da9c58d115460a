package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict indicates the key was already claimed by an earlier
// submission of the same request.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore claims request keys so retried booking submissions do not
// double-apply. Keys are scoped per tenant and per operation; the unique
// index on (tenant_id, scope, key) is the arbiter.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// Claim records the key, failing with ErrIdempotencyConflict when a previous
// submission already holds it.
func (s *IdempotencyStore) Claim(ctx context.Context, tenantID int64, scope, key string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if scope == "" || key == "" {
		return fmt.Errorf("idempotency claim requires scope and key")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO idempotency_keys (tenant_id, scope, key, created_at) VALUES ($1, $2, $3, NOW())`,
		tenantID, scope, key)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// Release drops a claimed key so the client may retry after a failed
// submission.
func (s *IdempotencyStore) Release(ctx context.Context, tenantID int64, scope, key string) error {
	if s == nil || key == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM idempotency_keys WHERE tenant_id = $1 AND scope = $2 AND key = $3`,
		tenantID, scope, key)
	return err
}

// Cleanup removes claims older than the retention window.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM idempotency_keys WHERE created_at < $1`,
		time.Now().Add(-olderThan))
	return err
}
