// Package commissions derives commission records from priced bookings and
// settles them in payout batches.
package commissions

import (
	"fmt"
	"time"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
)

// Status enumerates commission states.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// PayoutStatus enumerates payout batch states.
type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "PENDING"
	PayoutPaid      PayoutStatus = "PAID"
	PayoutCancelled PayoutStatus = "CANCELLED"
)

// DefaultRate applies when the assigned agent has no configured rate, in
// percent.
const DefaultRate = 5.0

// Commission pays an agent or sales employee a percentage of a booking's
// total price. Amount and rate freeze at calculation time.
type Commission struct {
	ID        int64      `json:"id"`
	TenantID  int64      `json:"tenant_id"`
	BookingID int64      `json:"booking_id"`
	AgentID   *int64     `json:"agent_id,omitempty"`
	SalesID   *int64     `json:"sales_id,omitempty"`
	Amount    float64    `json:"amount"`
	Rate      float64    `json:"rate"`
	Status    Status     `json:"status"`
	PayoutID  *int64     `json:"payout_id,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Payout is a batch settlement grouping commissions for one agent. Totals
// freeze at creation and are never recomputed.
type Payout struct {
	ID              int64        `json:"id"`
	TenantID        int64        `json:"tenant_id"`
	AgentID         int64        `json:"agent_id"`
	TotalAmount     float64      `json:"total_amount"`
	CommissionCount int          `json:"commission_count"`
	Status          PayoutStatus `json:"status"`
	ProcessedBy     *int64       `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time   `json:"processed_at,omitempty"`
	PayoutDate      *time.Time   `json:"payout_date,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

var (
	// ErrNotFound indicates the commission is absent or soft-deleted.
	ErrNotFound = fmt.Errorf("commission %w", httpx.ErrNotFound)
	// ErrPayoutNotFound indicates the payout batch is absent.
	ErrPayoutNotFound = fmt.Errorf("commission payout %w", httpx.ErrNotFound)
	// ErrDuplicate enforces at most one live commission per booking.
	ErrDuplicate = fmt.Errorf("%w: commission already exists for booking", httpx.ErrDuplicate)
	// ErrNoAssignment rejects calculating for bookings without an agent or
	// sales assignment.
	ErrNoAssignment = fmt.Errorf("%w: booking has no agent or sales assignment", httpx.ErrBusinessRule)
	// ErrNoEligibleCommissions rejects payouts with an empty eligible set.
	ErrNoEligibleCommissions = fmt.Errorf("%w: no eligible commissions for payout", httpx.ErrBusinessRule)
	// ErrPayoutAlreadyPaid forbids cancelling a settled payout.
	ErrPayoutAlreadyPaid = fmt.Errorf("%w: payout is already paid", httpx.ErrBusinessRule)
	// ErrPayoutNotPending rejects settling a payout twice.
	ErrPayoutNotPending = fmt.Errorf("%w: payout is not pending", httpx.ErrBusinessRule)
)
