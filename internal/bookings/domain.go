// Package bookings owns the reservation lifecycle: creation against schedule
// quota, the status state machine, and quota return on cancellation.
package bookings

import (
	"fmt"
	"time"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
)

// Status represents the current state of a booking in its lifecycle.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusReady      Status = "READY"
	StatusDeparted   Status = "DEPARTED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// validTransitions defines the state machine for booking status transitions.
// Any pre-departure state may move to CANCELLED; COMPLETED and CANCELLED are
// terminal.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusReady, StatusCancelled},
	StatusReady:      {StatusDeparted, StatusCancelled},
	StatusDeparted:   {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// IsValid reports whether the status is a recognised booking status.
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// PaymentStatus is the derived payment state cached on the booking row. It is
// never set directly; the payments module recomputes it after every mutation.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPartial  PaymentStatus = "PARTIAL"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// RoomType enumerates the hotel room configurations sold per booking.
type RoomType string

const (
	RoomQuad   RoomType = "QUAD"
	RoomTriple RoomType = "TRIPLE"
	RoomDouble RoomType = "DOUBLE"
	RoomTwin   RoomType = "TWIN"
	RoomSingle RoomType = "SINGLE"
)

// IsValid reports whether the room type is recognised.
func (r RoomType) IsValid() bool {
	switch r {
	case RoomQuad, RoomTriple, RoomDouble, RoomTwin, RoomSingle:
		return true
	}
	return false
}

// Booking represents one customer's reservation against exactly one schedule.
type Booking struct {
	ID            int64         `json:"id"`
	Reference     string        `json:"reference"`
	TenantID      int64         `json:"tenant_id"`
	CustomerID    int64         `json:"customer_id"`
	PackageID     int64         `json:"package_id"`
	ScheduleID    int64         `json:"schedule_id"`
	AgentID       *int64        `json:"agent_id,omitempty"`
	SalesID       *int64        `json:"sales_id,omitempty"`
	RoomType      RoomType      `json:"room_type"`
	Pax           int           `json:"pax"`
	BasePrice     float64       `json:"base_price"`
	Discount      float64       `json:"discount"`
	TotalPrice    float64       `json:"total_price"`
	Currency      string        `json:"currency"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	// QuotaReturned guards quota return so a cancel-then-delete sequence can
	// never return seats twice.
	QuotaReturned bool       `json:"-"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CancelReason  *string    `json:"cancel_reason,omitempty"`
	CreatedBy     int64      `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

var (
	// ErrNotFound indicates the booking is absent or soft-deleted.
	ErrNotFound = fmt.Errorf("booking %w", httpx.ErrNotFound)
	// ErrStaleStatus signals the optimistic from-status check failed.
	ErrStaleStatus = fmt.Errorf("%w: booking status changed since it was read", httpx.ErrConflict)
	// ErrInvalidTransition rejects moves the state machine does not allow.
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", httpx.ErrBusinessRule)
	// ErrDeleteNotPending rejects deleting bookings past PENDING.
	ErrDeleteNotPending = fmt.Errorf("%w: can only delete pending bookings", httpx.ErrBusinessRule)
	// ErrDeleteHasPayments rejects deleting bookings with successful payments.
	ErrDeleteHasPayments = fmt.Errorf("%w: booking has successful payments", httpx.ErrBusinessRule)
	// ErrCancelReasonRequired rejects cancellations without a reason.
	ErrCancelReasonRequired = fmt.Errorf("%w: cancel reason is required", httpx.ErrValidation)
)
