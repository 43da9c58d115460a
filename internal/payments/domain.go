// Package payments records money received against bookings and keeps the
// booking's derived payment status in sync.
package payments

import (
	"fmt"
	"time"

	"github.com/samudra-erp/samudra-erp/internal/bookings"
	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
)

// Method enumerates accepted payment channels.
type Method string

const (
	MethodBankTransfer   Method = "BANK_TRANSFER"
	MethodVirtualAccount Method = "VIRTUAL_ACCOUNT"
	MethodCreditCard     Method = "CREDIT_CARD"
	MethodQRIS           Method = "QRIS"
	MethodEWallet        Method = "E_WALLET"
	MethodPaypal         Method = "PAYPAL"
	MethodCash           Method = "CASH"
)

// IsValid reports whether the method is recognised.
func (m Method) IsValid() bool {
	switch m {
	case MethodBankTransfer, MethodVirtualAccount, MethodCreditCard, MethodQRIS, MethodEWallet, MethodPaypal, MethodCash:
		return true
	}
	return false
}

// Status enumerates payment attempt states.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
	StatusExpired    Status = "EXPIRED"
	StatusRefunded   Status = "REFUNDED"
)

var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusSuccess, StatusFailed, StatusExpired},
	StatusProcessing: {StatusSuccess, StatusFailed, StatusExpired},
	StatusSuccess:    {StatusRefunded},
	StatusFailed:     {},
	StatusExpired:    {},
	StatusRefunded:   {},
}

// IsValid reports whether the status is recognised.
func (s Status) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range statusTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Removable reports whether a payment in this status may be soft-deleted.
// SUCCESS payments are immutable history.
func (s Status) Removable() bool {
	switch s {
	case StatusPending, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// Payment is one payment attempt or settlement against a booking.
type Payment struct {
	ID         int64      `json:"id"`
	BookingID  int64      `json:"booking_id"`
	Amount     float64    `json:"amount"`
	Method     Method     `json:"method"`
	Status     Status     `json:"status"`
	Note       *string    `json:"note,omitempty"`
	VerifiedBy *int64     `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// Derive recomputes the booking's payment status from scratch. It is the
// single source of the aggregation rule: always re-run over current SUCCESS
// totals, never patched incrementally.
func Derive(totalPrice, totalPaid, totalRefunded float64) bookings.PaymentStatus {
	switch {
	case totalPaid >= totalPrice && totalPrice > 0:
		return bookings.PaymentStatusPaid
	case totalPaid > 0:
		return bookings.PaymentStatusPartial
	case totalRefunded > 0:
		return bookings.PaymentStatusRefunded
	default:
		return bookings.PaymentStatusUnpaid
	}
}

var (
	// ErrNotFound indicates the payment is absent or soft-deleted.
	ErrNotFound = fmt.Errorf("payment %w", httpx.ErrNotFound)
	// ErrAmountExceedsBalance rejects payments above the remaining balance.
	ErrAmountExceedsBalance = fmt.Errorf("%w: amount exceeds remaining balance", httpx.ErrBusinessRule)
	// ErrDeleteSuccess rejects removing settled payments.
	ErrDeleteSuccess = fmt.Errorf("%w: successful payments cannot be deleted", httpx.ErrBusinessRule)
	// ErrInvalidTransition rejects payment status moves outside the machine.
	ErrInvalidTransition = fmt.Errorf("%w: invalid payment status transition", httpx.ErrBusinessRule)
	// ErrNotVerifiable rejects verifying payments that are not awaiting it.
	ErrNotVerifiable = fmt.Errorf("%w: payment is not awaiting verification", httpx.ErrBusinessRule)
)
