// Package schedules owns departure schedules and their seat quota ledger.
package schedules

import (
	"fmt"
	"time"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
)

// Status enumerates operator-set schedule states. It is never derived from
// quota exhaustion; operators flip it explicitly.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusAlmostFull Status = "ALMOST_FULL"
	StatusFull       Status = "FULL"
	StatusClosed     Status = "CLOSED"
	StatusDeparted   Status = "DEPARTED"
	StatusCompleted  Status = "COMPLETED"
)

// IsValid reports whether the status is a recognised schedule status.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusAlmostFull, StatusFull, StatusClosed, StatusDeparted, StatusCompleted:
		return true
	}
	return false
}

// Bookable reports whether new bookings may consume quota in this state.
func (s Status) Bookable() bool {
	switch s {
	case StatusOpen, StatusAlmostFull:
		return true
	}
	return false
}

// Schedule represents one bookable departure of a package.
type Schedule struct {
	ID             int64      `json:"id"`
	TenantID       int64      `json:"tenant_id"`
	PackageID      int64      `json:"package_id"`
	DepartureDate  time.Time  `json:"departure_date"`
	ReturnDate     time.Time  `json:"return_date"`
	Quota          int        `json:"quota"`
	AvailableQuota int        `json:"available_quota"`
	Status         Status     `json:"status"`
	PriceOverride  *float64   `json:"price_override,omitempty"`
	CreatedBy      int64      `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Availability is the cached seat view served to the booking form.
type Availability struct {
	ScheduleID     int64  `json:"schedule_id"`
	Quota          int    `json:"quota"`
	AvailableQuota int    `json:"available_quota"`
	Status         Status `json:"status"`
}

var (
	// ErrNotFound indicates the schedule is absent or soft-deleted.
	ErrNotFound = fmt.Errorf("schedule %w", httpx.ErrNotFound)
	// ErrInsufficientQuota rejects bookings exceeding remaining seats.
	ErrInsufficientQuota = fmt.Errorf("%w: insufficient quota", httpx.ErrBusinessRule)
	// ErrNotBookable rejects bookings against closed or departed schedules.
	ErrNotBookable = fmt.Errorf("%w: schedule is not open for booking", httpx.ErrBusinessRule)
	// ErrInvalidPax rejects non-positive pax counts at the ledger boundary.
	ErrInvalidPax = fmt.Errorf("%w: pax must be greater than zero", httpx.ErrValidation)
)
