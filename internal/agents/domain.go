// Package agents holds the master data for agents and sales employees that
// earn commissions on bookings.
package agents

import (
	"fmt"
	"time"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
)

// Kind distinguishes external agents from in-house sales employees.
type Kind string

const (
	KindAgent Kind = "AGENT"
	KindSales Kind = "SALES"
)

// IsValid reports whether the kind is recognised.
func (k Kind) IsValid() bool {
	return k == KindAgent || k == KindSales
}

// Agent is one commission-earning party.
type Agent struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenant_id"`
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	// CommissionRate in percent; nil means the tenant default applies.
	CommissionRate *float64   `json:"commission_rate,omitempty"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// ErrNotFound indicates the agent is absent or soft-deleted.
var ErrNotFound = fmt.Errorf("agent %w", httpx.ErrNotFound)
