package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

type CreateAgentRequest struct {
	Name           string   `json:"name" validate:"required,max=120"`
	Kind           Kind     `json:"kind" validate:"required"`
	CommissionRate *float64 `json:"commission_rate,omitempty" validate:"omitempty,gt=0,lte=100"`
}

type UpdateAgentRequest struct {
	Name           string   `json:"name" validate:"required,max=120"`
	CommissionRate *float64 `json:"commission_rate,omitempty" validate:"omitempty,gt=0,lte=100"`
	Active         bool     `json:"active"`
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Create(ctx context.Context, a Agent) (*Agent, error)
	Get(ctx context.Context, tenantID, id int64) (*Agent, error)
	List(ctx context.Context, tenantID int64) ([]Agent, error)
	Update(ctx context.Context, tenantID, id int64, name string, rate *float64, active bool) (*Agent, error)
}

// Service handles agent master data.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create registers a new agent or sales employee.
func (s *Service) Create(ctx context.Context, req CreateAgentRequest) (*Agent, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: agent name is required", httpx.ErrValidation)
	}
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown agent kind %q", httpx.ErrValidation, req.Kind)
	}
	identity := shared.IdentityFromContext(ctx)
	return s.repo.Create(ctx, Agent{
		TenantID:       identity.TenantID,
		Name:           strings.TrimSpace(req.Name),
		Kind:           req.Kind,
		CommissionRate: req.CommissionRate,
	})
}

// Get returns one agent.
func (s *Service) Get(ctx context.Context, id int64) (*Agent, error) {
	identity := shared.IdentityFromContext(ctx)
	return s.repo.Get(ctx, identity.TenantID, id)
}

// List returns the tenant's agents.
func (s *Service) List(ctx context.Context) ([]Agent, error) {
	identity := shared.IdentityFromContext(ctx)
	return s.repo.List(ctx, identity.TenantID)
}

// Update changes an agent's name, commission rate and active flag.
func (s *Service) Update(ctx context.Context, id int64, req UpdateAgentRequest) (*Agent, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: agent name is required", httpx.ErrValidation)
	}
	identity := shared.IdentityFromContext(ctx)
	return s.repo.Update(ctx, identity.TenantID, id, strings.TrimSpace(req.Name), req.CommissionRate, req.Active)
}
