package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

type fakeRepo struct {
	nextID int64
	agents map[int64]*Agent
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{agents: make(map[int64]*Agent)}
}

func (r *fakeRepo) Create(ctx context.Context, a Agent) (*Agent, error) {
	r.nextID++
	a.ID = r.nextID
	a.Active = true
	stored := a
	r.agents[a.ID] = &stored
	copied := a
	return &copied, nil
}

func (r *fakeRepo) Get(ctx context.Context, tenantID, id int64) (*Agent, error) {
	a, ok := r.agents[id]
	if !ok || a.TenantID != tenantID || a.DeletedAt != nil {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeRepo) List(ctx context.Context, tenantID int64) ([]Agent, error) {
	var result []Agent
	for _, a := range r.agents {
		if a.TenantID == tenantID && a.DeletedAt == nil {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *fakeRepo) Update(ctx context.Context, tenantID, id int64, name string, rate *float64, active bool) (*Agent, error) {
	a, ok := r.agents[id]
	if !ok || a.TenantID != tenantID || a.DeletedAt != nil {
		return nil, ErrNotFound
	}
	a.Name = name
	a.CommissionRate = rate
	a.Active = active
	copied := *a
	return &copied, nil
}

func testContext() context.Context {
	return shared.ContextWithIdentity(context.Background(), shared.Identity{UserID: 2, TenantID: 1})
}

func TestCreateAgent(t *testing.T) {
	svc := NewService(newFakeRepo())

	rate := 7.5
	created, err := svc.Create(testContext(), CreateAgentRequest{Name: "  Cahaya Travel  ", Kind: KindAgent, CommissionRate: &rate})
	require.NoError(t, err)
	require.Equal(t, "Cahaya Travel", created.Name)
	require.Equal(t, KindAgent, created.Kind)
	require.Equal(t, int64(1), created.TenantID)
	require.True(t, created.Active)
}

func TestCreateAgentValidation(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(testContext(), CreateAgentRequest{Name: "   ", Kind: KindAgent})
	require.Error(t, err)

	_, err = svc.Create(testContext(), CreateAgentRequest{Name: "Budi", Kind: "FREELANCER"})
	require.Error(t, err)
}

func TestUpdateAgentClearsRate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	rate := 10.0
	created, err := svc.Create(testContext(), CreateAgentRequest{Name: "Budi", Kind: KindSales, CommissionRate: &rate})
	require.NoError(t, err)

	// Omitting the rate reverts the agent to the tenant default.
	updated, err := svc.Update(testContext(), created.ID, UpdateAgentRequest{Name: "Budi Santoso", Active: true})
	require.NoError(t, err)
	require.Equal(t, "Budi Santoso", updated.Name)
	require.Nil(t, updated.CommissionRate)
}

func TestGetAgentScopedToTenant(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(testContext(), CreateAgentRequest{Name: "Budi", Kind: KindAgent})
	require.NoError(t, err)

	otherTenant := shared.ContextWithIdentity(context.Background(), shared.Identity{UserID: 2, TenantID: 99})
	_, err = svc.Get(otherTenant, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
