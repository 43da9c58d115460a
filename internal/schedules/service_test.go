package schedules

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

type fakeRepo struct {
	nextID    int64
	schedules map[int64]*Schedule
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{schedules: make(map[int64]*Schedule)}
}

func (r *fakeRepo) Create(ctx context.Context, s Schedule) (*Schedule, error) {
	r.nextID++
	s.ID = r.nextID
	s.AvailableQuota = s.Quota
	stored := s
	r.schedules[s.ID] = &stored
	copied := s
	return &copied, nil
}

func (r *fakeRepo) Get(ctx context.Context, tenantID, id int64) (*Schedule, error) {
	s, ok := r.schedules[id]
	if !ok || s.TenantID != tenantID || s.DeletedAt != nil {
		return nil, ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeRepo) List(ctx context.Context, tenantID int64, filter ListFilter) ([]Schedule, int, error) {
	var result []Schedule
	for _, s := range r.schedules {
		if s.TenantID != tenantID || s.DeletedAt != nil {
			continue
		}
		if filter.PackageID != 0 && s.PackageID != filter.PackageID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		result = append(result, *s)
	}
	return result, len(result), nil
}

func (r *fakeRepo) AdjustQuota(ctx context.Context, id int64, delta int) error {
	s, ok := r.schedules[id]
	if !ok {
		return ErrNotFound
	}
	s.Quota += delta
	s.AvailableQuota += delta
	if s.AvailableQuota < 0 {
		s.AvailableQuota = 0
	}
	return nil
}

func (r *fakeRepo) IncrementQuota(ctx context.Context, id int64, pax int) error {
	s, ok := r.schedules[id]
	if !ok {
		return ErrNotFound
	}
	s.AvailableQuota += pax
	if s.AvailableQuota > s.Quota {
		s.AvailableQuota = s.Quota
	}
	return nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, tenantID, id int64, status Status) error {
	s, ok := r.schedules[id]
	if !ok || s.TenantID != tenantID {
		return ErrNotFound
	}
	s.Status = status
	return nil
}

func (r *fakeRepo) GetAvailability(ctx context.Context, tenantID, id int64) (Availability, error) {
	s, ok := r.schedules[id]
	if !ok || s.TenantID != tenantID || s.DeletedAt != nil {
		return Availability{}, ErrNotFound
	}
	return Availability{ScheduleID: s.ID, Quota: s.Quota, AvailableQuota: s.AvailableQuota, Status: s.Status}, nil
}

func testContext() context.Context {
	return shared.ContextWithIdentity(context.Background(), shared.Identity{UserID: 2, TenantID: 1})
}

func testService(repo *fakeRepo) *Service {
	return NewService(repo, nil, nil, slog.Default())
}

func createRequest() CreateScheduleRequest {
	departure := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	return CreateScheduleRequest{
		PackageID:     10,
		DepartureDate: departure,
		ReturnDate:    departure.AddDate(0, 0, 12),
		Quota:         45,
	}
}

func TestCreateScheduleOpensWithFullQuota(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo)

	created, err := svc.Create(testContext(), createRequest())
	require.NoError(t, err)
	require.Equal(t, StatusOpen, created.Status)
	require.Equal(t, 45, created.Quota)
	require.Equal(t, 45, created.AvailableQuota)
	require.Equal(t, int64(1), created.TenantID)
}

func TestAdjustQuotaShiftsAvailable(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo)
	created, err := svc.Create(testContext(), createRequest())
	require.NoError(t, err)

	after, err := svc.AdjustQuota(testContext(), created.ID, AdjustQuotaRequest{Delta: 5})
	require.NoError(t, err)
	require.Equal(t, 50, after.Quota)
	require.Equal(t, 50, after.AvailableQuota)

	after, err = svc.AdjustQuota(testContext(), created.ID, AdjustQuotaRequest{Delta: -20})
	require.NoError(t, err)
	require.Equal(t, 30, after.Quota)
	require.Equal(t, 30, after.AvailableQuota)
}

func TestAdjustQuotaFloorsAvailableAtZero(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo)
	created, err := svc.Create(testContext(), createRequest())
	require.NoError(t, err)

	// Simulate bookings consuming most seats.
	repo.schedules[created.ID].AvailableQuota = 3

	after, err := svc.AdjustQuota(testContext(), created.ID, AdjustQuotaRequest{Delta: -10})
	require.NoError(t, err)
	require.Equal(t, 35, after.Quota)
	require.Equal(t, 0, after.AvailableQuota)
}

func TestAdjustQuotaRejectsNegativeTotal(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo)
	created, err := svc.Create(testContext(), createRequest())
	require.NoError(t, err)

	_, err = svc.AdjustQuota(testContext(), created.ID, AdjustQuotaRequest{Delta: -46})
	require.Error(t, err)
}

func TestUpdateStatusValidatesValue(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo)
	created, err := svc.Create(testContext(), createRequest())
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(testContext(), created.ID, UpdateStatusRequest{Status: StatusClosed})
	require.NoError(t, err)
	require.Equal(t, StatusClosed, updated.Status)

	_, err = svc.UpdateStatus(testContext(), created.ID, UpdateStatusRequest{Status: "SOLD_OUT"})
	require.Error(t, err)
}

func TestAvailabilityWithoutCacheFallsThrough(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo)
	created, err := svc.Create(testContext(), createRequest())
	require.NoError(t, err)

	availability, err := svc.Availability(testContext(), created.ID)
	require.NoError(t, err)
	require.Equal(t, 45, availability.AvailableQuota)
}

func TestScheduleStatusBookable(t *testing.T) {
	require.True(t, StatusOpen.Bookable())
	require.True(t, StatusAlmostFull.Bookable())
	require.False(t, StatusFull.Bookable())
	require.False(t, StatusClosed.Bookable())
	require.False(t, StatusDeparted.Bookable())
	require.False(t, StatusCompleted.Bookable())
}
