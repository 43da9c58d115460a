package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/schedules"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

type fakeRepo struct {
	nextID          int64
	bookings        map[int64]*Booking
	available       map[int64]int
	successPayments map[int64]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		bookings:        make(map[int64]*Booking),
		available:       make(map[int64]int),
		successPayments: make(map[int64]bool),
	}
}

func (r *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &fakeTx{repo: r})
}

func (r *fakeRepo) Get(ctx context.Context, tenantID, id int64) (*Booking, error) {
	b, ok := r.bookings[id]
	if !ok || b.TenantID != tenantID || b.DeletedAt != nil {
		return nil, ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeRepo) List(ctx context.Context, tenantID int64, filter ListFilter) ([]Booking, int, error) {
	var result []Booking
	for _, b := range r.bookings {
		if b.TenantID == tenantID && b.DeletedAt == nil {
			result = append(result, *b)
		}
	}
	return result, len(result), nil
}

func (r *fakeRepo) HasSuccessPayment(ctx context.Context, bookingID int64) (bool, error) {
	return r.successPayments[bookingID], nil
}

type fakeTx struct {
	repo *fakeRepo
}

func (t *fakeTx) Insert(ctx context.Context, b Booking) (*Booking, error) {
	t.repo.nextID++
	b.ID = t.repo.nextID
	stored := b
	t.repo.bookings[b.ID] = &stored
	copied := b
	return &copied, nil
}

func (t *fakeTx) UpdateStatus(ctx context.Context, tenantID, id int64, from, to Status, cancelReason *string) (bool, error) {
	b, ok := t.repo.bookings[id]
	if !ok || b.TenantID != tenantID || b.Status != from {
		return false, nil
	}
	b.Status = to
	if to == StatusCancelled {
		b.CancelReason = cancelReason
	}
	return true, nil
}

func (t *fakeTx) SoftDelete(ctx context.Context, tenantID, id int64) (bool, error) {
	b, ok := t.repo.bookings[id]
	if !ok || b.TenantID != tenantID || b.Status != StatusPending {
		return false, nil
	}
	deleted := b.CreatedAt
	b.DeletedAt = &deleted
	return true, nil
}

func (t *fakeTx) MarkQuotaReturned(ctx context.Context, id int64) (bool, error) {
	b, ok := t.repo.bookings[id]
	if !ok || b.QuotaReturned {
		return false, nil
	}
	b.QuotaReturned = true
	return true, nil
}

func (t *fakeTx) DecrementQuota(ctx context.Context, scheduleID int64, pax int) error {
	if t.repo.available[scheduleID] < pax {
		return schedules.ErrInsufficientQuota
	}
	t.repo.available[scheduleID] -= pax
	return nil
}

func (t *fakeTx) ReturnQuota(ctx context.Context, scheduleID int64, pax int) error {
	t.repo.available[scheduleID] += pax
	return nil
}

type fakeSchedules struct {
	schedules     map[int64]*schedules.Schedule
	invalidations int
}

func (f *fakeSchedules) Get(ctx context.Context, id int64) (*schedules.Schedule, error) {
	s, ok := f.schedules[id]
	if !ok {
		return nil, schedules.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSchedules) InvalidateAvailability(ctx context.Context, tenantID, scheduleID int64) {
	f.invalidations++
}

type fakeNotifier struct {
	changes []StatusChange
	err     error
}

func (f *fakeNotifier) BookingStatusChanged(ctx context.Context, change StatusChange) error {
	if f.err != nil {
		return f.err
	}
	f.changes = append(f.changes, change)
	return nil
}

type fakeAudit struct {
	actions []string
}

func (f *fakeAudit) Record(ctx context.Context, log shared.AuditLog) error {
	f.actions = append(f.actions, log.Action)
	return nil
}

func testContext() context.Context {
	return shared.ContextWithIdentity(context.Background(), shared.Identity{UserID: 7, TenantID: 1})
}

func testService(repo *fakeRepo, sched *fakeSchedules, notifier *fakeNotifier) *Service {
	return NewService(repo, sched, &fakeAudit{}, notifier, nil, nil, slog.Default())
}

func openSchedule(id int64, quota int) *schedules.Schedule {
	return &schedules.Schedule{
		ID:             id,
		TenantID:       1,
		PackageID:      10,
		Quota:          quota,
		AvailableQuota: quota,
		Status:         schedules.StatusOpen,
	}
}

func createRequest() CreateBookingRequest {
	return CreateBookingRequest{
		CustomerID: 100,
		PackageID:  10,
		ScheduleID: 1,
		RoomType:   RoomQuad,
		Pax:        4,
		BasePrice:  2500,
		Discount:   500,
		Currency:   "idr",
	}
}

func TestCreateBookingReservesQuota(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	svc := testService(repo, sched, &fakeNotifier{})

	created, err := svc.Create(testContext(), createRequest())
	require.NoError(t, err)
	require.Equal(t, StatusPending, created.Status)
	require.Equal(t, PaymentStatusUnpaid, created.PaymentStatus)
	require.Equal(t, float64(2500*4-500), created.TotalPrice)
	require.Equal(t, "IDR", created.Currency)
	require.NotEmpty(t, created.Reference)
	require.Equal(t, 16, repo.available[1])
	require.Equal(t, 1, sched.invalidations)
}

func TestCreateBookingUsesSchedulePriceOverride(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	override := 3000.0
	s := openSchedule(1, 20)
	s.PriceOverride = &override
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: s}}
	svc := testService(repo, sched, &fakeNotifier{})

	created, err := svc.Create(testContext(), createRequest())
	require.NoError(t, err)
	require.Equal(t, override, created.BasePrice)
	require.Equal(t, override*4-500, created.TotalPrice)
}

func TestCreateBookingInsufficientQuota(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 3
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 3)}}
	svc := testService(repo, sched, &fakeNotifier{})

	_, err := svc.Create(testContext(), createRequest())
	require.ErrorIs(t, err, schedules.ErrInsufficientQuota)
	require.Empty(t, repo.bookings)
	require.Equal(t, 3, repo.available[1])
}

func TestCreateBookingRejectsDiscountAbovePrice(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	svc := testService(repo, sched, &fakeNotifier{})

	req := createRequest()
	req.Discount = 10001
	_, err := svc.Create(testContext(), req)
	require.Error(t, err)
	require.Empty(t, repo.bookings)
}

func TestCreateBookingPackageMismatch(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	svc := testService(repo, sched, &fakeNotifier{})

	req := createRequest()
	req.PackageID = 99
	_, err := svc.Create(testContext(), req)
	require.Error(t, err)
}

func seedBooking(t *testing.T, repo *fakeRepo, sched *fakeSchedules, svc *Service) *Booking {
	t.Helper()
	created, err := svc.Create(testContext(), createRequest())
	require.NoError(t, err)
	return created
}

func TestTransitionHappyPath(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	notifier := &fakeNotifier{}
	svc := testService(repo, sched, notifier)
	b := seedBooking(t, repo, sched, svc)

	updated, err := svc.Transition(testContext(), b.ID, TransitionRequest{FromStatus: StatusPending, ToStatus: StatusConfirmed})
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, updated.Status)
	require.Len(t, notifier.changes, 1)
	require.Equal(t, StatusConfirmed, notifier.changes[0].ToStatus)
}

func TestTransitionRejectsInvalidMove(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	svc := testService(repo, sched, &fakeNotifier{})
	b := seedBooking(t, repo, sched, svc)

	_, err := svc.Transition(testContext(), b.ID, TransitionRequest{FromStatus: StatusPending, ToStatus: StatusDeparted})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionStaleStatusConflict(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	svc := testService(repo, sched, &fakeNotifier{})
	b := seedBooking(t, repo, sched, svc)

	_, err := svc.Transition(testContext(), b.ID, TransitionRequest{FromStatus: StatusConfirmed, ToStatus: StatusProcessing})
	require.ErrorIs(t, err, ErrStaleStatus)
}

func TestCancelReturnsQuotaAndRequiresReason(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	svc := testService(repo, sched, &fakeNotifier{})
	b := seedBooking(t, repo, sched, svc)
	require.Equal(t, 16, repo.available[1])

	_, err := svc.Transition(testContext(), b.ID, TransitionRequest{FromStatus: StatusPending, ToStatus: StatusCancelled})
	require.ErrorIs(t, err, ErrCancelReasonRequired)

	reason := "customer request"
	updated, err := svc.Transition(testContext(), b.ID, TransitionRequest{FromStatus: StatusPending, ToStatus: StatusCancelled, CancelReason: &reason})
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, updated.Status)
	require.Equal(t, 20, repo.available[1])
}

func TestCancelThenDeleteReturnsQuotaOnce(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	svc := testService(repo, sched, &fakeNotifier{})
	b := seedBooking(t, repo, sched, svc)

	reason := "schedule clash"
	_, err := svc.Transition(testContext(), b.ID, TransitionRequest{FromStatus: StatusPending, ToStatus: StatusCancelled, CancelReason: &reason})
	require.NoError(t, err)
	require.Equal(t, 20, repo.available[1])

	// Cancelled bookings cannot be deleted, but even if the guard were
	// bypassed the quota_returned flag blocks a second return.
	err = svc.Delete(testContext(), b.ID)
	require.ErrorIs(t, err, ErrDeleteNotPending)
	require.Equal(t, 20, repo.available[1])
}

func TestDeletePendingBookingReturnsQuota(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	svc := testService(repo, sched, &fakeNotifier{})
	b := seedBooking(t, repo, sched, svc)
	require.Equal(t, 16, repo.available[1])

	require.NoError(t, svc.Delete(testContext(), b.ID))
	require.Equal(t, 20, repo.available[1])

	_, err := svc.Get(testContext(), b.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRejectsBookingWithSuccessfulPayment(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	svc := testService(repo, sched, &fakeNotifier{})
	b := seedBooking(t, repo, sched, svc)
	repo.successPayments[b.ID] = true

	err := svc.Delete(testContext(), b.ID)
	require.ErrorIs(t, err, ErrDeleteHasPayments)
	require.Equal(t, 16, repo.available[1])
}

func TestNotifierFailureDoesNotRollBackTransition(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	notifier := &fakeNotifier{err: errors.New("queue down")}
	svc := testService(repo, sched, notifier)
	b := seedBooking(t, repo, sched, svc)

	updated, err := svc.Transition(testContext(), b.ID, TransitionRequest{FromStatus: StatusPending, ToStatus: StatusConfirmed})
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, updated.Status)

	persisted, err := svc.Get(testContext(), b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, persisted.Status)
}

func TestQuotaConservation(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	svc := testService(repo, sched, &fakeNotifier{})

	var ids []int64
	for i := 0; i < 4; i++ {
		b, err := svc.Create(testContext(), createRequest())
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}
	require.Equal(t, 4, repo.available[1])

	reason := "conservation check"
	for _, id := range ids[:2] {
		_, err := svc.Transition(testContext(), id, TransitionRequest{FromStatus: StatusPending, ToStatus: StatusCancelled, CancelReason: &reason})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Delete(testContext(), ids[2]))

	// quota == available + seats held by live non-cancelled bookings
	held := 0
	for _, b := range repo.bookings {
		if !b.QuotaReturned {
			held += b.Pax
		}
	}
	require.Equal(t, 20, repo.available[1]+held)
}

func TestCreateUnknownRoomType(t *testing.T) {
	repo := newFakeRepo()
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{}}
	svc := testService(repo, sched, &fakeNotifier{})

	req := createRequest()
	req.RoomType = "SUITE"
	_, err := svc.Create(testContext(), req)
	require.Error(t, err)
	require.Contains(t, fmt.Sprint(err), "room type")
}
