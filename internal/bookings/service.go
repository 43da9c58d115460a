package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/samudra-erp/samudra-erp/internal/observability"
	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
	"github.com/samudra-erp/samudra-erp/internal/schedules"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, tenantID, id int64) (*Booking, error)
	List(ctx context.Context, tenantID int64, filter ListFilter) ([]Booking, int, error)
	HasSuccessPayment(ctx context.Context, bookingID int64) (bool, error)
}

// SchedulePort is the slice of the schedules module the coordinator needs.
type SchedulePort interface {
	Get(ctx context.Context, id int64) (*schedules.Schedule, error)
	InvalidateAvailability(ctx context.Context, tenantID, scheduleID int64)
}

// AuditPort abstracts the audit log sink.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// StatusChange describes a completed transition for downstream listeners.
type StatusChange struct {
	BookingID  int64
	Reference  string
	TenantID   int64
	CustomerID int64
	FromStatus Status
	ToStatus   Status
	TotalPrice float64
	Currency   string
}

// NotifierPort delivers best-effort status change notifications. Failures are
// logged and never roll back the transition.
type NotifierPort interface {
	BookingStatusChanged(ctx context.Context, change StatusChange) error
}

// Service is the booking status transition coordinator. It owns the only
// write paths that touch bookings together with schedule quota.
type Service struct {
	repo        RepositoryPort
	schedules   SchedulePort
	audit       AuditPort
	notifier    NotifierPort
	idempotency *shared.IdempotencyStore
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, schedulePort SchedulePort, audit AuditPort, notifier NotifierPort, idem *shared.IdempotencyStore, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		schedules:   schedulePort,
		audit:       audit,
		notifier:    notifier,
		idempotency: idem,
		metrics:     metrics,
		logger:      logger,
	}
}

// Create reserves seats and writes the booking in a single transaction. The
// quota check-and-decrement happens first; if it fails no booking row exists.
func (s *Service) Create(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	if !req.RoomType.IsValid() {
		return nil, fmt.Errorf("%w: unknown room type %q", httpx.ErrValidation, req.RoomType)
	}
	identity := shared.IdentityFromContext(ctx)

	schedule, err := s.schedules.Get(ctx, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.PackageID != req.PackageID {
		return nil, fmt.Errorf("%w: schedule does not belong to package", httpx.ErrValidation)
	}

	basePrice := req.BasePrice
	if schedule.PriceOverride != nil {
		basePrice = *schedule.PriceOverride
	}
	totalPrice := basePrice*float64(req.Pax) - req.Discount
	if totalPrice <= 0 {
		return nil, fmt.Errorf("%w: discount exceeds booking price", httpx.ErrValidation)
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Claim(ctx, identity.TenantID, "bookings", req.IdempotencyKey); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, fmt.Errorf("%w: booking already submitted", httpx.ErrConflict)
			}
			return nil, err
		}
	}

	booking := Booking{
		Reference:     newReference(),
		TenantID:      identity.TenantID,
		CustomerID:    req.CustomerID,
		PackageID:     req.PackageID,
		ScheduleID:    req.ScheduleID,
		AgentID:       req.AgentID,
		SalesID:       req.SalesID,
		RoomType:      req.RoomType,
		Pax:           req.Pax,
		BasePrice:     basePrice,
		Discount:      req.Discount,
		TotalPrice:    totalPrice,
		Currency:      strings.ToUpper(req.Currency),
		Status:        StatusPending,
		PaymentStatus: PaymentStatusUnpaid,
		CreatedBy:     identity.UserID,
	}

	var created *Booking
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DecrementQuota(ctx, req.ScheduleID, req.Pax); err != nil {
			return err
		}
		inserted, err := tx.Insert(ctx, booking)
		if err != nil {
			return err
		}
		created = inserted
		return nil
	})
	if err != nil {
		if req.IdempotencyKey != "" && s.idempotency != nil {
			// Free the key so the client may retry the failed submission.
			if relErr := s.idempotency.Release(ctx, identity.TenantID, "bookings", req.IdempotencyKey); relErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", relErr))
			}
		}
		return nil, err
	}

	s.schedules.InvalidateAvailability(ctx, identity.TenantID, req.ScheduleID)
	s.recordAudit(ctx, "booking.create", created.ID, nil, created)
	return created, nil
}

// Transition moves a booking between lifecycle states. The from-status is an
// optimistic guard: a mismatch with the persisted row signals a stale read.
func (s *Service) Transition(ctx context.Context, id int64, req TransitionRequest) (*Booking, error) {
	if !req.FromStatus.IsValid() || !req.ToStatus.IsValid() {
		return nil, fmt.Errorf("%w: unknown booking status", httpx.ErrValidation)
	}
	if !req.FromStatus.CanTransitionTo(req.ToStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, req.FromStatus, req.ToStatus)
	}

	identity := shared.IdentityFromContext(ctx)
	before, err := s.repo.Get(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	if before.Status != req.FromStatus {
		return nil, ErrStaleStatus
	}

	cancelling := req.ToStatus == StatusCancelled
	if cancelling && (req.CancelReason == nil || strings.TrimSpace(*req.CancelReason) == "") {
		return nil, ErrCancelReasonRequired
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		updated, err := tx.UpdateStatus(ctx, identity.TenantID, id, req.FromStatus, req.ToStatus, req.CancelReason)
		if err != nil {
			return err
		}
		if !updated {
			return ErrStaleStatus
		}
		if cancelling {
			// Quota return is idempotent per booking: the guard loses the race
			// when a delete already returned these seats.
			marked, err := tx.MarkQuotaReturned(ctx, id)
			if err != nil {
				return err
			}
			if marked {
				if err := tx.ReturnQuota(ctx, before.ScheduleID, before.Pax); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	after, err := s.repo.Get(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}

	if cancelling {
		s.schedules.InvalidateAvailability(ctx, identity.TenantID, before.ScheduleID)
		s.metrics.ObserveQuotaReturn()
	}
	s.metrics.ObserveTransition(string(req.ToStatus))
	s.recordAudit(ctx, "booking.transition", id, before, after)
	s.notify(ctx, StatusChange{
		BookingID:  after.ID,
		Reference:  after.Reference,
		TenantID:   after.TenantID,
		CustomerID: after.CustomerID,
		FromStatus: req.FromStatus,
		ToStatus:   req.ToStatus,
		TotalPrice: after.TotalPrice,
		Currency:   after.Currency,
	})
	return after, nil
}

// Delete soft-deletes a PENDING booking and returns its seats. This is a
// distinct code path from cancellation; the quota_returned guard keeps a
// cancel-then-delete sequence from double-returning.
func (s *Service) Delete(ctx context.Context, id int64) error {
	identity := shared.IdentityFromContext(ctx)
	before, err := s.repo.Get(ctx, identity.TenantID, id)
	if err != nil {
		return err
	}
	if before.Status != StatusPending {
		return ErrDeleteNotPending
	}
	hasPayment, err := s.repo.HasSuccessPayment(ctx, id)
	if err != nil {
		return err
	}
	if hasPayment {
		return ErrDeleteHasPayments
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		deleted, err := tx.SoftDelete(ctx, identity.TenantID, id)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrStaleStatus
		}
		marked, err := tx.MarkQuotaReturned(ctx, id)
		if err != nil {
			return err
		}
		if marked {
			return tx.ReturnQuota(ctx, before.ScheduleID, before.Pax)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.schedules.InvalidateAvailability(ctx, identity.TenantID, before.ScheduleID)
	s.metrics.ObserveQuotaReturn()
	s.recordAudit(ctx, "booking.delete", id, before, nil)
	return nil
}

// Get returns one booking.
func (s *Service) Get(ctx context.Context, id int64) (*Booking, error) {
	identity := shared.IdentityFromContext(ctx)
	return s.repo.Get(ctx, identity.TenantID, id)
}

// List returns tenant bookings matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Booking, int, error) {
	identity := shared.IdentityFromContext(ctx)
	return s.repo.List(ctx, identity.TenantID, filter)
}

func (s *Service) notify(ctx context.Context, change StatusChange) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BookingStatusChanged(ctx, change); err != nil && s.logger != nil {
		// Best effort: the transition already committed and stays committed.
		s.logger.Warn("booking notification failed",
			slog.Int64("booking_id", change.BookingID),
			slog.String("to_status", string(change.ToStatus)),
			slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, oldValue, newValue any) {
	if s.audit == nil {
		return
	}
	identity := shared.IdentityFromContext(ctx)
	if err := s.audit.Record(ctx, shared.AuditLog{
		TenantID: identity.TenantID,
		ActorID:  identity.UserID,
		Action:   action,
		Entity:   "booking",
		EntityID: strconv.FormatInt(id, 10),
		OldValue: oldValue,
		NewValue: newValue,
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func newReference() string {
	return "BK-" + strings.ToUpper(uuid.NewString()[:8])
}
