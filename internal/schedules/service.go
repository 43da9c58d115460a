package schedules

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Create(ctx context.Context, s Schedule) (*Schedule, error)
	Get(ctx context.Context, tenantID, id int64) (*Schedule, error)
	List(ctx context.Context, tenantID int64, filter ListFilter) ([]Schedule, int, error)
	AdjustQuota(ctx context.Context, id int64, delta int) error
	IncrementQuota(ctx context.Context, id int64, pax int) error
	UpdateStatus(ctx context.Context, tenantID, id int64, status Status) error
	GetAvailability(ctx context.Context, tenantID, id int64) (Availability, error)
}

// AuditPort abstracts the audit log sink.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates schedule operations.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	cache  *AvailabilityCache
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, cache *AvailabilityCache, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, logger: logger}
}

// Create schedules a new departure for a package.
func (s *Service) Create(ctx context.Context, req CreateScheduleRequest) (*Schedule, error) {
	identity := shared.IdentityFromContext(ctx)
	created, err := s.repo.Create(ctx, Schedule{
		TenantID:      identity.TenantID,
		PackageID:     req.PackageID,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Quota:         req.Quota,
		Status:        StatusOpen,
		PriceOverride: req.PriceOverride,
		CreatedBy:     identity.UserID,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "schedule.create", created.ID, nil, created)
	return created, nil
}

// Get returns one schedule.
func (s *Service) Get(ctx context.Context, id int64) (*Schedule, error) {
	identity := shared.IdentityFromContext(ctx)
	return s.repo.Get(ctx, identity.TenantID, id)
}

// List returns tenant schedules matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Schedule, int, error) {
	identity := shared.IdentityFromContext(ctx)
	return s.repo.List(ctx, identity.TenantID, filter)
}

// Availability serves the cached seat counters for a schedule.
func (s *Service) Availability(ctx context.Context, id int64) (Availability, error) {
	identity := shared.IdentityFromContext(ctx)
	return s.cache.Get(ctx, identity.TenantID, id, func(ctx context.Context) (Availability, error) {
		return s.repo.GetAvailability(ctx, identity.TenantID, id)
	})
}

// AdjustQuota applies an operator quota change. Available quota shifts by the
// same delta, floored at zero.
func (s *Service) AdjustQuota(ctx context.Context, id int64, req AdjustQuotaRequest) (*Schedule, error) {
	identity := shared.IdentityFromContext(ctx)
	before, err := s.repo.Get(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	if before.Quota+req.Delta < 0 {
		return nil, fmt.Errorf("%w: quota cannot drop below zero", httpx.ErrBusinessRule)
	}
	if err := s.repo.AdjustQuota(ctx, id, req.Delta); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, identity.TenantID, id)
	after, err := s.repo.Get(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "schedule.adjust_quota", id, before, after)
	return after, nil
}

// UpdateStatus sets the operator-chosen schedule status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req UpdateStatusRequest) (*Schedule, error) {
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown schedule status %q", httpx.ErrValidation, req.Status)
	}
	identity := shared.IdentityFromContext(ctx)
	before, err := s.repo.Get(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, identity.TenantID, id, req.Status); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, identity.TenantID, id)
	after, err := s.repo.Get(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "schedule.update_status", id, before, after)
	return after, nil
}

// InvalidateAvailability drops the cached seat view after bookings mutate quota.
func (s *Service) InvalidateAvailability(ctx context.Context, tenantID, scheduleID int64) {
	s.cache.Invalidate(ctx, tenantID, scheduleID)
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
		Entity:   "schedule",
		EntityID: strconv.FormatInt(id, 10),
		OldValue: oldValue,
		NewValue: newValue,
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
