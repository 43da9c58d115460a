package payments

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
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, tenantID, id int64) (*Payment, error)
	ListByBooking(ctx context.Context, tenantID, bookingID int64) ([]Payment, error)
}

// AuditPort abstracts the audit log sink.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the payment ledger. Every mutation that changes a payment's
// SUCCESS membership recomputes the booking's derived payment status inside
// the same transaction, so the cached field can never drift.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Record creates a payment against a booking. CASH settles immediately;
// every other method starts PENDING and needs verification.
func (s *Service) Record(ctx context.Context, req RecordPaymentRequest) (*Payment, error) {
	if !req.Method.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", httpx.ErrValidation, req.Method)
	}
	identity := shared.IdentityFromContext(ctx)

	status := StatusPending
	var verifiedBy *int64
	if req.Method == MethodCash {
		status = StatusSuccess
		verifiedBy = &identity.UserID
	}

	var created *Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		booking, err := tx.LockBooking(ctx, identity.TenantID, req.BookingID)
		if err != nil {
			return err
		}
		paid, err := tx.SumByStatus(ctx, req.BookingID, StatusSuccess)
		if err != nil {
			return err
		}
		if req.Amount > booking.TotalPrice-paid {
			return ErrAmountExceedsBalance
		}

		payment, err := tx.Insert(ctx, Payment{
			BookingID:  req.BookingID,
			Amount:     req.Amount,
			Method:     req.Method,
			Status:     status,
			Note:       req.Note,
			VerifiedBy: verifiedBy,
			CreatedBy:  identity.UserID,
		})
		if err != nil {
			return err
		}
		created = payment

		return s.rederive(ctx, tx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "payment.record", created.ID, nil, created)
	return created, nil
}

// Verify settles a PENDING or PROCESSING payment as SUCCESS. The remaining
// balance is re-checked here because this is the moment the amount enters
// the SUCCESS aggregate.
func (s *Service) Verify(ctx context.Context, id int64) (*Payment, error) {
	identity := shared.IdentityFromContext(ctx)

	var updated *Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPayment(ctx, identity.TenantID, id)
		if err != nil {
			return err
		}
		if payment.Status != StatusPending && payment.Status != StatusProcessing {
			return ErrNotVerifiable
		}
		booking, err := tx.LockBooking(ctx, identity.TenantID, payment.BookingID)
		if err != nil {
			return err
		}
		paid, err := tx.SumByStatus(ctx, payment.BookingID, StatusSuccess)
		if err != nil {
			return err
		}
		if payment.Amount > booking.TotalPrice-paid {
			return ErrAmountExceedsBalance
		}
		if err := tx.UpdateStatus(ctx, id, StatusSuccess, &identity.UserID); err != nil {
			return err
		}
		if err := s.rederive(ctx, tx, booking); err != nil {
			return err
		}
		refreshed, err := tx.GetPayment(ctx, identity.TenantID, id)
		if err != nil {
			return err
		}
		updated = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "payment.verify", id, nil, updated)
	return updated, nil
}

// UpdateStatus moves a payment through its status machine (e.g. PROCESSING,
// FAILED, EXPIRED, REFUNDED) and rederives the booking's payment status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req UpdateStatusRequest) (*Payment, error) {
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", httpx.ErrValidation, req.Status)
	}
	if req.Status == StatusSuccess {
		// SUCCESS is only reachable through Verify, which enforces the
		// balance check.
		return s.Verify(ctx, id)
	}
	identity := shared.IdentityFromContext(ctx)

	var updated *Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPayment(ctx, identity.TenantID, id)
		if err != nil {
			return err
		}
		if !payment.Status.CanTransitionTo(req.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, payment.Status, req.Status)
		}
		booking, err := tx.LockBooking(ctx, identity.TenantID, payment.BookingID)
		if err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, id, req.Status, nil); err != nil {
			return err
		}
		if err := s.rederive(ctx, tx, booking); err != nil {
			return err
		}
		refreshed, err := tx.GetPayment(ctx, identity.TenantID, id)
		if err != nil {
			return err
		}
		updated = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "payment.update_status", id, nil, updated)
	return updated, nil
}

// Delete soft-deletes a payment. Settled payments are immutable history and
// stay; PENDING, FAILED and EXPIRED attempts may be removed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	identity := shared.IdentityFromContext(ctx)

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPayment(ctx, identity.TenantID, id)
		if err != nil {
			return err
		}
		if !payment.Status.Removable() {
			return ErrDeleteSuccess
		}
		booking, err := tx.LockBooking(ctx, identity.TenantID, payment.BookingID)
		if err != nil {
			return err
		}
		if err := tx.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.rederive(ctx, tx, booking)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, "payment.delete", id, nil, nil)
	return nil
}

// Get returns one payment.
func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	identity := shared.IdentityFromContext(ctx)
	return s.repo.Get(ctx, identity.TenantID, id)
}

// ListByBooking returns all payments for one booking.
func (s *Service) ListByBooking(ctx context.Context, bookingID int64) ([]Payment, error) {
	identity := shared.IdentityFromContext(ctx)
	return s.repo.ListByBooking(ctx, identity.TenantID, bookingID)
}

// rederive recomputes the derived payment status from scratch and writes it
// back onto the booking row, all inside the caller's transaction.
func (s *Service) rederive(ctx context.Context, tx TxRepository, booking BookingSnapshot) error {
	paid, err := tx.SumByStatus(ctx, booking.ID, StatusSuccess)
	if err != nil {
		return err
	}
	refunded, err := tx.SumByStatus(ctx, booking.ID, StatusRefunded)
	if err != nil {
		return err
	}
	return tx.SetBookingPaymentStatus(ctx, booking.ID, Derive(booking.TotalPrice, paid, refunded))
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
		Entity:   "payment",
		EntityID: strconv.FormatInt(id, 10),
		OldValue: oldValue,
		NewValue: newValue,
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
