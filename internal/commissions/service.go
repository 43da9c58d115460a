package commissions

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/samudra-erp/samudra-erp/internal/agents"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	GetBookingAssignment(ctx context.Context, tenantID, bookingID int64) (BookingAssignment, error)
	Insert(ctx context.Context, c Commission) (*Commission, error)
	Get(ctx context.Context, tenantID, id int64) (*Commission, error)
	ListByAgent(ctx context.Context, tenantID, agentID int64) ([]Commission, error)
	GetPayout(ctx context.Context, tenantID, id int64) (*Payout, error)
	PayoutCommissions(ctx context.Context, tenantID, payoutID int64) ([]Commission, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AgentDirectory resolves commission-earning parties and their rates.
type AgentDirectory interface {
	Get(ctx context.Context, tenantID, id int64) (*agents.Agent, error)
}

// AuditPort abstracts the audit log sink.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service derives commissions and settles payout batches.
type Service struct {
	repo        RepositoryPort
	directory   AgentDirectory
	audit       AuditPort
	defaultRate float64
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service. A defaultRate of zero falls back to the built-in
// default.
func NewService(repo RepositoryPort, directory AgentDirectory, audit AuditPort, defaultRate float64, logger *slog.Logger) *Service {
	if defaultRate <= 0 {
		defaultRate = DefaultRate
	}
	return &Service{
		repo:        repo,
		directory:   directory,
		audit:       audit,
		defaultRate: defaultRate,
		logger:      logger,
		now:         time.Now,
	}
}

// Calculate freezes a commission for the booking's assigned agent or sales
// employee. The agent assignment wins when both are set.
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) (*Commission, error) {
	identity := shared.IdentityFromContext(ctx)
	assignment, err := s.repo.GetBookingAssignment(ctx, identity.TenantID, req.BookingID)
	if err != nil {
		return nil, err
	}

	var beneficiaryID *int64
	switch {
	case assignment.AgentID != nil:
		beneficiaryID = assignment.AgentID
	case assignment.SalesID != nil:
		beneficiaryID = assignment.SalesID
	default:
		return nil, ErrNoAssignment
	}

	rate := s.defaultRate
	party, err := s.directory.Get(ctx, identity.TenantID, *beneficiaryID)
	if err != nil {
		return nil, err
	}
	if party.CommissionRate != nil {
		rate = *party.CommissionRate
	}

	created, err := s.repo.Insert(ctx, Commission{
		TenantID:  identity.TenantID,
		BookingID: assignment.BookingID,
		AgentID:   assignment.AgentID,
		SalesID:   assignment.SalesID,
		Amount:    assignment.TotalPrice * rate / 100,
		Rate:      rate,
		Status:    StatusPending,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "commission.calculate", created.ID, nil, created)
	return created, nil
}

// Get returns one commission.
func (s *Service) Get(ctx context.Context, id int64) (*Commission, error) {
	identity := shared.IdentityFromContext(ctx)
	return s.repo.Get(ctx, identity.TenantID, id)
}

// ListByAgent returns the agent's commissions.
func (s *Service) ListByAgent(ctx context.Context, agentID int64) ([]Commission, error) {
	identity := shared.IdentityFromContext(ctx)
	return s.repo.ListByAgent(ctx, identity.TenantID, agentID)
}

// CreatePayout batches the agent's eligible commissions into one settlement.
// Requested commissions that are not PENDING, already linked, deleted or owned
// by another agent are silently skipped; an empty eligible set is an error.
// Totals freeze at creation.
func (s *Service) CreatePayout(ctx context.Context, req CreatePayoutRequest) (*Payout, error) {
	identity := shared.IdentityFromContext(ctx)
	if _, err := s.directory.Get(ctx, identity.TenantID, req.AgentID); err != nil {
		return nil, err
	}

	var payout *Payout
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		eligible, err := tx.SelectEligible(ctx, identity.TenantID, req.AgentID, req.CommissionIDs)
		if err != nil {
			return err
		}
		if len(eligible) == 0 {
			return ErrNoEligibleCommissions
		}

		var total float64
		ids := make([]int64, 0, len(eligible))
		for _, c := range eligible {
			total += c.Amount
			ids = append(ids, c.ID)
		}

		payout, err = tx.InsertPayout(ctx, Payout{
			TenantID:        identity.TenantID,
			AgentID:         req.AgentID,
			TotalAmount:     total,
			CommissionCount: len(eligible),
			Status:          PayoutPending,
		})
		if err != nil {
			return err
		}
		return tx.LinkToPayout(ctx, payout.ID, ids)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "commission.payout_create", payout.ID, nil, payout)
	return payout, nil
}

// GetPayout returns the payout with its linked commissions.
func (s *Service) GetPayout(ctx context.Context, id int64) (*PayoutDetail, error) {
	identity := shared.IdentityFromContext(ctx)
	payout, err := s.repo.GetPayout(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	linked, err := s.repo.PayoutCommissions(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	return &PayoutDetail{Payout: *payout, Commissions: linked}, nil
}

// SetPayoutStatus settles (PAID) or cancels a payout batch. Settling cascades
// PAID and the payment timestamp to every linked commission; cancelling
// releases the commissions back to PENDING for a future batch.
func (s *Service) SetPayoutStatus(ctx context.Context, id int64, req SetPayoutStatusRequest) (*Payout, error) {
	identity := shared.IdentityFromContext(ctx)
	var before *Payout
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payout, err := tx.GetPayout(ctx, identity.TenantID, id)
		if err != nil {
			return err
		}
		before = payout

		switch req.Status {
		case PayoutPaid:
			if payout.Status != PayoutPending {
				return ErrPayoutNotPending
			}
			at := s.now().UTC()
			if err := tx.SetPayoutPaid(ctx, id, identity.UserID, at); err != nil {
				return err
			}
			return tx.CascadePaid(ctx, id, at)
		case PayoutCancelled:
			if payout.Status == PayoutPaid {
				return ErrPayoutAlreadyPaid
			}
			if payout.Status != PayoutPending {
				return ErrPayoutNotPending
			}
			if err := tx.SetPayoutCancelled(ctx, id); err != nil {
				return err
			}
			return tx.CascadeUnlink(ctx, id)
		default:
			return ErrPayoutNotPending
		}
	})
	if err != nil {
		return nil, err
	}

	after, err := s.repo.GetPayout(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "commission.payout_status", id, before, after)
	return after, nil
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
		Entity:   "commission",
		EntityID: strconv.FormatInt(id, 10),
		OldValue: oldValue,
		NewValue: newValue,
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
