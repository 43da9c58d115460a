package commissions

// CalculateRequest asks for a commission to be derived from a booking.
type CalculateRequest struct {
	BookingID int64 `json:"booking_id" validate:"required,gt=0"`
}

// CreatePayoutRequest groups eligible commissions into one settlement batch.
type CreatePayoutRequest struct {
	AgentID       int64   `json:"agent_id" validate:"required,gt=0"`
	CommissionIDs []int64 `json:"commission_ids" validate:"required,min=1,dive,gt=0"`
}

// SetPayoutStatusRequest settles or cancels a payout batch.
type SetPayoutStatusRequest struct {
	Status PayoutStatus `json:"status" validate:"required,oneof=PAID CANCELLED"`
}

// PayoutDetail returns the payout together with its linked commissions.
type PayoutDetail struct {
	Payout      Payout       `json:"payout"`
	Commissions []Commission `json:"commissions"`
}
