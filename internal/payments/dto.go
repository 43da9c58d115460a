package payments

type RecordPaymentRequest struct {
	BookingID int64   `json:"booking_id" validate:"required,gt=0"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Method    Method  `json:"method" validate:"required"`
	Note      *string `json:"note,omitempty"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}
