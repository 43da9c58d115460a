package bookings

type CreateBookingRequest struct {
	CustomerID int64    `json:"customer_id" validate:"required,gt=0"`
	PackageID  int64    `json:"package_id" validate:"required,gt=0"`
	ScheduleID int64    `json:"schedule_id" validate:"required,gt=0"`
	AgentID    *int64   `json:"agent_id,omitempty" validate:"omitempty,gt=0"`
	SalesID    *int64   `json:"sales_id,omitempty" validate:"omitempty,gt=0"`
	RoomType   RoomType `json:"room_type" validate:"required"`
	Pax        int      `json:"pax" validate:"required,gt=0"`
	BasePrice  float64  `json:"base_price" validate:"required,gt=0"`
	Discount   float64  `json:"discount" validate:"gte=0"`
	Currency   string   `json:"currency" validate:"required,len=3"`

	// IdempotencyKey deduplicates retried submissions; optional.
	IdempotencyKey string `json:"-"`
}

type TransitionRequest struct {
	FromStatus   Status  `json:"from_status" validate:"required"`
	ToStatus     Status  `json:"to_status" validate:"required"`
	CancelReason *string `json:"cancel_reason,omitempty"`
}

type ListFilter struct {
	CustomerID int64
	ScheduleID int64
	Status     Status
	Limit      int
	Offset     int
}
