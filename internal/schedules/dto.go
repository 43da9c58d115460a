package schedules

import "time"

type CreateScheduleRequest struct {
	PackageID     int64     `json:"package_id" validate:"required,gt=0"`
	DepartureDate time.Time `json:"departure_date" validate:"required"`
	ReturnDate    time.Time `json:"return_date" validate:"required,gtfield=DepartureDate"`
	Quota         int       `json:"quota" validate:"required,gt=0"`
	PriceOverride *float64  `json:"price_override,omitempty" validate:"omitempty,gt=0"`
}

type AdjustQuotaRequest struct {
	Delta int `json:"delta" validate:"required,ne=0"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

type ListFilter struct {
	PackageID int64  `json:"package_id"`
	Status    Status `json:"status"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}
