package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/samudra-erp/samudra-erp/internal/bookings"
)

// Notifier forwards booking status changes onto the job queue. It satisfies
// the booking coordinator's notifier port; enqueue failures surface to the
// caller, which logs them without rolling back the transition.
type Notifier struct {
	client *Client
}

// NewNotifier builds Notifier.
func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

// BookingStatusChanged enqueues a TaskTypeBookingNotify task.
func (n *Notifier) BookingStatusChanged(ctx context.Context, change bookings.StatusChange) error {
	_, err := n.client.EnqueueBookingNotify(ctx, BookingNotifyPayload{
		TenantID:   change.TenantID,
		BookingID:  change.BookingID,
		Reference:  change.Reference,
		CustomerID: change.CustomerID,
		FromStatus: string(change.FromStatus),
		ToStatus:   string(change.ToStatus),
		TotalPrice: change.TotalPrice,
		Currency:   change.Currency,
	})
	return err
}

// NewBookingNotifyHandler processes TaskTypeBookingNotify tasks. Delivery is a
// structured log line with a localized amount until a real channel exists.
func NewBookingNotifyHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload BookingNotifyPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("booking status notification",
			slog.Int64("tenant_id", payload.TenantID),
			slog.String("reference", payload.Reference),
			slog.Int64("customer_id", payload.CustomerID),
			slog.String("from", payload.FromStatus),
			slog.String("to", payload.ToStatus),
			slog.String("amount", formatAmount(payload.Currency, payload.TotalPrice)))
		return nil
	}
}

func formatAmount(code string, value float64) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.IDR
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v", currency.Symbol(unit.Amount(value)))
}
