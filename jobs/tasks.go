// Package jobs holds the asynq task definitions and the background worker that
// consumes them.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeBookingNotify announces a completed booking status transition.
	TaskTypeBookingNotify = "booking:notify"
	// TaskTypeReconcile recomputes quota and payment-status counters from
	// source rows and reports drift.
	TaskTypeReconcile = "schedule:reconcile"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewSendEmailHandler processes TaskTypeSendEmail tasks.
func NewSendEmailHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		// Placeholder: integrate with SMTP in phase 2.
		logger.Info("send email",
			slog.String("to", payload.To),
			slog.String("subject", payload.Subject))
		return nil
	}
}

// BookingNotifyPayload carries the transition details the notification needs.
type BookingNotifyPayload struct {
	TenantID   int64   `json:"tenant_id"`
	BookingID  int64   `json:"booking_id"`
	Reference  string  `json:"reference"`
	CustomerID int64   `json:"customer_id"`
	FromStatus string  `json:"from_status"`
	ToStatus   string  `json:"to_status"`
	TotalPrice float64 `json:"total_price"`
	Currency   string  `json:"currency"`
}

// NewBookingNotifyTask constructs an Asynq task.
func NewBookingNotifyTask(payload BookingNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeBookingNotify, data), nil
}

// ReconcilePayload configures one reconciliation run.
type ReconcilePayload struct {
	// Repair rewrites drifted counters instead of only reporting them.
	Repair bool `json:"repair"`
}

// NewReconcileTask constructs an Asynq task.
func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReconcile, data), nil
}
