package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	out := formatAmount("IDR", 25000000)
	require.NotEmpty(t, out)

	// Unknown codes fall back to IDR instead of failing the notification.
	fallback := formatAmount("???", 100)
	require.NotEmpty(t, fallback)
}

func TestBookingNotifyHandler(t *testing.T) {
	payload := BookingNotifyPayload{
		TenantID:   1,
		BookingID:  10,
		Reference:  "BK-AB12CD34",
		CustomerID: 100,
		FromStatus: "PENDING",
		ToStatus:   "CONFIRMED",
		TotalPrice: 9500,
		Currency:   "IDR",
	}
	task, err := NewBookingNotifyTask(payload)
	require.NoError(t, err)
	require.Equal(t, TaskTypeBookingNotify, task.Type())

	handler := NewBookingNotifyHandler(slog.Default())
	require.NoError(t, handler(context.Background(), task))
}

func TestBookingNotifyHandlerSkipsMalformedPayload(t *testing.T) {
	handler := NewBookingNotifyHandler(slog.Default())
	err := handler(context.Background(), asynq.NewTask(TaskTypeBookingNotify, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReconcileTaskCarriesRepairFlag(t *testing.T) {
	task, err := NewReconcileTask(ReconcilePayload{Repair: true})
	require.NoError(t, err)

	var payload ReconcilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.True(t, payload.Repair)
}
