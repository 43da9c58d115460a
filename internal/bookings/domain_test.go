package bookings

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusProcessing, false},
		{StatusConfirmed, StatusProcessing, true},
		{StatusConfirmed, StatusReady, false},
		{StatusProcessing, StatusReady, true},
		{StatusReady, StatusDeparted, true},
		{StatusDeparted, StatusCompleted, true},
		{StatusDeparted, StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusPending, StatusDeparted, false},
		{StatusConfirmed, StatusCompleted, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestEveryNonTerminalStatusCanCancel(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusReady, StatusDeparted} {
		require.True(t, from.CanTransitionTo(StatusCancelled), "%s should allow cancel", from)
	}
}

func TestTerminalStatuses(t *testing.T) {
	require.True(t, StatusCompleted.IsTerminal())
	require.True(t, StatusCancelled.IsTerminal())
	require.False(t, StatusPending.IsTerminal())
	require.False(t, StatusDeparted.IsTerminal())
}

func TestStatusIsValid(t *testing.T) {
	require.True(t, StatusPending.IsValid())
	require.False(t, Status("SHIPPED").IsValid())
	require.False(t, Status("").IsValid())
}

func TestRoomTypeIsValid(t *testing.T) {
	require.True(t, RoomQuad.IsValid())
	require.True(t, RoomSingle.IsValid())
	require.False(t, RoomType("SUITE").IsValid())
}
