package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeArchiver struct {
	deleted  []int64
	restored []int64
	err      error
}

func (f *fakeArchiver) SoftDelete(ctx context.Context, tenantID, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeArchiver) Restore(ctx context.Context, tenantID, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.restored = append(f.restored, id)
	return nil
}

func TestRegistryDispatchesToRegisteredKind(t *testing.T) {
	registry := NewRegistry()
	schedules := &fakeArchiver{}
	agents := &fakeArchiver{}
	registry.Register("schedule", schedules)
	registry.Register("agent", agents)

	require.NoError(t, registry.Archive(context.Background(), "schedule", 1, 10))
	require.NoError(t, registry.Restore(context.Background(), "agent", 1, 20))

	require.Equal(t, []int64{10}, schedules.deleted)
	require.Empty(t, schedules.restored)
	require.Equal(t, []int64{20}, agents.restored)
	require.Empty(t, agents.deleted)
}

func TestRegistryRejectsUnknownKind(t *testing.T) {
	registry := NewRegistry()
	registry.Register("schedule", &fakeArchiver{})

	err := registry.Archive(context.Background(), "booking", 1, 10)
	require.ErrorIs(t, err, ErrUnknownEntity)

	err = registry.Restore(context.Background(), "", 1, 10)
	require.ErrorIs(t, err, ErrUnknownEntity)
}

func TestRegistryKindsSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register("schedule", &fakeArchiver{})
	registry.Register("agent", &fakeArchiver{})

	require.Equal(t, []string{"agent", "schedule"}, registry.Kinds())
}

func TestRegistryDoubleRegistrationPanics(t *testing.T) {
	registry := NewRegistry()
	registry.Register("schedule", &fakeArchiver{})

	require.Panics(t, func() {
		registry.Register("schedule", &fakeArchiver{})
	})
}
