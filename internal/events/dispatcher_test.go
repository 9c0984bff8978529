package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsEveryHandlerAndJoinsErrors(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	boom := errors.New("boom")

	var calls []string
	dispatcher.Subscribe(EventServiceCreated, func(ctx context.Context, e Event) error {
		calls = append(calls, "first")
		return boom
	})
	dispatcher.Subscribe(EventServiceCreated, func(ctx context.Context, e Event) error {
		calls = append(calls, "second")
		return nil
	})
	dispatcher.Subscribe(EventServiceUpdated, func(ctx context.Context, e Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := dispatcher.Publish(context.Background(), New(EventServiceCreated, "svc-1", Actor{}, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcherWithoutListeners(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	assert.NoError(t, dispatcher.Publish(context.Background(), New(EventUserRegistered, "u1", Actor{}, nil)))
}

func TestNewStampsEvent(t *testing.T) {
	event := New(EventApplicationSubmitted, "app-1", Actor{UserID: "u1"}, nil)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, "app-1", event.SubjectID)
}
