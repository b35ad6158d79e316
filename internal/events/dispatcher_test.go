package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishInvokesSubscribersInOrder(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var calls []string
	dispatcher.Subscribe(EventAlertCreated, func(_ context.Context, event Event) error {
		calls = append(calls, "first:"+event.ID)
		return nil
	})
	dispatcher.Subscribe(EventAlertCreated, func(_ context.Context, event Event) error {
		calls = append(calls, "second:"+event.ID)
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{ID: "ev-1", Type: EventAlertCreated})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:ev-1", "second:ev-1"}, calls)
}

func TestPublishContinuesPastFailingHandler(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var reached bool
	dispatcher.Subscribe(EventIncidentResolved, func(context.Context, Event) error {
		return errors.New("delivery failed")
	})
	dispatcher.Subscribe(EventIncidentResolved, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventIncidentResolved})
	require.NoError(t, err)
	assert.True(t, reached)
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	assert.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventSprintCompleted}))
}

func TestSubscribersAreScopedToEventType(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var called bool
	dispatcher.Subscribe(EventAlertCreated, func(context.Context, Event) error {
		called = true
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventSprintCompleted}))
	assert.False(t, called)
}
