package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/events"
	"github.com/spec-kit/delivery-insights/internal/observability"
	"github.com/spec-kit/delivery-insights/internal/service/collector"
)

func TestRecordCollectionPublishesEvent(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var received []events.Event
	dispatcher.Subscribe(events.EventCollectionCompleted, func(_ context.Context, event events.Event) error {
		received = append(received, event)
		return nil
	})

	s := &Scheduler{
		logger:     zap.NewNop(),
		counters:   observability.NewMetrics(),
		dispatcher: dispatcher,
	}
	s.recordCollection(context.Background(), "jira.tickets", collector.CollectionResult{Count: 12, ErrorCount: 2})

	require.Len(t, received, 1)
	assert.NotEmpty(t, received[0].ID)
	assert.False(t, received[0].Timestamp.IsZero())
	payload, ok := received[0].Payload.(events.CollectionCompletedPayload)
	require.True(t, ok)
	assert.Equal(t, "jira.tickets", payload.Source)
	assert.Equal(t, 12, payload.Count)
	assert.Equal(t, 2, payload.ErrorCount)

	processed, errors := s.counters.CollectionTotals("jira.tickets")
	assert.Equal(t, int64(12), processed)
	assert.Equal(t, int64(2), errors)
}

func TestRecordCollectionWithoutDispatcher(t *testing.T) {
	s := &Scheduler{logger: zap.NewNop(), counters: observability.NewMetrics()}
	s.recordCollection(context.Background(), "cloudwatch", collector.CollectionResult{Count: 3})

	processed, errors := s.counters.CollectionTotals("cloudwatch")
	assert.Equal(t, int64(3), processed)
	assert.Equal(t, int64(0), errors)
}
