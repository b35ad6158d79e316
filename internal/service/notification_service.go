package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/events"
)

// NotificationService forwards alert and incident events to the notification
// channel. The delivery transport is a log sink here; routing to chat or
// email hangs off the same handlers.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes the notification handlers to the dispatcher.
func (s *NotificationService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventAlertCreated, s.onAlertCreated)
	s.dispatcher.Subscribe(events.EventIncidentResolved, s.onIncidentResolved)
	s.dispatcher.Subscribe(events.EventCollectionCompleted, s.onCollectionCompleted)
}

func (s *NotificationService) onAlertCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AlertCreatedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("alert notification",
		zap.String("alert_id", payload.AlertID),
		zap.String("type", string(payload.AlertType)),
		zap.String("severity", string(payload.Severity)),
		zap.String("message", payload.Message),
	)
	return nil
}

func (s *NotificationService) onCollectionCompleted(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CollectionCompletedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("collection finished",
		zap.String("source", payload.Source),
		zap.Int("count", payload.Count),
		zap.Int("error_count", payload.ErrorCount),
	)
	return nil
}

func (s *NotificationService) onIncidentResolved(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IncidentResolvedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("incident resolved notification",
		zap.String("incident_id", payload.IncidentID),
		zap.String("severity", string(payload.Severity)),
		zap.Float64("mttr_minutes", payload.MTTRMinutes),
	)
	return nil
}
