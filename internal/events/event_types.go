package events

import (
	"time"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAlertCreated        EventType = "alert_created"
	EventIncidentResolved    EventType = "incident_resolved"
	EventSprintCompleted     EventType = "sprint_completed"
	EventCollectionCompleted EventType = "collection_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AlertCreatedPayload payload.
type AlertCreatedPayload struct {
	AlertID     string               `json:"alert_id"`
	AlertType   domain.AlertType     `json:"alert_type"`
	Severity    domain.AlertSeverity `json:"severity"`
	Message     string               `json:"message"`
	TeamID      *string              `json:"team_id,omitempty"`
	DeveloperID *string              `json:"developer_id,omitempty"`
}

// IncidentResolvedPayload payload.
type IncidentResolvedPayload struct {
	IncidentID  string                  `json:"incident_id"`
	Severity    domain.IncidentSeverity `json:"severity"`
	MTTRMinutes float64                 `json:"mttr_minutes"`
}

// SprintCompletedPayload payload.
type SprintCompletedPayload struct {
	SprintID        string  `json:"sprint_id"`
	TeamID          *string `json:"team_id,omitempty"`
	CompletedPoints float64 `json:"completed_points"`
}

// CollectionCompletedPayload payload.
type CollectionCompletedPayload struct {
	Source     string `json:"source"`
	Count      int    `json:"count"`
	ErrorCount int    `json:"error_count"`
}
