package dto

import (
	"time"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// CreateIncidentRequest opens a new incident.
type CreateIncidentRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Severity     string  `json:"severity"`
	TeamID       *string `json:"team_id"`
	DeploymentID *string `json:"deployment_id"`
	StartedAt    string  `json:"started_at"`
}

// UpdateIncidentStatusRequest moves an incident through its lifecycle.
type UpdateIncidentStatusRequest struct {
	Status string `json:"status"`
}

// AdjustIncidentRequest corrects the recorded resolution time.
type AdjustIncidentRequest struct {
	ResolvedAt string `json:"resolved_at"`
}

// IncidentResponse is the wire form of an incident.
type IncidentResponse struct {
	ID             string                  `json:"id"`
	Title          string                  `json:"title"`
	Description    string                  `json:"description,omitempty"`
	Severity       domain.IncidentSeverity `json:"severity"`
	Status         domain.IncidentStatus   `json:"status"`
	TeamID         *string                 `json:"team_id,omitempty"`
	DeploymentID   *string                 `json:"deployment_id,omitempty"`
	StartedAt      time.Time               `json:"started_at"`
	AcknowledgedAt *time.Time              `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time              `json:"resolved_at,omitempty"`
	MTTRMinutes    *float64                `json:"mttr_minutes,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}
