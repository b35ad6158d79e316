package dto

import (
	"time"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// AcknowledgeAlertRequest marks an alert as seen.
type AcknowledgeAlertRequest struct {
	Actor string `json:"actor"`
}

// ResolveAlertRequest closes an alert with a resolution note.
type ResolveAlertRequest struct {
	Actor      string `json:"actor"`
	Resolution string `json:"resolution"`
}

// AlertResponse is the wire form of an alert.
type AlertResponse struct {
	ID             string               `json:"id"`
	Type           domain.AlertType     `json:"type"`
	Severity       domain.AlertSeverity `json:"severity"`
	Message        string               `json:"message"`
	TeamID         *string              `json:"team_id,omitempty"`
	DeveloperID    *string              `json:"developer_id,omitempty"`
	Acknowledged   bool                 `json:"acknowledged"`
	AcknowledgedBy string               `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time           `json:"acknowledged_at,omitempty"`
	Resolved       bool                 `json:"resolved"`
	ResolvedBy     string               `json:"resolved_by,omitempty"`
	Resolution     string               `json:"resolution,omitempty"`
	ResolvedAt     *time.Time           `json:"resolved_at,omitempty"`
	Metadata       map[string]string    `json:"metadata,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}
