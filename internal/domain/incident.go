package domain

import "time"

// IncidentSeverity enumerates incident impact levels.
type IncidentSeverity string

const (
	IncidentSeverityCritical IncidentSeverity = "CRITICAL"
	IncidentSeverityHigh     IncidentSeverity = "HIGH"
	IncidentSeverityMedium   IncidentSeverity = "MEDIUM"
	IncidentSeverityLow      IncidentSeverity = "LOW"
)

// IncidentStatus enumerates incident lifecycle states. Resolved is terminal.
type IncidentStatus string

const (
	IncidentStatusOpen          IncidentStatus = "OPEN"
	IncidentStatusInvestigating IncidentStatus = "INVESTIGATING"
	IncidentStatusResolved      IncidentStatus = "RESOLVED"
)

// Incident records a production disruption. MTTRMinutes is computed exactly
// once at resolution and is never recomputed, even when ResolvedAt is edited
// afterwards.
type Incident struct {
	ID             string
	Title          string
	Description    string
	Severity       IncidentSeverity
	Status         IncidentStatus
	TeamID         *string
	DeploymentID   *string
	StartedAt      time.Time
	AcknowledgedAt *time.Time
	ResolvedAt     *time.Time
	MTTRMinutes    *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsResolved reports whether the incident reached its terminal state.
func (i *Incident) IsResolved() bool {
	return i.Status == IncidentStatusResolved
}

// RecoveryMinutes returns minutes from start to resolution, or nil while the
// incident is unresolved.
func (i *Incident) RecoveryMinutes() *float64 {
	if i.ResolvedAt == nil {
		return nil
	}
	minutes := i.ResolvedAt.Sub(i.StartedAt).Minutes()
	return &minutes
}
