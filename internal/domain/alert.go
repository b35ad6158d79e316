package domain

import "time"

// AlertType enumerates threshold alert categories.
type AlertType string

const (
	AlertTypeVelocityDrop   AlertType = "VELOCITY_DROP"
	AlertTypeBurnoutRisk    AlertType = "BURNOUT_RISK"
	AlertTypeWeekendWork    AlertType = "WEEKEND_WORK"
	AlertTypeInfrastructure AlertType = "INFRASTRUCTURE"
)

// AlertSeverity enumerates alert urgency levels.
type AlertSeverity string

const (
	AlertSeverityCritical AlertSeverity = "CRITICAL"
	AlertSeverityHigh     AlertSeverity = "HIGH"
	AlertSeverityMedium   AlertSeverity = "MEDIUM"
	AlertSeverityWarning  AlertSeverity = "WARNING"
	AlertSeverityInfo     AlertSeverity = "INFO"
)

// Alert records a threshold breach. Acknowledgement and resolution are
// independent flags; resolution is terminal but re-invoking either transition
// re-stamps metadata rather than erroring.
type Alert struct {
	ID             string
	Type           AlertType
	Severity       AlertSeverity
	Message        string
	MetricID       *string
	TeamID         *string
	DeveloperID    *string
	Acknowledged   bool
	AcknowledgedBy string
	AcknowledgedAt *time.Time
	Resolved       bool
	ResolvedBy     string
	Resolution     string
	ResolvedAt     *time.Time
	Metadata       map[string]string
	CreatedAt      time.Time
}
