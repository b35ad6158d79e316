package domain

import "time"

// DeploymentStatus enumerates deployment outcomes.
type DeploymentStatus string

const (
	DeploymentStatusSuccess    DeploymentStatus = "SUCCESS"
	DeploymentStatusFailed     DeploymentStatus = "FAILED"
	DeploymentStatusInProgress DeploymentStatus = "IN_PROGRESS"
	DeploymentStatusRolledBack DeploymentStatus = "ROLLED_BACK"
)

// Deployment records a release of a project to an environment.
type Deployment struct {
	ID             string
	ProjectID      string
	Environment    string
	Status         DeploymentStatus
	Version        string
	CommitSHA      string
	CausedIncident bool
	DeployedAt     time.Time
	CreatedAt      time.Time
}

// IsFailed reports whether the deployment counts against change failure rate.
func (d *Deployment) IsFailed() bool {
	return d.Status == DeploymentStatusFailed || d.Status == DeploymentStatusRolledBack || d.CausedIncident
}
