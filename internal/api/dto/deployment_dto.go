package dto

import (
	"time"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// CreateDeploymentRequest records a release.
type CreateDeploymentRequest struct {
	ProjectID      string `json:"project_id"`
	Environment    string `json:"environment"`
	Status         string `json:"status"`
	Version        string `json:"version"`
	CommitSHA      string `json:"commit_sha"`
	CausedIncident bool   `json:"caused_incident"`
	DeployedAt     string `json:"deployed_at"`
}

// DeploymentResponse is the wire form of a deployment.
type DeploymentResponse struct {
	ID             string                  `json:"id"`
	ProjectID      string                  `json:"project_id"`
	Environment    string                  `json:"environment"`
	Status         domain.DeploymentStatus `json:"status"`
	Version        string                  `json:"version,omitempty"`
	CommitSHA      string                  `json:"commit_sha,omitempty"`
	CausedIncident bool                    `json:"caused_incident"`
	DeployedAt     time.Time               `json:"deployed_at"`
	CreatedAt      time.Time               `json:"created_at"`
}
