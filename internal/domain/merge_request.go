package domain

import "time"

// MergeRequestStatus enumerates merge request states.
type MergeRequestStatus string

const (
	MergeRequestStatusOpen   MergeRequestStatus = "OPEN"
	MergeRequestStatusMerged MergeRequestStatus = "MERGED"
	MergeRequestStatusClosed MergeRequestStatus = "CLOSED"
	MergeRequestStatusLocked MergeRequestStatus = "LOCKED"
)

// MergeRequest is the canonical record for a source-control merge request.
// (ExternalID, ProjectID) is the natural key; re-polled items are updated in
// place, never duplicated.
type MergeRequest struct {
	ID                string
	ExternalID        string
	ProjectID         string
	Title             string
	Status            MergeRequestStatus
	AuthorEmail       string
	DeveloperID       *string
	SourceBranch      string
	TargetBranch      string
	CommentsCount     int
	ExternalCreatedAt time.Time
	MergedAt          *time.Time
	ClosedAt          *time.Time
	DeployedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LeadTimeHours returns hours from creation to deployment, or nil when the
// merge request has not been deployed.
func (m *MergeRequest) LeadTimeHours() *float64 {
	if m.DeployedAt == nil {
		return nil
	}
	hours := m.DeployedAt.Sub(m.ExternalCreatedAt).Hours()
	return &hours
}
