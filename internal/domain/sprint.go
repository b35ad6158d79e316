package domain

import "time"

// SprintStatus enumerates sprint lifecycle states.
type SprintStatus string

const (
	SprintStatusPlanned   SprintStatus = "PLANNED"
	SprintStatusActive    SprintStatus = "ACTIVE"
	SprintStatusCompleted SprintStatus = "COMPLETED"
)

// Sprint is the canonical record for an agile iteration. ExternalID is the
// natural key; once ingested a sprint's state is driven by internal lifecycle
// transitions, not by re-polling the board.
type Sprint struct {
	ID              string
	ExternalID      string
	Name            string
	Status          SprintStatus
	TeamID          *string
	StartDate       time.Time
	EndDate         time.Time
	CommittedPoints float64
	CompletedPoints float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DaysRemaining returns whole days until the sprint end, floored at zero.
func (s *Sprint) DaysRemaining(now time.Time) int {
	if !now.Before(s.EndDate) {
		return 0
	}
	return int(s.EndDate.Sub(now).Hours() / 24)
}
