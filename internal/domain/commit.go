package domain

import "time"

// Work-hours window used for after-hours detection, local to the commit
// timestamp's zone.
const (
	workDayStartHour = 9
	workDayEndHour   = 18
)

// Commit is the canonical record for a source-control commit.
// SHA is the natural key; commits are immutable once stored.
type Commit struct {
	ID          string
	SHA         string
	ProjectID   string
	Message     string
	AuthorName  string
	AuthorEmail string
	DeveloperID *string
	Additions   int
	Deletions   int
	CommittedAt time.Time
	CreatedAt   time.Time
}

// IsAfterHours reports whether the commit landed outside working hours.
func (c *Commit) IsAfterHours() bool {
	hour := c.CommittedAt.Hour()
	return hour < workDayStartHour || hour >= workDayEndHour
}

// IsWeekend reports whether the commit landed on a Saturday or Sunday.
func (c *Commit) IsWeekend() bool {
	day := c.CommittedAt.Weekday()
	return day == time.Saturday || day == time.Sunday
}

// TotalChanges returns the combined line churn of the commit.
func (c *Commit) TotalChanges() int {
	return c.Additions + c.Deletions
}
