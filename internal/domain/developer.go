package domain

import "time"

// Developer links external identities (tracker assignee, commit author) to an
// internal person record, matched by email.
type Developer struct {
	ID        string
	Name      string
	Email     string
	TeamID    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
