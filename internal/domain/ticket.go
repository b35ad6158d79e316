package domain

import "time"

// TicketStatus enumerates lifecycle states for tracked tickets.
type TicketStatus string

const (
	TicketStatusBacklog    TicketStatus = "BACKLOG"
	TicketStatusTodo       TicketStatus = "TODO"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusInReview   TicketStatus = "IN_REVIEW"
	TicketStatusTesting    TicketStatus = "TESTING"
	TicketStatusBlocked    TicketStatus = "BLOCKED"
	TicketStatusDone       TicketStatus = "DONE"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// TicketPriority enumerates urgency buckets as reported by the tracker.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// TicketSource identifies the upstream tracker a ticket was ingested from.
type TicketSource string

const (
	TicketSourceJira TicketSource = "JIRA"
)

// Ticket is the canonical record for an issue-tracker item.
// (ExternalID, Source) is the natural key.
type Ticket struct {
	ID                string
	ExternalID        string
	Source            TicketSource
	Title             string
	Description       string
	Status            TicketStatus
	Priority          TicketPriority
	StoryPoints       *float64
	Labels            []string
	DeveloperID       *string
	SprintID          *string
	ExternalCreatedAt time.Time
	ExternalUpdatedAt time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsCompleted reports whether the ticket reached a terminal done state.
func (t *Ticket) IsCompleted() bool {
	return t.Status == TicketStatusDone || t.Status == TicketStatusClosed
}

// CycleTimeHours returns hours from work start to completion, or nil when
// either timestamp is missing.
func (t *Ticket) CycleTimeHours() *float64 {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return nil
	}
	hours := t.CompletedAt.Sub(*t.StartedAt).Hours()
	return &hours
}
