package jira

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// MapIssue translates a Jira issue to the canonical ticket shape. The caller
// supplies the persistence identity and developer linkage.
func MapIssue(issue Issue) (*domain.Ticket, error) {
	if issue.Key == "" {
		return nil, errors.New("issue without key")
	}
	ticket := &domain.Ticket{
		ExternalID:        issue.Key,
		Source:            domain.TicketSourceJira,
		Title:             issue.Fields.Summary,
		Description:       issue.Fields.Description,
		Status:            mapStatus(issue.Fields.Status),
		Priority:          mapPriority(issue.Fields.Priority),
		StoryPoints:       issue.Fields.StoryPoints,
		Labels:            issue.Fields.Labels,
		ExternalCreatedAt: issue.Fields.Created.Time,
		ExternalUpdatedAt: issue.Fields.Updated.Time,
	}
	return ticket, nil
}

// AssigneeEmail returns the issue assignee email, empty when unassigned.
func AssigneeEmail(issue Issue) string {
	if issue.Fields.Assignee == nil {
		return ""
	}
	return issue.Fields.Assignee.EmailAddress
}

// MapSprint translates a board sprint to the canonical sprint shape.
func MapSprint(sprint Sprint) (*domain.Sprint, error) {
	if sprint.ID == 0 {
		return nil, errors.New("sprint without id")
	}
	out := &domain.Sprint{
		ExternalID: strconv.Itoa(sprint.ID),
		Name:       sprint.Name,
		Status:     mapSprintState(sprint.State),
	}
	if sprint.StartDate != nil {
		out.StartDate = sprint.StartDate.Time
	}
	if sprint.EndDate != nil {
		out.EndDate = sprint.EndDate.Time
	}
	return out, nil
}

// mapStatus buckets by status category first, then refines indeterminate
// states by name. Heuristic, not authoritative.
func mapStatus(status Status) domain.TicketStatus {
	name := strings.ToLower(status.Name)
	switch status.StatusCategory.Key {
	case "done":
		if strings.Contains(name, "cancel") {
			return domain.TicketStatusCancelled
		}
		if strings.Contains(name, "closed") {
			return domain.TicketStatusClosed
		}
		return domain.TicketStatusDone
	case "indeterminate":
		switch {
		case strings.Contains(name, "review"):
			return domain.TicketStatusInReview
		case strings.Contains(name, "test"):
			return domain.TicketStatusTesting
		case strings.Contains(name, "block"):
			return domain.TicketStatusBlocked
		default:
			return domain.TicketStatusInProgress
		}
	default:
		if strings.Contains(name, "backlog") {
			return domain.TicketStatusBacklog
		}
		return domain.TicketStatusTodo
	}
}

func mapPriority(priority *Priority) domain.TicketPriority {
	if priority == nil {
		return domain.TicketPriorityMedium
	}
	name := strings.ToLower(priority.Name)
	switch {
	case strings.Contains(name, "highest"), strings.Contains(name, "critical"), strings.Contains(name, "blocker"):
		return domain.TicketPriorityCritical
	case strings.Contains(name, "high"):
		return domain.TicketPriorityHigh
	case strings.Contains(name, "low"):
		return domain.TicketPriorityLow
	default:
		return domain.TicketPriorityMedium
	}
}

func mapSprintState(state string) domain.SprintStatus {
	switch strings.ToLower(state) {
	case "active":
		return domain.SprintStatusActive
	case "closed":
		return domain.SprintStatusCompleted
	default:
		return domain.SprintStatusPlanned
	}
}
