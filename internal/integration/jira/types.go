package jira

import (
	"strings"
	"time"
)

// Timestamp layout used by the Jira REST API.
const timeLayout = "2006-01-02T15:04:05.000-0700"

// Time wraps time.Time to decode Jira's timestamp format.
type Time struct {
	time.Time
}

// UnmarshalJSON parses the Jira timestamp layout, tolerating null/empty.
func (t *Time) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(timeLayout, raw)
	if err != nil {
		// Agile endpoints return plain RFC3339.
		parsed, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}

// Issue is the wire shape of a Jira issue.
type Issue struct {
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields carries the subset of issue fields the collector consumes.
type IssueFields struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    *Priority `json:"priority"`
	Assignee    *User     `json:"assignee"`
	Labels      []string  `json:"labels"`
	StoryPoints *float64  `json:"customfield_10016"`
	Created     Time      `json:"created"`
	Updated     Time      `json:"updated"`
}

// Status carries the issue status and its category.
type Status struct {
	Name           string         `json:"name"`
	StatusCategory StatusCategory `json:"statusCategory"`
}

// StatusCategory groups statuses into new/indeterminate/done.
type StatusCategory struct {
	Key string `json:"key"`
}

// Priority is the issue priority name.
type Priority struct {
	Name string `json:"name"`
}

// User is a Jira account reference.
type User struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// Sprint is the wire shape of a board sprint.
type Sprint struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	StartDate *Time  `json:"startDate"`
	EndDate   *Time  `json:"endDate"`
}

type searchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

type sprintResponse struct {
	IsLast bool     `json:"isLast"`
	Values []Sprint `json:"values"`
}
