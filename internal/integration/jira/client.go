package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/config"
)

// Client is a thin wrapper around the Jira REST and Agile APIs.
type Client struct {
	baseURL    string
	username   string
	apiToken   string
	maxResults int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a Jira client from configuration.
func NewClient(cfg config.JiraConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		apiToken:   cfg.APIToken,
		maxResults: cfg.MaxResults,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logger,
	}
}

// GetUpdatedIssues fetches all issues in the given projects updated at or
// after since, following search pagination up to the configured page size.
func (c *Client) GetUpdatedIssues(ctx context.Context, projectKeys []string, since time.Time) ([]Issue, error) {
	if len(projectKeys) == 0 {
		return nil, nil
	}
	jql := fmt.Sprintf("project in (%s) AND updated >= '%s' ORDER BY updated ASC",
		strings.Join(projectKeys, ","), since.Format("2006-01-02 15:04"))

	var issues []Issue
	startAt := 0
	for {
		params := url.Values{}
		params.Set("jql", jql)
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(c.maxResults))
		params.Set("fields", "summary,description,status,priority,assignee,labels,customfield_10016,created,updated")

		var page searchResponse
		if err := c.get(ctx, "/rest/api/2/search?"+params.Encode(), &page); err != nil {
			return nil, err
		}
		issues = append(issues, page.Issues...)

		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			return issues, nil
		}
	}
}

// GetBoardSprints fetches every sprint of an agile board.
func (c *Client) GetBoardSprints(ctx context.Context, boardID string) ([]Sprint, error) {
	if boardID == "" {
		return nil, nil
	}
	var sprints []Sprint
	startAt := 0
	for {
		path := fmt.Sprintf("/rest/agile/1.0/board/%s/sprint?startAt=%d&maxResults=%d", boardID, startAt, c.maxResults)
		var page sprintResponse
		if err := c.get(ctx, path, &page); err != nil {
			return nil, err
		}
		sprints = append(sprints, page.Values...)
		if page.IsLast || len(page.Values) == 0 {
			return sprints, nil
		}
		startAt += len(page.Values)
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jira request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jira request %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
