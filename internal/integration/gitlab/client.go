package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/config"
)

// Client is a thin wrapper around the GitLab v4 REST API.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a GitLab client from configuration.
func NewClient(cfg config.GitLabConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:   cfg.APIToken,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logger,
	}
}

// GetCommits fetches commit summaries for a project since the given time.
func (c *Client) GetCommits(ctx context.Context, projectID string, since time.Time) ([]Commit, error) {
	params := url.Values{}
	params.Set("since", since.Format(time.RFC3339))
	params.Set("per_page", "100")

	var commits []Commit
	path := fmt.Sprintf("/api/v4/projects/%s/repository/commits?%s", url.PathEscape(projectID), params.Encode())
	if err := c.get(ctx, path, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// GetCommitDetail fetches a single commit including line-change stats.
func (c *Client) GetCommitDetail(ctx context.Context, projectID, sha string) (*Commit, error) {
	path := fmt.Sprintf("/api/v4/projects/%s/repository/commits/%s?stats=true",
		url.PathEscape(projectID), url.PathEscape(sha))
	var commit Commit
	if err := c.get(ctx, path, &commit); err != nil {
		return nil, err
	}
	return &commit, nil
}

// GetMergedMergeRequests fetches merge requests merged since the given time.
func (c *Client) GetMergedMergeRequests(ctx context.Context, projectID string, since time.Time) ([]MergeRequest, error) {
	params := url.Values{}
	params.Set("state", "merged")
	params.Set("updated_after", since.Format(time.RFC3339))
	params.Set("per_page", "100")
	return c.listMergeRequests(ctx, projectID, params)
}

// GetOpenMergeRequests fetches all currently open merge requests.
func (c *Client) GetOpenMergeRequests(ctx context.Context, projectID string) ([]MergeRequest, error) {
	params := url.Values{}
	params.Set("state", "opened")
	params.Set("per_page", "100")
	return c.listMergeRequests(ctx, projectID, params)
}

func (c *Client) listMergeRequests(ctx context.Context, projectID string, params url.Values) ([]MergeRequest, error) {
	path := fmt.Sprintf("/api/v4/projects/%s/merge_requests?%s", url.PathEscape(projectID), params.Encode())
	var mrs []MergeRequest
	if err := c.get(ctx, path, &mrs); err != nil {
		return nil, err
	}
	return mrs, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("PRIVATE-TOKEN", c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gitlab request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gitlab request %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
