package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/config"
	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/integration/jira"
	"github.com/spec-kit/delivery-insights/internal/repository"
)

// JiraClient is the fetch surface the ticket collector depends on.
type JiraClient interface {
	GetUpdatedIssues(ctx context.Context, projectKeys []string, since time.Time) ([]jira.Issue, error)
	GetBoardSprints(ctx context.Context, boardID string) ([]jira.Sprint, error)
}

// JiraCollector ingests tickets and sprints from the issue tracker.
type JiraCollector struct {
	client     JiraClient
	tickets    repository.TicketRepository
	sprints    repository.SprintRepository
	developers repository.DeveloperRepository
	cfg        config.JiraConfig
	logger     *zap.Logger
	now        func() time.Time
}

// JiraDependencies bundles collaborators for the ticket collector.
type JiraDependencies struct {
	Client        JiraClient
	TicketRepo    repository.TicketRepository
	SprintRepo    repository.SprintRepository
	DeveloperRepo repository.DeveloperRepository
}

// NewJiraCollector constructs the collector.
func NewJiraCollector(cfg config.JiraConfig, deps JiraDependencies, logger *zap.Logger) *JiraCollector {
	return &JiraCollector{
		client:     deps.Client,
		tickets:    deps.TicketRepo,
		sprints:    deps.SprintRepo,
		developers: deps.DeveloperRepo,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// CollectTickets fetches tickets updated at or after since and upserts each
// one by its (external id, source) natural key. Individual mapping or lookup
// failures are skipped and counted; only a total client failure is returned
// as an error.
func (c *JiraCollector) CollectTickets(ctx context.Context, since time.Time) (CollectionResult, error) {
	if len(c.cfg.ProjectKeys) == 0 {
		c.logger.Debug("no jira projects configured, nothing to collect")
		return CollectionResult{}, nil
	}

	issues, err := c.client.GetUpdatedIssues(ctx, c.cfg.ProjectKeys, since)
	if err != nil {
		return CollectionResult{}, err
	}

	var result CollectionResult
	for _, issue := range issues {
		if err := c.processIssue(ctx, issue); err != nil {
			result.ErrorCount++
			c.logger.Warn("skipping ticket",
				zap.String("key", issue.Key),
				zap.Error(err),
			)
			continue
		}
		result.Count++
	}
	c.logger.Info("ticket collection finished",
		zap.Int("count", result.Count),
		zap.Int("errors", result.ErrorCount),
	)
	return result, nil
}

func (c *JiraCollector) processIssue(ctx context.Context, issue jira.Issue) error {
	mapped, err := jira.MapIssue(issue)
	if err != nil {
		return err
	}

	existing, err := c.tickets.GetByExternalID(ctx, mapped.ExternalID, mapped.Source)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Title = mapped.Title
		existing.Description = mapped.Description
		existing.Status = mapped.Status
		existing.Priority = mapped.Priority
		existing.StoryPoints = mapped.StoryPoints
		existing.Labels = mapped.Labels
		existing.ExternalUpdatedAt = mapped.ExternalUpdatedAt
		c.stampLifecycle(existing)
		return c.tickets.Update(ctx, existing)
	}

	if email := jira.AssigneeEmail(issue); email != "" {
		developer, err := c.developers.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if developer != nil {
			mapped.DeveloperID = &developer.ID
		}
	}
	c.stampLifecycle(mapped)
	return c.tickets.Create(ctx, mapped)
}

// stampLifecycle applies the once-only started/completed timestamp rule: a
// timestamp is set the first time the status reaches the relevant state and
// is never overwritten on later polls.
func (c *JiraCollector) stampLifecycle(ticket *domain.Ticket) {
	now := c.now()
	if ticket.StartedAt == nil && ticket.Status == domain.TicketStatusInProgress {
		ticket.StartedAt = &now
	}
	if ticket.CompletedAt == nil && ticket.IsCompleted() {
		ticket.CompletedAt = &now
	}
}

// CollectSprints fetches all board sprints and inserts any with an unseen
// external id. Existing sprints are never updated by polling; their state is
// driven by the internal sprint lifecycle.
func (c *JiraCollector) CollectSprints(ctx context.Context) (CollectionResult, error) {
	sprints, err := c.client.GetBoardSprints(ctx, c.cfg.BoardID)
	if err != nil {
		return CollectionResult{}, err
	}

	var result CollectionResult
	for _, raw := range sprints {
		mapped, err := jira.MapSprint(raw)
		if err != nil {
			result.ErrorCount++
			c.logger.Warn("skipping sprint", zap.Int("id", raw.ID), zap.Error(err))
			continue
		}
		exists, err := c.sprints.ExistsByExternalID(ctx, mapped.ExternalID)
		if err != nil {
			result.ErrorCount++
			c.logger.Warn("sprint existence check failed", zap.String("external_id", mapped.ExternalID), zap.Error(err))
			continue
		}
		if exists {
			continue
		}
		if err := c.sprints.Create(ctx, mapped); err != nil {
			result.ErrorCount++
			c.logger.Warn("sprint insert failed", zap.String("external_id", mapped.ExternalID), zap.Error(err))
			continue
		}
		result.Count++
	}
	c.logger.Info("sprint collection finished",
		zap.Int("count", result.Count),
		zap.Int("errors", result.ErrorCount),
	)
	return result, nil
}
