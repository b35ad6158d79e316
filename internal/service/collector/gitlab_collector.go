package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/config"
	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/integration/gitlab"
	"github.com/spec-kit/delivery-insights/internal/repository"
)

// GitLabClient is the fetch surface the source-control collector depends on.
type GitLabClient interface {
	GetCommits(ctx context.Context, projectID string, since time.Time) ([]gitlab.Commit, error)
	GetCommitDetail(ctx context.Context, projectID, sha string) (*gitlab.Commit, error)
	GetMergedMergeRequests(ctx context.Context, projectID string, since time.Time) ([]gitlab.MergeRequest, error)
	GetOpenMergeRequests(ctx context.Context, projectID string) ([]gitlab.MergeRequest, error)
}

// GitLabCollector ingests commits and merge requests from source control.
type GitLabCollector struct {
	client        GitLabClient
	commits       repository.CommitRepository
	mergeRequests repository.MergeRequestRepository
	developers    repository.DeveloperRepository
	cfg           config.GitLabConfig
	logger        *zap.Logger
}

// GitLabDependencies bundles collaborators for the source-control collector.
type GitLabDependencies struct {
	Client           GitLabClient
	CommitRepo       repository.CommitRepository
	MergeRequestRepo repository.MergeRequestRepository
	DeveloperRepo    repository.DeveloperRepository
}

// NewGitLabCollector constructs the collector.
func NewGitLabCollector(cfg config.GitLabConfig, deps GitLabDependencies, logger *zap.Logger) *GitLabCollector {
	return &GitLabCollector{
		client:        deps.Client,
		commits:       deps.CommitRepo,
		mergeRequests: deps.MergeRequestRepo,
		developers:    deps.DeveloperRepo,
		cfg:           cfg,
		logger:        logger,
	}
}

// CollectCommits fetches commits since the given time for every configured
// project and inserts the ones not already stored by sha. One project's
// fetch failure does not abort the remaining projects.
func (c *GitLabCollector) CollectCommits(ctx context.Context, since time.Time) (CollectionResult, error) {
	var result CollectionResult
	for _, projectID := range c.cfg.ProjectIDs {
		result = result.add(c.collectProjectCommits(ctx, projectID, since))
	}
	c.logger.Info("commit collection finished",
		zap.Int("count", result.Count),
		zap.Int("errors", result.ErrorCount),
	)
	return result, nil
}

func (c *GitLabCollector) collectProjectCommits(ctx context.Context, projectID string, since time.Time) CollectionResult {
	commits, err := c.client.GetCommits(ctx, projectID, since)
	if err != nil {
		c.logger.Warn("commit fetch failed", zap.String("project", projectID), zap.Error(err))
		return CollectionResult{ErrorCount: 1}
	}

	var result CollectionResult
	for _, summary := range commits {
		exists, err := c.commits.ExistsBySHA(ctx, summary.ID)
		if err != nil {
			result.ErrorCount++
			c.logger.Warn("commit existence check failed", zap.String("sha", summary.ID), zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		// Line stats only come from the detail endpoint; fall back to the
		// summary record when the detail fetch fails.
		record := summary
		if detail, err := c.client.GetCommitDetail(ctx, projectID, summary.ID); err == nil && detail != nil {
			record = *detail
		} else if err != nil {
			c.logger.Debug("commit detail fetch failed, using summary",
				zap.String("sha", summary.ID),
				zap.Error(err),
			)
		}

		mapped, err := gitlab.MapCommit(projectID, record)
		if err != nil {
			result.ErrorCount++
			c.logger.Warn("skipping commit", zap.String("sha", summary.ID), zap.Error(err))
			continue
		}
		c.linkDeveloper(ctx, mapped.AuthorEmail, &mapped.DeveloperID)

		if err := c.commits.Create(ctx, mapped); err != nil {
			result.ErrorCount++
			c.logger.Warn("commit insert failed", zap.String("sha", summary.ID), zap.Error(err))
			continue
		}
		result.Count++
	}
	return result
}

// CollectMergeRequests fetches merge requests merged since the given time
// plus all currently open ones, and runs both lists through the shared
// natural-key upsert. The union may contain the same id twice; the upsert is
// idempotent within one run as well as across runs.
func (c *GitLabCollector) CollectMergeRequests(ctx context.Context, since time.Time) (CollectionResult, error) {
	var result CollectionResult
	for _, projectID := range c.cfg.ProjectIDs {
		result = result.add(c.collectProjectMergeRequests(ctx, projectID, since))
	}
	c.logger.Info("merge request collection finished",
		zap.Int("count", result.Count),
		zap.Int("errors", result.ErrorCount),
	)
	return result, nil
}

func (c *GitLabCollector) collectProjectMergeRequests(ctx context.Context, projectID string, since time.Time) CollectionResult {
	var result CollectionResult

	merged, err := c.client.GetMergedMergeRequests(ctx, projectID, since)
	if err != nil {
		c.logger.Warn("merged merge request fetch failed", zap.String("project", projectID), zap.Error(err))
		result.ErrorCount++
	} else {
		result = result.add(c.upsertMergeRequests(ctx, projectID, merged))
	}

	open, err := c.client.GetOpenMergeRequests(ctx, projectID)
	if err != nil {
		c.logger.Warn("open merge request fetch failed", zap.String("project", projectID), zap.Error(err))
		result.ErrorCount++
	} else {
		result = result.add(c.upsertMergeRequests(ctx, projectID, open))
	}
	return result
}

func (c *GitLabCollector) upsertMergeRequests(ctx context.Context, projectID string, items []gitlab.MergeRequest) CollectionResult {
	var result CollectionResult
	for _, raw := range items {
		mapped, err := gitlab.MapMergeRequest(projectID, raw)
		if err != nil {
			result.ErrorCount++
			c.logger.Warn("skipping merge request", zap.Int("iid", raw.IID), zap.Error(err))
			continue
		}
		if err := c.upsertMergeRequest(ctx, mapped); err != nil {
			result.ErrorCount++
			c.logger.Warn("merge request upsert failed",
				zap.String("external_id", mapped.ExternalID),
				zap.String("project", projectID),
				zap.Error(err),
			)
			continue
		}
		result.Count++
	}
	return result
}

func (c *GitLabCollector) upsertMergeRequest(ctx context.Context, mapped *domain.MergeRequest) error {
	existing, err := c.mergeRequests.GetByExternalID(ctx, mapped.ExternalID, mapped.ProjectID)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Title = mapped.Title
		existing.Status = mapped.Status
		existing.CommentsCount = mapped.CommentsCount
		existing.MergedAt = mapped.MergedAt
		existing.ClosedAt = mapped.ClosedAt
		return c.mergeRequests.Update(ctx, existing)
	}
	c.linkDeveloper(ctx, mapped.AuthorEmail, &mapped.DeveloperID)
	return c.mergeRequests.Create(ctx, mapped)
}

// linkDeveloper resolves a developer by email, best-effort: no match and
// lookup errors both leave the entity unlinked.
func (c *GitLabCollector) linkDeveloper(ctx context.Context, email string, target **string) {
	if email == "" {
		return
	}
	developer, err := c.developers.FindByEmail(ctx, email)
	if err != nil {
		c.logger.Debug("developer lookup failed", zap.String("email", email), zap.Error(err))
		return
	}
	if developer != nil {
		*target = &developer.ID
	}
}
