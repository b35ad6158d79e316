package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/delivery-insights/internal/api/dto"
	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/observability"
	"github.com/spec-kit/delivery-insights/internal/repository"
	"github.com/spec-kit/delivery-insights/internal/service/collector"
	apperrors "github.com/spec-kit/delivery-insights/pkg/util"
)

const defaultCollectLookback = 24 * time.Hour

// collectionSources enumerates the labels used for collection counters.
var collectionSources = []string{
	"jira.tickets",
	"jira.sprints",
	"gitlab.commits",
	"gitlab.merge_requests",
	"cloudwatch",
	"cost_explorer",
}

// CollectHandler exposes on-demand collection triggers.
type CollectHandler struct {
	jira       *collector.JiraCollector
	gitlab     *collector.GitLabCollector
	cloudwatch *collector.CloudWatchCollector
	teams      repository.TeamRepository
	metrics    *observability.Metrics
}

// NewCollectHandler constructs handler.
func NewCollectHandler(jira *collector.JiraCollector, gitlab *collector.GitLabCollector, cloudwatch *collector.CloudWatchCollector, teams repository.TeamRepository, metrics *observability.Metrics) *CollectHandler {
	return &CollectHandler{jira: jira, gitlab: gitlab, cloudwatch: cloudwatch, teams: teams, metrics: metrics}
}

// Tickets POST /collect/tickets.
func (h *CollectHandler) Tickets(c *fiber.Ctx) error {
	since, err := parseSince(c)
	if err != nil {
		return err
	}
	result, err := h.jira.CollectTickets(c.UserContext(), since)
	if err != nil {
		return err
	}
	return h.respond(c, "jira.tickets", result)
}

// Sprints POST /collect/sprints.
func (h *CollectHandler) Sprints(c *fiber.Ctx) error {
	result, err := h.jira.CollectSprints(c.UserContext())
	if err != nil {
		return err
	}
	return h.respond(c, "jira.sprints", result)
}

// Commits POST /collect/commits.
func (h *CollectHandler) Commits(c *fiber.Ctx) error {
	since, err := parseSince(c)
	if err != nil {
		return err
	}
	result, err := h.gitlab.CollectCommits(c.UserContext(), since)
	if err != nil {
		return err
	}
	return h.respond(c, "gitlab.commits", result)
}

// MergeRequests POST /collect/merge-requests.
func (h *CollectHandler) MergeRequests(c *fiber.Ctx) error {
	since, err := parseSince(c)
	if err != nil {
		return err
	}
	result, err := h.gitlab.CollectMergeRequests(c.UserContext(), since)
	if err != nil {
		return err
	}
	return h.respond(c, "gitlab.merge_requests", result)
}

// Infrastructure POST /collect/infrastructure.
func (h *CollectHandler) Infrastructure(c *fiber.Ctx) error {
	since, err := parseSince(c)
	if err != nil {
		return err
	}
	teams, err := h.teams.List(c.UserContext())
	if err != nil {
		return err
	}
	rng := domain.DateRange{Start: since, End: time.Now()}
	total := collector.CollectionResult{}
	for i := range teams {
		result := h.cloudwatch.CollectForTeam(c.UserContext(), &teams[i], rng)
		total.Count += result.Count
		total.ErrorCount += result.ErrorCount
	}
	return h.respond(c, "cloudwatch", total)
}

// Costs POST /collect/costs.
func (h *CollectHandler) Costs(c *fiber.Ctx) error {
	days := parseInt(c.Query("days"), 1)
	teams, err := h.teams.List(c.UserContext())
	if err != nil {
		return err
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	total := collector.CollectionResult{}
	for i := range teams {
		result, err := h.cloudwatch.CollectCostMetrics(c.UserContext(), &teams[i].ID, start, end)
		if err != nil {
			total.ErrorCount++
			continue
		}
		total.Count += result.Count
		total.ErrorCount += result.ErrorCount
	}
	return h.respond(c, "cost_explorer", total)
}

// Status GET /collect/status. Reports accumulated collection counters per
// source since process start.
func (h *CollectHandler) Status(c *fiber.Ctx) error {
	totals := make([]dto.CollectionResponse, 0, len(collectionSources))
	for _, source := range collectionSources {
		count, errs := h.metrics.CollectionTotals(source)
		totals = append(totals, dto.CollectionResponse{
			Source: source,
			Count:  int(count),
			Errors: int(errs),
		})
	}
	return c.JSON(fiber.Map{"data": totals})
}

func (h *CollectHandler) respond(c *fiber.Ctx, source string, result collector.CollectionResult) error {
	h.metrics.RecordCollection(source, result.Count, result.ErrorCount)
	return c.JSON(fiber.Map{"data": dto.CollectionResponse{
		Source: source,
		Count:  result.Count,
		Errors: result.ErrorCount,
	}})
}

func parseSince(c *fiber.Ctx) (time.Time, error) {
	var req dto.CollectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return time.Time{}, apperrors.NewValidationError("invalid payload", nil)
		}
	}
	if strings.TrimSpace(req.Since) == "" {
		return time.Now().Add(-defaultCollectLookback), nil
	}
	since, err := time.Parse(time.RFC3339, req.Since)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("since must be RFC3339", nil)
	}
	return since, nil
}
