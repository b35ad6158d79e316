// Package scheduler wires the collection and alert-check entrypoints to
// fixed-interval cron triggers. Each entrypoint is expected to run to
// completion before its next invocation; there is no overlap guard beyond
// the collectors' natural-key idempotency.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/config"
	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/events"
	"github.com/spec-kit/delivery-insights/internal/observability"
	"github.com/spec-kit/delivery-insights/internal/repository"
	"github.com/spec-kit/delivery-insights/internal/service"
	"github.com/spec-kit/delivery-insights/internal/service/collector"
)

// Scheduler runs the periodic collection and evaluation jobs.
type Scheduler struct {
	cron   *cron.Cron
	cfg    config.SchedulerConfig
	logger *zap.Logger

	jira       *collector.JiraCollector
	gitlab     *collector.GitLabCollector
	cloudwatch *collector.CloudWatchCollector
	alerts     *service.AlertService
	teams      repository.TeamRepository
	developers repository.DeveloperRepository
	metrics    repository.MetricRepository
	counters   *observability.Metrics
	dispatcher events.Dispatcher
}

// Dependencies bundles collaborators for the scheduler.
type Dependencies struct {
	Jira       *collector.JiraCollector
	GitLab     *collector.GitLabCollector
	CloudWatch *collector.CloudWatchCollector
	Alerts     *service.AlertService
	TeamRepo   repository.TeamRepository
	DevRepo    repository.DeveloperRepository
	MetricRepo repository.MetricRepository
	Counters   *observability.Metrics
	Dispatcher events.Dispatcher
}

// New constructs the scheduler.
func New(cfg config.SchedulerConfig, deps Dependencies, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		cfg:        cfg,
		logger:     logger,
		jira:       deps.Jira,
		gitlab:     deps.GitLab,
		cloudwatch: deps.CloudWatch,
		alerts:     deps.Alerts,
		teams:      deps.TeamRepo,
		developers: deps.DevRepo,
		metrics:    deps.MetricRepo,
		counters:   deps.Counters,
		dispatcher: deps.Dispatcher,
	}
}

// Start registers all jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context)
	}{
		{"collect-tickets", s.cfg.TicketsSpec, s.collectTickets},
		{"collect-sprints", s.cfg.SprintsSpec, s.collectSprints},
		{"collect-commits", s.cfg.CommitsSpec, s.collectCommits},
		{"collect-infra", s.cfg.InfraSpec, s.collectInfra},
		{"collect-cost", s.cfg.CostSpec, s.collectCost},
		{"alert-checks", s.cfg.AlertChecksSpec, s.runAlertChecks},
		{"metric-cleanup", s.cfg.MetricCleanupSpec, s.cleanupMetrics},
	}
	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() {
			ctx := context.Background()
			s.logger.Debug("job starting", zap.String("job", job.name))
			job.run(ctx)
		}); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.logger.Info("scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// recordCollection bumps the counters for one finished collection and
// announces it to subscribers.
func (s *Scheduler) recordCollection(ctx context.Context, source string, result collector.CollectionResult) {
	s.counters.RecordCollection(source, result.Count, result.ErrorCount)
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventCollectionCompleted,
		Timestamp: time.Now(),
		Payload: events.CollectionCompletedPayload{
			Source:     source,
			Count:      result.Count,
			ErrorCount: result.ErrorCount,
		},
	})
}

func (s *Scheduler) collectTickets(ctx context.Context) {
	since := time.Now().Add(-time.Duration(s.cfg.TicketsLookbackMin) * time.Minute)
	result, err := s.jira.CollectTickets(ctx, since)
	if err != nil {
		s.logger.Error("ticket collection failed", zap.Error(err))
		return
	}
	s.recordCollection(ctx, "jira.tickets", result)
}

func (s *Scheduler) collectSprints(ctx context.Context) {
	result, err := s.jira.CollectSprints(ctx)
	if err != nil {
		s.logger.Error("sprint collection failed", zap.Error(err))
		return
	}
	s.recordCollection(ctx, "jira.sprints", result)
}

func (s *Scheduler) collectCommits(ctx context.Context) {
	since := time.Now().Add(-time.Duration(s.cfg.CommitsLookbackMin) * time.Minute)
	if result, err := s.gitlab.CollectCommits(ctx, since); err != nil {
		s.logger.Error("commit collection failed", zap.Error(err))
	} else {
		s.recordCollection(ctx, "gitlab.commits", result)
	}
	if result, err := s.gitlab.CollectMergeRequests(ctx, since); err != nil {
		s.logger.Error("merge request collection failed", zap.Error(err))
	} else {
		s.recordCollection(ctx, "gitlab.merge_requests", result)
	}
}

func (s *Scheduler) collectInfra(ctx context.Context) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		s.logger.Error("team listing failed", zap.Error(err))
		return
	}
	now := time.Now()
	rng := domain.DateRange{
		Start: now.Add(-time.Duration(s.cfg.InfraLookbackMin) * time.Minute),
		End:   now,
	}
	for i := range teams {
		team := &teams[i]
		result := s.cloudwatch.CollectForTeam(ctx, team, rng)
		s.recordCollection(ctx, "cloudwatch", result)
		s.evaluateInfraAlerts(ctx, team, rng)
	}
}

var infraAlertTypes = []domain.MetricType{
	domain.MetricTypeCPUUtilization,
	domain.MetricTypeMemoryUtilization,
	domain.MetricTypeErrorRate,
}

func (s *Scheduler) evaluateInfraAlerts(ctx context.Context, team *domain.Team, rng domain.DateRange) {
	var collected []domain.Metric
	for _, metricType := range infraAlertTypes {
		metrics, err := s.metrics.ListByTypeInRange(ctx, metricType, rng)
		if err != nil {
			s.logger.Warn("infra metric listing failed", zap.String("team", team.ID), zap.Error(err))
			continue
		}
		for i := range metrics {
			if metrics[i].TeamID != nil && *metrics[i].TeamID == team.ID {
				collected = append(collected, metrics[i])
			}
		}
	}
	if len(collected) > 0 {
		s.alerts.CheckInfrastructureThresholds(ctx, &team.ID, collected)
	}
}

func (s *Scheduler) collectCost(ctx context.Context) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		s.logger.Error("team listing failed", zap.Error(err))
		return
	}
	end := time.Now()
	start := end.AddDate(0, 0, -s.cfg.CostLookbackDays)
	for i := range teams {
		result, err := s.cloudwatch.CollectCostMetrics(ctx, &teams[i].ID, start, end)
		if err != nil {
			s.logger.Error("cost collection failed", zap.String("team", teams[i].ID), zap.Error(err))
			continue
		}
		s.recordCollection(ctx, "cost_explorer", result)
	}
}

func (s *Scheduler) runAlertChecks(ctx context.Context) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		s.logger.Error("team listing failed", zap.Error(err))
		return
	}
	for i := range teams {
		team := &teams[i]
		if _, err := s.alerts.CheckVelocityThresholds(ctx, team.ID); err != nil {
			s.logger.Warn("velocity check failed", zap.String("team", team.ID), zap.Error(err))
		}
		developers, err := s.developers.ListByTeam(ctx, team.ID)
		if err != nil {
			s.logger.Warn("developer listing failed", zap.String("team", team.ID), zap.Error(err))
			continue
		}
		for j := range developers {
			if _, err := s.alerts.CheckBurnoutRisk(ctx, developers[j].ID); err != nil {
				s.logger.Warn("burnout check failed", zap.String("developer", developers[j].ID), zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) cleanupMetrics(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.MetricRetentionDays)
	deleted, err := s.metrics.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("metric cleanup failed", zap.Error(err))
		return
	}
	s.logger.Info("metric cleanup finished", zap.Int64("deleted", deleted))
}
