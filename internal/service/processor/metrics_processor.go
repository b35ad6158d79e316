// Package processor computes derived delivery metrics from the canonical
// store. All operations are pure reads apart from explicit metric snapshots.
package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/cache"
	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/repository"
	"github.com/spec-kit/delivery-insights/pkg/stats"
)

// Sprint count feeding the velocity trend, fixed and non-configurable.
const trendWindow = 3

const velocityCacheTTL = 10 * time.Minute

// GranularityDaily is the default time-series granularity.
const GranularityDaily = "DAILY"

// SprintMetrics summarizes one sprint's ticket progress.
type SprintMetrics struct {
	SprintID        string  `json:"sprint_id"`
	SprintName      string  `json:"sprint_name"`
	TotalTickets    int     `json:"total_tickets"`
	Completed       int     `json:"completed"`
	InProgress      int     `json:"in_progress"`
	Todo            int     `json:"todo"`
	Blocked         int     `json:"blocked"`
	TotalPoints     float64 `json:"total_points"`
	CompletedPoints float64 `json:"completed_points"`
	CompletionRate  float64 `json:"completion_rate"`
	AvgCycleHours   float64 `json:"avg_cycle_hours"`
	DaysRemaining   int     `json:"days_remaining"`
}

// SprintVelocity is one sprint's contribution to a velocity report.
type SprintVelocity struct {
	SprintID        string  `json:"sprint_id"`
	SprintName      string  `json:"sprint_name"`
	PlannedPoints   float64 `json:"planned_points"`
	CompletedPoints float64 `json:"completed_points"`
	CompletionRate  float64 `json:"completion_rate"`
}

// TeamVelocity reports recent sprint velocities with an overall average and
// trend.
type TeamVelocity struct {
	TeamID          string           `json:"team_id"`
	Sprints         []SprintVelocity `json:"sprints"`
	AverageVelocity float64          `json:"average_velocity"`
	TrendPercent    float64          `json:"trend_percent"`
}

// TimeSeriesPoint is one raw metric observation.
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TimeSeriesStats summarizes a value set by rank-based statistics.
type TimeSeriesStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

// TimeSeries carries raw points plus their summary statistics.
type TimeSeries struct {
	Type        domain.MetricType `json:"type"`
	Granularity string            `json:"granularity"`
	Points      []TimeSeriesPoint `json:"points"`
	Stats       TimeSeriesStats   `json:"stats"`
}

// MetricsProcessor computes sprint, velocity and time-series metrics.
type MetricsProcessor struct {
	sprints repository.SprintRepository
	tickets repository.TicketRepository
	metrics repository.MetricRepository
	cache   cache.MetricsCache
	logger  *zap.Logger
	now     func() time.Time
}

// ProcessorDependencies bundles collaborators for the metrics processor.
type ProcessorDependencies struct {
	SprintRepo repository.SprintRepository
	TicketRepo repository.TicketRepository
	MetricRepo repository.MetricRepository
	Cache      cache.MetricsCache
}

// NewMetricsProcessor constructs the processor. Cache may be nil.
func NewMetricsProcessor(deps ProcessorDependencies, logger *zap.Logger) *MetricsProcessor {
	return &MetricsProcessor{
		sprints: deps.SprintRepo,
		tickets: deps.TicketRepo,
		metrics: deps.MetricRepo,
		cache:   deps.Cache,
		logger:  logger,
		now:     time.Now,
	}
}

// SprintMetrics computes status buckets, point sums, mean cycle time and
// completion rate for one sprint.
func (p *MetricsProcessor) SprintMetrics(ctx context.Context, sprintID string) (*SprintMetrics, error) {
	sprint, err := p.sprints.GetByID(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	tickets, err := p.tickets.ListBySprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}

	result := &SprintMetrics{
		SprintID:      sprint.ID,
		SprintName:    sprint.Name,
		TotalTickets:  len(tickets),
		DaysRemaining: sprint.DaysRemaining(p.now()),
	}

	var cycleHours []float64
	for i := range tickets {
		ticket := &tickets[i]
		points := 0.0
		if ticket.StoryPoints != nil {
			points = *ticket.StoryPoints
		}
		result.TotalPoints += points

		switch {
		case ticket.IsCompleted():
			result.Completed++
			result.CompletedPoints += points
		case ticket.Status == domain.TicketStatusInProgress:
			result.InProgress++
		case ticket.Status == domain.TicketStatusTodo, ticket.Status == domain.TicketStatusBacklog:
			result.Todo++
		case ticket.Status == domain.TicketStatusBlocked:
			result.Blocked++
		}
		if hours := ticket.CycleTimeHours(); hours != nil {
			cycleHours = append(cycleHours, *hours)
		}
	}

	if result.TotalTickets > 0 {
		result.CompletionRate = float64(result.Completed) / float64(result.TotalTickets) * 100
	}
	result.AvgCycleHours = stats.Mean(cycleHours)
	return result, nil
}

// TeamVelocity reports the most recent sprintCount sprints for a team with
// per-sprint velocity, an overall average and a trend comparing the mean of
// the latest three sprints against the preceding three. Fewer than six
// sprints yield a trend of exactly zero.
func (p *MetricsProcessor) TeamVelocity(ctx context.Context, teamID string, sprintCount int) (*TeamVelocity, error) {
	cacheKey := fmt.Sprintf("%s%d", velocityKeyPrefix(teamID), sprintCount)
	if p.cache != nil {
		var cached TeamVelocity
		if hit, err := p.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	sprints, err := p.sprints.ListRecentByTeam(ctx, teamID, sprintCount)
	if err != nil {
		return nil, err
	}

	result := &TeamVelocity{TeamID: teamID}
	completed := make([]float64, 0, len(sprints))
	for i := range sprints {
		sprint := &sprints[i]
		velocity := SprintVelocity{
			SprintID:        sprint.ID,
			SprintName:      sprint.Name,
			PlannedPoints:   sprint.CommittedPoints,
			CompletedPoints: sprint.CompletedPoints,
		}
		if sprint.CommittedPoints > 0 {
			velocity.CompletionRate = sprint.CompletedPoints / sprint.CommittedPoints * 100
		}
		result.Sprints = append(result.Sprints, velocity)
		completed = append(completed, sprint.CompletedPoints)
	}

	result.AverageVelocity = stats.Mean(completed)
	result.TrendPercent = velocityTrend(completed)

	if p.cache != nil {
		if err := p.cache.Set(ctx, cacheKey, result, velocityCacheTTL); err != nil {
			p.logger.Debug("velocity cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

func velocityKeyPrefix(teamID string) string {
	return "velocity:" + teamID + ":"
}

// velocityTrend expects completed points ordered most recent first and
// returns the percentage change of the latest three sprints' mean over the
// preceding three. Fewer than six sprints or a zero previous mean yield 0.
func velocityTrend(completed []float64) float64 {
	if len(completed) < trendWindow*2 {
		return 0
	}
	recent := stats.Mean(completed[:trendWindow])
	previous := stats.Mean(completed[trendWindow : trendWindow*2])
	if previous == 0 {
		return 0
	}
	return (recent - previous) / previous * 100
}

// TimeSeries returns the raw points of one metric type over a range plus
// rank-based summary statistics. Granularity defaults to DAILY and is
// echoed back on the result; points are always the raw observations. An
// empty result set yields all-zero stats.
func (p *MetricsProcessor) TimeSeries(ctx context.Context, metricType domain.MetricType, rng domain.DateRange, granularity string) (*TimeSeries, error) {
	if granularity == "" {
		granularity = GranularityDaily
	}
	granularity = strings.ToUpper(granularity)

	metrics, err := p.metrics.ListByTypeInRange(ctx, metricType, rng)
	if err != nil {
		return nil, err
	}

	result := &TimeSeries{Type: metricType, Granularity: granularity}
	values := make([]float64, 0, len(metrics))
	for i := range metrics {
		result.Points = append(result.Points, TimeSeriesPoint{
			Timestamp: metrics[i].Timestamp,
			Value:     metrics[i].Value,
		})
		values = append(values, metrics[i].Value)
	}
	result.Stats = TimeSeriesStats{
		Min:    stats.Min(values),
		Max:    stats.Max(values),
		Mean:   stats.Mean(values),
		Median: stats.Median(values),
		P95:    stats.Percentile(values, 95),
		P99:    stats.Percentile(values, 99),
	}
	return result, nil
}

// SaveVelocityMetric appends a velocity observation to the metric time
// series so alert window comparisons can read it later.
func (p *MetricsProcessor) SaveVelocityMetric(ctx context.Context, teamID string, value float64, at time.Time) error {
	metric := domain.Metric{
		Type:      domain.MetricTypeVelocity,
		Name:      "SprintVelocity",
		Value:     value,
		Unit:      "points",
		Source:    "INTERNAL",
		TeamID:    &teamID,
		Timestamp: at,
	}
	if err := p.metrics.Create(ctx, &metric); err != nil {
		return err
	}
	// Cached velocity windows for the team are stale once a new observation
	// lands.
	if p.cache != nil {
		if err := p.cache.Invalidate(ctx, velocityKeyPrefix(teamID)); err != nil {
			p.logger.Debug("velocity cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}
