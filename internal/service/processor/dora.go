package processor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/cache"
	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/repository"
	"github.com/spec-kit/delivery-insights/pkg/stats"
)

// PerformanceTier is the coarse DORA classification bucket.
type PerformanceTier string

const (
	TierElite  PerformanceTier = "ELITE"
	TierHigh   PerformanceTier = "HIGH"
	TierMedium PerformanceTier = "MEDIUM"
	TierLow    PerformanceTier = "LOW"
)

const doraCacheTTL = 10 * time.Minute

func (t PerformanceTier) score() float64 {
	switch t {
	case TierElite:
		return 4
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	default:
		return 1
	}
}

// DeploymentFrequency is the first DORA metric.
type DeploymentFrequency struct {
	Total   float64         `json:"total"`
	PerDay  float64         `json:"per_day"`
	PerWeek float64         `json:"per_week"`
	Tier    PerformanceTier `json:"tier"`
	Trend   string          `json:"trend"`
}

// LeadTime is the second DORA metric, in hours.
type LeadTime struct {
	MeanHours   float64         `json:"mean_hours"`
	MedianHours float64         `json:"median_hours"`
	P90Hours    float64         `json:"p90_hours"`
	Tier        PerformanceTier `json:"tier"`
}

// ChangeFailureRate is the third DORA metric, in percent.
type ChangeFailureRate struct {
	Total       int             `json:"total"`
	Failed      int             `json:"failed"`
	RatePercent float64         `json:"rate_percent"`
	Tier        PerformanceTier `json:"tier"`
}

// MTTR is the fourth DORA metric, in minutes.
type MTTR struct {
	Incidents   int             `json:"incidents"`
	MeanMinutes float64         `json:"mean_minutes"`
	Tier        PerformanceTier `json:"tier"`
}

// DoraReport bundles the four metrics with an overall classification.
type DoraReport struct {
	Range               domain.DateRange    `json:"range"`
	DeploymentFrequency DeploymentFrequency `json:"deployment_frequency"`
	LeadTime            LeadTime            `json:"lead_time"`
	ChangeFailureRate   ChangeFailureRate   `json:"change_failure_rate"`
	MTTR                MTTR                `json:"mttr"`
	Overall             PerformanceTier     `json:"overall"`
}

// DoraService computes the four DORA metrics over a date range. All
// calculations are pure reads.
type DoraService struct {
	deployments   repository.DeploymentRepository
	mergeRequests repository.MergeRequestRepository
	incidents     repository.IncidentRepository
	cache         cache.MetricsCache
	logger        *zap.Logger
}

// DoraDependencies bundles collaborators for the DORA service.
type DoraDependencies struct {
	DeploymentRepo   repository.DeploymentRepository
	MergeRequestRepo repository.MergeRequestRepository
	IncidentRepo     repository.IncidentRepository
	Cache            cache.MetricsCache
}

// NewDoraService constructs the service. Cache may be nil.
func NewDoraService(deps DoraDependencies, logger *zap.Logger) *DoraService {
	return &DoraService{
		deployments:   deps.DeploymentRepo,
		mergeRequests: deps.MergeRequestRepo,
		incidents:     deps.IncidentRepo,
		cache:         deps.Cache,
		logger:        logger,
	}
}

// Calculate computes all four metrics plus the overall classification.
func (s *DoraService) Calculate(ctx context.Context, rng domain.DateRange) (*DoraReport, error) {
	cacheKey := fmt.Sprintf("dora:%d:%d", rng.Start.Unix(), rng.End.Unix())
	if s.cache != nil {
		var cached DoraReport
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	frequency, err := s.DeploymentFrequency(ctx, rng)
	if err != nil {
		return nil, err
	}
	leadTime, err := s.LeadTime(ctx, rng)
	if err != nil {
		return nil, err
	}
	failureRate, err := s.ChangeFailureRate(ctx, rng)
	if err != nil {
		return nil, err
	}
	mttr, err := s.MTTR(ctx, rng)
	if err != nil {
		return nil, err
	}

	report := &DoraReport{
		Range:               rng,
		DeploymentFrequency: *frequency,
		LeadTime:            *leadTime,
		ChangeFailureRate:   *failureRate,
		MTTR:                *mttr,
		Overall:             overallTier(frequency.Tier, leadTime.Tier, failureRate.Tier, mttr.Tier),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, doraCacheTTL); err != nil {
			s.logger.Debug("dora cache write failed", zap.Error(err))
		}
	}
	return report, nil
}

// DeploymentFrequency counts deployments per day over the range. Absence of
// deployments classifies Low with a stable trend.
func (s *DoraService) DeploymentFrequency(ctx context.Context, rng domain.DateRange) (*DeploymentFrequency, error) {
	deployments, err := s.deployments.ListInRange(ctx, rng)
	if err != nil {
		return nil, err
	}
	if len(deployments) == 0 {
		return &DeploymentFrequency{Tier: TierLow, Trend: "stable"}, nil
	}

	days := float64(rng.Days())
	perDay := float64(len(deployments)) / days
	result := &DeploymentFrequency{
		Total:   float64(len(deployments)),
		PerDay:  perDay,
		PerWeek: perDay * 7,
	}

	switch {
	case perDay >= 1:
		result.Tier = TierElite
	case perDay*7 >= 1:
		result.Tier = TierHigh
	case perDay*30 >= 1:
		result.Tier = TierMedium
	default:
		result.Tier = TierLow
	}

	switch {
	case perDay > 1:
		result.Trend = "up"
	case perDay < 1.0/7:
		result.Trend = "down"
	default:
		result.Trend = "stable"
	}
	return result, nil
}

// LeadTime reports hours from merge request creation to deployment over
// merge requests merged in the range; ones not yet deployed are excluded
// from the sample. Absence of data classifies Low.
func (s *DoraService) LeadTime(ctx context.Context, rng domain.DateRange) (*LeadTime, error) {
	mergeRequests, err := s.mergeRequests.ListMergedInRange(ctx, rng)
	if err != nil {
		return nil, err
	}

	var hours []float64
	for i := range mergeRequests {
		if h := mergeRequests[i].LeadTimeHours(); h != nil {
			hours = append(hours, *h)
		}
	}
	if len(hours) == 0 {
		return &LeadTime{Tier: TierLow}, nil
	}

	result := &LeadTime{
		MeanHours:   stats.Mean(hours),
		MedianHours: stats.Median(hours),
		P90Hours:    stats.PercentileFloor(hours, 90),
	}
	// The tier tracks the mean, not the median; a handful of slow changes
	// is expected to pull a team out of Elite.
	switch {
	case result.MeanHours < 24:
		result.Tier = TierElite
	case result.MeanHours < 168:
		result.Tier = TierHigh
	case result.MeanHours < 720:
		result.Tier = TierMedium
	default:
		result.Tier = TierLow
	}
	return result, nil
}

// ChangeFailureRate reports the failed share of deployments in the range.
// Absence of deployments classifies Elite: no failures occurred.
func (s *DoraService) ChangeFailureRate(ctx context.Context, rng domain.DateRange) (*ChangeFailureRate, error) {
	deployments, err := s.deployments.ListInRange(ctx, rng)
	if err != nil {
		return nil, err
	}
	if len(deployments) == 0 {
		return &ChangeFailureRate{Tier: TierElite}, nil
	}

	result := &ChangeFailureRate{Total: len(deployments)}
	for i := range deployments {
		if deployments[i].IsFailed() {
			result.Failed++
		}
	}
	result.RatePercent = float64(result.Failed) / float64(result.Total) * 100

	switch {
	case result.RatePercent <= 5:
		result.Tier = TierElite
	case result.RatePercent <= 10:
		result.Tier = TierHigh
	case result.RatePercent <= 15:
		result.Tier = TierMedium
	default:
		result.Tier = TierLow
	}
	return result, nil
}

// MTTR reports the mean recovery minutes of incidents resolved in the range.
// Absence of incidents classifies Elite: nothing broke.
func (s *DoraService) MTTR(ctx context.Context, rng domain.DateRange) (*MTTR, error) {
	incidents, err := s.incidents.ListResolvedInRange(ctx, rng)
	if err != nil {
		return nil, err
	}

	var minutes []float64
	for i := range incidents {
		if incidents[i].MTTRMinutes != nil {
			minutes = append(minutes, *incidents[i].MTTRMinutes)
		}
	}
	if len(minutes) == 0 {
		return &MTTR{Tier: TierElite}, nil
	}

	result := &MTTR{
		Incidents:   len(minutes),
		MeanMinutes: stats.Mean(minutes),
	}
	switch {
	case result.MeanMinutes < 60:
		result.Tier = TierElite
	case result.MeanMinutes < 1440:
		result.Tier = TierHigh
	case result.MeanMinutes < 10080:
		result.Tier = TierMedium
	default:
		result.Tier = TierLow
	}
	return result, nil
}

// overallTier averages the four tiers' numeric scores and re-buckets.
func overallTier(tiers ...PerformanceTier) PerformanceTier {
	var sum float64
	for _, tier := range tiers {
		sum += tier.score()
	}
	avg := sum / float64(len(tiers))
	switch {
	case avg >= 3.5:
		return TierElite
	case avg >= 2.5:
		return TierHigh
	case avg >= 1.5:
		return TierMedium
	default:
		return TierLow
	}
}
