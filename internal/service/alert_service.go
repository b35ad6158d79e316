package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/config"
	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/events"
	"github.com/spec-kit/delivery-insights/internal/repository"
)

// Trailing window compared against its preceding twin for velocity drops,
// and the lookback for burnout signals.
const checkWindowDays = 14

// AlertService evaluates thresholds and manages the alert lifecycle.
type AlertService struct {
	alerts     repository.AlertRepository
	metrics    repository.MetricRepository
	commits    repository.CommitRepository
	developers repository.DeveloperRepository
	dispatcher events.Dispatcher
	thresholds config.AlertConfig
	logger     *zap.Logger
	now        func() time.Time
}

// AlertDependencies bundles collaborators for the alert service.
type AlertDependencies struct {
	AlertRepo     repository.AlertRepository
	MetricRepo    repository.MetricRepository
	CommitRepo    repository.CommitRepository
	DeveloperRepo repository.DeveloperRepository
	Dispatcher    events.Dispatcher
}

// NewAlertService constructs the service.
func NewAlertService(thresholds config.AlertConfig, deps AlertDependencies, logger *zap.Logger) *AlertService {
	return &AlertService{
		alerts:     deps.AlertRepo,
		metrics:    deps.MetricRepo,
		commits:    deps.CommitRepo,
		developers: deps.DeveloperRepo,
		dispatcher: deps.Dispatcher,
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateAlert persists an alert and publishes an alert-created event.
func (s *AlertService) CreateAlert(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type: events.EventAlertCreated,
		Payload: events.AlertCreatedPayload{
			AlertID:     alert.ID,
			AlertType:   alert.Type,
			Severity:    alert.Severity,
			Message:     alert.Message,
			TeamID:      alert.TeamID,
			DeveloperID: alert.DeveloperID,
		},
	})
	return alert, nil
}

// AcknowledgeAlert marks an alert acknowledged. Re-invoking on an already
// acknowledged or resolved alert re-stamps metadata and never errors.
func (s *AlertService) AcknowledgeAlert(ctx context.Context, id, actor string) (*domain.Alert, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	alert.Acknowledged = true
	alert.AcknowledgedBy = actor
	alert.AcknowledgedAt = &now
	if err := s.alerts.Update(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// ResolveAlert marks an alert resolved. Resolution does not require prior
// acknowledgement and is terminal-idempotent.
func (s *AlertService) ResolveAlert(ctx context.Context, id, resolution, actor string) (*domain.Alert, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	alert.Resolved = true
	alert.ResolvedBy = actor
	alert.Resolution = resolution
	alert.ResolvedAt = &now
	if err := s.alerts.Update(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// ListUnresolved returns currently open alerts, newest first.
func (s *AlertService) ListUnresolved(ctx context.Context, limit int) ([]domain.Alert, error) {
	return s.alerts.ListUnresolved(ctx, limit)
}

// CheckVelocityThresholds compares the trailing 14-day mean velocity against
// the preceding 14-day window and creates an alert when the drop reaches the
// configured threshold. A zero previous window never alerts.
func (s *AlertService) CheckVelocityThresholds(ctx context.Context, teamID string) (*domain.Alert, error) {
	now := s.now()
	current := domain.DateRange{Start: now.AddDate(0, 0, -checkWindowDays), End: now}
	previous := domain.DateRange{
		Start: now.AddDate(0, 0, -2*checkWindowDays),
		End:   current.Start,
	}

	currentAvg, err := s.metrics.AverageValueForTeam(ctx, domain.MetricTypeVelocity, teamID, current)
	if err != nil {
		return nil, err
	}
	previousAvg, err := s.metrics.AverageValueForTeam(ctx, domain.MetricTypeVelocity, teamID, previous)
	if err != nil {
		return nil, err
	}
	if previousAvg == nil || *previousAvg <= 0 {
		return nil, nil
	}

	currentValue := 0.0
	if currentAvg != nil {
		currentValue = *currentAvg
	}
	dropPercent := (*previousAvg - currentValue) / *previousAvg * 100
	if dropPercent < s.thresholds.VelocityDropPercent {
		return nil, nil
	}

	severity := domain.AlertSeverityWarning
	if dropPercent >= 30 {
		severity = domain.AlertSeverityCritical
	}
	alert := &domain.Alert{
		Type:     domain.AlertTypeVelocityDrop,
		Severity: severity,
		Message:  fmt.Sprintf("team velocity dropped %.1f%% against the previous %d days", dropPercent, checkWindowDays),
		TeamID:   &teamID,
		Metadata: map[string]string{
			"current_velocity":  formatFloat(currentValue),
			"previous_velocity": formatFloat(*previousAvg),
			"drop_percent":      formatFloat(dropPercent),
		},
	}
	return s.CreateAlert(ctx, alert)
}

// CheckBurnoutRisk evaluates a developer's trailing 14 days of commits for
// after-hours ratio and weekend work. Both checks run unconditionally; each
// breach creates its own alert.
func (s *AlertService) CheckBurnoutRisk(ctx context.Context, developerID string) ([]domain.Alert, error) {
	since := s.now().AddDate(0, 0, -checkWindowDays)
	commits, err := s.commits.ListByDeveloperSince(ctx, developerID, since)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}

	afterHours := 0
	weekend := 0
	for i := range commits {
		if commits[i].IsAfterHours() {
			afterHours++
		}
		if commits[i].IsWeekend() {
			weekend++
		}
	}

	var created []domain.Alert
	ratio := float64(afterHours) / float64(len(commits)) * 100
	if ratio >= s.thresholds.AfterHoursPercent {
		severity := domain.AlertSeverityMedium
		if ratio >= 50 {
			severity = domain.AlertSeverityHigh
		}
		alert := &domain.Alert{
			Type:        domain.AlertTypeBurnoutRisk,
			Severity:    severity,
			Message:     fmt.Sprintf("%.0f%% of commits in the last %d days were after hours", ratio, checkWindowDays),
			DeveloperID: &developerID,
			Metadata: map[string]string{
				"after_hours_commits": strconv.Itoa(afterHours),
				"total_commits":       strconv.Itoa(len(commits)),
				"after_hours_percent": formatFloat(ratio),
			},
		}
		if _, err := s.CreateAlert(ctx, alert); err != nil {
			s.logger.Warn("burnout alert creation failed", zap.String("developer", developerID), zap.Error(err))
		} else {
			created = append(created, *alert)
		}
	}

	if weekend >= s.thresholds.WeekendCommits {
		alert := &domain.Alert{
			Type:        domain.AlertTypeWeekendWork,
			Severity:    domain.AlertSeverityMedium,
			Message:     fmt.Sprintf("%d weekend commits in the last %d days", weekend, checkWindowDays),
			DeveloperID: &developerID,
			Metadata: map[string]string{
				"weekend_commits": strconv.Itoa(weekend),
				"total_commits":   strconv.Itoa(len(commits)),
			},
		}
		if _, err := s.CreateAlert(ctx, alert); err != nil {
			s.logger.Warn("weekend alert creation failed", zap.String("developer", developerID), zap.Error(err))
		} else {
			created = append(created, *alert)
		}
	}
	return created, nil
}

// CheckInfrastructureThresholds evaluates incoming metrics against the
// configured cpu/memory/error thresholds. Every evaluation that finds a
// breach creates a new alert row; there is no deduplication against prior
// open alerts for the same condition.
func (s *AlertService) CheckInfrastructureThresholds(ctx context.Context, teamID *string, metrics []domain.Metric) []domain.Alert {
	var created []domain.Alert
	for i := range metrics {
		metric := &metrics[i]
		severity, threshold, breached := s.infraBreach(metric)
		if !breached {
			continue
		}
		alert := &domain.Alert{
			Type:     domain.AlertTypeInfrastructure,
			Severity: severity,
			Message:  fmt.Sprintf("%s at %.1f exceeds threshold %.1f", metric.Name, metric.Value, threshold),
			MetricID: nonEmptyID(metric.ID),
			TeamID:   teamID,
			Metadata: map[string]string{
				"metric_name": metric.Name,
				"value":       formatFloat(metric.Value),
				"threshold":   formatFloat(threshold),
			},
		}
		if _, err := s.CreateAlert(ctx, alert); err != nil {
			s.logger.Warn("infrastructure alert creation failed", zap.String("metric", metric.Name), zap.Error(err))
			continue
		}
		created = append(created, *alert)
	}
	return created
}

func (s *AlertService) infraBreach(metric *domain.Metric) (domain.AlertSeverity, float64, bool) {
	name := strings.ToLower(metric.Name)
	switch {
	case strings.Contains(name, "cpu"):
		return domain.AlertSeverityWarning, s.thresholds.CPUPercent, metric.Value >= s.thresholds.CPUPercent
	case strings.Contains(name, "memory"):
		return domain.AlertSeverityWarning, s.thresholds.MemoryPercent, metric.Value >= s.thresholds.MemoryPercent
	case strings.Contains(name, "error"):
		return domain.AlertSeverityCritical, s.thresholds.ErrorRatePercent, metric.Value >= s.thresholds.ErrorRatePercent
	default:
		return "", 0, false
	}
}

func (s *AlertService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func nonEmptyID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
