package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/config"
	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/events"
)

type memAlertRepo struct {
	byID    map[string]*domain.Alert
	created []domain.Alert
	seq     int
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{byID: map[string]*domain.Alert{}}
}

func (m *memAlertRepo) Create(_ context.Context, alert *domain.Alert) error {
	m.seq++
	if alert.ID == "" {
		alert.ID = "alert-" + strconv.Itoa(m.seq)
	}
	copied := *alert
	m.byID[alert.ID] = &copied
	m.created = append(m.created, copied)
	return nil
}

func (m *memAlertRepo) Update(_ context.Context, alert *domain.Alert) error {
	copied := *alert
	m.byID[alert.ID] = &copied
	return nil
}

func (m *memAlertRepo) GetByID(_ context.Context, id string) (*domain.Alert, error) {
	alert := m.byID[id]
	copied := *alert
	return &copied, nil
}

func (m *memAlertRepo) ListUnresolved(_ context.Context, _ int) ([]domain.Alert, error) {
	var out []domain.Alert
	for _, alert := range m.byID {
		if !alert.Resolved {
			out = append(out, *alert)
		}
	}
	return out, nil
}

type windowMetricRepo struct {
	averages []*float64
	calls    int
}

func (w *windowMetricRepo) Create(_ context.Context, _ *domain.Metric) error { return nil }
func (w *windowMetricRepo) ListByTypeInRange(_ context.Context, _ domain.MetricType, _ domain.DateRange) ([]domain.Metric, error) {
	return nil, nil
}
func (w *windowMetricRepo) AverageValueForTeam(_ context.Context, _ domain.MetricType, _ string, _ domain.DateRange) (*float64, error) {
	avg := w.averages[w.calls]
	w.calls++
	return avg, nil
}
func (w *windowMetricRepo) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type listCommitRepo struct {
	commits []domain.Commit
}

func (l *listCommitRepo) Create(_ context.Context, _ *domain.Commit) error { return nil }
func (l *listCommitRepo) ExistsBySHA(_ context.Context, _ string) (bool, error) {
	return false, nil
}
func (l *listCommitRepo) ListByDeveloperSince(_ context.Context, _ string, _ time.Time) ([]domain.Commit, error) {
	return l.commits, nil
}

type nilDeveloperRepo struct{}

func (nilDeveloperRepo) Create(_ context.Context, _ *domain.Developer) error { return nil }
func (nilDeveloperRepo) GetByID(_ context.Context, _ string) (*domain.Developer, error) {
	return nil, nil
}
func (nilDeveloperRepo) FindByEmail(_ context.Context, _ string) (*domain.Developer, error) {
	return nil, nil
}
func (nilDeveloperRepo) ListByTeam(_ context.Context, _ string) ([]domain.Developer, error) {
	return nil, nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (r *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	r.published = append(r.published, event)
	return nil
}

func (r *recordingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func avg(v float64) *float64 { return &v }

func defaultAlertConfig() config.AlertConfig {
	return config.AlertConfig{
		VelocityDropPercent: 20,
		AfterHoursPercent:   30,
		WeekendCommits:      5,
		CPUPercent:          80,
		MemoryPercent:       85,
		ErrorRatePercent:    1.0,
	}
}

func newTestAlertService(alerts *memAlertRepo, metrics *windowMetricRepo, commits *listCommitRepo, dispatcher *recordingDispatcher) *AlertService {
	if metrics == nil {
		metrics = &windowMetricRepo{}
	}
	if commits == nil {
		commits = &listCommitRepo{}
	}
	deps := AlertDependencies{
		AlertRepo:     alerts,
		MetricRepo:    metrics,
		CommitRepo:    commits,
		DeveloperRepo: nilDeveloperRepo{},
	}
	if dispatcher != nil {
		deps.Dispatcher = dispatcher
	}
	return NewAlertService(defaultAlertConfig(), deps, zap.NewNop())
}

func TestCheckVelocityThresholds(t *testing.T) {
	tests := []struct {
		name             string
		current          *float64
		previous         *float64
		expectAlert      bool
		expectedSeverity domain.AlertSeverity
	}{
		{"drop below threshold is quiet", avg(45), avg(50), false, ""},
		{"twenty percent drop warns", avg(40), avg(50), true, domain.AlertSeverityWarning},
		{"thirty percent drop is critical", avg(35), avg(50), true, domain.AlertSeverityCritical},
		{"no previous data never alerts", avg(40), nil, false, ""},
		{"zero previous never alerts", avg(0), avg(0), false, ""},
		{"missing current counts as zero", nil, avg(50), true, domain.AlertSeverityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := newMemAlertRepo()
			metrics := &windowMetricRepo{averages: []*float64{tt.current, tt.previous}}
			svc := newTestAlertService(alerts, metrics, nil, nil)

			alert, err := svc.CheckVelocityThresholds(context.Background(), "team-1")
			require.NoError(t, err)
			if !tt.expectAlert {
				assert.Nil(t, alert)
				assert.Empty(t, alerts.created)
				return
			}
			require.NotNil(t, alert)
			assert.Equal(t, domain.AlertTypeVelocityDrop, alert.Type)
			assert.Equal(t, tt.expectedSeverity, alert.Severity)
			assert.Equal(t, "team-1", *alert.TeamID)
		})
	}
}

func TestCheckVelocityThresholdsPublishesEvent(t *testing.T) {
	alerts := newMemAlertRepo()
	metrics := &windowMetricRepo{averages: []*float64{avg(30), avg(50)}}
	dispatcher := &recordingDispatcher{}
	svc := newTestAlertService(alerts, metrics, nil, dispatcher)

	_, err := svc.CheckVelocityThresholds(context.Background(), "team-1")
	require.NoError(t, err)
	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventAlertCreated, dispatcher.published[0].Type)
}

func commitAt(t time.Time) domain.Commit {
	return domain.Commit{CommittedAt: t}
}

func TestCheckBurnoutRiskAfterHours(t *testing.T) {
	// 2026-01-05 is a Monday.
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	commits := []domain.Commit{
		commitAt(day.Add(22 * time.Hour)),
		commitAt(day.Add(23 * time.Hour)),
		commitAt(day.Add(21 * time.Hour)),
		commitAt(day.Add(10 * time.Hour)),
		commitAt(day.Add(11 * time.Hour)),
	}
	alerts := newMemAlertRepo()
	svc := newTestAlertService(alerts, nil, &listCommitRepo{commits: commits}, nil)

	created, err := svc.CheckBurnoutRisk(context.Background(), "dev-1")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, domain.AlertTypeBurnoutRisk, created[0].Type)
	// 60% after hours crosses the 50% severity step.
	assert.Equal(t, domain.AlertSeverityHigh, created[0].Severity)
	assert.Equal(t, "dev-1", *created[0].DeveloperID)
}

func TestCheckBurnoutRiskMediumBelowFifty(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	commits := []domain.Commit{
		commitAt(day.Add(22 * time.Hour)),
		commitAt(day.Add(23 * time.Hour)),
		commitAt(day.Add(10 * time.Hour)),
		commitAt(day.Add(11 * time.Hour)),
		commitAt(day.Add(12 * time.Hour)),
	}
	alerts := newMemAlertRepo()
	svc := newTestAlertService(alerts, nil, &listCommitRepo{commits: commits}, nil)

	created, err := svc.CheckBurnoutRisk(context.Background(), "dev-1")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, domain.AlertSeverityMedium, created[0].Severity)
}

func TestCheckBurnoutRiskWeekendWorkIsSeparateAlert(t *testing.T) {
	// 2026-01-03 is a Saturday; five weekend commits during working hours.
	saturday := time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)
	var commits []domain.Commit
	for i := 0; i < 5; i++ {
		commits = append(commits, commitAt(saturday.Add(time.Duration(i)*time.Hour)))
	}
	// Plenty of weekday daytime commits keep the after-hours ratio low.
	monday := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		commits = append(commits, commitAt(monday.Add(time.Duration(i%7)*time.Minute)))
	}
	alerts := newMemAlertRepo()
	svc := newTestAlertService(alerts, nil, &listCommitRepo{commits: commits}, nil)

	created, err := svc.CheckBurnoutRisk(context.Background(), "dev-1")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, domain.AlertTypeWeekendWork, created[0].Type)
	assert.Equal(t, domain.AlertSeverityMedium, created[0].Severity)
}

func TestCheckBurnoutRiskBothAlerts(t *testing.T) {
	// All commits land on weekend nights: both checks fire independently.
	saturday := time.Date(2026, 1, 3, 23, 0, 0, 0, time.UTC)
	var commits []domain.Commit
	for i := 0; i < 6; i++ {
		commits = append(commits, commitAt(saturday.Add(time.Duration(i)*time.Minute)))
	}
	alerts := newMemAlertRepo()
	svc := newTestAlertService(alerts, nil, &listCommitRepo{commits: commits}, nil)

	created, err := svc.CheckBurnoutRisk(context.Background(), "dev-1")
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, domain.AlertTypeBurnoutRisk, created[0].Type)
	assert.Equal(t, domain.AlertTypeWeekendWork, created[1].Type)
}

func TestCheckBurnoutRiskNoCommits(t *testing.T) {
	svc := newTestAlertService(newMemAlertRepo(), nil, &listCommitRepo{}, nil)
	created, err := svc.CheckBurnoutRisk(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Nil(t, created)
}

func TestCheckInfrastructureThresholds(t *testing.T) {
	teamID := "team-1"
	metrics := []domain.Metric{
		{Name: "CPUUtilization", Value: 92},
		{Name: "MemoryUtilization", Value: 70},
		{Name: "Errors", Value: 2.5},
		{Name: "RequestCount", Value: 100000},
	}
	alerts := newMemAlertRepo()
	svc := newTestAlertService(alerts, nil, nil, nil)

	created := svc.CheckInfrastructureThresholds(context.Background(), &teamID, metrics)
	require.Len(t, created, 2)
	assert.Equal(t, domain.AlertSeverityWarning, created[0].Severity)
	assert.Equal(t, domain.AlertSeverityCritical, created[1].Severity)
	for _, alert := range created {
		assert.Equal(t, domain.AlertTypeInfrastructure, alert.Type)
		assert.Equal(t, "team-1", *alert.TeamID)
	}
}

func TestCheckInfrastructureThresholdsDoesNotDeduplicate(t *testing.T) {
	metrics := []domain.Metric{{Name: "CPUUtilization", Value: 95}}
	alerts := newMemAlertRepo()
	svc := newTestAlertService(alerts, nil, nil, nil)

	svc.CheckInfrastructureThresholds(context.Background(), nil, metrics)
	svc.CheckInfrastructureThresholds(context.Background(), nil, metrics)
	assert.Len(t, alerts.created, 2)
}

func TestAcknowledgeAndResolveAreIdempotent(t *testing.T) {
	alerts := newMemAlertRepo()
	svc := newTestAlertService(alerts, nil, nil, nil)
	created, err := svc.CreateAlert(context.Background(), &domain.Alert{
		Type:     domain.AlertTypeInfrastructure,
		Severity: domain.AlertSeverityWarning,
		Message:  "cpu high",
	})
	require.NoError(t, err)

	first, err := svc.AcknowledgeAlert(context.Background(), created.ID, "alice")
	require.NoError(t, err)
	assert.True(t, first.Acknowledged)
	assert.Equal(t, "alice", first.AcknowledgedBy)

	second, err := svc.AcknowledgeAlert(context.Background(), created.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", second.AcknowledgedBy)

	resolved, err := svc.ResolveAlert(context.Background(), created.ID, "scaled out", "carol")
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "scaled out", resolved.Resolution)

	again, err := svc.ResolveAlert(context.Background(), created.ID, "noop", "dave")
	require.NoError(t, err)
	assert.Equal(t, "dave", again.ResolvedBy)
}
