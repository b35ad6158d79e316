package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/events"
	"github.com/spec-kit/delivery-insights/internal/service/processor"
)

type lifecycleSprintRepo struct {
	byID map[string]*domain.Sprint
}

func (r *lifecycleSprintRepo) Create(_ context.Context, sprint *domain.Sprint) error {
	copied := *sprint
	r.byID[sprint.ID] = &copied
	return nil
}

func (r *lifecycleSprintRepo) Update(_ context.Context, sprint *domain.Sprint) error {
	copied := *sprint
	r.byID[sprint.ID] = &copied
	return nil
}

func (r *lifecycleSprintRepo) GetByID(_ context.Context, id string) (*domain.Sprint, error) {
	copied := *r.byID[id]
	return &copied, nil
}

func (r *lifecycleSprintRepo) ExistsByExternalID(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (r *lifecycleSprintRepo) ListRecentByTeam(_ context.Context, _ string, _ int) ([]domain.Sprint, error) {
	return nil, nil
}

type lifecycleTicketRepo struct {
	bySprint map[string][]domain.Ticket
}

func (r *lifecycleTicketRepo) Create(_ context.Context, _ *domain.Ticket) error { return nil }
func (r *lifecycleTicketRepo) Update(_ context.Context, _ *domain.Ticket) error { return nil }
func (r *lifecycleTicketRepo) GetByID(_ context.Context, _ string) (*domain.Ticket, error) {
	return nil, nil
}

func (r *lifecycleTicketRepo) GetByExternalID(_ context.Context, _ string, _ domain.TicketSource) (*domain.Ticket, error) {
	return nil, nil
}

func (r *lifecycleTicketRepo) ListBySprint(_ context.Context, sprintID string) ([]domain.Ticket, error) {
	return r.bySprint[sprintID], nil
}

type captureMetricRepo struct {
	created []domain.Metric
}

func (r *captureMetricRepo) Create(_ context.Context, metric *domain.Metric) error {
	r.created = append(r.created, *metric)
	return nil
}

func (r *captureMetricRepo) ListByTypeInRange(_ context.Context, _ domain.MetricType, _ domain.DateRange) ([]domain.Metric, error) {
	return nil, nil
}

func (r *captureMetricRepo) AverageValueForTeam(_ context.Context, _ domain.MetricType, _ string, _ domain.DateRange) (*float64, error) {
	return nil, nil
}

func (r *captureMetricRepo) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func pts(v float64) *float64 { return &v }

func sprintTickets() []domain.Ticket {
	return []domain.Ticket{
		{ID: "t-1", Status: domain.TicketStatusDone, StoryPoints: pts(5)},
		{ID: "t-2", Status: domain.TicketStatusClosed, StoryPoints: pts(3)},
		{ID: "t-3", Status: domain.TicketStatusInProgress, StoryPoints: pts(8)},
		{ID: "t-4", Status: domain.TicketStatusTodo, StoryPoints: nil},
	}
}

func newTestSprintService(sprints *lifecycleSprintRepo, tickets *lifecycleTicketRepo, metrics *captureMetricRepo, dispatcher events.Dispatcher) *SprintService {
	proc := processor.NewMetricsProcessor(processor.ProcessorDependencies{
		SprintRepo: sprints,
		TicketRepo: tickets,
		MetricRepo: metrics,
	}, zap.NewNop())
	return NewSprintService(sprints, tickets, proc, dispatcher, zap.NewNop())
}

func TestStartSprintSnapshotsCommittedPoints(t *testing.T) {
	sprints := &lifecycleSprintRepo{byID: map[string]*domain.Sprint{
		"s-1": {ID: "s-1", Status: domain.SprintStatusPlanned},
	}}
	tickets := &lifecycleTicketRepo{bySprint: map[string][]domain.Ticket{"s-1": sprintTickets()}}
	svc := newTestSprintService(sprints, tickets, &captureMetricRepo{}, nil)

	sprint, err := svc.StartSprint(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SprintStatusActive, sprint.Status)
	assert.InDelta(t, 16.0, sprint.CommittedPoints, 1e-9)
}

func TestStartSprintRejectsNonPlanned(t *testing.T) {
	sprints := &lifecycleSprintRepo{byID: map[string]*domain.Sprint{
		"s-1": {ID: "s-1", Status: domain.SprintStatusActive},
	}}
	svc := newTestSprintService(sprints, &lifecycleTicketRepo{}, &captureMetricRepo{}, nil)

	_, err := svc.StartSprint(context.Background(), "s-1")
	assert.Error(t, err)
}

func TestCompleteSprintSnapshotsAndRecordsVelocity(t *testing.T) {
	teamID := "team-1"
	sprints := &lifecycleSprintRepo{byID: map[string]*domain.Sprint{
		"s-1": {ID: "s-1", Status: domain.SprintStatusActive, TeamID: &teamID},
	}}
	tickets := &lifecycleTicketRepo{bySprint: map[string][]domain.Ticket{"s-1": sprintTickets()}}
	metrics := &captureMetricRepo{}
	dispatcher := &recordingDispatcher{}
	svc := newTestSprintService(sprints, tickets, metrics, dispatcher)
	completedAt := time.Date(2026, 6, 12, 17, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return completedAt }

	sprint, err := svc.CompleteSprint(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SprintStatusCompleted, sprint.Status)
	assert.InDelta(t, 8.0, sprint.CompletedPoints, 1e-9)

	require.Len(t, metrics.created, 1)
	assert.Equal(t, domain.MetricTypeVelocity, metrics.created[0].Type)
	require.NotNil(t, metrics.created[0].TeamID)
	assert.Equal(t, teamID, *metrics.created[0].TeamID)
	assert.InDelta(t, 8.0, metrics.created[0].Value, 1e-9)

	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventSprintCompleted, dispatcher.published[0].Type)
	payload, ok := dispatcher.published[0].Payload.(events.SprintCompletedPayload)
	require.True(t, ok)
	assert.InDelta(t, 8.0, payload.CompletedPoints, 1e-9)
}

func TestCompleteSprintWithoutTeamSkipsVelocityMetric(t *testing.T) {
	sprints := &lifecycleSprintRepo{byID: map[string]*domain.Sprint{
		"s-1": {ID: "s-1", Status: domain.SprintStatusActive},
	}}
	tickets := &lifecycleTicketRepo{bySprint: map[string][]domain.Ticket{"s-1": sprintTickets()}}
	metrics := &captureMetricRepo{}
	svc := newTestSprintService(sprints, tickets, metrics, nil)

	_, err := svc.CompleteSprint(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Empty(t, metrics.created)
}

func TestCompleteSprintRejectsNonActive(t *testing.T) {
	sprints := &lifecycleSprintRepo{byID: map[string]*domain.Sprint{
		"s-1": {ID: "s-1", Status: domain.SprintStatusCompleted},
	}}
	svc := newTestSprintService(sprints, &lifecycleTicketRepo{}, &captureMetricRepo{}, nil)

	_, err := svc.CompleteSprint(context.Background(), "s-1")
	assert.Error(t, err)
}
