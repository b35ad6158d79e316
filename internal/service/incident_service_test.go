package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/events"
)

type memIncidentRepo struct {
	byID    map[string]*domain.Incident
	created []domain.Incident
	seq     int
}

func newMemIncidentRepo() *memIncidentRepo {
	return &memIncidentRepo{byID: map[string]*domain.Incident{}}
}

func (m *memIncidentRepo) Create(_ context.Context, incident *domain.Incident) error {
	m.seq++
	if incident.ID == "" {
		incident.ID = "inc-" + strconv.Itoa(m.seq)
	}
	copied := *incident
	m.byID[incident.ID] = &copied
	m.created = append(m.created, copied)
	return nil
}

func (m *memIncidentRepo) Update(_ context.Context, incident *domain.Incident) error {
	copied := *incident
	m.byID[incident.ID] = &copied
	return nil
}

func (m *memIncidentRepo) GetByID(_ context.Context, id string) (*domain.Incident, error) {
	copied := *m.byID[id]
	return &copied, nil
}

func (m *memIncidentRepo) ListResolvedInRange(_ context.Context, _ domain.DateRange) ([]domain.Incident, error) {
	return nil, nil
}

func (m *memIncidentRepo) ListCreatedInRange(_ context.Context, _ domain.DateRange) ([]domain.Incident, error) {
	var out []domain.Incident
	for _, incident := range m.byID {
		out = append(out, *incident)
	}
	return out, nil
}

func newTestIncidentService(repo *memIncidentRepo, dispatcher events.Dispatcher) *IncidentService {
	return NewIncidentService(repo, dispatcher, zap.NewNop())
}

func TestCreateIncidentDefaults(t *testing.T) {
	repo := newMemIncidentRepo()
	svc := newTestIncidentService(repo, nil)

	incident, err := svc.CreateIncident(context.Background(), IncidentCreateInput{Title: "api down"})
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusOpen, incident.Status)
	assert.Equal(t, domain.IncidentSeverityMedium, incident.Severity)
	assert.False(t, incident.StartedAt.IsZero())

	_, err = svc.CreateIncident(context.Background(), IncidentCreateInput{})
	assert.Error(t, err)
}

func TestUpdateStatusStampsAcknowledgedOnce(t *testing.T) {
	repo := newMemIncidentRepo()
	svc := newTestIncidentService(repo, nil)
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	incident, err := svc.CreateIncident(context.Background(), IncidentCreateInput{Title: "api down", StartedAt: base})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), incident.ID, domain.IncidentStatusInvestigating)
	require.NoError(t, err)
	require.NotNil(t, updated.AcknowledgedAt)
	assert.Equal(t, base, *updated.AcknowledgedAt)

	// Bouncing back to open and investigating again keeps the first stamp.
	_, err = svc.UpdateStatus(context.Background(), incident.ID, domain.IncidentStatusOpen)
	require.NoError(t, err)
	svc.now = func() time.Time { return base.Add(time.Hour) }
	updated, err = svc.UpdateStatus(context.Background(), incident.ID, domain.IncidentStatusInvestigating)
	require.NoError(t, err)
	assert.Equal(t, base, *updated.AcknowledgedAt)
}

func TestResolveComputesMTTROnce(t *testing.T) {
	repo := newMemIncidentRepo()
	dispatcher := &recordingDispatcher{}
	svc := newTestIncidentService(repo, dispatcher)
	started := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return started.Add(90 * time.Minute) }

	incident, err := svc.CreateIncident(context.Background(), IncidentCreateInput{Title: "api down", StartedAt: started})
	require.NoError(t, err)

	resolved, err := svc.UpdateStatus(context.Background(), incident.ID, domain.IncidentStatusResolved)
	require.NoError(t, err)
	require.NotNil(t, resolved.MTTRMinutes)
	assert.InDelta(t, 90.0, *resolved.MTTRMinutes, 1e-9)

	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventIncidentResolved, dispatcher.published[0].Type)
	payload, ok := dispatcher.published[0].Payload.(events.IncidentResolvedPayload)
	require.True(t, ok)
	assert.InDelta(t, 90.0, payload.MTTRMinutes, 1e-9)
}

func TestResolvedIsTerminal(t *testing.T) {
	repo := newMemIncidentRepo()
	svc := newTestIncidentService(repo, nil)

	incident, err := svc.CreateIncident(context.Background(), IncidentCreateInput{Title: "api down"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), incident.ID, domain.IncidentStatusResolved)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), incident.ID, domain.IncidentStatusOpen)
	assert.Error(t, err)
	_, err = svc.UpdateStatus(context.Background(), incident.ID, domain.IncidentStatusResolved)
	assert.Error(t, err)
}

func TestAdjustResolvedAtPreservesMTTR(t *testing.T) {
	repo := newMemIncidentRepo()
	svc := newTestIncidentService(repo, nil)
	started := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return started.Add(2 * time.Hour) }

	incident, err := svc.CreateIncident(context.Background(), IncidentCreateInput{Title: "api down", StartedAt: started})
	require.NoError(t, err)
	resolved, err := svc.UpdateStatus(context.Background(), incident.ID, domain.IncidentStatusResolved)
	require.NoError(t, err)
	require.NotNil(t, resolved.MTTRMinutes)
	originalMTTR := *resolved.MTTRMinutes

	corrected := started.Add(30 * time.Minute)
	adjusted, err := svc.AdjustResolvedAt(context.Background(), incident.ID, corrected)
	require.NoError(t, err)
	assert.Equal(t, corrected, *adjusted.ResolvedAt)
	assert.Equal(t, originalMTTR, *adjusted.MTTRMinutes)
}

func TestAdjustResolvedAtRequiresResolution(t *testing.T) {
	repo := newMemIncidentRepo()
	svc := newTestIncidentService(repo, nil)

	incident, err := svc.CreateIncident(context.Background(), IncidentCreateInput{Title: "api down"})
	require.NoError(t, err)
	_, err = svc.AdjustResolvedAt(context.Background(), incident.ID, time.Now())
	assert.Error(t, err)
}

func TestGetIncidentMetrics(t *testing.T) {
	repo := newMemIncidentRepo()
	svc := newTestIncidentService(repo, nil)
	mttr1, mttr2 := 60.0, 120.0
	resolvedAt := time.Now()
	repo.byID = map[string]*domain.Incident{
		"a": {ID: "a", Severity: domain.IncidentSeverityHigh, Status: domain.IncidentStatusResolved, ResolvedAt: &resolvedAt, MTTRMinutes: &mttr1},
		"b": {ID: "b", Severity: domain.IncidentSeverityHigh, Status: domain.IncidentStatusResolved, ResolvedAt: &resolvedAt, MTTRMinutes: &mttr2},
		"c": {ID: "c", Severity: domain.IncidentSeverityLow, Status: domain.IncidentStatusOpen},
	}

	metrics, err := svc.GetIncidentMetrics(context.Background(), domain.LastDays(30, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 3, metrics.Total)
	assert.Equal(t, 2, metrics.Resolved)
	assert.InDelta(t, 90.0, metrics.AvgMTTRMinutes, 1e-9)
	assert.Equal(t, 2, metrics.BySeverity[domain.IncidentSeverityHigh])
	assert.Equal(t, 1, metrics.BySeverity[domain.IncidentSeverityLow])
}
