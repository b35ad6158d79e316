package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/events"
	"github.com/spec-kit/delivery-insights/internal/repository"
)

// IncidentService manages the incident lifecycle and its derived MTTR.
type IncidentService struct {
	incidents  repository.IncidentRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewIncidentService constructs the service.
func NewIncidentService(incidents repository.IncidentRepository, dispatcher events.Dispatcher, logger *zap.Logger) *IncidentService {
	return &IncidentService{
		incidents:  incidents,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// IncidentCreateInput describes incident creation payload.
type IncidentCreateInput struct {
	Title        string
	Description  string
	Severity     domain.IncidentSeverity
	TeamID       *string
	DeploymentID *string
	StartedAt    time.Time
}

// IncidentMetrics summarizes incidents over a window.
type IncidentMetrics struct {
	Total          int                             `json:"total"`
	Resolved       int                             `json:"resolved"`
	AvgMTTRMinutes float64                         `json:"avg_mttr_minutes"`
	BySeverity     map[domain.IncidentSeverity]int `json:"by_severity"`
}

// CreateIncident opens a new incident.
func (s *IncidentService) CreateIncident(ctx context.Context, input IncidentCreateInput) (*domain.Incident, error) {
	if input.Title == "" {
		return nil, errors.New("incident title required")
	}
	startedAt := input.StartedAt
	if startedAt.IsZero() {
		startedAt = s.now()
	}
	incident := &domain.Incident{
		Title:        input.Title,
		Description:  input.Description,
		Severity:     input.Severity,
		Status:       domain.IncidentStatusOpen,
		TeamID:       input.TeamID,
		DeploymentID: input.DeploymentID,
		StartedAt:    startedAt,
	}
	if incident.Severity == "" {
		incident.Severity = domain.IncidentSeverityMedium
	}
	if err := s.incidents.Create(ctx, incident); err != nil {
		return nil, err
	}
	return incident, nil
}

// UpdateStatus transitions an incident. Moving to Investigating stamps the
// acknowledged time once; moving to Resolved stamps the resolved time and
// computes MTTR exactly once. Resolved is terminal.
func (s *IncidentService) UpdateStatus(ctx context.Context, id string, status domain.IncidentStatus) (*domain.Incident, error) {
	incident, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if incident.IsResolved() {
		return nil, errors.New("incident already resolved")
	}

	now := s.now()
	switch status {
	case domain.IncidentStatusInvestigating:
		if incident.AcknowledgedAt == nil {
			incident.AcknowledgedAt = &now
		}
	case domain.IncidentStatusResolved:
		incident.ResolvedAt = &now
		if incident.MTTRMinutes == nil {
			incident.MTTRMinutes = incident.RecoveryMinutes()
		}
	case domain.IncidentStatusOpen:
		// allowed, no timestamps to stamp
	default:
		return nil, errors.New("unknown incident status")
	}
	incident.Status = status

	if err := s.incidents.Update(ctx, incident); err != nil {
		return nil, err
	}
	if status == domain.IncidentStatusResolved {
		mttr := 0.0
		if incident.MTTRMinutes != nil {
			mttr = *incident.MTTRMinutes
		}
		s.publish(ctx, events.Event{
			Type: events.EventIncidentResolved,
			Payload: events.IncidentResolvedPayload{
				IncidentID:  incident.ID,
				Severity:    incident.Severity,
				MTTRMinutes: mttr,
			},
		})
	}
	return incident, nil
}

// AdjustResolvedAt corrects the resolution timestamp after the fact. The
// stored MTTR stays as computed at resolution time.
func (s *IncidentService) AdjustResolvedAt(ctx context.Context, id string, resolvedAt time.Time) (*domain.Incident, error) {
	incident, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !incident.IsResolved() {
		return nil, errors.New("incident not resolved")
	}
	incident.ResolvedAt = &resolvedAt
	if err := s.incidents.Update(ctx, incident); err != nil {
		return nil, err
	}
	return incident, nil
}

// GetIncidentMetrics summarizes incidents started within the range.
func (s *IncidentService) GetIncidentMetrics(ctx context.Context, rng domain.DateRange) (*IncidentMetrics, error) {
	incidents, err := s.incidents.ListCreatedInRange(ctx, rng)
	if err != nil {
		return nil, err
	}

	result := &IncidentMetrics{
		Total:      len(incidents),
		BySeverity: make(map[domain.IncidentSeverity]int),
	}
	var mttrSum float64
	var mttrCount int
	for i := range incidents {
		incident := &incidents[i]
		result.BySeverity[incident.Severity]++
		if incident.IsResolved() {
			result.Resolved++
		}
		if incident.MTTRMinutes != nil {
			mttrSum += *incident.MTTRMinutes
			mttrCount++
		}
	}
	if mttrCount > 0 {
		result.AvgMTTRMinutes = mttrSum / float64(mttrCount)
	}
	return result, nil
}

func (s *IncidentService) publish(ctx context.Context, event events.Event) {
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
