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
	"github.com/spec-kit/delivery-insights/internal/service/processor"
)

// SprintService drives the internal sprint lifecycle. Point snapshots are
// taken at transition time, not recomputed afterwards.
type SprintService struct {
	sprints    repository.SprintRepository
	tickets    repository.TicketRepository
	processor  *processor.MetricsProcessor
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewSprintService constructs the service.
func NewSprintService(sprints repository.SprintRepository, tickets repository.TicketRepository, metricsProcessor *processor.MetricsProcessor, dispatcher events.Dispatcher, logger *zap.Logger) *SprintService {
	return &SprintService{
		sprints:    sprints,
		tickets:    tickets,
		processor:  metricsProcessor,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// StartSprint transitions a planned sprint to active and snapshots the
// committed points from its current tickets.
func (s *SprintService) StartSprint(ctx context.Context, id string) (*domain.Sprint, error) {
	sprint, err := s.sprints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sprint.Status != domain.SprintStatusPlanned {
		return nil, errors.New("sprint is not planned")
	}

	committed, _, err := s.pointSums(ctx, id)
	if err != nil {
		return nil, err
	}
	sprint.Status = domain.SprintStatusActive
	sprint.CommittedPoints = committed
	if err := s.sprints.Update(ctx, sprint); err != nil {
		return nil, err
	}
	return sprint, nil
}

// CompleteSprint transitions an active sprint to completed, snapshots the
// completed points and appends a velocity metric for alert comparisons.
func (s *SprintService) CompleteSprint(ctx context.Context, id string) (*domain.Sprint, error) {
	sprint, err := s.sprints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sprint.Status != domain.SprintStatusActive {
		return nil, errors.New("sprint is not active")
	}

	_, completed, err := s.pointSums(ctx, id)
	if err != nil {
		return nil, err
	}
	sprint.Status = domain.SprintStatusCompleted
	sprint.CompletedPoints = completed
	if err := s.sprints.Update(ctx, sprint); err != nil {
		return nil, err
	}

	if sprint.TeamID != nil {
		if err := s.processor.SaveVelocityMetric(ctx, *sprint.TeamID, completed, s.now()); err != nil {
			s.logger.Warn("velocity metric write failed", zap.String("sprint", id), zap.Error(err))
		}
	}
	s.publish(ctx, events.Event{
		Type: events.EventSprintCompleted,
		Payload: events.SprintCompletedPayload{
			SprintID:        sprint.ID,
			TeamID:          sprint.TeamID,
			CompletedPoints: completed,
		},
	})
	return sprint, nil
}

func (s *SprintService) pointSums(ctx context.Context, sprintID string) (committed, completed float64, err error) {
	tickets, err := s.tickets.ListBySprint(ctx, sprintID)
	if err != nil {
		return 0, 0, err
	}
	for i := range tickets {
		if tickets[i].StoryPoints == nil {
			continue
		}
		committed += *tickets[i].StoryPoints
		if tickets[i].IsCompleted() {
			completed += *tickets[i].StoryPoints
		}
	}
	return committed, completed, nil
}

func (s *SprintService) publish(ctx context.Context, event events.Event) {
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
