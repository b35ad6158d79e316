package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/delivery-insights/internal/api/dto"
	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/service"
	apperrors "github.com/spec-kit/delivery-insights/pkg/util"
)

// IncidentsHandler manages incident lifecycle endpoints.
type IncidentsHandler struct {
	service *service.IncidentService
}

// NewIncidentsHandler constructs handler.
func NewIncidentsHandler(incidentService *service.IncidentService) *IncidentsHandler {
	return &IncidentsHandler{service: incidentService}
}

// Create POST /incidents.
func (h *IncidentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("title required", nil)
	}
	input := service.IncidentCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Severity:     domain.IncidentSeverity(strings.ToUpper(req.Severity)),
		TeamID:       req.TeamID,
		DeploymentID: req.DeploymentID,
	}
	if req.StartedAt != "" {
		startedAt, err := time.Parse(time.RFC3339, req.StartedAt)
		if err != nil {
			return apperrors.NewValidationError("started_at must be RFC3339", nil)
		}
		input.StartedAt = startedAt
	}
	incident, err := h.service.CreateIncident(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": incidentResponse(incident)})
}

// UpdateStatus PATCH /incidents/:id/status.
func (h *IncidentsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateIncidentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status := domain.IncidentStatus(strings.ToUpper(req.Status))
	switch status {
	case domain.IncidentStatusOpen, domain.IncidentStatusInvestigating, domain.IncidentStatusResolved:
	default:
		return apperrors.NewValidationError("unknown status", map[string]any{"status": req.Status})
	}
	incident, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incidentResponse(incident)})
}

// AdjustResolvedAt PATCH /incidents/:id/resolved-at.
func (h *IncidentsHandler) AdjustResolvedAt(c *fiber.Ctx) error {
	var req dto.AdjustIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	resolvedAt, err := time.Parse(time.RFC3339, req.ResolvedAt)
	if err != nil {
		return apperrors.NewValidationError("resolved_at must be RFC3339", nil)
	}
	incident, err := h.service.AdjustResolvedAt(c.UserContext(), c.Params("id"), resolvedAt)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incidentResponse(incident)})
}

// Metrics GET /incidents/metrics.
func (h *IncidentsHandler) Metrics(c *fiber.Ctx) error {
	rng, err := parseRange(c, 30)
	if err != nil {
		return err
	}
	metrics, err := h.service.GetIncidentMetrics(c.UserContext(), rng)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": metrics})
}

func incidentResponse(incident *domain.Incident) dto.IncidentResponse {
	return dto.IncidentResponse{
		ID:             incident.ID,
		Title:          incident.Title,
		Description:    incident.Description,
		Severity:       incident.Severity,
		Status:         incident.Status,
		TeamID:         incident.TeamID,
		DeploymentID:   incident.DeploymentID,
		StartedAt:      incident.StartedAt,
		AcknowledgedAt: incident.AcknowledgedAt,
		ResolvedAt:     incident.ResolvedAt,
		MTTRMinutes:    incident.MTTRMinutes,
		CreatedAt:      incident.CreatedAt,
	}
}
