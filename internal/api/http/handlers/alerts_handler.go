package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/delivery-insights/internal/api/dto"
	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/service"
	apperrors "github.com/spec-kit/delivery-insights/pkg/util"
)

// AlertsHandler manages alert listing and lifecycle endpoints.
type AlertsHandler struct {
	service *service.AlertService
}

// NewAlertsHandler constructs handler.
func NewAlertsHandler(alertService *service.AlertService) *AlertsHandler {
	return &AlertsHandler{service: alertService}
}

// ListUnresolved GET /alerts.
func (h *AlertsHandler) ListUnresolved(c *fiber.Ctx) error {
	limit := parseInt(c.Query("limit"), 50)
	alerts, err := h.service.ListUnresolved(c.UserContext(), limit)
	if err != nil {
		return err
	}
	items := make([]dto.AlertResponse, 0, len(alerts))
	for i := range alerts {
		items = append(items, alertResponse(&alerts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Acknowledge POST /alerts/:id/acknowledge.
func (h *AlertsHandler) Acknowledge(c *fiber.Ctx) error {
	var req dto.AcknowledgeAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Actor) == "" {
		return apperrors.NewValidationError("actor required", nil)
	}
	alert, err := h.service.AcknowledgeAlert(c.UserContext(), c.Params("id"), req.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": alertResponse(alert)})
}

// Resolve POST /alerts/:id/resolve.
func (h *AlertsHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Actor) == "" {
		return apperrors.NewValidationError("actor required", nil)
	}
	alert, err := h.service.ResolveAlert(c.UserContext(), c.Params("id"), req.Resolution, req.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": alertResponse(alert)})
}

func alertResponse(alert *domain.Alert) dto.AlertResponse {
	return dto.AlertResponse{
		ID:             alert.ID,
		Type:           alert.Type,
		Severity:       alert.Severity,
		Message:        alert.Message,
		TeamID:         alert.TeamID,
		DeveloperID:    alert.DeveloperID,
		Acknowledged:   alert.Acknowledged,
		AcknowledgedBy: alert.AcknowledgedBy,
		AcknowledgedAt: alert.AcknowledgedAt,
		Resolved:       alert.Resolved,
		ResolvedBy:     alert.ResolvedBy,
		Resolution:     alert.Resolution,
		ResolvedAt:     alert.ResolvedAt,
		Metadata:       alert.Metadata,
		CreatedAt:      alert.CreatedAt,
	}
}
