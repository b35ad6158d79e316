package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/service"
)

// SprintsHandler manages sprint lifecycle endpoints.
type SprintsHandler struct {
	service *service.SprintService
}

// NewSprintsHandler constructs handler.
func NewSprintsHandler(sprintService *service.SprintService) *SprintsHandler {
	return &SprintsHandler{service: sprintService}
}

// Start POST /sprints/:id/start.
func (h *SprintsHandler) Start(c *fiber.Ctx) error {
	sprint, err := h.service.StartSprint(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sprintResponse(sprint)})
}

// Complete POST /sprints/:id/complete.
func (h *SprintsHandler) Complete(c *fiber.Ctx) error {
	sprint, err := h.service.CompleteSprint(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sprintResponse(sprint)})
}

func sprintResponse(sprint *domain.Sprint) fiber.Map {
	return fiber.Map{
		"id":               sprint.ID,
		"external_id":      sprint.ExternalID,
		"name":             sprint.Name,
		"status":           sprint.Status,
		"team_id":          sprint.TeamID,
		"start_date":       sprint.StartDate,
		"end_date":         sprint.EndDate,
		"committed_points": sprint.CommittedPoints,
		"completed_points": sprint.CompletedPoints,
	}
}
