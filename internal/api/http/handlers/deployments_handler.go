package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/delivery-insights/internal/api/dto"
	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/repository"
	apperrors "github.com/spec-kit/delivery-insights/pkg/util"
)

// DeploymentsHandler records releases so frequency, lead time and failure
// rate have data to work from.
type DeploymentsHandler struct {
	deployments repository.DeploymentRepository
}

// NewDeploymentsHandler constructs handler.
func NewDeploymentsHandler(deployments repository.DeploymentRepository) *DeploymentsHandler {
	return &DeploymentsHandler{deployments: deployments}
}

// Create POST /deployments.
func (h *DeploymentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateDeploymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ProjectID) == "" {
		return apperrors.NewValidationError("project_id required", nil)
	}
	if strings.TrimSpace(req.Environment) == "" {
		return apperrors.NewValidationError("environment required", nil)
	}

	status := domain.DeploymentStatusSuccess
	if req.Status != "" {
		status = domain.DeploymentStatus(strings.ToUpper(req.Status))
		switch status {
		case domain.DeploymentStatusSuccess, domain.DeploymentStatusFailed,
			domain.DeploymentStatusInProgress, domain.DeploymentStatusRolledBack:
		default:
			return apperrors.NewValidationError("unknown status", map[string]any{"status": req.Status})
		}
	}

	deployedAt := time.Now().UTC()
	if req.DeployedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.DeployedAt)
		if err != nil {
			return apperrors.NewValidationError("deployed_at must be RFC3339", nil)
		}
		deployedAt = parsed
	}

	deployment := domain.Deployment{
		ProjectID:      req.ProjectID,
		Environment:    req.Environment,
		Status:         status,
		Version:        req.Version,
		CommitSHA:      req.CommitSHA,
		CausedIncident: req.CausedIncident,
		DeployedAt:     deployedAt,
	}
	if err := h.deployments.Create(c.UserContext(), &deployment); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": deploymentResponse(&deployment)})
}

func deploymentResponse(deployment *domain.Deployment) dto.DeploymentResponse {
	return dto.DeploymentResponse{
		ID:             deployment.ID,
		ProjectID:      deployment.ProjectID,
		Environment:    deployment.Environment,
		Status:         deployment.Status,
		Version:        deployment.Version,
		CommitSHA:      deployment.CommitSHA,
		CausedIncident: deployment.CausedIncident,
		DeployedAt:     deployment.DeployedAt,
		CreatedAt:      deployment.CreatedAt,
	}
}
