package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// DeploymentRepository encapsulates deployment persistence.
type DeploymentRepository interface {
	Create(ctx context.Context, deployment *domain.Deployment) error
	ListInRange(ctx context.Context, rng domain.DateRange) ([]domain.Deployment, error)
}

type deploymentRepository struct {
	pool *pgxpool.Pool
}

// NewDeploymentRepository instantiates repository.
func NewDeploymentRepository(pool *pgxpool.Pool) DeploymentRepository {
	return &deploymentRepository{pool: pool}
}

func (r *deploymentRepository) Create(ctx context.Context, deployment *domain.Deployment) error {
	const query = `
        INSERT INTO deployments (project_id, environment, status, version, commit_sha, caused_incident, deployed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		deployment.ProjectID,
		deployment.Environment,
		deployment.Status,
		deployment.Version,
		deployment.CommitSHA,
		deployment.CausedIncident,
		deployment.DeployedAt,
	).Scan(&deployment.ID, &deployment.CreatedAt)
}

func (r *deploymentRepository) ListInRange(ctx context.Context, rng domain.DateRange) ([]domain.Deployment, error) {
	const query = `
        SELECT id, project_id, environment, status, version, commit_sha, caused_incident, deployed_at, created_at
        FROM deployments WHERE deployed_at BETWEEN $1 AND $2 ORDER BY deployed_at`
	rows, err := r.pool.Query(ctx, query, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Deployment
	for rows.Next() {
		var deployment domain.Deployment
		if err := rows.Scan(
			&deployment.ID,
			&deployment.ProjectID,
			&deployment.Environment,
			&deployment.Status,
			&deployment.Version,
			&deployment.CommitSHA,
			&deployment.CausedIncident,
			&deployment.DeployedAt,
			&deployment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, deployment)
	}
	return result, rows.Err()
}
