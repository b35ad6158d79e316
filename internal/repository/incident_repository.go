package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// IncidentRepository encapsulates incident persistence.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	Update(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	ListResolvedInRange(ctx context.Context, rng domain.DateRange) ([]domain.Incident, error)
	ListCreatedInRange(ctx context.Context, rng domain.DateRange) ([]domain.Incident, error)
}

type incidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository instantiates repository.
func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{pool: pool}
}

const incidentColumns = `id, title, description, severity, status, team_id, deployment_id,
       started_at, acknowledged_at, resolved_at, mttr_minutes, created_at, updated_at`

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	const query = `
        INSERT INTO incidents (title, description, severity, status, team_id, deployment_id, started_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		incident.Severity,
		incident.Status,
		incident.TeamID,
		incident.DeploymentID,
		incident.StartedAt,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
}

func (r *incidentRepository) Update(ctx context.Context, incident *domain.Incident) error {
	const query = `
        UPDATE incidents SET title=$1, description=$2, severity=$3, status=$4,
            acknowledged_at=$5, resolved_at=$6, mttr_minutes=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		incident.Title,
		incident.Description,
		incident.Severity,
		incident.Status,
		incident.AcknowledgedAt,
		incident.ResolvedAt,
		incident.MTTRMinutes,
		incident.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *incidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id=$1`
	var incident domain.Incident
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Severity,
		&incident.Status,
		&incident.TeamID,
		&incident.DeploymentID,
		&incident.StartedAt,
		&incident.AcknowledgedAt,
		&incident.ResolvedAt,
		&incident.MTTRMinutes,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *incidentRepository) ListResolvedInRange(ctx context.Context, rng domain.DateRange) ([]domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents
        WHERE status='RESOLVED' AND resolved_at BETWEEN $1 AND $2 ORDER BY resolved_at`
	return r.list(ctx, query, rng.Start, rng.End)
}

func (r *incidentRepository) ListCreatedInRange(ctx context.Context, rng domain.DateRange) ([]domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents
        WHERE started_at BETWEEN $1 AND $2 ORDER BY started_at`
	return r.list(ctx, query, rng.Start, rng.End)
}

func (r *incidentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Incident, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Incident
	for rows.Next() {
		var incident domain.Incident
		if err := rows.Scan(
			&incident.ID,
			&incident.Title,
			&incident.Description,
			&incident.Severity,
			&incident.Status,
			&incident.TeamID,
			&incident.DeploymentID,
			&incident.StartedAt,
			&incident.AcknowledgedAt,
			&incident.ResolvedAt,
			&incident.MTTRMinutes,
			&incident.CreatedAt,
			&incident.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, incident)
	}
	return result, rows.Err()
}
