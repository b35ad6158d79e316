package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// AlertRepository encapsulates alert persistence.
type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) error
	Update(ctx context.Context, alert *domain.Alert) error
	GetByID(ctx context.Context, id string) (*domain.Alert, error)
	ListUnresolved(ctx context.Context, limit int) ([]domain.Alert, error)
}

type alertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository instantiates repository.
func NewAlertRepository(pool *pgxpool.Pool) AlertRepository {
	return &alertRepository{pool: pool}
}

const alertColumns = `id, type, severity, message, metric_id, team_id, developer_id,
       acknowledged, acknowledged_by, acknowledged_at, resolved, resolved_by, resolution, resolved_at,
       metadata, created_at`

func (r *alertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	const query = `
        INSERT INTO alerts (type, severity, message, metric_id, team_id, developer_id, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	metadata := alert.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	return r.pool.QueryRow(ctx, query,
		alert.Type,
		alert.Severity,
		alert.Message,
		alert.MetricID,
		alert.TeamID,
		alert.DeveloperID,
		metadata,
	).Scan(&alert.ID, &alert.CreatedAt)
}

func (r *alertRepository) Update(ctx context.Context, alert *domain.Alert) error {
	const query = `
        UPDATE alerts SET acknowledged=$1, acknowledged_by=$2, acknowledged_at=$3,
            resolved=$4, resolved_by=$5, resolution=$6, resolved_at=$7
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		alert.Acknowledged,
		alert.AcknowledgedBy,
		alert.AcknowledgedAt,
		alert.Resolved,
		alert.ResolvedBy,
		alert.Resolution,
		alert.ResolvedAt,
		alert.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *alertRepository) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id=$1`
	var alert domain.Alert
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&alert.ID,
		&alert.Type,
		&alert.Severity,
		&alert.Message,
		&alert.MetricID,
		&alert.TeamID,
		&alert.DeveloperID,
		&alert.Acknowledged,
		&alert.AcknowledgedBy,
		&alert.AcknowledgedAt,
		&alert.Resolved,
		&alert.ResolvedBy,
		&alert.Resolution,
		&alert.ResolvedAt,
		&alert.Metadata,
		&alert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) ListUnresolved(ctx context.Context, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE resolved=FALSE ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Alert
	for rows.Next() {
		var alert domain.Alert
		if err := rows.Scan(
			&alert.ID,
			&alert.Type,
			&alert.Severity,
			&alert.Message,
			&alert.MetricID,
			&alert.TeamID,
			&alert.DeveloperID,
			&alert.Acknowledged,
			&alert.AcknowledgedBy,
			&alert.AcknowledgedAt,
			&alert.Resolved,
			&alert.ResolvedBy,
			&alert.Resolution,
			&alert.ResolvedAt,
			&alert.Metadata,
			&alert.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, alert)
	}
	return result, rows.Err()
}
