package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// MetricRepository encapsulates the append-only metric time series.
type MetricRepository interface {
	Create(ctx context.Context, metric *domain.Metric) error
	ListByTypeInRange(ctx context.Context, metricType domain.MetricType, rng domain.DateRange) ([]domain.Metric, error)
	// AverageValueForTeam returns (nil, nil) when no rows match.
	AverageValueForTeam(ctx context.Context, metricType domain.MetricType, teamID string, rng domain.DateRange) (*float64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type metricRepository struct {
	pool *pgxpool.Pool
}

// NewMetricRepository instantiates repository.
func NewMetricRepository(pool *pgxpool.Pool) MetricRepository {
	return &metricRepository{pool: pool}
}

func (r *metricRepository) Create(ctx context.Context, metric *domain.Metric) error {
	const query = `
        INSERT INTO metrics (type, name, value, unit, source, team_id, timestamp, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	metadata := metric.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	return r.pool.QueryRow(ctx, query,
		metric.Type,
		metric.Name,
		metric.Value,
		metric.Unit,
		metric.Source,
		metric.TeamID,
		metric.Timestamp,
		metadata,
	).Scan(&metric.ID, &metric.CreatedAt)
}

func (r *metricRepository) ListByTypeInRange(ctx context.Context, metricType domain.MetricType, rng domain.DateRange) ([]domain.Metric, error) {
	const query = `
        SELECT id, type, name, value, unit, source, team_id, timestamp, metadata, created_at
        FROM metrics WHERE type=$1 AND timestamp BETWEEN $2 AND $3 ORDER BY timestamp`
	rows, err := r.pool.Query(ctx, query, metricType, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Metric
	for rows.Next() {
		var metric domain.Metric
		if err := rows.Scan(
			&metric.ID,
			&metric.Type,
			&metric.Name,
			&metric.Value,
			&metric.Unit,
			&metric.Source,
			&metric.TeamID,
			&metric.Timestamp,
			&metric.Metadata,
			&metric.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, metric)
	}
	return result, rows.Err()
}

func (r *metricRepository) AverageValueForTeam(ctx context.Context, metricType domain.MetricType, teamID string, rng domain.DateRange) (*float64, error) {
	const query = `
        SELECT AVG(value) FROM metrics
        WHERE type=$1 AND team_id=$2 AND timestamp BETWEEN $3 AND $4`
	var avg *float64
	err := r.pool.QueryRow(ctx, query, metricType, teamID, rng.Start, rng.End).Scan(&avg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return avg, nil
}

func (r *metricRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM metrics WHERE timestamp < $1`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
