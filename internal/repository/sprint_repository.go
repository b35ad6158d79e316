package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// SprintRepository encapsulates sprint persistence.
type SprintRepository interface {
	Create(ctx context.Context, sprint *domain.Sprint) error
	Update(ctx context.Context, sprint *domain.Sprint) error
	GetByID(ctx context.Context, id string) (*domain.Sprint, error)
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	// ListRecentByTeam returns the most recent sprints ordered by end date
	// descending.
	ListRecentByTeam(ctx context.Context, teamID string, limit int) ([]domain.Sprint, error)
}

type sprintRepository struct {
	pool *pgxpool.Pool
}

// NewSprintRepository instantiates repository.
func NewSprintRepository(pool *pgxpool.Pool) SprintRepository {
	return &sprintRepository{pool: pool}
}

const sprintColumns = `id, external_id, name, status, team_id, start_date, end_date,
       committed_points, completed_points, created_at, updated_at`

func (r *sprintRepository) Create(ctx context.Context, sprint *domain.Sprint) error {
	const query = `
        INSERT INTO sprints (external_id, name, status, team_id, start_date, end_date, committed_points, completed_points)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		sprint.ExternalID,
		sprint.Name,
		sprint.Status,
		sprint.TeamID,
		sprint.StartDate,
		sprint.EndDate,
		sprint.CommittedPoints,
		sprint.CompletedPoints,
	).Scan(&sprint.ID, &sprint.CreatedAt, &sprint.UpdatedAt)
}

func (r *sprintRepository) Update(ctx context.Context, sprint *domain.Sprint) error {
	const query = `
        UPDATE sprints SET name=$1, status=$2, team_id=$3, start_date=$4, end_date=$5,
            committed_points=$6, completed_points=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		sprint.Name,
		sprint.Status,
		sprint.TeamID,
		sprint.StartDate,
		sprint.EndDate,
		sprint.CommittedPoints,
		sprint.CompletedPoints,
		sprint.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *sprintRepository) GetByID(ctx context.Context, id string) (*domain.Sprint, error) {
	query := `SELECT ` + sprintColumns + ` FROM sprints WHERE id=$1`
	var sprint domain.Sprint
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&sprint.ID,
		&sprint.ExternalID,
		&sprint.Name,
		&sprint.Status,
		&sprint.TeamID,
		&sprint.StartDate,
		&sprint.EndDate,
		&sprint.CommittedPoints,
		&sprint.CompletedPoints,
		&sprint.CreatedAt,
		&sprint.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sprint, nil
}

func (r *sprintRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	const query = `SELECT 1 FROM sprints WHERE external_id=$1`
	var one int
	err := r.pool.QueryRow(ctx, query, externalID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *sprintRepository) ListRecentByTeam(ctx context.Context, teamID string, limit int) ([]domain.Sprint, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + sprintColumns + ` FROM sprints WHERE team_id=$1 ORDER BY end_date DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, teamID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Sprint
	for rows.Next() {
		var sprint domain.Sprint
		if err := rows.Scan(
			&sprint.ID,
			&sprint.ExternalID,
			&sprint.Name,
			&sprint.Status,
			&sprint.TeamID,
			&sprint.StartDate,
			&sprint.EndDate,
			&sprint.CommittedPoints,
			&sprint.CompletedPoints,
			&sprint.CreatedAt,
			&sprint.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, sprint)
	}
	return result, rows.Err()
}
