package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// MergeRequestRepository encapsulates merge request persistence.
type MergeRequestRepository interface {
	Create(ctx context.Context, mr *domain.MergeRequest) error
	Update(ctx context.Context, mr *domain.MergeRequest) error
	// GetByExternalID resolves the natural key lookup used by the collector
	// upsert; it returns (nil, nil) when no row exists.
	GetByExternalID(ctx context.Context, externalID, projectID string) (*domain.MergeRequest, error)
	ListMergedInRange(ctx context.Context, rng domain.DateRange) ([]domain.MergeRequest, error)
}

type mergeRequestRepository struct {
	pool *pgxpool.Pool
}

// NewMergeRequestRepository instantiates repository.
func NewMergeRequestRepository(pool *pgxpool.Pool) MergeRequestRepository {
	return &mergeRequestRepository{pool: pool}
}

const mergeRequestColumns = `id, external_id, project_id, title, status, author_email, developer_id,
       source_branch, target_branch, comments_count, external_created_at,
       merged_at, closed_at, deployed_at, created_at, updated_at`

func (r *mergeRequestRepository) Create(ctx context.Context, mr *domain.MergeRequest) error {
	const query = `
        INSERT INTO merge_requests (external_id, project_id, title, status, author_email, developer_id,
            source_branch, target_branch, comments_count, external_created_at, merged_at, closed_at, deployed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		mr.ExternalID,
		mr.ProjectID,
		mr.Title,
		mr.Status,
		mr.AuthorEmail,
		mr.DeveloperID,
		mr.SourceBranch,
		mr.TargetBranch,
		mr.CommentsCount,
		mr.ExternalCreatedAt,
		mr.MergedAt,
		mr.ClosedAt,
		mr.DeployedAt,
	).Scan(&mr.ID, &mr.CreatedAt, &mr.UpdatedAt)
}

func (r *mergeRequestRepository) Update(ctx context.Context, mr *domain.MergeRequest) error {
	const query = `
        UPDATE merge_requests SET title=$1, status=$2, comments_count=$3, merged_at=$4,
            closed_at=$5, deployed_at=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		mr.Title,
		mr.Status,
		mr.CommentsCount,
		mr.MergedAt,
		mr.ClosedAt,
		mr.DeployedAt,
		mr.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *mergeRequestRepository) GetByExternalID(ctx context.Context, externalID, projectID string) (*domain.MergeRequest, error) {
	query := `SELECT ` + mergeRequestColumns + ` FROM merge_requests WHERE external_id=$1 AND project_id=$2`
	var mr domain.MergeRequest
	err := r.pool.QueryRow(ctx, query, externalID, projectID).Scan(
		&mr.ID,
		&mr.ExternalID,
		&mr.ProjectID,
		&mr.Title,
		&mr.Status,
		&mr.AuthorEmail,
		&mr.DeveloperID,
		&mr.SourceBranch,
		&mr.TargetBranch,
		&mr.CommentsCount,
		&mr.ExternalCreatedAt,
		&mr.MergedAt,
		&mr.ClosedAt,
		&mr.DeployedAt,
		&mr.CreatedAt,
		&mr.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mr, nil
}

func (r *mergeRequestRepository) ListMergedInRange(ctx context.Context, rng domain.DateRange) ([]domain.MergeRequest, error) {
	query := `SELECT ` + mergeRequestColumns + ` FROM merge_requests
        WHERE merged_at IS NOT NULL AND merged_at BETWEEN $1 AND $2 ORDER BY merged_at`
	rows, err := r.pool.Query(ctx, query, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MergeRequest
	for rows.Next() {
		var mr domain.MergeRequest
		if err := rows.Scan(
			&mr.ID,
			&mr.ExternalID,
			&mr.ProjectID,
			&mr.Title,
			&mr.Status,
			&mr.AuthorEmail,
			&mr.DeveloperID,
			&mr.SourceBranch,
			&mr.TargetBranch,
			&mr.CommentsCount,
			&mr.ExternalCreatedAt,
			&mr.MergedAt,
			&mr.ClosedAt,
			&mr.DeployedAt,
			&mr.CreatedAt,
			&mr.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, mr)
	}
	return result, rows.Err()
}
