package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// CommitRepository encapsulates commit persistence. Commits are immutable,
// so there is no update path.
type CommitRepository interface {
	Create(ctx context.Context, commit *domain.Commit) error
	ExistsBySHA(ctx context.Context, sha string) (bool, error)
	ListByDeveloperSince(ctx context.Context, developerID string, since time.Time) ([]domain.Commit, error)
}

type commitRepository struct {
	pool *pgxpool.Pool
}

// NewCommitRepository instantiates repository.
func NewCommitRepository(pool *pgxpool.Pool) CommitRepository {
	return &commitRepository{pool: pool}
}

func (r *commitRepository) Create(ctx context.Context, commit *domain.Commit) error {
	const query = `
        INSERT INTO commits (sha, project_id, message, author_name, author_email, developer_id, additions, deletions, committed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		commit.SHA,
		commit.ProjectID,
		commit.Message,
		commit.AuthorName,
		commit.AuthorEmail,
		commit.DeveloperID,
		commit.Additions,
		commit.Deletions,
		commit.CommittedAt,
	).Scan(&commit.ID, &commit.CreatedAt)
}

func (r *commitRepository) ExistsBySHA(ctx context.Context, sha string) (bool, error) {
	const query = `SELECT 1 FROM commits WHERE sha=$1`
	var one int
	err := r.pool.QueryRow(ctx, query, sha).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *commitRepository) ListByDeveloperSince(ctx context.Context, developerID string, since time.Time) ([]domain.Commit, error) {
	const query = `
        SELECT id, sha, project_id, message, author_name, author_email, developer_id, additions, deletions, committed_at, created_at
        FROM commits WHERE developer_id=$1 AND committed_at >= $2 ORDER BY committed_at`
	rows, err := r.pool.Query(ctx, query, developerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Commit
	for rows.Next() {
		var commit domain.Commit
		if err := rows.Scan(
			&commit.ID,
			&commit.SHA,
			&commit.ProjectID,
			&commit.Message,
			&commit.AuthorName,
			&commit.AuthorEmail,
			&commit.DeveloperID,
			&commit.Additions,
			&commit.Deletions,
			&commit.CommittedAt,
			&commit.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, commit)
	}
	return result, rows.Err()
}
