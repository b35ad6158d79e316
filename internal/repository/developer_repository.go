package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// DeveloperRepository encapsulates developer persistence.
type DeveloperRepository interface {
	Create(ctx context.Context, developer *domain.Developer) error
	GetByID(ctx context.Context, id string) (*domain.Developer, error)
	// FindByEmail is the linkage lookup used by the collectors; it returns
	// (nil, nil) when no match exists.
	FindByEmail(ctx context.Context, email string) (*domain.Developer, error)
	ListByTeam(ctx context.Context, teamID string) ([]domain.Developer, error)
}

type developerRepository struct {
	pool *pgxpool.Pool
}

// NewDeveloperRepository instantiates repository.
func NewDeveloperRepository(pool *pgxpool.Pool) DeveloperRepository {
	return &developerRepository{pool: pool}
}

func (r *developerRepository) Create(ctx context.Context, developer *domain.Developer) error {
	const query = `
        INSERT INTO developers (name, email, team_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		developer.Name,
		strings.ToLower(developer.Email),
		developer.TeamID,
	).Scan(&developer.ID, &developer.CreatedAt, &developer.UpdatedAt)
}

func (r *developerRepository) GetByID(ctx context.Context, id string) (*domain.Developer, error) {
	const query = `SELECT id, name, email, team_id, created_at, updated_at FROM developers WHERE id=$1`
	var developer domain.Developer
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&developer.ID,
		&developer.Name,
		&developer.Email,
		&developer.TeamID,
		&developer.CreatedAt,
		&developer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &developer, nil
}

func (r *developerRepository) FindByEmail(ctx context.Context, email string) (*domain.Developer, error) {
	const query = `SELECT id, name, email, team_id, created_at, updated_at FROM developers WHERE email=$1`
	var developer domain.Developer
	err := r.pool.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&developer.ID,
		&developer.Name,
		&developer.Email,
		&developer.TeamID,
		&developer.CreatedAt,
		&developer.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &developer, nil
}

func (r *developerRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.Developer, error) {
	const query = `SELECT id, name, email, team_id, created_at, updated_at FROM developers WHERE team_id=$1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Developer
	for rows.Next() {
		var developer domain.Developer
		if err := rows.Scan(
			&developer.ID,
			&developer.Name,
			&developer.Email,
			&developer.TeamID,
			&developer.CreatedAt,
			&developer.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, developer)
	}
	return result, rows.Err()
}
