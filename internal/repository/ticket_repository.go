package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetByExternalID resolves the natural key lookup used by the collector
	// upsert; it returns (nil, nil) when no row exists.
	GetByExternalID(ctx context.Context, externalID string, source domain.TicketSource) (*domain.Ticket, error)
	ListBySprint(ctx context.Context, sprintID string) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_id, source, title, description, status, priority, story_points,
       labels, developer_id, sprint_id, external_created_at, external_updated_at,
       started_at, completed_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_id, source, title, description, status, priority, story_points,
            labels, developer_id, sprint_id, external_created_at, external_updated_at, started_at, completed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalID,
		ticket.Source,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.StoryPoints,
		ticket.Labels,
		ticket.DeveloperID,
		ticket.SprintID,
		ticket.ExternalCreatedAt,
		ticket.ExternalUpdatedAt,
		ticket.StartedAt,
		ticket.CompletedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, story_points=$5,
            labels=$6, sprint_id=$7, external_updated_at=$8, started_at=$9, completed_at=$10,
            updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.StoryPoints,
		ticket.Labels,
		ticket.SprintID,
		ticket.ExternalUpdatedAt,
		ticket.StartedAt,
		ticket.CompletedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := r.fetchSingle(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, pgx.ErrNoRows
	}
	return ticket, nil
}

func (r *ticketRepository) GetByExternalID(ctx context.Context, externalID string, source domain.TicketSource) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE external_id=$1 AND source=$2`
	return r.fetchSingle(ctx, query, externalID, source)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.ExternalID,
		&ticket.Source,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.StoryPoints,
		&ticket.Labels,
		&ticket.DeveloperID,
		&ticket.SprintID,
		&ticket.ExternalCreatedAt,
		&ticket.ExternalUpdatedAt,
		&ticket.StartedAt,
		&ticket.CompletedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListBySprint(ctx context.Context, sprintID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE sprint_id=$1 ORDER BY external_created_at`
	rows, err := r.pool.Query(ctx, query, sprintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ExternalID,
			&ticket.Source,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.StoryPoints,
			&ticket.Labels,
			&ticket.DeveloperID,
			&ticket.SprintID,
			&ticket.ExternalCreatedAt,
			&ticket.ExternalUpdatedAt,
			&ticket.StartedAt,
			&ticket.CompletedAt,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
