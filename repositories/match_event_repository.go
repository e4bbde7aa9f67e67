package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type MatchEventRepository interface {
	Create(ctx context.Context, exec SQLExecutor, event *models.MatchEvent) error
	ListByMatch(ctx context.Context, matchID uuid.UUID) ([]models.MatchEvent, error)
}

type postgresMatchEventRepository struct {
	db *sql.DB
}

func NewPostgresMatchEventRepository(db *sql.DB) MatchEventRepository {
	return &postgresMatchEventRepository{db: db}
}

func (r *postgresMatchEventRepository) Create(ctx context.Context, exec SQLExecutor, e *models.MatchEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	executor := exec
	if executor == nil {
		executor = r.db
	}
	query := `
		INSERT INTO match_events (id, match_id, event_type, minute)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := executor.QueryRowContext(ctx, query, e.ID, e.MatchID, e.EventType, e.Minute).Scan(&e.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to create match event: %w", err)
	}
	return nil
}

func (r *postgresMatchEventRepository) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]models.MatchEvent, error) {
	query := `SELECT id, match_id, event_type, minute, created_at FROM match_events WHERE match_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match events: %w", err)
	}
	defer rows.Close()

	events := make([]models.MatchEvent, 0)
	for rows.Next() {
		var e models.MatchEvent
		if err := rows.Scan(&e.ID, &e.MatchID, &e.EventType, &e.Minute, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match event: %w", err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match events: %w", err)
	}
	return events, nil
}
