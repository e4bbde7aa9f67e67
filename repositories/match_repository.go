package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchCompleted          = errors.New("match already completed")
	ErrMatchNotOngoing         = errors.New("match is not ongoing")
	ErrMatchInUse              = errors.New("match has recorded events")
	ErrMatchRoundInvalid       = errors.New("match round conflict or invalid")
	ErrMatchParticipantInvalid = errors.New("match participant conflict or invalid")
	ErrMatchSameParticipant    = errors.New("match home and away participants must differ")
)

type ListMatchesFilter struct {
	Status    *models.MatchStatus
	RoundID   *uuid.UUID
	Published *bool
}

// MatchResult - итог матча. Статистика nil означает «не передана».
type MatchResult struct {
	HomeGoals        int
	AwayGoals        int
	HomePassAccuracy *float64
	AwayPassAccuracy *float64
	HomePossession   *float64
	AwayPossession   *float64
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	List(ctx context.Context, filter ListMatchesFilter) ([]models.Match, error)
	ListByRound(ctx context.Context, roundID uuid.UUID) ([]models.Match, error)
	ListAssignedParticipantIDs(ctx context.Context, roundID uuid.UUID) ([]uuid.UUID, error)
	// LatestScheduledAt returns the latest scheduled time over all matches, nil when none is scheduled.
	LatestScheduledAt(ctx context.Context) (*time.Time, error)
	LatestScheduledAtOrAfter(ctx context.Context, after time.Time) (*time.Time, error)
	// Update stores metadata and participants of a match that is not completed.
	Update(ctx context.Context, match *models.Match) error
	// Start moves a scheduled match to ongoing. The bool is false when the match was not scheduled.
	Start(ctx context.Context, id uuid.UUID, adminID *uuid.UUID) (*models.Match, bool, error)
	AddGoal(ctx context.Context, exec SQLExecutor, id uuid.UUID, side models.MatchEventType) (*models.Match, error)
	// Complete records the result unless the match is already completed.
	// The bool reports whether this call performed the transition.
	Complete(ctx context.Context, exec SQLExecutor, id uuid.UUID, result MatchResult) (*models.Match, bool, error)
	// Publish marks the match visible and optionally sets title, venue and kickoff.
	Publish(ctx context.Context, id uuid.UUID, params PublishMatchParams) (*models.Match, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PublishMatchParams struct {
	MatchTitle  *string
	Venue       *string
	ScheduledAt *time.Time
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, round_id, participant_home_id, participant_away_id, status, home_goals, away_goals,
		home_pass_accuracy, away_pass_accuracy, home_possession, away_possession, match_title, venue, published,
		scheduled_at, started_at, ended_at, admin_id, created_at, updated_at`

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) scanMatch(row rowScanner, m *models.Match) error {
	return row.Scan(
		&m.ID, &m.RoundID, &m.HomeParticipantID, &m.AwayParticipantID, &m.Status, &m.HomeGoals, &m.AwayGoals,
		&m.HomePassAccuracy, &m.AwayPassAccuracy, &m.HomePossession, &m.AwayPossession, &m.MatchTitle, &m.Venue, &m.Published,
		&m.ScheduledAt, &m.StartedAt, &m.EndedAt, &m.AdminID, &m.CreatedAt, &m.UpdatedAt,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = models.MatchStatusScheduled
	}
	query := `
		INSERT INTO matches (id, round_id, participant_home_id, participant_away_id, status,
			match_title, venue, published, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		m.ID, m.RoundID, m.HomeParticipantID, m.AwayParticipantID, m.Status,
		m.MatchTitle, m.Venue, m.Published, m.ScheduledAt,
	).Scan(&m.CreatedAt, &m.UpdatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *postgresMatchRepository) getByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m := &models.Match{}
	if err := r.scanMatch(exec.QueryRowContext(ctx, query, id), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match by id %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, filter ListMatchesFilter) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.RoundID != nil {
		query += fmt.Sprintf(" AND round_id = $%d", argID)
		args = append(args, *filter.RoundID)
		argID++
	}
	if filter.Published != nil {
		query += fmt.Sprintf(" AND published = $%d", argID)
		args = append(args, *filter.Published)
	}

	query += " ORDER BY scheduled_at ASC NULLS LAST, created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := r.scanMatch(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, roundID uuid.UUID) ([]models.Match, error) {
	return r.List(ctx, ListMatchesFilter{RoundID: &roundID})
}

func (r *postgresMatchRepository) ListAssignedParticipantIDs(ctx context.Context, roundID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT participant_home_id FROM matches WHERE round_id = $1 AND participant_home_id IS NOT NULL
		UNION
		SELECT participant_away_id FROM matches WHERE round_id = $1 AND participant_away_id IS NOT NULL`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned participants for round %s: %w", roundID, err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant ids: %w", err)
	}
	return ids, nil
}

func (r *postgresMatchRepository) LatestScheduledAt(ctx context.Context) (*time.Time, error) {
	return r.latestScheduled(ctx, `SELECT MAX(scheduled_at) FROM matches`)
}

func (r *postgresMatchRepository) LatestScheduledAtOrAfter(ctx context.Context, after time.Time) (*time.Time, error) {
	return r.latestScheduled(ctx, `SELECT MAX(scheduled_at) FROM matches WHERE scheduled_at >= $1`, after)
}

func (r *postgresMatchRepository) latestScheduled(ctx context.Context, query string, args ...interface{}) (*time.Time, error) {
	var latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to query latest scheduled match: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches
		SET participant_home_id = $2, participant_away_id = $3, match_title = $4, venue = $5,
		    scheduled_at = $6, published = $7, updated_at = NOW()
		WHERE id = $1 AND status <> 'completed'
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.HomeParticipantID, m.AwayParticipantID, m.MatchTitle, m.Venue, m.ScheduledAt, m.Published,
	).Scan(&m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r.missingOrState(ctx, r.db, m.ID, ErrMatchCompleted)
	}
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) Start(ctx context.Context, id uuid.UUID, adminID *uuid.UUID) (*models.Match, bool, error) {
	query := `
		UPDATE matches
		SET status = 'ongoing', started_at = NOW(), admin_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
		RETURNING ` + matchColumns

	m := &models.Match{}
	err := r.scanMatch(r.db.QueryRowContext(ctx, query, id, adminID), m)
	if err == nil {
		return m, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to start match %s: %w", id, err)
	}
	current, err := r.getByID(ctx, r.db, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *postgresMatchRepository) AddGoal(ctx context.Context, exec SQLExecutor, id uuid.UUID, side models.MatchEventType) (*models.Match, error) {
	home, away := 0, 0
	switch side {
	case models.MatchEventGoalHome:
		home = 1
	case models.MatchEventGoalAway:
		away = 1
	default:
		return nil, fmt.Errorf("unknown goal side %q", side)
	}

	query := `
		UPDATE matches
		SET home_goals = home_goals + $2, away_goals = away_goals + $3, updated_at = NOW()
		WHERE id = $1 AND status = 'ongoing'
		RETURNING ` + matchColumns

	executor := r.getExecutor(exec)
	m := &models.Match{}
	err := r.scanMatch(executor.QueryRowContext(ctx, query, id, home, away), m)
	if err == nil {
		return m, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.missingOrState(ctx, executor, id, ErrMatchNotOngoing)
	}
	return nil, fmt.Errorf("failed to record goal for match %s: %w", id, err)
}

func (r *postgresMatchRepository) Complete(ctx context.Context, exec SQLExecutor, id uuid.UUID, res MatchResult) (*models.Match, bool, error) {
	query := `
		UPDATE matches
		SET status = 'completed', home_goals = $2, away_goals = $3,
		    home_pass_accuracy = COALESCE($4, home_pass_accuracy),
		    away_pass_accuracy = COALESCE($5, away_pass_accuracy),
		    home_possession = COALESCE($6, home_possession),
		    away_possession = COALESCE($7, away_possession),
		    ended_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status <> 'completed'
		RETURNING ` + matchColumns

	executor := r.getExecutor(exec)
	m := &models.Match{}
	err := r.scanMatch(executor.QueryRowContext(ctx, query, id,
		res.HomeGoals, res.AwayGoals,
		res.HomePassAccuracy, res.AwayPassAccuracy, res.HomePossession, res.AwayPossession,
	), m)
	if err == nil {
		return m, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to complete match %s: %w", id, err)
	}
	// Уже завершён (или не существует): эффекты не повторяем
	current, err := r.getByID(ctx, executor, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *postgresMatchRepository) Publish(ctx context.Context, id uuid.UUID, params PublishMatchParams) (*models.Match, error) {
	query := `
		UPDATE matches
		SET published = TRUE,
		    match_title = COALESCE($2, match_title),
		    venue = COALESCE($3, venue),
		    scheduled_at = COALESCE($4, scheduled_at),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + matchColumns

	m := &models.Match{}
	err := r.scanMatch(r.db.QueryRowContext(ctx, query, id, params.MatchTitle, params.Venue, params.ScheduledAt), m)
	if err != nil {
		return nil, r.handleMatchError(err)
	}
	return m, nil
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM matches WHERE id = $1 AND status <> 'completed'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrMatchInUse
		}
		return fmt.Errorf("failed to delete match %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return r.missingOrState(ctx, r.db, id, ErrMatchCompleted)
	}
	return nil
}

// missingOrState distinguishes a missing match from one whose status blocked a conditional update.
func (r *postgresMatchRepository) missingOrState(ctx context.Context, exec SQLExecutor, id uuid.UUID, stateErr error) error {
	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check match existence: %w", err)
	}
	if !exists {
		return ErrMatchNotFound
	}
	return stateErr
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMatchNotFound
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23503":
			switch pqErr.Constraint {
			case "matches_round_id_fkey":
				return ErrMatchRoundInvalid
			case "matches_participant_home_id_fkey", "matches_participant_away_id_fkey":
				return ErrMatchParticipantInvalid
			}
		case "23514":
			if pqErr.Constraint == "matches_distinct_sides_check" {
				return ErrMatchSameParticipant
			}
		}
	}
	return fmt.Errorf("match repository error: %w", err)
}
