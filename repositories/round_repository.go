package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrRoundNotFound      = errors.New("round not found")
	ErrRoundHasMatches    = errors.New("round has matches")
	ErrRoundStatusInvalid = errors.New("round status invalid")
)

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Round, error)
	List(ctx context.Context) ([]models.Round, error)
	// FindLatestByNumber returns the most recently created round with the given number.
	FindLatestByNumber(ctx context.Context, roundNumber int) (*models.Round, error)
	Update(ctx context.Context, exec SQLExecutor, round *models.Round) error
	// EnsureSuggestionSeed stores candidate only if no seed is stored yet and returns the effective seed.
	EnsureSuggestionSeed(ctx context.Context, id uuid.UUID, candidate int32) (int32, error)
	// Delete removes a round that has no matches.
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

const roundColumns = `id, round_number, name, total_matches, status, released, suggestion_seed, start_date, end_date, created_at, updated_at`

func (r *postgresRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	if round.ID == uuid.Nil {
		round.ID = uuid.New()
	}
	if round.Status == "" {
		round.Status = models.RoundStatusUpcoming
	}
	query := `
		INSERT INTO rounds (id, round_number, name, total_matches, status, released, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		round.ID, round.RoundNumber, round.Name, round.TotalMatches,
		round.Status, round.Released, round.StartDate, round.EndDate,
	).Scan(&round.CreatedAt, &round.UpdatedAt)

	return r.handleRoundError(err, "create")
}

func (r *postgresRoundRepository) scanRound(row rowScanner, round *models.Round, extra ...interface{}) error {
	dest := []interface{}{
		&round.ID,
		&round.RoundNumber,
		&round.Name,
		&round.TotalMatches,
		&round.Status,
		&round.Released,
		&round.SuggestionSeed,
		&round.StartDate,
		&round.EndDate,
		&round.CreatedAt,
		&round.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1`
	round := &models.Round{}
	if err := r.scanRound(r.db.QueryRowContext(ctx, query, id), round); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round by id %s: %w", id, err)
	}
	return round, nil
}

func (r *postgresRoundRepository) List(ctx context.Context) ([]models.Round, error) {
	query := `
		SELECT ` + roundColumns + `,
		       (SELECT COUNT(*) FROM matches m WHERE m.round_id = rounds.id) AS match_count
		FROM rounds
		ORDER BY round_number ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	rounds := make([]models.Round, 0)
	for rows.Next() {
		var (
			round      models.Round
			matchCount int
		)
		if err := r.scanRound(rows, &round, &matchCount); err != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", err)
		}
		round.MatchCount = &matchCount
		rounds = append(rounds, round)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating round rows: %w", err)
	}
	return rounds, nil
}

func (r *postgresRoundRepository) FindLatestByNumber(ctx context.Context, roundNumber int) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE round_number = $1 ORDER BY created_at DESC LIMIT 1`
	round := &models.Round{}
	if err := r.scanRound(r.db.QueryRowContext(ctx, query, roundNumber), round); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to find round number %d: %w", roundNumber, err)
	}
	return round, nil
}

func (r *postgresRoundRepository) Update(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	query := `
		UPDATE rounds
		SET round_number = $2, name = $3, total_matches = $4, status = $5, released = $6,
		    start_date = $7, end_date = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		round.ID, round.RoundNumber, round.Name, round.TotalMatches,
		round.Status, round.Released, round.StartDate, round.EndDate,
	).Scan(&round.UpdatedAt)

	return r.handleRoundError(err, "update")
}

func (r *postgresRoundRepository) EnsureSuggestionSeed(ctx context.Context, id uuid.UUID, candidate int32) (int32, error) {
	query := `
		UPDATE rounds
		SET suggestion_seed = COALESCE(suggestion_seed, $1)
		WHERE id = $2
		RETURNING suggestion_seed`

	var seed int32
	err := r.db.QueryRowContext(ctx, query, candidate, id).Scan(&seed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrRoundNotFound
		}
		return 0, fmt.Errorf("failed to ensure suggestion seed for round %s: %w", id, err)
	}
	return seed, nil
}

func (r *postgresRoundRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM rounds WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM matches WHERE round_id = $1)`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		// ON DELETE RESTRICT у matches: матч мог появиться между проверкой и удалением
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrRoundHasMatches
		}
		return fmt.Errorf("failed to delete round %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM rounds WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check round existence: %w", err)
	}
	if !exists {
		return ErrRoundNotFound
	}
	return ErrRoundHasMatches
}

func (r *postgresRoundRepository) handleRoundError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoundNotFound
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" && pqErr.Constraint == "rounds_status_check" {
		return ErrRoundStatusInvalid
	}
	return fmt.Errorf("failed to %s round: %w", op, err)
}
