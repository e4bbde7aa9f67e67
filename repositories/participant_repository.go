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
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantConflict = errors.New("participant conflict: user already registered")
)

type ParticipantRepository interface {
	// CreateIfAbsent inserts the participant unless one already exists for the same user.
	// When it exists, p is filled with the stored row and false is returned.
	CreateIfAbsent(ctx context.Context, p *models.Participant) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Participant, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Participant, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Participant, error)
	ListAll(ctx context.Context) ([]models.Participant, error)
	ListEligible(ctx context.Context) ([]models.Participant, error)
	ListActive(ctx context.Context) ([]models.Participant, error)
	ListRanked(ctx context.Context, limit int) ([]models.Participant, error)
	UpdateStats(ctx context.Context, exec SQLExecutor, id uuid.UUID, passAccuracy, possession *float64) error
	MarkEliminated(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

const participantColumns = `id, user_id, full_name, efootball_username, avg_pass_accuracy, avg_possession, eliminated, created_at`

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) CreateIfAbsent(ctx context.Context, p *models.Participant) (bool, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `
		INSERT INTO participants (id, user_id, full_name, efootball_username)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, p.ID, p.UserID, p.FullName, p.EfootballUsername).Scan(&p.CreatedAt)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) && p.UserID != nil {
		existing, findErr := r.FindByUserID(ctx, *p.UserID)
		if findErr != nil {
			return false, findErr
		}
		*p = *existing
		return false, nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return false, ErrParticipantConflict
	}
	return false, fmt.Errorf("failed to create participant: %w", err)
}

func (r *postgresParticipantRepository) scanParticipant(row rowScanner, p *models.Participant) error {
	return row.Scan(
		&p.ID,
		&p.UserID,
		&p.FullName,
		&p.EfootballUsername,
		&p.AvgPassAccuracy,
		&p.AvgPossession,
		&p.Eliminated,
		&p.CreatedAt,
	)
}

func (r *postgresParticipantRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Participant, error) {
	p := &models.Participant{}
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := r.scanParticipant(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Participant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := r.scanParticipant(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresParticipantRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE user_id = $1`
	return r.findOne(ctx, query, userID)
}

func (r *postgresParticipantRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Participant, error) {
	if len(ids) == 0 {
		return []models.Participant{}, nil
	}
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = ANY($1::uuid[])`
	return r.list(ctx, query, pq.Array(uuidStrings(ids)))
}

func (r *postgresParticipantRepository) ListAll(ctx context.Context) ([]models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants ORDER BY created_at, id`
	return r.list(ctx, query)
}

// ListEligible возвращает не выбывших участников в каноническом порядке (по id).
func (r *postgresParticipantRepository) ListEligible(ctx context.Context) ([]models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE eliminated = FALSE ORDER BY id`
	return r.list(ctx, query)
}

func (r *postgresParticipantRepository) ListActive(ctx context.Context) ([]models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE eliminated = FALSE ORDER BY full_name, created_at`
	return r.list(ctx, query)
}

// ListRanked orders by pass accuracy then possession (missing values rank as 0).
// Creation time and id break remaining ties so the order is stable between calls.
func (r *postgresParticipantRepository) ListRanked(ctx context.Context, limit int) ([]models.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE eliminated = FALSE
		ORDER BY COALESCE(avg_pass_accuracy, 0) DESC, COALESCE(avg_possession, 0) DESC, created_at ASC, id ASC
		LIMIT $1`
	return r.list(ctx, query, limit)
}

// UpdateStats overwrites only the values that are provided.
func (r *postgresParticipantRepository) UpdateStats(ctx context.Context, exec SQLExecutor, id uuid.UUID, passAccuracy, possession *float64) error {
	if passAccuracy == nil && possession == nil {
		return nil
	}
	query := `
		UPDATE participants
		SET avg_pass_accuracy = COALESCE($2, avg_pass_accuracy),
		    avg_possession = COALESCE($3, avg_possession)
		WHERE id = $1`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, id, passAccuracy, possession)
	if err != nil {
		return fmt.Errorf("failed to update participant stats: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) MarkEliminated(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	query := `UPDATE participants SET eliminated = TRUE WHERE id = $1`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to eliminate participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
