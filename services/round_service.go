package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/Dosada05/efootball-tournament/repositories"
	"github.com/google/uuid"
)

// UpdateRoundInput - частичное обновление; nil означает «не менять».
type UpdateRoundInput struct {
	Name         *string             `json:"name"`
	RoundNumber  *int                `json:"round_number"`
	TotalMatches *int                `json:"total_matches"`
	StartDate    *time.Time          `json:"start_date"`
	EndDate      *time.Time          `json:"end_date"`
	Status       *models.RoundStatus `json:"status"`
	Released     *bool               `json:"released"`
}

func (in UpdateRoundInput) empty() bool {
	return in.Name == nil && in.RoundNumber == nil && in.TotalMatches == nil &&
		in.StartDate == nil && in.EndDate == nil && in.Status == nil && in.Released == nil
}

type RoundService interface {
	ListRounds(ctx context.Context) ([]models.Round, error)
	GetRound(ctx context.Context, id uuid.UUID) (*models.Round, error)
	UpdateRound(ctx context.Context, id uuid.UUID, input UpdateRoundInput) (*models.Round, error)
	DeleteRound(ctx context.Context, id uuid.UUID) error
}

type roundService struct {
	roundRepo repositories.RoundRepository
	logger    *slog.Logger
}

func NewRoundService(roundRepo repositories.RoundRepository, logger *slog.Logger) RoundService {
	return &roundService{roundRepo: roundRepo, logger: logger}
}

func (s *roundService) ListRounds(ctx context.Context) ([]models.Round, error) {
	rounds, err := s.roundRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return rounds, nil
}

func (s *roundService) GetRound(ctx context.Context, id uuid.UUID) (*models.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return round, nil
}

func (s *roundService) UpdateRound(ctx context.Context, id uuid.UUID, input UpdateRoundInput) (*models.Round, error) {
	if input.empty() {
		return nil, ErrEmptyUpdate
	}

	round, err := s.roundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	wasReleased := round.Released

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrRoundNameRequired
		}
		round.Name = name
	}
	if input.RoundNumber != nil {
		if *input.RoundNumber <= 0 {
			return nil, ErrRoundNumberInvalid
		}
		round.RoundNumber = *input.RoundNumber
	}
	if input.TotalMatches != nil {
		if *input.TotalMatches < 0 {
			return nil, fmt.Errorf("%w: total_matches must not be negative", ErrValidationFailed)
		}
		round.TotalMatches = *input.TotalMatches
	}
	if input.StartDate != nil {
		round.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		round.EndDate = input.EndDate
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrRoundStatusInvalid
		}
		round.Status = *input.Status
	}
	if input.Released != nil {
		if *input.Released && !wasReleased {
			if err := s.checkReleaseGate(ctx, round.RoundNumber); err != nil {
				return nil, err
			}
		}
		round.Released = *input.Released
	}

	if err := s.roundRepo.Update(ctx, nil, round); err != nil {
		return nil, mapRepositoryError(err)
	}
	if round.Released && !wasReleased {
		s.logger.InfoContext(ctx, "Round released",
			slog.String("round_id", round.ID.String()),
			slog.Int("round_number", round.RoundNumber))
	}
	return round, nil
}

// checkReleaseGate allows a release when no round numbered roundNumber-1 exists
// or the most recently created one is completed.
func (s *roundService) checkReleaseGate(ctx context.Context, roundNumber int) error {
	previous, err := s.roundRepo.FindLatestByNumber(ctx, roundNumber-1)
	if errors.Is(err, repositories.ErrRoundNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load previous round: %w", err)
	}
	if previous.Status != models.RoundStatusCompleted {
		return ErrReleaseBlocked
	}
	return nil
}

func (s *roundService) DeleteRound(ctx context.Context, id uuid.UUID) error {
	if err := s.roundRepo.Delete(ctx, id); err != nil {
		return mapRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "Round deleted", slog.String("round_id", id.String()))
	return nil
}
