package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/Dosada05/efootball-tournament/repositories"
	"github.com/google/uuid"
)

type RegisterParticipantInput struct {
	UserID            uuid.UUID `json:"user_id"`
	FullName          string    `json:"full_name"`
	EfootballUsername string    `json:"efootball_username"`
}

// ParticipantService - участники турнира: регистрация после оплаты, списки, ручное выбывание.
type ParticipantService interface {
	ListActive(ctx context.Context) ([]models.Participant, error)
	ListRanked(ctx context.Context, limit int) ([]models.Participant, error)
	// Register creates the participant for a user once; later calls return the stored row and false.
	Register(ctx context.Context, input RegisterParticipantInput) (*models.Participant, bool, error)
	Eliminate(ctx context.Context, id uuid.UUID) (*models.Participant, error)
}

type participantService struct {
	repo    repositories.ParticipantRepository
	ranking RankingService
	logger  *slog.Logger
}

func NewParticipantService(repo repositories.ParticipantRepository, ranking RankingService, logger *slog.Logger) ParticipantService {
	return &participantService{repo: repo, ranking: ranking, logger: logger}
}

func (s *participantService) ListActive(ctx context.Context) ([]models.Participant, error) {
	return s.repo.ListActive(ctx)
}

func (s *participantService) ListRanked(ctx context.Context, limit int) ([]models.Participant, error) {
	return s.ranking.RankedEligible(ctx, limit)
}

func (s *participantService) Register(ctx context.Context, input RegisterParticipantInput) (*models.Participant, bool, error) {
	fullName := strings.TrimSpace(input.FullName)
	if input.UserID == uuid.Nil || fullName == "" {
		return nil, false, ErrParticipantRequired
	}

	userID := input.UserID
	p := &models.Participant{
		UserID:            &userID,
		FullName:          fullName,
		EfootballUsername: strings.TrimSpace(input.EfootballUsername),
	}
	created, err := s.repo.CreateIfAbsent(ctx, p)
	if err != nil {
		return nil, false, fmt.Errorf("failed to register participant: %w", mapRepositoryError(err))
	}
	if created {
		s.logger.InfoContext(ctx, "Participant registered",
			slog.String("participant_id", p.ID.String()),
			slog.String("user_id", userID.String()))
	}
	return p, created, nil
}

func (s *participantService) Eliminate(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	if err := s.repo.MarkEliminated(ctx, nil, id); err != nil {
		return nil, mapRepositoryError(err)
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return p, nil
}
