package services

import (
	"context"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/Dosada05/efootball-tournament/repositories"
)

const DefaultRankingLimit = 128

type RankingService interface {
	// RankedEligible returns non-eliminated participants by pass accuracy, then possession, descending.
	// A non-positive limit means DefaultRankingLimit.
	RankedEligible(ctx context.Context, limit int) ([]models.Participant, error)
}

type rankingService struct {
	participantRepo repositories.ParticipantRepository
}

func NewRankingService(participantRepo repositories.ParticipantRepository) RankingService {
	return &rankingService{participantRepo: participantRepo}
}

func (s *rankingService) RankedEligible(ctx context.Context, limit int) ([]models.Participant, error) {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	return s.participantRepo.ListRanked(ctx, limit)
}
