package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/Dosada05/efootball-tournament/brackets"
	"github.com/Dosada05/efootball-tournament/models"
	"github.com/Dosada05/efootball-tournament/repositories"
	"github.com/google/uuid"
)

const maxSuggestionSeed = 0x7fffffff

type SuggestionService interface {
	// Suggest proposes pairings for the round without persisting them.
	// Repeated calls return the same pairs until matches are created in the round.
	Suggest(ctx context.Context, roundID uuid.UUID) ([]brackets.Pairing, error)
}

type suggestionService struct {
	roundRepo       repositories.RoundRepository
	matchRepo       repositories.MatchRepository
	participantRepo repositories.ParticipantRepository
	newSeed         func() (int32, error)
	logger          *slog.Logger
}

func NewSuggestionService(
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	participantRepo repositories.ParticipantRepository,
	logger *slog.Logger,
) SuggestionService {
	return &suggestionService{
		roundRepo:       roundRepo,
		matchRepo:       matchRepo,
		participantRepo: participantRepo,
		newSeed:         randomSeed,
		logger:          logger,
	}
}

// randomSeed возвращает равномерное значение в [1, 2^31-2].
func randomSeed() (int32, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxSuggestionSeed-1))
	if err != nil {
		return 0, fmt.Errorf("failed to generate suggestion seed: %w", err)
	}
	return int32(n.Int64() + 1), nil
}

func (s *suggestionService) Suggest(ctx context.Context, roundID uuid.UUID) ([]brackets.Pairing, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	seed, err := s.frozenSeed(ctx, round)
	if err != nil {
		return nil, err
	}

	pool, err := s.eligiblePool(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if len(pool) < 2 {
		return []brackets.Pairing{}, nil
	}

	generator := brackets.NewGenerator(round.RoundNumber)
	pairs := generator.Generate(brackets.GenerateParams{
		RoundNumber:  round.RoundNumber,
		Seed:         seed,
		Participants: pool,
	})

	s.logger.DebugContext(ctx, "Suggested pairings",
		slog.String("round_id", roundID.String()),
		slog.String("generator", generator.GetName()),
		slog.Int("pool", len(pool)),
		slog.Int("pairs", len(pairs)))
	return pairs, nil
}

// frozenSeed uses the stored seed, or stores a fresh one if absent.
// Concurrent first callers all end up with the value that won the write.
func (s *suggestionService) frozenSeed(ctx context.Context, round *models.Round) (int32, error) {
	if round.SuggestionSeed != nil {
		return *round.SuggestionSeed, nil
	}
	candidate, err := s.newSeed()
	if err != nil {
		return 0, err
	}
	seed, err := s.roundRepo.EnsureSuggestionSeed(ctx, round.ID, candidate)
	if err != nil {
		return 0, mapRepositoryError(err)
	}
	return seed, nil
}

func (s *suggestionService) eligiblePool(ctx context.Context, roundID uuid.UUID) ([]models.Participant, error) {
	eligible, err := s.participantRepo.ListEligible(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible participants: %w", err)
	}
	assigned, err := s.matchRepo.ListAssignedParticipantIDs(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned participants: %w", err)
	}

	taken := make(map[uuid.UUID]struct{}, len(assigned))
	for _, id := range assigned {
		taken[id] = struct{}{}
	}
	pool := make([]models.Participant, 0, len(eligible))
	for _, p := range eligible {
		if _, ok := taken[p.ID]; !ok {
			pool = append(pool, p)
		}
	}
	return pool, nil
}
