package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/efootball-tournament/brackets"
	"github.com/Dosada05/efootball-tournament/models"
	"github.com/Dosada05/efootball-tournament/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const firstRoundName = "Round 1"

type CreateRoundParams struct {
	RoundNumber  int
	Name         string
	TotalMatches int
	StartDate    *time.Time
	EndDate      *time.Time
}

type SeedResult struct {
	RoundID    uuid.UUID     `json:"round_id"`
	MatchCount int           `json:"match_count"`
	Round      *models.Round `json:"round"`
}

// MatchResultInput - итог матча от админа. Счёт обязателен, статистика нет.
type MatchResultInput struct {
	HomeGoals        *int     `json:"home_goals"`
	AwayGoals        *int     `json:"away_goals"`
	HomePassAccuracy *float64 `json:"home_pass_accuracy"`
	AwayPassAccuracy *float64 `json:"away_pass_accuracy"`
	HomePossession   *float64 `json:"home_possession"`
	AwayPossession   *float64 `json:"away_possession"`
}

func (in MatchResultInput) validate() error {
	if in.HomeGoals == nil || in.AwayGoals == nil {
		return ErrGoalsRequired
	}
	if *in.HomeGoals < 0 || *in.AwayGoals < 0 {
		return ErrInvalidGoals
	}
	for _, v := range []*float64{in.HomePassAccuracy, in.AwayPassAccuracy, in.HomePossession, in.AwayPossession} {
		if v != nil && (*v < 0 || *v > 100) {
			return ErrInvalidStat
		}
	}
	return nil
}

type MatchOutcome struct {
	Match models.Match
	// Completed is true only for the call that moved the match to completed.
	Completed bool
}

type AdvanceResult struct {
	RoundID        uuid.UUID     `json:"round_id"`
	ReadyToAdvance bool          `json:"ready_to_advance"`
	Advanced       bool          `json:"advanced"`
	NextRound      *models.Round `json:"next_round,omitempty"`
	MatchCount     int           `json:"match_count"`
}

type BracketService interface {
	CreateRound(ctx context.Context, params CreateRoundParams) (*models.Round, error)
	SeedRound1(ctx context.Context, tournamentStartDate time.Time) (*SeedResult, error)
	ApplyMatchResult(ctx context.Context, matchID uuid.UUID, result MatchResultInput) (*MatchOutcome, error)
	// TryAdvanceRound returns nil when the round is empty or still has unfinished matches.
	TryAdvanceRound(ctx context.Context, roundID uuid.UUID, autoAdvance bool) (*AdvanceResult, error)
	AdvanceRound(ctx context.Context, roundID uuid.UUID) (*AdvanceResult, error)
	GetBracket(ctx context.Context) (*BracketView, error)
}

type bracketService struct {
	tx              repositories.Transactor
	roundRepo       repositories.RoundRepository
	matchRepo       repositories.MatchRepository
	participantRepo repositories.ParticipantRepository
	ranking         RankingService
	schedule        ScheduleService
	logger          *slog.Logger
	now             func() time.Time
}

func NewBracketService(
	tx repositories.Transactor,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	participantRepo repositories.ParticipantRepository,
	ranking RankingService,
	schedule ScheduleService,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		tx:              tx,
		roundRepo:       roundRepo,
		matchRepo:       matchRepo,
		participantRepo: participantRepo,
		ranking:         ranking,
		schedule:        schedule,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *bracketService) CreateRound(ctx context.Context, params CreateRoundParams) (*models.Round, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrRoundNameRequired
	}
	if params.RoundNumber <= 0 {
		return nil, ErrRoundNumberInvalid
	}
	if params.TotalMatches < 0 {
		return nil, fmt.Errorf("%w: total_matches must not be negative", ErrValidationFailed)
	}

	round := &models.Round{
		RoundNumber:  params.RoundNumber,
		Name:         name,
		TotalMatches: params.TotalMatches,
		Status:       models.RoundStatusUpcoming,
		StartDate:    params.StartDate,
		EndDate:      params.EndDate,
	}
	if err := s.roundRepo.Create(ctx, nil, round); err != nil {
		return nil, mapRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "Round created",
		slog.String("round_id", round.ID.String()),
		slog.Int("round_number", round.RoundNumber))
	return round, nil
}

func (s *bracketService) SeedRound1(ctx context.Context, tournamentStartDate time.Time) (*SeedResult, error) {
	ranked, err := s.ranking.RankedEligible(ctx, DefaultRankingLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank participants: %w", err)
	}
	if len(ranked) < 2 {
		return nil, ErrInsufficientParticipants
	}

	pairs := brackets.PairConsecutive(ranked)
	slots, err := s.schedule.FreshSlots(ctx, len(pairs), 1, tournamentStartDate)
	if err != nil {
		return nil, err
	}

	// дата раунда - день первого слота в часовом поясе турнира
	y, m, d := slots[0].Date()
	startDate := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	round := &models.Round{
		RoundNumber:  1,
		Name:         firstRoundName,
		TotalMatches: len(pairs),
		Status:       models.RoundStatusUpcoming,
		StartDate:    &startDate,
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.roundRepo.Create(ctx, exec, round); err != nil {
			return err
		}
		for i, pair := range pairs {
			if err := s.createScheduledMatch(ctx, exec, round.ID, pair.Home.ID, pair.Away.ID, slots[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed round 1: %w", mapRepositoryError(err))
	}

	s.logger.InfoContext(ctx, "Round 1 seeded",
		slog.String("round_id", round.ID.String()),
		slog.Int("participants", len(ranked)),
		slog.Int("matches", len(pairs)))
	return &SeedResult{RoundID: round.ID, MatchCount: len(pairs), Round: round}, nil
}

func (s *bracketService) createScheduledMatch(ctx context.Context, exec repositories.SQLExecutor, roundID, home, away uuid.UUID, at time.Time) error {
	scheduledAt := at
	match := &models.Match{
		RoundID:           roundID,
		HomeParticipantID: &home,
		AwayParticipantID: &away,
		Status:            models.MatchStatusScheduled,
		ScheduledAt:       &scheduledAt,
	}
	return s.matchRepo.Create(ctx, exec, match)
}

func (s *bracketService) ApplyMatchResult(ctx context.Context, matchID uuid.UUID, result MatchResultInput) (*MatchOutcome, error) {
	if err := result.validate(); err != nil {
		return nil, err
	}

	outcome := &MatchOutcome{}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match, transitioned, err := s.matchRepo.Complete(ctx, exec, matchID, repositories.MatchResult{
			HomeGoals:        *result.HomeGoals,
			AwayGoals:        *result.AwayGoals,
			HomePassAccuracy: result.HomePassAccuracy,
			AwayPassAccuracy: result.AwayPassAccuracy,
			HomePossession:   result.HomePossession,
			AwayPossession:   result.AwayPossession,
		})
		if err != nil {
			return err
		}
		outcome.Match = *match
		outcome.Completed = transitioned
		if !transitioned {
			// повторная отправка: состояние не меняем
			return nil
		}

		if match.HomeParticipantID != nil {
			if err := s.participantRepo.UpdateStats(ctx, exec, *match.HomeParticipantID, result.HomePassAccuracy, result.HomePossession); err != nil {
				return err
			}
		}
		if match.AwayParticipantID != nil {
			if err := s.participantRepo.UpdateStats(ctx, exec, *match.AwayParticipantID, result.AwayPassAccuracy, result.AwayPossession); err != nil {
				return err
			}
		}

		var loser *uuid.UUID
		switch {
		case match.HomeGoals < match.AwayGoals:
			loser = match.HomeParticipantID
		case match.AwayGoals < match.HomeGoals:
			loser = match.AwayParticipantID
		}
		if loser != nil {
			return s.participantRepo.MarkEliminated(ctx, exec, *loser)
		}
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	if outcome.Completed {
		s.logger.InfoContext(ctx, "Match result applied",
			slog.String("match_id", matchID.String()),
			slog.Int("home_goals", outcome.Match.HomeGoals),
			slog.Int("away_goals", outcome.Match.AwayGoals))
	}
	return outcome, nil
}

func (s *bracketService) TryAdvanceRound(ctx context.Context, roundID uuid.UUID, autoAdvance bool) (*AdvanceResult, error) {
	matches, err := s.matchRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of round %s: %w", roundID, err)
	}
	if len(matches) == 0 || !allCompleted(matches) {
		return nil, nil
	}
	if !autoAdvance {
		return &AdvanceResult{RoundID: roundID, ReadyToAdvance: true}, nil
	}
	return s.AdvanceRound(ctx, roundID)
}

// AdvanceRound pairs the winners of a finished round into the next round.
// Drawn matches send nobody forward. The new matches continue after the latest
// scheduled match across all rounds. Between the completion check and the insert
// another match may still be added to the source round; that window is not guarded.
func (s *bracketService) AdvanceRound(ctx context.Context, roundID uuid.UUID) (*AdvanceResult, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	matches, err := s.matchRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of round %s: %w", roundID, err)
	}
	if len(matches) == 0 {
		return nil, ErrRoundEmpty
	}
	if !allCompleted(matches) {
		return nil, ErrRoundIncomplete
	}

	winners := brackets.Winners(matches)
	ids := make([]uuid.UUID, len(winners))
	for i, w := range winners {
		ids[i] = w.ParticipantID
	}
	pairs := brackets.PairConsecutive(ids)

	anchor, err := s.schedule.GlobalAnchor(ctx)
	if err != nil {
		return nil, err
	}
	slots, err := s.schedule.ContinuationSlots(ctx, anchor, len(pairs))
	if err != nil {
		return nil, err
	}

	nextNumber := round.RoundNumber + 1
	next := &models.Round{
		RoundNumber:  nextNumber,
		Name:         brackets.RoundName(nextNumber),
		TotalMatches: len(pairs),
		Status:       models.RoundStatusUpcoming,
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.roundRepo.Create(ctx, exec, next); err != nil {
			return err
		}
		for i, pair := range pairs {
			if err := s.createScheduledMatch(ctx, exec, next.ID, pair.Home, pair.Away, slots[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to advance round %s: %w", roundID, mapRepositoryError(err))
	}

	s.logger.InfoContext(ctx, "Round advanced",
		slog.String("from_round_id", roundID.String()),
		slog.String("next_round_id", next.ID.String()),
		slog.Int("winners", len(winners)),
		slog.Int("matches", len(pairs)))
	return &AdvanceResult{
		RoundID:        roundID,
		ReadyToAdvance: true,
		Advanced:       true,
		NextRound:      next,
		MatchCount:     len(pairs),
	}, nil
}

func allCompleted(matches []models.Match) bool {
	for _, m := range matches {
		if m.Status != models.MatchStatusCompleted {
			return false
		}
	}
	return true
}

func (s *bracketService) GetBracket(ctx context.Context) (*BracketView, error) {
	var (
		rounds       []models.Round
		matches      []models.Match
		participants []models.Participant
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rounds, err = s.roundRepo.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to load rounds: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.List(gCtx, repositories.ListMatchesFilter{})
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.ListAll(gCtx)
		if err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := indexParticipants(participants)
	byRound := make(map[uuid.UUID][]MatchView, len(rounds))
	for _, m := range matches {
		byRound[m.RoundID] = append(byRound[m.RoundID], toMatchView(m, byID))
	}

	view := &BracketView{Rounds: make([]RoundView, 0, len(rounds)), GeneratedAt: s.now().UTC()}
	for _, r := range rounds {
		roundMatches := byRound[r.ID]
		if roundMatches == nil {
			roundMatches = []MatchView{}
		}
		view.Rounds = append(view.Rounds, RoundView{Round: r, Matches: roundMatches})
	}
	return view, nil
}
