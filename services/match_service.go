package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/Dosada05/efootball-tournament/repositories"
	"github.com/google/uuid"
)

type MatchListFilter struct {
	// Status accepts "upcoming" as an alias of scheduled.
	Status    string
	RoundID   *uuid.UUID
	Published *bool
}

type CreateMatchInput struct {
	RoundID           uuid.UUID  `json:"round_id"`
	HomeParticipantID *uuid.UUID `json:"participant_home_id"`
	AwayParticipantID *uuid.UUID `json:"participant_away_id"`
	MatchTitle        *string    `json:"match_title"`
	Venue             *string    `json:"venue"`
	ScheduledAt       *time.Time `json:"scheduled_at"`
	Published         bool       `json:"published"`
}

type UpdateMatchInput struct {
	HomeParticipantID *uuid.UUID `json:"participant_home_id"`
	AwayParticipantID *uuid.UUID `json:"participant_away_id"`
	MatchTitle        *string    `json:"match_title"`
	Venue             *string    `json:"venue"`
	ScheduledAt       *time.Time `json:"scheduled_at"`
	Published         *bool      `json:"published"`
}

type GoalInput struct {
	EventType models.MatchEventType `json:"event_type"`
	Minute    *int                  `json:"minute"`
}

type PublishMatchInput struct {
	MatchTitle  *string    `json:"match_title"`
	Venue       *string    `json:"venue"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type MatchService interface {
	ListMatches(ctx context.Context, filter MatchListFilter) ([]MatchView, error)
	GetMatch(ctx context.Context, id uuid.UUID) (*MatchView, error)
	CreateMatch(ctx context.Context, input CreateMatchInput) (*MatchView, error)
	UpdateMatch(ctx context.Context, id uuid.UUID, input UpdateMatchInput) (*MatchView, error)
	DeleteMatch(ctx context.Context, id uuid.UUID) error
	// StartMatch returns a nil event when the match was already ongoing.
	StartMatch(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*MatchView, Event, error)
	RecordGoal(ctx context.Context, id uuid.UUID, input GoalInput) (*MatchView, *models.MatchEvent, Event, error)
	// EndMatch applies the result; the event is nil when the match was already completed.
	EndMatch(ctx context.Context, id uuid.UUID, result MatchResultInput) (*MatchView, Event, error)
	PublishMatch(ctx context.Context, id uuid.UUID, input PublishMatchInput) (*MatchView, error)
}

type matchService struct {
	tx              repositories.Transactor
	matchRepo       repositories.MatchRepository
	roundRepo       repositories.RoundRepository
	participantRepo repositories.ParticipantRepository
	eventRepo       repositories.MatchEventRepository
	bracket         BracketService
	logger          *slog.Logger
}

func NewMatchService(
	tx repositories.Transactor,
	matchRepo repositories.MatchRepository,
	roundRepo repositories.RoundRepository,
	participantRepo repositories.ParticipantRepository,
	eventRepo repositories.MatchEventRepository,
	bracket BracketService,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tx:              tx,
		matchRepo:       matchRepo,
		roundRepo:       roundRepo,
		participantRepo: participantRepo,
		eventRepo:       eventRepo,
		bracket:         bracket,
		logger:          logger,
	}
}

func parseMatchStatus(value string) (*models.MatchStatus, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return nil, nil
	}
	status := models.MatchStatus(value)
	if value == "upcoming" {
		status = models.MatchStatusScheduled
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown match status %q", ErrValidationFailed, value)
	}
	return &status, nil
}

func (s *matchService) ListMatches(ctx context.Context, filter MatchListFilter) ([]MatchView, error) {
	status, err := parseMatchStatus(filter.Status)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.List(ctx, repositories.ListMatchesFilter{
		Status:    status,
		RoundID:   filter.RoundID,
		Published: filter.Published,
	})
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, matches)
}

func (s *matchService) GetMatch(ctx context.Context, id uuid.UUID) (*MatchView, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.enrichOne(ctx, match)
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*MatchView, error) {
	if input.RoundID == uuid.Nil {
		return nil, fmt.Errorf("%w: round_id is required", ErrValidationFailed)
	}
	if sameParticipant(input.HomeParticipantID, input.AwayParticipantID) {
		return nil, ErrSameParticipant
	}

	round, err := s.roundRepo.GetByID(ctx, input.RoundID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if round.Status == models.RoundStatusCompleted {
		return nil, ErrRoundCompleted
	}

	match := &models.Match{
		RoundID:           input.RoundID,
		HomeParticipantID: input.HomeParticipantID,
		AwayParticipantID: input.AwayParticipantID,
		Status:            models.MatchStatusScheduled,
		MatchTitle:        trimmedOrNil(input.MatchTitle),
		Venue:             trimmedOrNil(input.Venue),
		ScheduledAt:       input.ScheduledAt,
		Published:         input.Published,
	}
	if err := s.matchRepo.Create(ctx, nil, match); err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.enrichOne(ctx, match)
}

func (s *matchService) UpdateMatch(ctx context.Context, id uuid.UUID, input UpdateMatchInput) (*MatchView, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if match.Status == models.MatchStatusCompleted {
		return nil, ErrMatchCompleted
	}

	if input.HomeParticipantID != nil {
		match.HomeParticipantID = input.HomeParticipantID
	}
	if input.AwayParticipantID != nil {
		match.AwayParticipantID = input.AwayParticipantID
	}
	if sameParticipant(match.HomeParticipantID, match.AwayParticipantID) {
		return nil, ErrSameParticipant
	}
	if input.MatchTitle != nil {
		match.MatchTitle = trimmedOrNil(input.MatchTitle)
	}
	if input.Venue != nil {
		match.Venue = trimmedOrNil(input.Venue)
	}
	if input.ScheduledAt != nil {
		match.ScheduledAt = input.ScheduledAt
	}
	if input.Published != nil {
		match.Published = *input.Published
	}

	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.enrichOne(ctx, match)
}

func (s *matchService) DeleteMatch(ctx context.Context, id uuid.UUID) error {
	if err := s.matchRepo.Delete(ctx, id); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

func (s *matchService) StartMatch(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*MatchView, Event, error) {
	match, started, err := s.matchRepo.Start(ctx, id, actorID)
	if err != nil {
		return nil, nil, mapRepositoryError(err)
	}
	if !started && match.Status == models.MatchStatusCompleted {
		return nil, nil, ErrMatchCompleted
	}

	view, err := s.enrichOne(ctx, match)
	if err != nil {
		return nil, nil, err
	}
	if !started {
		return view, nil, nil
	}
	s.logger.InfoContext(ctx, "Match started", slog.String("match_id", id.String()))
	return view, MatchStarted{Match: *view}, nil
}

func (s *matchService) RecordGoal(ctx context.Context, id uuid.UUID, input GoalInput) (*MatchView, *models.MatchEvent, Event, error) {
	if input.EventType != models.MatchEventGoalHome && input.EventType != models.MatchEventGoalAway {
		return nil, nil, nil, ErrInvalidEventType
	}
	if input.Minute != nil && *input.Minute < 0 {
		return nil, nil, nil, fmt.Errorf("%w: minute must not be negative", ErrValidationFailed)
	}

	var (
		match *models.Match
		event = &models.MatchEvent{MatchID: id, EventType: input.EventType, Minute: input.Minute}
	)
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.matchRepo.AddGoal(ctx, exec, id, input.EventType)
		if err != nil {
			return err
		}
		return s.eventRepo.Create(ctx, exec, event)
	})
	if err != nil {
		return nil, nil, nil, mapRepositoryError(err)
	}

	view, err := s.enrichOne(ctx, match)
	if err != nil {
		return nil, nil, nil, err
	}
	return view, event, GoalScored{Match: *view, Event: *event}, nil
}

func (s *matchService) EndMatch(ctx context.Context, id uuid.UUID, result MatchResultInput) (*MatchView, Event, error) {
	outcome, err := s.bracket.ApplyMatchResult(ctx, id, result)
	if err != nil {
		return nil, nil, err
	}

	// результат уже зафиксирован: без имён участников, но событие не теряем
	view, err := s.enrichOne(ctx, &outcome.Match)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load participants for ended match",
			slog.String("match_id", id.String()),
			slog.Any("error", err))
		fallback := toMatchView(outcome.Match, nil)
		view = &fallback
	}

	// Продвижение раунда не должно ломать ответ на завершение матча.
	advance, err := s.bracket.TryAdvanceRound(ctx, outcome.Match.RoundID, false)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "Round advancement check failed",
			slog.String("round_id", outcome.Match.RoundID.String()),
			slog.Any("error", err))
	case advance != nil && advance.ReadyToAdvance:
		s.logger.InfoContext(ctx, "Round complete, ready to advance",
			slog.String("round_id", outcome.Match.RoundID.String()))
	}

	if !outcome.Completed {
		return view, nil, nil
	}
	return view, MatchEnded{Match: *view}, nil
}

func (s *matchService) PublishMatch(ctx context.Context, id uuid.UUID, input PublishMatchInput) (*MatchView, error) {
	if input.MatchTitle != nil || input.Venue != nil || input.ScheduledAt != nil {
		current, err := s.matchRepo.GetByID(ctx, id)
		if err != nil {
			return nil, mapRepositoryError(err)
		}
		if current.Status == models.MatchStatusCompleted {
			return nil, ErrMatchCompleted
		}
	}

	match, err := s.matchRepo.Publish(ctx, id, repositories.PublishMatchParams{
		MatchTitle:  trimmedOrNil(input.MatchTitle),
		Venue:       trimmedOrNil(input.Venue),
		ScheduledAt: input.ScheduledAt,
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.enrichOne(ctx, match)
}

func (s *matchService) enrich(ctx context.Context, matches []models.Match) ([]MatchView, error) {
	views := make([]MatchView, 0, len(matches))
	if len(matches) == 0 {
		return views, nil
	}
	participants, err := s.participantRepo.ListByIDs(ctx, participantIDs(matches))
	if err != nil {
		return nil, fmt.Errorf("failed to load match participants: %w", err)
	}
	byID := indexParticipants(participants)
	for _, m := range matches {
		views = append(views, toMatchView(m, byID))
	}
	return views, nil
}

func (s *matchService) enrichOne(ctx context.Context, match *models.Match) (*MatchView, error) {
	views, err := s.enrich(ctx, []models.Match{*match})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func sameParticipant(home, away *uuid.UUID) bool {
	return home != nil && away != nil && *home == *away
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
