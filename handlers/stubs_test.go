package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/efootball-tournament/brackets"
	"github.com/Dosada05/efootball-tournament/models"
	"github.com/Dosada05/efootball-tournament/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve прогоняет запрос через chi, чтобы URLParam работал как в бою.
func serve(method, pattern, target, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type stubBracketService struct {
	seedDate   time.Time
	seedResult *services.SeedResult
	seedErr    error

	tryAuto   bool
	tryResult *services.AdvanceResult
	tryErr    error

	advanceResult *services.AdvanceResult
	advanceErr    error

	createParams services.CreateRoundParams
	createErr    error

	bracket *services.BracketView
}

func (s *stubBracketService) CreateRound(_ context.Context, params services.CreateRoundParams) (*models.Round, error) {
	s.createParams = params
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.Round{ID: uuid.New(), Name: params.Name, RoundNumber: params.RoundNumber}, nil
}

func (s *stubBracketService) SeedRound1(_ context.Context, date time.Time) (*services.SeedResult, error) {
	s.seedDate = date
	return s.seedResult, s.seedErr
}

func (s *stubBracketService) ApplyMatchResult(context.Context, uuid.UUID, services.MatchResultInput) (*services.MatchOutcome, error) {
	return nil, errBoom
}

func (s *stubBracketService) TryAdvanceRound(_ context.Context, _ uuid.UUID, auto bool) (*services.AdvanceResult, error) {
	s.tryAuto = auto
	return s.tryResult, s.tryErr
}

func (s *stubBracketService) AdvanceRound(context.Context, uuid.UUID) (*services.AdvanceResult, error) {
	return s.advanceResult, s.advanceErr
}

func (s *stubBracketService) GetBracket(context.Context) (*services.BracketView, error) {
	if s.bracket == nil {
		return &services.BracketView{Rounds: []services.RoundView{}}, nil
	}
	return s.bracket, nil
}

type stubRoundService struct {
	rounds    []models.Round
	getErr    error
	updateIn  services.UpdateRoundInput
	updateErr error
	deleteErr error
}

func (s *stubRoundService) ListRounds(context.Context) ([]models.Round, error) {
	return s.rounds, nil
}

func (s *stubRoundService) GetRound(_ context.Context, id uuid.UUID) (*models.Round, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.Round{ID: id, Name: "Round 1", RoundNumber: 1}, nil
}

func (s *stubRoundService) UpdateRound(_ context.Context, id uuid.UUID, in services.UpdateRoundInput) (*models.Round, error) {
	s.updateIn = in
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &models.Round{ID: id}, nil
}

func (s *stubRoundService) DeleteRound(context.Context, uuid.UUID) error {
	return s.deleteErr
}

type stubMatchService struct {
	filter services.MatchListFilter

	startActor *uuid.UUID
	startEvent services.Event
	startErr   error

	goalEvent services.Event
	goalErr   error

	endInput services.MatchResultInput
	endEvent services.Event
	endErr   error

	publishInput services.PublishMatchInput
	deleteErr    error
}

func (s *stubMatchService) view(id uuid.UUID) *services.MatchView {
	return &services.MatchView{Match: models.Match{ID: id}, HomeName: "TBD", AwayName: "TBD"}
}

func (s *stubMatchService) ListMatches(_ context.Context, filter services.MatchListFilter) ([]services.MatchView, error) {
	s.filter = filter
	return []services.MatchView{}, nil
}

func (s *stubMatchService) GetMatch(_ context.Context, id uuid.UUID) (*services.MatchView, error) {
	return s.view(id), nil
}

func (s *stubMatchService) CreateMatch(_ context.Context, in services.CreateMatchInput) (*services.MatchView, error) {
	v := s.view(uuid.New())
	v.RoundID = in.RoundID
	return v, nil
}

func (s *stubMatchService) UpdateMatch(_ context.Context, id uuid.UUID, _ services.UpdateMatchInput) (*services.MatchView, error) {
	return s.view(id), nil
}

func (s *stubMatchService) DeleteMatch(context.Context, uuid.UUID) error {
	return s.deleteErr
}

func (s *stubMatchService) StartMatch(_ context.Context, id uuid.UUID, actor *uuid.UUID) (*services.MatchView, services.Event, error) {
	s.startActor = actor
	if s.startErr != nil {
		return nil, nil, s.startErr
	}
	return s.view(id), s.startEvent, nil
}

func (s *stubMatchService) RecordGoal(_ context.Context, id uuid.UUID, in services.GoalInput) (*services.MatchView, *models.MatchEvent, services.Event, error) {
	if s.goalErr != nil {
		return nil, nil, nil, s.goalErr
	}
	return s.view(id), &models.MatchEvent{MatchID: id, EventType: in.EventType}, s.goalEvent, nil
}

func (s *stubMatchService) EndMatch(_ context.Context, id uuid.UUID, in services.MatchResultInput) (*services.MatchView, services.Event, error) {
	s.endInput = in
	if s.endErr != nil {
		return nil, nil, s.endErr
	}
	return s.view(id), s.endEvent, nil
}

func (s *stubMatchService) PublishMatch(_ context.Context, id uuid.UUID, in services.PublishMatchInput) (*services.MatchView, error) {
	s.publishInput = in
	return s.view(id), nil
}

type stubSuggestionService struct {
	pairs []brackets.Pairing
	err   error
}

func (s *stubSuggestionService) Suggest(context.Context, uuid.UUID) ([]brackets.Pairing, error) {
	return s.pairs, s.err
}

type stubParticipantService struct {
	created bool
	err     error
	limit   int
}

func (s *stubParticipantService) ListActive(context.Context) ([]models.Participant, error) {
	return []models.Participant{}, nil
}

func (s *stubParticipantService) ListRanked(_ context.Context, limit int) ([]models.Participant, error) {
	s.limit = limit
	return []models.Participant{}, nil
}

func (s *stubParticipantService) Register(_ context.Context, in services.RegisterParticipantInput) (*models.Participant, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	return &models.Participant{ID: uuid.New(), FullName: in.FullName}, s.created, nil
}

func (s *stubParticipantService) Eliminate(_ context.Context, id uuid.UUID) (*models.Participant, error) {
	return &models.Participant{ID: id, Eliminated: true}, nil
}

type stubExportService struct {
	result *services.ExportResult
	err    error
}

func (s *stubExportService) ExportBracket(context.Context) (*services.ExportResult, error) {
	return s.result, s.err
}

type stubTournamentService struct{}

func (stubTournamentService) GetInfo(context.Context) (*models.TournamentInfo, error) {
	return &models.TournamentInfo{Status: "open"}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type recordingPublisher struct {
	mu     sync.Mutex
	events []services.Event
}

func (p *recordingPublisher) Publish(e services.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
