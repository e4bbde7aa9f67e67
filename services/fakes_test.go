package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/efootball-tournament/brackets"
	"github.com/Dosada05/efootball-tournament/models"
	"github.com/Dosada05/efootball-tournament/repositories"
	"github.com/Dosada05/efootball-tournament/storage"
	"github.com/google/uuid"
)

var errInjected = errors.New("injected storage failure")

// memStore - in-memory storage shared by the fake repositories.
type memStore struct {
	mu           sync.Mutex
	participants map[uuid.UUID]models.Participant
	rounds       []models.Round
	matches      []models.Match
	events       []models.MatchEvent
	config       map[string]json.RawMessage
	clock        time.Time

	// failMatchCreateAt fails the n-th (1-based) match insert; 0 disables.
	failMatchCreateAt int
	matchCreates      int
	// failParticipantLookup fails ListByIDs.
	failParticipantLookup bool
}

func newMemStore() *memStore {
	return &memStore{
		participants: make(map[uuid.UUID]models.Participant),
		config:       make(map[string]json.RawMessage),
		clock:        time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type memSnapshot struct {
	participants map[uuid.UUID]models.Participant
	rounds       []models.Round
	matches      []models.Match
	events       []models.MatchEvent
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps := make(map[uuid.UUID]models.Participant, len(s.participants))
	for k, v := range s.participants {
		ps[k] = v
	}
	return memSnapshot{
		participants: ps,
		rounds:       append([]models.Round(nil), s.rounds...),
		matches:      append([]models.Match(nil), s.matches...),
		events:       append([]models.MatchEvent(nil), s.events...),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = snap.participants
	s.rounds = snap.rounds
	s.matches = snap.matches
	s.events = snap.events
}

func (s *memStore) addParticipant(name string, acc, poss *float64) models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Participant{
		ID:                uuid.New(),
		FullName:          name,
		EfootballUsername: name,
		AvgPassAccuracy:   acc,
		AvgPossession:     poss,
		CreatedAt:         s.tick(),
	}
	s.participants[p.ID] = p
	return p
}

func (s *memStore) participant(id uuid.UUID) models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participants[id]
}

func (s *memStore) match(id uuid.UUID) models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.ID == id {
			return m
		}
	}
	return models.Match{}
}

func (s *memStore) roundsByNumber(number int) []models.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Round
	for _, r := range s.rounds {
		if r.RoundNumber == number {
			out = append(out, r)
		}
	}
	return out
}

func (s *memStore) matchesOf(roundID uuid.UUID) []models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Match
	for _, m := range s.matches {
		if m.RoundID == roundID {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) setMatch(m models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.matches {
		if s.matches[i].ID == m.ID {
			s.matches[i] = m
			return
		}
	}
	s.matches = append(s.matches, m)
}

func (s *memStore) matchIndex(id uuid.UUID) int {
	for i := range s.matches {
		if s.matches[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *memStore) roundIndex(id uuid.UUID) int {
	for i := range s.rounds {
		if s.rounds[i].ID == id {
			return i
		}
	}
	return -1
}

// --- Transactor ---

type fakeTx struct{ store *memStore }

func (t fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	snap := t.store.snapshot()
	if err := fn(nil); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// --- Participants ---

type fakeParticipantRepo struct{ store *memStore }

func (r fakeParticipantRepo) CreateIfAbsent(ctx context.Context, p *models.Participant) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.UserID != nil {
		for _, existing := range s.participants {
			if existing.UserID != nil && *existing.UserID == *p.UserID {
				*p = existing
				return false, nil
			}
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = s.tick()
	s.participants[p.ID] = *p
	return true, nil
}

func (r fakeParticipantRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	return &p, nil
}

func (r fakeParticipantRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Participant, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants {
		if p.UserID != nil && *p.UserID == userID {
			return &p, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r fakeParticipantRepo) sorted(filter func(models.Participant) bool, less func(a, b models.Participant) bool) []models.Participant {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		if filter(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byCreation(a, b models.Participant) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func (r fakeParticipantRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Participant, error) {
	if r.store.failParticipantLookup {
		return nil, errInjected
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return r.sorted(func(p models.Participant) bool { return want[p.ID] }, byCreation), nil
}

func (r fakeParticipantRepo) ListAll(ctx context.Context) ([]models.Participant, error) {
	return r.sorted(func(models.Participant) bool { return true }, byCreation), nil
}

func (r fakeParticipantRepo) ListEligible(ctx context.Context) ([]models.Participant, error) {
	return r.sorted(
		func(p models.Participant) bool { return !p.Eliminated },
		func(a, b models.Participant) bool { return a.ID.String() < b.ID.String() },
	), nil
}

func (r fakeParticipantRepo) ListActive(ctx context.Context) ([]models.Participant, error) {
	return r.sorted(
		func(p models.Participant) bool { return !p.Eliminated },
		func(a, b models.Participant) bool { return a.FullName < b.FullName },
	), nil
}

func (r fakeParticipantRepo) ListRanked(ctx context.Context, limit int) ([]models.Participant, error) {
	eligible := r.sorted(func(p models.Participant) bool { return !p.Eliminated }, byCreation)
	ranked := brackets.RankByStats(eligible)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (r fakeParticipantRepo) UpdateStats(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, acc, poss *float64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	if acc != nil {
		v := *acc
		p.AvgPassAccuracy = &v
	}
	if poss != nil {
		v := *poss
		p.AvgPossession = &v
	}
	s.participants[id] = p
	return nil
}

func (r fakeParticipantRepo) MarkEliminated(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Eliminated = true
	s.participants[id] = p
	return nil
}

// --- Rounds ---

type fakeRoundRepo struct{ store *memStore }

func (r fakeRoundRepo) Create(ctx context.Context, exec repositories.SQLExecutor, round *models.Round) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if round.ID == uuid.Nil {
		round.ID = uuid.New()
	}
	if round.Status == "" {
		round.Status = models.RoundStatusUpcoming
	}
	round.CreatedAt = s.tick()
	round.UpdatedAt = round.CreatedAt
	s.rounds = append(s.rounds, *round)
	return nil
}

func (r fakeRoundRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Round, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.roundIndex(id)
	if i < 0 {
		return nil, repositories.ErrRoundNotFound
	}
	round := s.rounds[i]
	return &round, nil
}

func (r fakeRoundRepo) List(ctx context.Context) ([]models.Round, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Round(nil), s.rounds...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	for i := range out {
		count := 0
		for _, m := range s.matches {
			if m.RoundID == out[i].ID {
				count++
			}
		}
		out[i].MatchCount = &count
	}
	return out, nil
}

func (r fakeRoundRepo) FindLatestByNumber(ctx context.Context, number int) (*models.Round, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Round
	for i := range s.rounds {
		if s.rounds[i].RoundNumber != number {
			continue
		}
		if latest == nil || s.rounds[i].CreatedAt.After(latest.CreatedAt) {
			round := s.rounds[i]
			latest = &round
		}
	}
	if latest == nil {
		return nil, repositories.ErrRoundNotFound
	}
	return latest, nil
}

func (r fakeRoundRepo) Update(ctx context.Context, exec repositories.SQLExecutor, round *models.Round) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.roundIndex(round.ID)
	if i < 0 {
		return repositories.ErrRoundNotFound
	}
	round.UpdatedAt = s.tick()
	seed := s.rounds[i].SuggestionSeed
	s.rounds[i] = *round
	s.rounds[i].SuggestionSeed = seed
	s.rounds[i].MatchCount = nil
	return nil
}

func (r fakeRoundRepo) EnsureSuggestionSeed(ctx context.Context, id uuid.UUID, candidate int32) (int32, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.roundIndex(id)
	if i < 0 {
		return 0, repositories.ErrRoundNotFound
	}
	if s.rounds[i].SuggestionSeed == nil {
		s.rounds[i].SuggestionSeed = &candidate
	}
	return *s.rounds[i].SuggestionSeed, nil
}

func (r fakeRoundRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.roundIndex(id)
	if i < 0 {
		return repositories.ErrRoundNotFound
	}
	for _, m := range s.matches {
		if m.RoundID == id {
			return repositories.ErrRoundHasMatches
		}
	}
	s.rounds = append(s.rounds[:i], s.rounds[i+1:]...)
	return nil
}

// --- Matches ---

type fakeMatchRepo struct{ store *memStore }

func (r fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchCreates++
	if s.failMatchCreateAt > 0 && s.matchCreates == s.failMatchCreateAt {
		return errInjected
	}
	if s.roundIndex(m.RoundID) < 0 {
		return repositories.ErrMatchRoundInvalid
	}
	if m.HomeParticipantID != nil && m.AwayParticipantID != nil && *m.HomeParticipantID == *m.AwayParticipantID {
		return repositories.ErrMatchSameParticipant
	}
	for _, id := range []*uuid.UUID{m.HomeParticipantID, m.AwayParticipantID} {
		if id != nil {
			if _, ok := s.participants[*id]; !ok {
				return repositories.ErrMatchParticipantInvalid
			}
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = models.MatchStatusScheduled
	}
	m.CreatedAt = s.tick()
	m.UpdatedAt = m.CreatedAt
	s.matches = append(s.matches, *m)
	return nil
}

func (r fakeMatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.matchIndex(id)
	if i < 0 {
		return nil, repositories.ErrMatchNotFound
	}
	m := s.matches[i]
	return &m, nil
}

func (r fakeMatchRepo) List(ctx context.Context, f repositories.ListMatchesFilter) ([]models.Match, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Match, 0)
	for _, m := range s.matches {
		if f.Status != nil && m.Status != *f.Status {
			continue
		}
		if f.RoundID != nil && m.RoundID != *f.RoundID {
			continue
		}
		if f.Published != nil && m.Published != *f.Published {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ScheduledAt, out[j].ScheduledAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r fakeMatchRepo) ListByRound(ctx context.Context, roundID uuid.UUID) ([]models.Match, error) {
	return r.List(ctx, repositories.ListMatchesFilter{RoundID: &roundID})
}

func (r fakeMatchRepo) ListAssignedParticipantIDs(ctx context.Context, roundID uuid.UUID) ([]uuid.UUID, error) {
	matches, _ := r.ListByRound(ctx, roundID)
	return participantIDs(matches), nil
}

func (r fakeMatchRepo) latest(filter func(time.Time) bool) *time.Time {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *time.Time
	for _, m := range s.matches {
		if m.ScheduledAt == nil || !filter(*m.ScheduledAt) {
			continue
		}
		if latest == nil || m.ScheduledAt.After(*latest) {
			t := *m.ScheduledAt
			latest = &t
		}
	}
	return latest
}

func (r fakeMatchRepo) LatestScheduledAt(ctx context.Context) (*time.Time, error) {
	return r.latest(func(time.Time) bool { return true }), nil
}

func (r fakeMatchRepo) LatestScheduledAtOrAfter(ctx context.Context, after time.Time) (*time.Time, error) {
	return r.latest(func(t time.Time) bool { return !t.Before(after) }), nil
}

func (r fakeMatchRepo) Update(ctx context.Context, m *models.Match) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.matchIndex(m.ID)
	if i < 0 {
		return repositories.ErrMatchNotFound
	}
	if s.matches[i].Status == models.MatchStatusCompleted {
		return repositories.ErrMatchCompleted
	}
	m.UpdatedAt = s.tick()
	s.matches[i] = *m
	return nil
}

func (r fakeMatchRepo) Start(ctx context.Context, id uuid.UUID, adminID *uuid.UUID) (*models.Match, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.matchIndex(id)
	if i < 0 {
		return nil, false, repositories.ErrMatchNotFound
	}
	m := &s.matches[i]
	if m.Status != models.MatchStatusScheduled {
		current := *m
		return &current, false, nil
	}
	now := s.tick()
	m.Status = models.MatchStatusOngoing
	m.StartedAt = &now
	m.AdminID = adminID
	current := *m
	return &current, true, nil
}

func (r fakeMatchRepo) AddGoal(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, side models.MatchEventType) (*models.Match, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.matchIndex(id)
	if i < 0 {
		return nil, repositories.ErrMatchNotFound
	}
	m := &s.matches[i]
	if m.Status != models.MatchStatusOngoing {
		return nil, repositories.ErrMatchNotOngoing
	}
	if side == models.MatchEventGoalHome {
		m.HomeGoals++
	} else {
		m.AwayGoals++
	}
	current := *m
	return &current, nil
}

func (r fakeMatchRepo) Complete(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, res repositories.MatchResult) (*models.Match, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.matchIndex(id)
	if i < 0 {
		return nil, false, repositories.ErrMatchNotFound
	}
	m := &s.matches[i]
	if m.Status == models.MatchStatusCompleted {
		current := *m
		return &current, false, nil
	}
	now := s.tick()
	m.Status = models.MatchStatusCompleted
	m.HomeGoals, m.AwayGoals = res.HomeGoals, res.AwayGoals
	if res.HomePassAccuracy != nil {
		m.HomePassAccuracy = res.HomePassAccuracy
	}
	if res.AwayPassAccuracy != nil {
		m.AwayPassAccuracy = res.AwayPassAccuracy
	}
	if res.HomePossession != nil {
		m.HomePossession = res.HomePossession
	}
	if res.AwayPossession != nil {
		m.AwayPossession = res.AwayPossession
	}
	m.EndedAt = &now
	current := *m
	return &current, true, nil
}

func (r fakeMatchRepo) Publish(ctx context.Context, id uuid.UUID, p repositories.PublishMatchParams) (*models.Match, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.matchIndex(id)
	if i < 0 {
		return nil, repositories.ErrMatchNotFound
	}
	m := &s.matches[i]
	m.Published = true
	if p.MatchTitle != nil {
		m.MatchTitle = p.MatchTitle
	}
	if p.Venue != nil {
		m.Venue = p.Venue
	}
	if p.ScheduledAt != nil {
		m.ScheduledAt = p.ScheduledAt
	}
	current := *m
	return &current, nil
}

func (r fakeMatchRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.matchIndex(id)
	if i < 0 {
		return repositories.ErrMatchNotFound
	}
	if s.matches[i].Status == models.MatchStatusCompleted {
		return repositories.ErrMatchCompleted
	}
	for _, e := range s.events {
		if e.MatchID == id {
			return repositories.ErrMatchInUse
		}
	}
	s.matches = append(s.matches[:i], s.matches[i+1:]...)
	return nil
}

// --- Events & config ---

type fakeEventRepo struct{ store *memStore }

func (r fakeEventRepo) Create(ctx context.Context, exec repositories.SQLExecutor, e *models.MatchEvent) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = s.tick()
	s.events = append(s.events, *e)
	return nil
}

func (r fakeEventRepo) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]models.MatchEvent, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MatchEvent, 0)
	for _, e := range s.events {
		if e.MatchID == matchID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeConfigRepo struct{ store *memStore }

func (r fakeConfigRepo) GetValues(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]json.RawMessage)
	for _, k := range keys {
		if v, ok := s.config[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// --- Object store ---

type fakeObjectStore struct {
	mu          sync.Mutex
	keys        []string
	contentType string
	body        []byte
	err         error
}

func (f *fakeObjectStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (*storage.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.keys = append(f.keys, key)
	f.contentType, f.body = contentType, b
	return &storage.UploadResult{Key: key, Location: f.GetPublicURL(key)}, nil
}

func (f *fakeObjectStore) uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

func (f *fakeObjectStore) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

// --- Wiring ---

type testEnv struct {
	store       *memStore
	ranking     RankingService
	schedule    ScheduleService
	suggestions SuggestionService
	bracket     BracketService
	rounds      RoundService
	matches     MatchService
	players     ParticipantService
	tournament  TournamentService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv() *testEnv {
	return newTestEnvIn(time.UTC)
}

func newTestEnvIn(loc *time.Location) *testEnv {
	store := newMemStore()
	logger := discardLogger()
	tx := fakeTx{store: store}
	participants := fakeParticipantRepo{store: store}
	rounds := fakeRoundRepo{store: store}
	matches := fakeMatchRepo{store: store}
	events := fakeEventRepo{store: store}
	cfg := fakeConfigRepo{store: store}

	ranking := NewRankingService(participants)
	schedule := NewScheduleService(cfg, matches, loc)
	bracket := NewBracketService(tx, rounds, matches, participants, ranking, schedule, logger)

	return &testEnv{
		store:       store,
		ranking:     ranking,
		schedule:    schedule,
		suggestions: NewSuggestionService(rounds, matches, participants, logger),
		bracket:     bracket,
		rounds:      NewRoundService(rounds, logger),
		matches:     NewMatchService(tx, matches, rounds, participants, events, bracket, logger),
		players:     NewParticipantService(participants, ranking, logger),
		tournament:  NewTournamentService(cfg),
	}
}

func fp(v float64) *float64 { return &v }

func ip(v int) *int { return &v }
