package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/Dosada05/efootball-tournament/repositories"
)

// SlotInterval - шаг между матчами внутри дня.
const SlotInterval = 12 * time.Minute

const (
	DefaultDailyStartTime    = "17:00"
	DefaultDailyEndTime      = "19:00"
	DefaultGamesPerDayRound1 = 10
)

// AssignFreshSlots lays out n matches from startDate's calendar day: gamesPerDay slots per day,
// SlotInterval apart from the daily start time, rolling to the next day when a day is full.
// Round 1 uses the configured games per day; other rounds use min(n, 10).
func AssignFreshSlots(n, roundNumber int, startDate time.Time, cfg models.ScheduleConfig, loc *time.Location) []time.Time {
	gamesPerDay := cfg.GamesPerDayRound1
	if roundNumber != 1 {
		gamesPerDay = min(n, DefaultGamesPerDayRound1)
	}
	if gamesPerDay <= 0 {
		gamesPerDay = DefaultGamesPerDayRound1
	}

	slots := make([]time.Time, 0, n)
	day, slot := 0, 0
	for i := 0; i < n; i++ {
		if slot >= gamesPerDay {
			day++
			slot = 0
		}
		slots = append(slots, dailyStart(startDate, day, cfg, loc).Add(time.Duration(slot)*SlotInterval))
		slot++
	}
	return slots
}

// NextContinuationSlot returns SlotInterval after latest, or the daily start time on afterDate's day
// when no match is scheduled at or after afterDate.
func NextContinuationSlot(afterDate time.Time, latest *time.Time, cfg models.ScheduleConfig, loc *time.Location) time.Time {
	if latest != nil {
		return latest.Add(SlotInterval)
	}
	return dailyStart(afterDate, 0, cfg, loc)
}

// ContinuationSlots spaces n slots SlotInterval apart starting at first.
// No clipping to the daily window.
func ContinuationSlots(first time.Time, n int) []time.Time {
	slots := make([]time.Time, n)
	for i := range slots {
		slots[i] = first.Add(time.Duration(i) * SlotInterval)
	}
	return slots
}

func dailyStart(date time.Time, dayOffset int, cfg models.ScheduleConfig, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	hour, minute := parseClock(cfg.DailyStartTime)
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d+dayOffset, hour, minute, 0, 0, loc)
}

// parseClock разбирает "HH:mm"; при ошибке возвращает 17:00.
func parseClock(value string) (int, int) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 {
		return 17, 0
	}
	hour, errH := strconv.Atoi(parts[0])
	minute, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 17, 0
	}
	return hour, minute
}

type ScheduleService interface {
	FreshSlots(ctx context.Context, n, roundNumber int, startDate time.Time) ([]time.Time, error)
	// ContinuationSlots anchors on the latest match scheduled at or after afterDate.
	ContinuationSlots(ctx context.Context, afterDate time.Time, n int) ([]time.Time, error)
	// GlobalAnchor returns the latest scheduled time over all matches, or now when nothing is scheduled.
	GlobalAnchor(ctx context.Context) (time.Time, error)
}

type scheduleService struct {
	configRepo repositories.ConfigRepository
	matchRepo  repositories.MatchRepository
	loc        *time.Location
	now        func() time.Time
}

func NewScheduleService(configRepo repositories.ConfigRepository, matchRepo repositories.MatchRepository, loc *time.Location) ScheduleService {
	if loc == nil {
		loc = time.UTC
	}
	return &scheduleService{
		configRepo: configRepo,
		matchRepo:  matchRepo,
		loc:        loc,
		now:        time.Now,
	}
}

func (s *scheduleService) FreshSlots(ctx context.Context, n, roundNumber int, startDate time.Time) ([]time.Time, error) {
	cfg, err := loadScheduleConfig(ctx, s.configRepo)
	if err != nil {
		return nil, err
	}
	return AssignFreshSlots(n, roundNumber, startDate, cfg, s.loc), nil
}

func (s *scheduleService) ContinuationSlots(ctx context.Context, afterDate time.Time, n int) ([]time.Time, error) {
	cfg, err := loadScheduleConfig(ctx, s.configRepo)
	if err != nil {
		return nil, err
	}
	latest, err := s.matchRepo.LatestScheduledAtOrAfter(ctx, afterDate)
	if err != nil {
		return nil, fmt.Errorf("failed to find continuation anchor: %w", err)
	}
	return ContinuationSlots(NextContinuationSlot(afterDate, latest, cfg, s.loc), n), nil
}

func (s *scheduleService) GlobalAnchor(ctx context.Context) (time.Time, error) {
	latest, err := s.matchRepo.LatestScheduledAt(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to find latest scheduled match: %w", err)
	}
	if latest == nil {
		return s.now(), nil
	}
	return *latest, nil
}
