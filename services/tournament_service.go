package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/Dosada05/efootball-tournament/repositories"
)

const (
	DefaultTournamentStatus = "not_started"
	DefaultTournamentName   = "Machakos University Efootball Tournament"
)

type TournamentService interface {
	GetInfo(ctx context.Context) (*models.TournamentInfo, error)
}

type tournamentService struct {
	configRepo repositories.ConfigRepository
}

func NewTournamentService(configRepo repositories.ConfigRepository) TournamentService {
	return &tournamentService{configRepo: configRepo}
}

func (s *tournamentService) GetInfo(ctx context.Context) (*models.TournamentInfo, error) {
	values, err := s.configRepo.GetValues(ctx,
		repositories.ConfigKeyTournamentStatus,
		repositories.ConfigKeyTournamentName,
		repositories.ConfigKeyDailyStartTime,
		repositories.ConfigKeyDailyEndTime,
		repositories.ConfigKeyGamesPerDayRound1,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament config: %w", err)
	}
	return &models.TournamentInfo{
		Status:   stringValue(values[repositories.ConfigKeyTournamentStatus], DefaultTournamentStatus),
		Name:     stringValue(values[repositories.ConfigKeyTournamentName], DefaultTournamentName),
		Schedule: scheduleConfigFrom(values),
	}, nil
}

func loadScheduleConfig(ctx context.Context, repo repositories.ConfigRepository) (models.ScheduleConfig, error) {
	values, err := repo.GetValues(ctx,
		repositories.ConfigKeyDailyStartTime,
		repositories.ConfigKeyDailyEndTime,
		repositories.ConfigKeyGamesPerDayRound1,
	)
	if err != nil {
		return models.ScheduleConfig{}, fmt.Errorf("failed to load schedule config: %w", err)
	}
	return scheduleConfigFrom(values), nil
}

func scheduleConfigFrom(values map[string]json.RawMessage) models.ScheduleConfig {
	return models.ScheduleConfig{
		DailyStartTime:    stringValue(values[repositories.ConfigKeyDailyStartTime], DefaultDailyStartTime),
		DailyEndTime:      stringValue(values[repositories.ConfigKeyDailyEndTime], DefaultDailyEndTime),
		GamesPerDayRound1: intValue(values[repositories.ConfigKeyGamesPerDayRound1], DefaultGamesPerDayRound1),
	}
}

func stringValue(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// intValue принимает и число, и строку с числом ("10").
func intValue(raw json.RawMessage, fallback int) int {
	if len(raw) == 0 {
		return fallback
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
