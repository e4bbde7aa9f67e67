package models

// ScheduleConfig holds the persisted daily scheduling window.
type ScheduleConfig struct {
	DailyStartTime    string `json:"daily_start_time"`
	DailyEndTime      string `json:"daily_end_time"`
	GamesPerDayRound1 int    `json:"games_per_day_round1"`
}

type TournamentInfo struct {
	Status   string         `json:"tournament_status"`
	Name     string         `json:"tournament_name"`
	Schedule ScheduleConfig `json:"schedule"`
}
