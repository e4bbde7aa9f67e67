package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchEventType string

const (
	MatchEventGoalHome MatchEventType = "goal_home"
	MatchEventGoalAway MatchEventType = "goal_away"
)

// MatchEvent - запись журнала матча, только добавление.
type MatchEvent struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	MatchID   uuid.UUID      `json:"match_id" db:"match_id"`
	EventType MatchEventType `json:"event_type" db:"event_type"`
	Minute    *int           `json:"minute" db:"minute"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}
