package models

import (
	"time"

	"github.com/google/uuid"
)

type RoundStatus string

const (
	RoundStatusUpcoming   RoundStatus = "upcoming"
	RoundStatusInProgress RoundStatus = "in_progress"
	RoundStatusCompleted  RoundStatus = "completed"
)

func (s RoundStatus) Valid() bool {
	switch s {
	case RoundStatusUpcoming, RoundStatusInProgress, RoundStatusCompleted:
		return true
	}
	return false
}

// Round - этап сетки. Статус выставляется админом, released открывает раунд для публики.
type Round struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	RoundNumber    int         `json:"round_number" db:"round_number"`
	Name           string      `json:"name" db:"name"`
	TotalMatches   int         `json:"total_matches" db:"total_matches"`
	Status         RoundStatus `json:"status" db:"status"`
	Released       bool        `json:"released" db:"released"`
	SuggestionSeed *int32      `json:"-" db:"suggestion_seed"`
	StartDate      *time.Time  `json:"start_date,omitempty" db:"start_date"`
	EndDate        *time.Time  `json:"end_date,omitempty" db:"end_date"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`

	MatchCount *int `json:"match_count,omitempty" db:"-"`
}
