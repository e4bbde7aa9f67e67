package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusOngoing   MatchStatus = "ongoing"
	MatchStatusCompleted MatchStatus = "completed"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusScheduled, MatchStatusOngoing, MatchStatusCompleted:
		return true
	}
	return false
}

type Match struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	RoundID           uuid.UUID   `json:"round_id" db:"round_id"`
	HomeParticipantID *uuid.UUID  `json:"participant_home_id" db:"participant_home_id"`
	AwayParticipantID *uuid.UUID  `json:"participant_away_id" db:"participant_away_id"`
	Status            MatchStatus `json:"status" db:"status"`
	HomeGoals         int         `json:"home_goals" db:"home_goals"`
	AwayGoals         int         `json:"away_goals" db:"away_goals"`
	HomePassAccuracy  *float64    `json:"home_pass_accuracy" db:"home_pass_accuracy"`
	AwayPassAccuracy  *float64    `json:"away_pass_accuracy" db:"away_pass_accuracy"`
	HomePossession    *float64    `json:"home_possession" db:"home_possession"`
	AwayPossession    *float64    `json:"away_possession" db:"away_possession"`
	MatchTitle        *string     `json:"match_title" db:"match_title"`
	Venue             *string     `json:"venue" db:"venue"`
	Published         bool        `json:"published" db:"published"`
	ScheduledAt       *time.Time  `json:"scheduled_at" db:"scheduled_at"`
	StartedAt         *time.Time  `json:"started_at" db:"started_at"`
	EndedAt           *time.Time  `json:"ended_at" db:"ended_at"`
	AdminID           *uuid.UUID  `json:"admin_id" db:"admin_id"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// Winner returns the side with strictly more goals of a completed match. A draw has no winner.
func (m *Match) Winner() *uuid.UUID {
	if m.Status != MatchStatusCompleted {
		return nil
	}
	switch {
	case m.HomeGoals > m.AwayGoals:
		return m.HomeParticipantID
	case m.AwayGoals > m.HomeGoals:
		return m.AwayParticipantID
	}
	return nil
}

// StatsFor returns pass accuracy and possession recorded for the given side (0 when absent).
func (m *Match) StatsFor(participantID uuid.UUID) (passAccuracy, possession float64) {
	acc, poss := m.AwayPassAccuracy, m.AwayPossession
	if m.HomeParticipantID != nil && *m.HomeParticipantID == participantID {
		acc, poss = m.HomePassAccuracy, m.HomePossession
	}
	if acc != nil {
		passAccuracy = *acc
	}
	if poss != nil {
		possession = *poss
	}
	return passAccuracy, possession
}

// HasParticipant reports whether the participant plays on either side.
func (m *Match) HasParticipant(participantID uuid.UUID) bool {
	return (m.HomeParticipantID != nil && *m.HomeParticipantID == participantID) ||
		(m.AwayParticipantID != nil && *m.AwayParticipantID == participantID)
}
