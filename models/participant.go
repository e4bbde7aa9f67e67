package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant - подтверждённый участник турнира (создаётся после одобрения оплаты).
type Participant struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	UserID            *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	FullName          string     `json:"full_name" db:"full_name"`
	EfootballUsername string     `json:"efootball_username" db:"efootball_username"`
	AvgPassAccuracy   *float64   `json:"avg_pass_accuracy" db:"avg_pass_accuracy"`
	AvgPossession     *float64   `json:"avg_possession" db:"avg_possession"`
	Eliminated        bool       `json:"eliminated" db:"eliminated"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// PassAccuracy returns the running pass accuracy, treating a missing value as 0.
func (p *Participant) PassAccuracy() float64 {
	if p == nil || p.AvgPassAccuracy == nil {
		return 0
	}
	return *p.AvgPassAccuracy
}

// Possession returns the running possession, treating a missing value as 0.
func (p *Participant) Possession() float64 {
	if p == nil || p.AvgPossession == nil {
		return 0
	}
	return *p.AvgPossession
}

// DisplayName prefers the in-game username over the full name.
func (p *Participant) DisplayName() string {
	if p == nil {
		return "TBD"
	}
	if p.EfootballUsername != "" {
		return p.EfootballUsername
	}
	if p.FullName != "" {
		return p.FullName
	}
	return "TBD"
}
