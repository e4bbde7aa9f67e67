package services

import (
	"github.com/Dosada05/efootball-tournament/models"
	"github.com/google/uuid"
)

type EventKind string

const (
	EventMatchStarted EventKind = "match:started"
	EventGoalScored   EventKind = "match:goal"
	EventMatchEnded   EventKind = "match:ended"
)

// Event - доменное событие, которое сервис возвращает вызывающему.
// Доставку подписчикам выполняет отдельный диспетчер.
type Event interface {
	Kind() EventKind
	MatchID() uuid.UUID
	Payload() interface{}
}

type EventPublisher interface {
	Publish(event Event)
}

type MatchStarted struct {
	Match MatchView
}

func (e MatchStarted) Kind() EventKind      { return EventMatchStarted }
func (e MatchStarted) MatchID() uuid.UUID   { return e.Match.ID }
func (e MatchStarted) Payload() interface{} { return e.Match }

type GoalScored struct {
	Match MatchView
	Event models.MatchEvent
}

type goalPayload struct {
	MatchID   uuid.UUID         `json:"match_id"`
	HomeGoals int               `json:"home_goals"`
	AwayGoals int               `json:"away_goals"`
	Event     models.MatchEvent `json:"event"`
	Match     MatchView         `json:"match"`
}

func (e GoalScored) Kind() EventKind    { return EventGoalScored }
func (e GoalScored) MatchID() uuid.UUID { return e.Match.ID }
func (e GoalScored) Payload() interface{} {
	return goalPayload{
		MatchID:   e.Match.ID,
		HomeGoals: e.Match.HomeGoals,
		AwayGoals: e.Match.AwayGoals,
		Event:     e.Event,
		Match:     e.Match,
	}
}

type MatchEnded struct {
	Match MatchView
}

func (e MatchEnded) Kind() EventKind      { return EventMatchEnded }
func (e MatchEnded) MatchID() uuid.UUID   { return e.Match.ID }
func (e MatchEnded) Payload() interface{} { return e.Match }
