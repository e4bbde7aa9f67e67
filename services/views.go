package services

import (
	"time"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/google/uuid"
)

// MatchView - матч с именами участников для чтения и событий.
type MatchView struct {
	models.Match
	HomeName              string     `json:"home_name"`
	AwayName              string     `json:"away_name"`
	HomeUsername          *string    `json:"home_username"`
	AwayUsername          *string    `json:"away_username"`
	HomeParticipantUserID *uuid.UUID `json:"home_participant_user_id"`
	AwayParticipantUserID *uuid.UUID `json:"away_participant_user_id"`
}

type RoundView struct {
	models.Round
	Matches []MatchView `json:"matches"`
}

type BracketView struct {
	Rounds      []RoundView `json:"rounds"`
	GeneratedAt time.Time   `json:"generated_at"`
}

func toMatchView(m models.Match, participants map[uuid.UUID]models.Participant) MatchView {
	view := MatchView{Match: m, HomeName: "TBD", AwayName: "TBD"}
	if m.HomeParticipantID != nil {
		if p, ok := participants[*m.HomeParticipantID]; ok {
			view.HomeName = p.DisplayName()
			view.HomeUsername = nonEmpty(p.EfootballUsername)
			view.HomeParticipantUserID = p.UserID
		}
	}
	if m.AwayParticipantID != nil {
		if p, ok := participants[*m.AwayParticipantID]; ok {
			view.AwayName = p.DisplayName()
			view.AwayUsername = nonEmpty(p.EfootballUsername)
			view.AwayParticipantUserID = p.UserID
		}
	}
	return view
}

func participantIDs(matches []models.Match) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(matches)*2)
	for _, m := range matches {
		for _, id := range []*uuid.UUID{m.HomeParticipantID, m.AwayParticipantID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; ok {
				continue
			}
			seen[*id] = struct{}{}
			ids = append(ids, *id)
		}
	}
	return ids
}

func indexParticipants(participants []models.Participant) map[uuid.UUID]models.Participant {
	byID := make(map[uuid.UUID]models.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}
	return byID
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
