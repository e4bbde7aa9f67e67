package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/google/uuid"
)

var roundNames = map[int]string{
	2: "Round of 64",
	3: "Round of 32",
	4: "Round of 16",
	5: "Quarter-finals",
	6: "Semi-finals",
	7: "Final",
}

// RoundName возвращает отображаемое имя раунда по его номеру.
func RoundName(roundNumber int) string {
	if name, ok := roundNames[roundNumber]; ok {
		return name
	}
	return fmt.Sprintf("Round %d", roundNumber)
}

type Pair[T any] struct {
	Home T `json:"home"`
	Away T `json:"away"`
}

// PairConsecutive pairs 0 with 1, 2 with 3 and so on. An odd trailing element is dropped.
func PairConsecutive[T any](ordered []T) []Pair[T] {
	pairs := make([]Pair[T], 0, len(ordered)/2)
	for i := 0; i+1 < len(ordered); i += 2 {
		pairs = append(pairs, Pair[T]{Home: ordered[i], Away: ordered[i+1]})
	}
	return pairs
}

// RankByStats sorts by pass accuracy then possession, both descending, missing values as 0.
// Equal participants keep their input order.
func RankByStats(participants []models.Participant) []models.Participant {
	ranked := make([]models.Participant, len(participants))
	copy(ranked, participants)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := &ranked[i], &ranked[j]
		if a.PassAccuracy() != b.PassAccuracy() {
			return a.PassAccuracy() > b.PassAccuracy()
		}
		return a.Possession() > b.Possession()
	})
	return ranked
}

// Advancer - победитель раунда со статистикой лучшего матча.
type Advancer struct {
	ParticipantID uuid.UUID
	PassAccuracy  float64
	Possession    float64
}

// Winners collects the winners of completed matches in match order. Draws produce no winner.
// A participant that won several matches keeps the stats of its best pass accuracy match.
// The result is sorted by that pass accuracy, then possession, descending.
func Winners(matches []models.Match) []Advancer {
	index := make(map[uuid.UUID]int)
	advancers := make([]Advancer, 0, len(matches))

	for i := range matches {
		m := &matches[i]
		winner := m.Winner()
		if winner == nil {
			continue
		}
		acc, poss := m.StatsFor(*winner)
		if pos, seen := index[*winner]; seen {
			if acc > advancers[pos].PassAccuracy {
				advancers[pos].PassAccuracy = acc
				advancers[pos].Possession = poss
			}
			continue
		}
		index[*winner] = len(advancers)
		advancers = append(advancers, Advancer{ParticipantID: *winner, PassAccuracy: acc, Possession: poss})
	}

	sort.SliceStable(advancers, func(i, j int) bool {
		if advancers[i].PassAccuracy != advancers[j].PassAccuracy {
			return advancers[i].PassAccuracy > advancers[j].PassAccuracy
		}
		return advancers[i].Possession > advancers[j].Possession
	})
	return advancers
}
