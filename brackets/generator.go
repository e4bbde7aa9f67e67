package brackets

import (
	"sort"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/google/uuid"
)

// Pairing - предложенная пара home/away.
type Pairing = Pair[models.Participant]

type GenerateParams struct {
	RoundNumber  int
	Seed         int32
	Participants []models.Participant
}

type PairingGenerator interface {
	Generate(params GenerateParams) []Pairing

	GetName() string
}

// NewGenerator returns the seeded random draw for round 1 and the stats ranking for later rounds.
func NewGenerator(roundNumber int) PairingGenerator {
	if roundNumber == 1 {
		return &SeededDrawGenerator{}
	}
	return &RankedGenerator{}
}

type SeededDrawGenerator struct{}

func (g *SeededDrawGenerator) GetName() string {
	return "SeededDraw"
}

func (g *SeededDrawGenerator) Generate(params GenerateParams) []Pairing {
	pool := canonicalOrder(params.Participants)
	return PairConsecutive(ShuffleWithSeed(pool, params.Seed))
}

type RankedGenerator struct{}

func (g *RankedGenerator) GetName() string {
	return "Ranked"
}

func (g *RankedGenerator) Generate(params GenerateParams) []Pairing {
	return PairConsecutive(RankByStats(canonicalOrder(params.Participants)))
}

// canonicalOrder sorts by id so that the result does not depend on how the pool was read.
func canonicalOrder(participants []models.Participant) []models.Participant {
	pool := make([]models.Participant, len(participants))
	copy(pool, participants)
	sort.Slice(pool, func(i, j int) bool {
		return compareUUID(pool[i].ID, pool[j].ID) < 0
	})
	return pool
}

func compareUUID(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
