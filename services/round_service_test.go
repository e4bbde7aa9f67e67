package services

import (
	"context"
	"testing"

	"github.com/Dosada05/efootball-tournament/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func TestUpdateRound_ReleaseGate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	first, err := env.bracket.CreateRound(ctx, CreateRoundParams{RoundNumber: 1, Name: "Round 1"})
	require.NoError(t, err)
	second, err := env.bracket.CreateRound(ctx, CreateRoundParams{RoundNumber: 2, Name: "Round of 64"})
	require.NoError(t, err)

	_, err = env.rounds.UpdateRound(ctx, second.ID, UpdateRoundInput{Released: boolPtr(true)})
	assert.ErrorIs(t, err, ErrReleaseBlocked)
	assert.ErrorIs(t, err, ErrStateConflict)

	completed := models.RoundStatusCompleted
	_, err = env.rounds.UpdateRound(ctx, first.ID, UpdateRoundInput{Status: &completed})
	require.NoError(t, err)

	updated, err := env.rounds.UpdateRound(ctx, second.ID, UpdateRoundInput{Released: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Released)
}

func TestUpdateRound_ReleaseWithoutPredecessor(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	round, err := env.bracket.CreateRound(ctx, CreateRoundParams{RoundNumber: 3, Name: "Round of 32"})
	require.NoError(t, err)

	updated, err := env.rounds.UpdateRound(ctx, round.ID, UpdateRoundInput{Released: boolPtr(true)})

	require.NoError(t, err)
	assert.True(t, updated.Released)
}

func TestUpdateRound_GateUsesLatestPredecessor(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	old, err := env.bracket.CreateRound(ctx, CreateRoundParams{RoundNumber: 1, Name: "Round 1"})
	require.NoError(t, err)
	completed := models.RoundStatusCompleted
	_, err = env.rounds.UpdateRound(ctx, old.ID, UpdateRoundInput{Status: &completed})
	require.NoError(t, err)
	_, err = env.bracket.CreateRound(ctx, CreateRoundParams{RoundNumber: 1, Name: "Round 1 replay"})
	require.NoError(t, err)
	second, err := env.bracket.CreateRound(ctx, CreateRoundParams{RoundNumber: 2, Name: "Round of 64"})
	require.NoError(t, err)

	_, err = env.rounds.UpdateRound(ctx, second.ID, UpdateRoundInput{Released: boolPtr(true)})

	assert.ErrorIs(t, err, ErrReleaseBlocked)
}

func TestUpdateRound_UnreleaseSkipsGate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	first, err := env.bracket.CreateRound(ctx, CreateRoundParams{RoundNumber: 1, Name: "Round 1"})
	require.NoError(t, err)
	second, err := env.bracket.CreateRound(ctx, CreateRoundParams{RoundNumber: 2, Name: "Round of 64"})
	require.NoError(t, err)
	completed, inProgress := models.RoundStatusCompleted, models.RoundStatusInProgress
	_, err = env.rounds.UpdateRound(ctx, first.ID, UpdateRoundInput{Status: &completed})
	require.NoError(t, err)
	_, err = env.rounds.UpdateRound(ctx, second.ID, UpdateRoundInput{Released: boolPtr(true)})
	require.NoError(t, err)
	_, err = env.rounds.UpdateRound(ctx, first.ID, UpdateRoundInput{Status: &inProgress})
	require.NoError(t, err)

	updated, err := env.rounds.UpdateRound(ctx, second.ID, UpdateRoundInput{Released: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Released)

	_, err = env.rounds.UpdateRound(ctx, second.ID, UpdateRoundInput{Released: boolPtr(true)})
	assert.ErrorIs(t, err, ErrReleaseBlocked)
}

func TestUpdateRound_Validation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	round, err := env.bracket.CreateRound(ctx, CreateRoundParams{RoundNumber: 1, Name: "Round 1"})
	require.NoError(t, err)

	_, err = env.rounds.UpdateRound(ctx, round.ID, UpdateRoundInput{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	bad := models.RoundStatus("paused")
	_, err = env.rounds.UpdateRound(ctx, round.ID, UpdateRoundInput{Status: &bad})
	assert.ErrorIs(t, err, ErrRoundStatusInvalid)

	blank := " "
	_, err = env.rounds.UpdateRound(ctx, round.ID, UpdateRoundInput{Name: &blank})
	assert.ErrorIs(t, err, ErrRoundNameRequired)

	name := "Opening round"
	_, err = env.rounds.UpdateRound(ctx, uuid.New(), UpdateRoundInput{Name: &name})
	assert.ErrorIs(t, err, ErrRoundNotFound)

	updated, err := env.rounds.UpdateRound(ctx, round.ID, UpdateRoundInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
}

func TestDeleteRound(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.store.addParticipant("A", nil, nil)
	b := env.store.addParticipant("B", nil, nil)
	busy, err := env.bracket.CreateRound(ctx, CreateRoundParams{RoundNumber: 1, Name: "Round 1"})
	require.NoError(t, err)
	require.NoError(t, fakeMatchRepo{env.store}.Create(ctx, nil,
		&models.Match{RoundID: busy.ID, HomeParticipantID: &a.ID, AwayParticipantID: &b.ID}))
	empty, err := env.bracket.CreateRound(ctx, CreateRoundParams{RoundNumber: 2, Name: "Round of 64"})
	require.NoError(t, err)

	err = env.rounds.DeleteRound(ctx, busy.ID)
	assert.ErrorIs(t, err, ErrRoundHasMatches)

	require.NoError(t, env.rounds.DeleteRound(ctx, empty.ID))
	_, err = env.rounds.GetRound(ctx, empty.ID)
	assert.ErrorIs(t, err, ErrRoundNotFound)

	rounds, err := env.rounds.ListRounds(ctx)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	require.NotNil(t, rounds[0].MatchCount)
	assert.Equal(t, 1, *rounds[0].MatchCount)
}
