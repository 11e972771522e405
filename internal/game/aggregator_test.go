package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTally(t *testing.T) {
	assert.False(t, Tally{}.Unanimous())
	assert.True(t, Tally{Count: 3, Total: 3}.Unanimous())
	assert.False(t, Tally{Count: 2, Total: 3}.Unanimous())

	assert.Equal(t, 3, MajorityThreshold(4))
	assert.Equal(t, 3, MajorityThreshold(5))
	assert.Equal(t, 2, MajorityThreshold(2))
	assert.True(t, Tally{Count: 3, Total: 4}.Majority())
	assert.False(t, Tally{Count: 2, Total: 4}.Majority())
}

func TestAggregatorTrackersFollowRound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	game := &Game{Code: "TEST", Category: CategoryIceBreaker, Rounds: 3}
	require.NoError(t, store.CreateGame(ctx, game))
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, store.CreatePlayer(ctx, &Player{GameID: game.ID, Name: name}))
	}
	agg := NewAggregator(store)

	tally, err := agg.RecordReady(ctx, game.ID, 1, "1")
	require.NoError(t, err)
	assert.Equal(t, Tally{Count: 1, Total: 3}, tally)
	tally, err = agg.RecordReady(ctx, game.ID, 1, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Count)

	tally, err = agg.RecordReady(ctx, game.ID, 2, "2")
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Count, "ready from an old round must not carry over")

	tally, err = agg.RecordSkip(ctx, game.ID, 2, "3")
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Count)
	require.NoError(t, agg.Forget(ctx, 2, "3", false))
	tally, err = agg.Skips(ctx, game.ID, 2)
	require.NoError(t, err)
	assert.Zero(t, tally.Count)
}

func TestAggregatorRecountsFromStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	game := &Game{Code: "TEST", Category: CategoryIceBreaker, Rounds: 3}
	require.NoError(t, store.CreateGame(ctx, game))
	require.NoError(t, store.CreatePlayer(ctx, &Player{GameID: game.ID, Name: "a"}))
	require.NoError(t, store.CreatePlayer(ctx, &Player{GameID: game.ID, Name: "b"}))
	agg := NewAggregator(store)

	for _, text := range []string{"one", "two", "three"} {
		tally, err := agg.RecordAnswer(ctx, game.ID, Answer{RoundID: 7, PlayerID: "1", Text: text})
		require.NoError(t, err)
		assert.Equal(t, Tally{Count: 1, Total: 2}, tally)
	}
	tally, err := agg.RecordVote(ctx, game.ID, Vote{RoundID: 7, VoterID: "1", TargetID: "2", Kind: VoteBallot})
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Count)
	tally, err = agg.Votes(ctx, game.ID, 7, VoteGuess)
	require.NoError(t, err)
	assert.Zero(t, tally.Count)
}
