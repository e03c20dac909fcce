package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbriand/lexica/internal/game"
)

func TestVoteResetNeedsEveryPlayer(t *testing.T) {
	eng := &scriptEngine{results: []game.Result{simResult(1, true)}}
	r := newTestRoom(game.GameSemantic, ModeCoop, eng)
	r.AddPlayer("alice")
	r.AddPlayer("bob")

	_, rerr := r.ProcessGuess("orange", "alice")
	require.Nil(t, rerr)
	require.True(t, r.Locked())

	out, rerr := r.VoteReset("alice")
	require.Nil(t, rerr)
	assert.False(t, out.Done)
	assert.Equal(t, 1, out.CurrentVotes)
	assert.Equal(t, 2, out.TotalPlayers)
	assert.Equal(t, []string{"bob"}, out.WaitingFor)
	assert.True(t, r.Locked(), "partial vote must not reset")

	out, rerr = r.VoteReset("bob")
	require.Nil(t, rerr)
	assert.True(t, out.Done)
	assert.False(t, r.Locked())
	// newTestRoom wires an already-initialized engine, so the reset's
	// NewGame is the only one.
	assert.Equal(t, 1, eng.newGames, "reset must start a fresh round")
}

func TestVoteResetClearsStateForCoop(t *testing.T) {
	eng := &scriptEngine{results: []game.Result{simResult(0.7, false)}}
	r := newTestRoom(game.GameSemantic, ModeCoop, eng)
	_, rerr := r.ProcessGuess("apple", "alice")
	require.Nil(t, rerr)

	out, rerr := r.VoteReset("alice")
	require.Nil(t, rerr)
	require.True(t, out.Done)

	snap := r.Snapshot()
	assert.Empty(t, snap.History)
	assert.Equal(t, PlayerStats{}, snap.Players["alice"], "coop reset zeroes player stats")
}

func TestVoteResetBlitzKeepsStatsAndRestartsClock(t *testing.T) {
	eng := &scriptEngine{results: []game.Result{simResult(1, true)}}
	r := newTestRoom(game.GameSemantic, ModeBlitz, eng)
	r.duration = 90
	r.endTime = time.Now().Unix() + 5

	_, rerr := r.ProcessGuess("apple", "alice")
	require.Nil(t, rerr)
	require.Equal(t, 1, r.TeamScore())

	out, rerr := r.VoteReset("alice")
	require.Nil(t, rerr)
	require.True(t, out.Done)

	assert.Zero(t, r.TeamScore(), "blitz reset zeroes the team score")
	assert.GreaterOrEqual(t, r.EndTime(), time.Now().Unix()+80, "blitz reset restarts the timer")
	snap := r.Snapshot()
	assert.Equal(t, 1, snap.Players["alice"].Attempts, "blitz reset keeps per-player tallies")
}

func TestVoteResetRejectedForDaily(t *testing.T) {
	r := newTestRoom(game.GameSemantic, ModeDaily, &scriptEngine{})
	_, rerr := r.VoteReset("alice")
	require.NotNil(t, rerr)
	assert.Equal(t, CodeDailyRoom, rerr.Code)
}

func TestSurrenderRejectedForDailyAndNonSurrenderable(t *testing.T) {
	daily := newTestRoom(game.GameSemantic, ModeDaily, &scriptEngine{})
	_, rerr := daily.VoteSurrender("alice", true)
	require.NotNil(t, rerr)
	assert.Equal(t, CodeDailyRoom, rerr.Code)

	for _, typ := range []game.GameType{game.GameDefinition, game.GameIntruder, game.GameArcade} {
		r := newTestRoom(typ, ModeCoop, &scriptEngine{})
		_, rerr := r.VoteSurrender("alice", true)
		require.NotNil(t, rerr, "game type %s", typ)
		assert.Equal(t, CodeNotSurrenderable, rerr.Code)
	}
}

func TestSurrenderSoloSucceedsImmediately(t *testing.T) {
	eng := &scriptEngine{target: "orange"}
	r := newTestRoom(game.GameSemantic, ModeCoop, eng)
	r.Connect("alice")

	out, rerr := r.VoteSurrender("alice", true)
	require.Nil(t, rerr)
	assert.Equal(t, SurrenderSuccess, out.Status)
	assert.Equal(t, "orange", out.TargetReveal)
	assert.True(t, r.Locked())
}

func TestSurrenderVoteAccumulates(t *testing.T) {
	eng := &scriptEngine{target: "orange"}
	r := newTestRoom(game.GameHangman, ModeCoop, eng)
	r.Connect("alice")
	r.Connect("bob")

	out, rerr := r.VoteSurrender("alice", true)
	require.Nil(t, rerr)
	assert.Equal(t, SurrenderPending, out.Status)
	assert.Equal(t, 1, out.Votes)
	assert.Equal(t, 2, out.Needed)
	assert.False(t, r.Locked())

	out, rerr = r.VoteSurrender("bob", true)
	require.Nil(t, rerr)
	assert.Equal(t, SurrenderSuccess, out.Status)
	assert.True(t, r.Locked())
}

func TestSurrenderCancelArmsCooldown(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := base
	r := newTestRoom(game.GameSemantic, ModeCoop, &scriptEngine{target: "orange"})
	r.now = func() time.Time { return clock }
	r.Connect("alice")
	r.Connect("bob")

	out, rerr := r.VoteSurrender("alice", true)
	require.Nil(t, rerr)
	require.Equal(t, SurrenderPending, out.Status)

	out, rerr = r.VoteSurrender("bob", false)
	require.Nil(t, rerr)
	assert.Equal(t, SurrenderCancelled, out.Status)

	// Inside the cooldown window: rejected with a shrinking retry hint.
	clock = base.Add(5 * time.Second)
	_, rerr = r.VoteSurrender("alice", true)
	require.NotNil(t, rerr)
	assert.Equal(t, CodeSurrenderCooldown, rerr.Code)
	first := rerr.RetryAfter
	assert.Equal(t, 25, first)

	clock = base.Add(20 * time.Second)
	_, rerr = r.VoteSurrender("alice", true)
	require.NotNil(t, rerr)
	assert.Less(t, rerr.RetryAfter, first)

	// Past the window: votes flow again.
	clock = base.Add(31 * time.Second)
	out, rerr = r.VoteSurrender("alice", true)
	require.Nil(t, rerr)
	assert.Equal(t, SurrenderPending, out.Status)
}

func TestSurrenderNoWithoutPendingVoteIsFree(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := base
	r := newTestRoom(game.GameSemantic, ModeCoop, &scriptEngine{target: "orange"})
	r.now = func() time.Time { return clock }
	r.Connect("alice")

	out, rerr := r.VoteSurrender("alice", false)
	require.Nil(t, rerr)
	assert.Equal(t, SurrenderCancelled, out.Status)

	// No vote was pending, so no cooldown armed.
	clock = base.Add(time.Second)
	out, rerr = r.VoteSurrender("alice", true)
	require.Nil(t, rerr)
	assert.Equal(t, SurrenderSuccess, out.Status)
}
