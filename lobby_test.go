package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateAndJoin(t *testing.T) {
	e := newTestEngine(t, 3)

	require.Len(t, e.state.Players, 3)
	require.Equal(t, StatusWaiting, e.state.Status)
	require.True(t, e.state.player("p0").IsHost)
	require.False(t, e.state.player("p1").IsHost)
}

func TestCreateTwiceRejected(t *testing.T) {
	e := newTestEngine(t, 2)

	_, err := e.Apply("p9", Action{Type: ActionCreateLobby, Name: "p9"})
	require.ErrorIs(t, err, errLobbyExists)
}

func TestRejoinIsIdempotent(t *testing.T) {
	e := newTestEngine(t, 3)

	mustApply(t, e, "p1", Action{Type: ActionJoinLobby, Name: "renamed"})
	require.Len(t, e.state.Players, 3)
	require.Equal(t, "renamed", e.state.player("p1").Name)
}

func TestJoinFullLobbyRejected(t *testing.T) {
	e := newTestEngine(t, maxPlayers)

	_, err := e.Apply("extra", Action{Type: ActionJoinLobby, Name: "extra"})
	require.ErrorIs(t, err, errLobbyFull)
}

func TestJoinMidGame(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	// New players stay out, but a reconnecting player slips back in.
	_, err := e.Apply("latecomer", Action{Type: ActionJoinLobby, Name: "late"})
	require.ErrorIs(t, err, errNotWaiting)

	e.SetOnline("p2", false)
	mustApply(t, e, "p2", Action{Type: ActionJoinLobby, Name: "p2"})
	require.True(t, e.state.player("p2").IsOnline)
	require.Len(t, e.state.Players, 5)
}

func TestHostReassignmentOnLeave(t *testing.T) {
	e := newTestEngine(t, 3)

	mustApply(t, e, "p0", Action{Type: ActionLeaveLobby})

	require.Nil(t, e.state.player("p0"))
	require.True(t, e.state.player("p1").IsHost, "earliest remaining joiner becomes host")
	require.False(t, e.state.player("p2").IsHost)
}

func TestKickRequiresHost(t *testing.T) {
	e := newTestEngine(t, 3)

	_, err := e.Apply("p1", Action{Type: ActionKickPlayer, TargetID: "p2"})
	require.ErrorIs(t, err, errNotHost)

	_, err = e.Apply("p0", Action{Type: ActionKickPlayer, TargetID: "p0"})
	require.ErrorIs(t, err, errInvalidTarget)

	mustApply(t, e, "p0", Action{Type: ActionKickPlayer, TargetID: "p2"})
	require.Nil(t, e.state.player("p2"))
}

func TestAddBot(t *testing.T) {
	e := newTestEngine(t, 2)

	_, err := e.Apply("p1", Action{Type: ActionAddBot})
	require.ErrorIs(t, err, errNotHost)

	mustApply(t, e, "p0", Action{Type: ActionAddBot})
	require.Len(t, e.state.Players, 3)

	bot := e.state.Players[2]
	require.True(t, bot.IsBot)
	require.True(t, bot.IsOnline)
	require.True(t, bot.IsReady)
}

func TestStartGameGuards(t *testing.T) {
	e := newTestEngine(t, 4)

	_, err := e.Apply("p0", Action{Type: ActionStartGame})
	require.ErrorIs(t, err, errTooFewPlayers)
	require.Equal(t, StatusWaiting, e.state.Status)

	mustApply(t, e, "p4", Action{Type: ActionJoinLobby, Name: "p4"})

	_, err = e.Apply("p1", Action{Type: ActionStartGame})
	require.ErrorIs(t, err, errNotHost)
}

func TestStartGameDealsRoles(t *testing.T) {
	e := newTestEngine(t, 6)

	events := mustApply(t, e, "p0", Action{Type: ActionStartGame})

	require.Equal(t, StatusPlaying, e.state.Status)
	require.Len(t, e.state.Assignments, 6)
	require.Equal(t, e.state.Assignments, e.state.OriginalRoles)
	require.NotNil(t, e.state.InitialGameState)
	require.NotEmpty(t, e.state.cultLeaderID())

	require.Len(t, events, 1)
	started, ok := events[0].Msg.(GameStartedMessage)
	require.True(t, ok)
	require.Empty(t, events[0].To, "deal announcement is a broadcast")
	require.Len(t, started.Assignments, 6)
}

// The deal announcement is marshaled on the write pumps' goroutines,
// so it must carry its own copy of the assignments.
func TestGameStartedAnnouncementIsDetached(t *testing.T) {
	e := newTestEngine(t, 5)

	events := mustApply(t, e, "p0", Action{Type: ActionStartGame})
	started := events[0].Msg.(GameStartedMessage)

	targetID := e.state.eligibleConversionTargets()[0].ID
	dealt := started.Assignments[targetID]
	e.state.Assignments[targetID] = RoleCultist

	require.Equal(t, dealt, started.Assignments[targetID])
	require.NotEqual(t, RoleCultist, started.Assignments[targetID])
}

func TestResetGameReplaysTheDeal(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	original := make(map[string]Role)
	for id, role := range e.state.Assignments {
		original[id] = role
	}

	// Mutate mid-game state, then reset.
	target := e.state.Players[1]
	e.state.Assignments[target.ID] = RoleCultist
	target.IsEliminated = true
	target.HasTongue = false
	e.state.ConversionCount = 2
	e.state.IsFloggingUsed = true

	mustApply(t, e, "p3", Action{Type: ActionResetGame})

	require.Equal(t, original, e.state.Assignments)
	require.False(t, target.IsEliminated)
	require.True(t, target.HasTongue)
	require.Zero(t, e.state.ConversionCount)
	require.False(t, e.state.IsFloggingUsed)
	require.Equal(t, StatusPlaying, e.state.Status)
}

func TestBackToLobby(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	_, err := e.Apply("p1", Action{Type: ActionBackToLobby})
	require.ErrorIs(t, err, errNotHost)

	mustApply(t, e, "p0", Action{Type: ActionBackToLobby})

	require.Equal(t, StatusWaiting, e.state.Status)
	require.Nil(t, e.state.Assignments)
	require.Nil(t, e.state.OriginalRoles)
	require.Nil(t, e.state.InitialGameState)
	for _, p := range e.state.Players {
		require.False(t, p.IsReady)
		require.False(t, p.IsEliminated)
	}
}

func TestBackToLobbyBlockedByActiveMinigame(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	mustApply(t, e, "p0", Action{Type: ActionStartConversion})

	_, err := e.Apply("p0", Action{Type: ActionBackToLobby})
	require.ErrorIs(t, err, errMinigameActive)
}

func TestUpdateProfile(t *testing.T) {
	e := newTestEngine(t, 2)

	mustApply(t, e, "p1", Action{Type: ActionUpdateProfile, Name: "blackbeard", PhotoURL: "https://example.com/b.png"})

	p := e.state.player("p1")
	require.Equal(t, "blackbeard", p.Name)
	require.Equal(t, "https://example.com/b.png", p.PhotoURL)
}
