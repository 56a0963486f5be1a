package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func startGunsDistribution(t *testing.T, e *Engine) {
	t.Helper()

	mustApply(t, e, "p0", Action{Type: ActionStartGunsStash})
	for _, p := range e.state.activePlayers() {
		if p.ID == "p0" {
			continue
		}
		mustApply(t, e, p.ID, Action{Type: ActionConfirmGunsReady})
	}
	require.Equal(t, StateDistribution, e.state.GunsStashStatus.State)
}

func TestGunsStashFullRound(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)
	startGunsDistribution(t, e)

	status := e.state.GunsStashStatus
	leaderID := e.state.cultLeaderID()
	require.NotContains(t, status.Questions, leaderID)

	mustApply(t, e, leaderID, Action{
		Type:         ActionSubmitGunsSpread,
		Distribution: map[string]int{"p0": 2, "p1": 1},
	})

	for playerID := range status.Questions {
		mustApply(t, e, playerID, Action{Type: ActionSubmitGunsStash, Answer: intPtr(0)})
	}

	require.Equal(t, StateCompleted, status.State)
	require.NotNil(t, status.Result)
	require.Equal(t, gunsStashTotal, gunsTotal(status.Result.Distribution))
	require.Equal(t, 2, status.Result.Distribution["p0"])
	require.Equal(t, 1, status.Result.Distribution["p1"])
	require.True(t, e.state.IsGunsStashUsed)
}

// Whatever the leader leaves undistributed is scattered randomly, so
// exactly three guns always leave the stash.
func TestGunsStashTopUpOnDeadline(t *testing.T) {
	for _, distributed := range []int{0, 1, 2} {
		e := newTestEngine(t, 5)
		startTestGame(t, e)
		startGunsDistribution(t, e)

		leaderID := e.state.cultLeaderID()
		if distributed > 0 {
			mustApply(t, e, leaderID, Action{
				Type:         ActionSubmitGunsSpread,
				Distribution: map[string]int{"p0": distributed},
			})
		}

		_, ok := e.Expire(e.roundGen)
		require.True(t, ok)

		status := e.state.GunsStashStatus
		require.Equal(t, StateCompleted, status.State)
		require.Equal(t, gunsStashTotal, gunsTotal(status.Result.Distribution), "distributed %d", distributed)
		require.GreaterOrEqual(t, status.Result.Distribution["p0"], distributed)
	}
}

func TestGunsStashDistributionGuards(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)
	startGunsDistribution(t, e)

	leaderID := e.state.cultLeaderID()

	var notLeader string
	for _, p := range e.state.Players {
		if p.ID != leaderID {
			notLeader = p.ID
			break
		}
	}
	_, err := e.Apply(notLeader, Action{
		Type:         ActionSubmitGunsSpread,
		Distribution: map[string]int{notLeader: 1},
	})
	require.ErrorIs(t, err, errNotCultLeader)

	_, err = e.Apply(leaderID, Action{
		Type:         ActionSubmitGunsSpread,
		Distribution: map[string]int{"p0": 2, "p1": 2},
	})
	require.ErrorIs(t, err, errInvalidAnswer, "more than three guns")

	_, err = e.Apply(leaderID, Action{
		Type:         ActionSubmitGunsSpread,
		Distribution: map[string]int{"ghost": 1},
	})
	require.ErrorIs(t, err, errInvalidTarget)
}

func TestGunsStashInactiveLeaderCannotDistribute(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)
	startGunsDistribution(t, e)

	leaderID := e.state.cultLeaderID()
	require.True(t, e.SetOnline(leaderID, false))

	_, err := e.Apply(leaderID, Action{
		Type:         ActionSubmitGunsSpread,
		Distribution: map[string]int{"p0": 1},
	})
	require.ErrorIs(t, err, errNotParticipant)
}

// Each draft replaces the previous one outright.
func TestGunsStashDraftReplacement(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)
	startGunsDistribution(t, e)

	leaderID := e.state.cultLeaderID()
	mustApply(t, e, leaderID, Action{
		Type:         ActionSubmitGunsSpread,
		Distribution: map[string]int{"p0": 2},
	})
	mustApply(t, e, leaderID, Action{
		Type:         ActionSubmitGunsSpread,
		Distribution: map[string]int{"p1": 1},
	})

	status := e.state.GunsStashStatus
	require.Equal(t, map[string]int{"p1": 1}, status.Distribution)
}

func TestGunsStashCancelOnlyBeforeDistribution(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	mustApply(t, e, "p0", Action{Type: ActionStartGunsStash})
	mustApply(t, e, "p1", Action{Type: ActionCancelGunsStash})
	require.Equal(t, StateCancelled, e.state.GunsStashStatus.State)
	require.False(t, e.state.IsGunsStashUsed, "a cancelled stash can be reopened")

	startGunsDistribution(t, e)
	_, err := e.Apply("p1", Action{Type: ActionCancelGunsStash})
	require.ErrorIs(t, err, errWrongSubState)
}

func TestGunsStashOneShot(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	e.state.IsGunsStashUsed = true
	_, err := e.Apply("p0", Action{Type: ActionStartGunsStash})
	require.ErrorIs(t, err, errMinigameUsedUp)
}
