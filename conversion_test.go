package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func startActiveConversion(t *testing.T, e *Engine) {
	t.Helper()

	mustApply(t, e, "p0", Action{Type: ActionStartConversion})
	for _, p := range e.state.activePlayers() {
		if p.ID == "p0" {
			continue
		}
		mustApply(t, e, p.ID, Action{Type: ActionRespondConversion, Accept: boolPtr(true)})
	}
	require.Equal(t, StateActive, e.state.ConversionStatus.State)
}

func TestConversionRefusalCancels(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	mustApply(t, e, "p0", Action{Type: ActionStartConversion})
	mustApply(t, e, "p1", Action{Type: ActionRespondConversion, Accept: boolPtr(true)})
	mustApply(t, e, "p2", Action{Type: ActionRespondConversion, Accept: boolPtr(false)})

	require.Equal(t, StateCancelled, e.state.ConversionStatus.State)
	require.Zero(t, e.state.ConversionCount, "a cancelled ritual costs nothing")

	// The room is free again.
	mustApply(t, e, "p1", Action{Type: ActionStartConversion})
}

func TestConversionFullRound(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)
	startActiveConversion(t, e)

	status := e.state.ConversionStatus
	leaderID := e.state.cultLeaderID()
	require.NotContains(t, status.Questions, leaderID, "the leader gets no cover question")
	require.Positive(t, status.Deadline)

	targetID := e.state.eligibleConversionTargets()[0].ID
	mustApply(t, e, leaderID, Action{Type: ActionSubmitConversion, TargetID: targetID})

	for playerID := range status.Questions {
		mustApply(t, e, playerID, Action{Type: ActionSubmitConversion, Answer: intPtr(0)})
	}

	require.Equal(t, StateCompleted, status.State)
	require.NotNil(t, status.Result)
	require.Equal(t, targetID, status.Result.TargetID)
	require.True(t, status.Result.Converted)
	require.Equal(t, RoleCultist, e.state.Assignments[targetID])
	require.Equal(t, 1, e.state.ConversionCount)
	require.Len(t, status.Result.QuizResults, len(status.Questions))
}

func TestConversionDeadlinePicksRandomTarget(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)
	startActiveConversion(t, e)

	events, ok := e.Expire(e.roundGen)
	require.True(t, ok)
	require.Empty(t, events)

	status := e.state.ConversionStatus
	require.Equal(t, StateCompleted, status.State)
	require.NotEmpty(t, status.Result.TargetID)
	require.NotEqual(t, e.state.cultLeaderID(), status.Result.TargetID)
	require.True(t, status.Result.Converted)
}

// A deadline that fires after the round already resolved must not
// resolve it twice.
func TestConversionStaleDeadlineIgnored(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)
	startActiveConversion(t, e)

	gen := e.roundGen
	_, ok := e.Expire(gen)
	require.True(t, ok)

	_, ok = e.Expire(gen)
	require.False(t, ok)
	require.Equal(t, 1, e.state.ConversionCount)
}

func TestConversionQuorumIgnoresOfflinePlayers(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)
	startActiveConversion(t, e)

	status := e.state.ConversionStatus
	leaderID := e.state.cultLeaderID()

	var offlineID string
	for playerID := range status.Questions {
		offlineID = playerID
		break
	}
	require.True(t, e.SetOnline(offlineID, false))

	targetID := e.state.eligibleConversionTargets()[0].ID
	mustApply(t, e, leaderID, Action{Type: ActionSubmitConversion, TargetID: targetID})

	for playerID := range status.Questions {
		if playerID == offlineID {
			continue
		}
		mustApply(t, e, playerID, Action{Type: ActionSubmitConversion, Answer: intPtr(0)})
	}

	require.Equal(t, StateCompleted, status.State, "quorum counts only players active right now")
	require.Contains(t, status.Result.QuizResults, offlineID, "the absent player is still graded")
}

func TestConversionNeverRepeatsATarget(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	startActiveConversion(t, e)
	_, ok := e.Expire(e.roundGen)
	require.True(t, ok)
	first := e.state.ConversionStatus.Result.TargetID

	startActiveConversion(t, e)
	_, ok = e.Expire(e.roundGen)
	require.True(t, ok)
	second := e.state.ConversionStatus.Result.TargetID

	require.NotEqual(t, first, second, "an existing cultist cannot be converted again")
	require.Equal(t, 2, e.state.ConversionCount)
}

func TestConversionUsageLimit(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	e.state.ConversionCount = maxConversions
	_, err := e.Apply("p0", Action{Type: ActionStartConversion})
	require.ErrorIs(t, err, errMinigameUsedUp)
}

func TestConversionUnconvertibleTargetResists(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	leaderID := e.state.cultLeaderID()
	targetID := e.state.eligibleConversionTargets()[0].ID
	startActiveConversion(t, e)

	status := e.state.ConversionStatus
	mustApply(t, e, leaderID, Action{Type: ActionSubmitConversion, TargetID: targetID})

	// Denial lands after the leader's pick but before the round closes.
	e.state.player(targetID).IsUnconvertible = true

	for playerID := range status.Questions {
		mustApply(t, e, playerID, Action{Type: ActionSubmitConversion, Answer: intPtr(0)})
	}

	require.Equal(t, StateCompleted, status.State)
	require.False(t, status.Result.Converted)
	require.NotEqual(t, RoleCultist, e.state.Assignments[targetID])
}

// The leader's pick is validated against the same eligibility rules
// the random fallback uses.
func TestConversionPickMustBeEligible(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)
	leaderID := e.state.cultLeaderID()

	startActiveConversion(t, e)
	_, ok := e.Expire(e.roundGen)
	require.True(t, ok)
	cultistID := e.state.ConversionStatus.Result.TargetID

	startActiveConversion(t, e)

	_, err := e.Apply(leaderID, Action{Type: ActionSubmitConversion, TargetID: cultistID})
	require.ErrorIs(t, err, errInvalidTarget, "an existing cultist is not a valid pick")

	_, err = e.Apply(leaderID, Action{Type: ActionSubmitConversion, TargetID: leaderID})
	require.ErrorIs(t, err, errInvalidTarget, "the leader is not a valid pick")

	unconvertibleID := e.state.eligibleConversionTargets()[0].ID
	e.state.player(unconvertibleID).IsUnconvertible = true
	_, err = e.Apply(leaderID, Action{Type: ActionSubmitConversion, TargetID: unconvertibleID})
	require.ErrorIs(t, err, errInvalidTarget, "an unconvertible player is not a valid pick")

	require.Empty(t, e.state.ConversionStatus.TargetID)
}
