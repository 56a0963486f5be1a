package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCabinSearchAllCrewCancels(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	mustApply(t, e, "p0", Action{Type: ActionStartCabinSearch})
	for _, p := range e.state.activePlayers() {
		mustApply(t, e, p.ID, Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinCrew})
	}

	status := e.state.CabinSearchStatus
	require.Equal(t, StateCancelled, status.State)
	require.NotEmpty(t, status.CancellationReason)
	require.Zero(t, e.state.CultCabinSearchCount)
}

func TestCabinSearchOfficerUniqueness(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	mustApply(t, e, "p0", Action{Type: ActionStartCabinSearch})
	mustApply(t, e, "p1", Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinCaptain})

	_, err := e.Apply("p2", Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinCaptain})
	require.ErrorIs(t, err, errRoleTaken)

	// Reclaiming your own position is not a collision.
	mustApply(t, e, "p1", Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinCaptain})
	mustApply(t, e, "p1", Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinNavigator})

	// The captain chair is free again after p1 moved.
	mustApply(t, e, "p2", Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinCaptain})
}

func TestCabinSearchSilencedCaptain(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	e.state.player("p1").HasTongue = false
	mustApply(t, e, "p0", Action{Type: ActionStartCabinSearch})

	_, err := e.Apply("p1", Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinCaptain})
	require.ErrorIs(t, err, errSilencedCaptain)

	mustApply(t, e, "p1", Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinNavigator})
}

func TestCabinSearchFullRound(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	mustApply(t, e, "p0", Action{Type: ActionStartCabinSearch})
	mustApply(t, e, "p0", Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinCaptain})
	mustApply(t, e, "p1", Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinNavigator})
	mustApply(t, e, "p2", Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinLieutenant})
	mustApply(t, e, "p3", Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinCrew})
	events := mustApply(t, e, "p4", Action{Type: ActionClaimCabinSearchRole, CabinRole: CabinCrew})

	status := e.state.CabinSearchStatus
	require.Equal(t, StateActive, status.State)
	require.Positive(t, status.Deadline)

	// The officers take no quiz; their loyalties go to the cult leader
	// and nobody else.
	require.NotContains(t, status.Questions, "p0")
	require.NotContains(t, status.Questions, "p1")
	require.NotContains(t, status.Questions, "p2")

	require.Len(t, events, 1)
	reveal, ok := events[0].Msg.(RevealMessage)
	require.True(t, ok)
	require.Equal(t, []string{e.state.cultLeaderID()}, events[0].To)
	require.Len(t, reveal.Officers, 3)
	require.Equal(t, e.state.Assignments["p0"], reveal.Officers["p0"])

	for playerID := range status.Questions {
		mustApply(t, e, playerID, Action{Type: ActionSubmitCabinSearch, Answer: intPtr(0)})
	}

	require.Equal(t, StateCompleted, status.State)
	require.NotNil(t, status.Result)
	require.Equal(t, 1, e.state.CultCabinSearchCount)
}

func TestCabinSearchCancelDuringClaiming(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	mustApply(t, e, "p0", Action{Type: ActionStartCabinSearch})
	mustApply(t, e, "p3", Action{Type: ActionCancelCabinSearch})

	status := e.state.CabinSearchStatus
	require.Equal(t, StateCancelled, status.State)
	require.Contains(t, status.CancellationReason, "p3")
}

func TestCabinSearchUsageLimit(t *testing.T) {
	e := newTestEngine(t, 5)
	startTestGame(t, e)

	e.state.CultCabinSearchCount = maxCultCabinSearches
	_, err := e.Apply("p0", Action{Type: ActionStartCabinSearch})
	require.ErrorIs(t, err, errMinigameUsedUp)
}
