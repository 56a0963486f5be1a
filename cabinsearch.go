package main

import "fmt"

// Cult cabin search: every player claims a position on the ship. The
// officer positions must end up uniquely filled; if they do, the cult
// leader learns the officers' true loyalties while everyone else takes
// a quiz as cover.

const maxCultCabinSearches = 2

func validCabinRole(role CabinRole) bool {
	switch role {
	case CabinCaptain, CabinNavigator, CabinLieutenant, CabinCrew:
		return true
	}
	return false
}

func officerRole(role CabinRole) bool {
	return role == CabinCaptain || role == CabinNavigator || role == CabinLieutenant
}

func (e *Engine) startCabinSearch(senderID string) ([]Event, error) {
	sender, err := e.requirePlaying(senderID)
	if err != nil {
		return nil, err
	}
	if !sender.active() {
		return nil, errNotParticipant
	}
	if err := e.requireNoMinigame(); err != nil {
		return nil, err
	}
	if e.state.CultCabinSearchCount >= maxCultCabinSearches {
		return nil, errMinigameUsedUp
	}

	status := &CabinSearchStatus{
		State:       StateClaiming,
		InitiatorID: senderID,
		Claims:      make(map[string]CabinRole),
	}
	e.state.CabinSearchStatus = status
	e.state.botClaims(status.Claims)

	return e.checkCabinSearchClaims(), nil
}

func (e *Engine) claimCabinSearchRole(senderID string, role CabinRole) ([]Event, error) {
	sender, err := e.requirePlaying(senderID)
	if err != nil {
		return nil, err
	}
	status := e.state.CabinSearchStatus
	if status == nil || status.State != StateClaiming {
		return nil, errWrongSubState
	}
	if !sender.active() {
		return nil, errNotParticipant
	}
	if !validCabinRole(role) {
		return nil, errInvalidAnswer
	}
	if role == CabinCaptain && !sender.HasTongue {
		return nil, errSilencedCaptain
	}

	// Officer positions are unique. Reclaiming replaces the sender's
	// own previous claim, so unclaim-then-reclaim needs no extra verb.
	if officerRole(role) {
		for claimant, claimed := range status.Claims {
			if claimed == role && claimant != senderID {
				return nil, errRoleTaken
			}
		}
	}
	status.Claims[senderID] = role

	return e.checkCabinSearchClaims(), nil
}

func (e *Engine) cancelCabinSearch(senderID string) ([]Event, error) {
	sender, err := e.requirePlaying(senderID)
	if err != nil {
		return nil, err
	}
	status := e.state.CabinSearchStatus
	if status == nil || status.State != StateClaiming {
		return nil, errWrongSubState
	}
	if !sender.active() {
		return nil, errNotParticipant
	}

	status.State = StateCancelled
	status.CancellationReason = fmt.Sprintf("cancelled by %s", sender.Name)
	return nil, nil
}

// checkCabinSearchClaims advances to the quiz phase once every active
// player has claimed and the claims form a legal crew. An illegal crew
// cancels the round with a reason rather than crashing it.
func (e *Engine) checkCabinSearchClaims() []Event {
	status := e.state.CabinSearchStatus
	active := e.state.activePlayers()
	for _, p := range active {
		if _, ok := status.Claims[p.ID]; !ok {
			return nil
		}
	}

	counts := make(map[CabinRole]int)
	for _, p := range active {
		counts[status.Claims[p.ID]]++
	}
	if counts[CabinCaptain] != 1 || counts[CabinNavigator] != 1 || counts[CabinLieutenant] != 1 {
		status.State = StateCancelled
		status.CancellationReason = fmt.Sprintf(
			"crew must have exactly one captain, navigator, and lieutenant (got %d/%d/%d)",
			counts[CabinCaptain], counts[CabinNavigator], counts[CabinLieutenant])
		return nil
	}

	status.Questions = make(map[string]int)
	officers := make(map[string]Role, 3)
	for _, p := range active {
		if officerRole(status.Claims[p.ID]) {
			officers[p.ID] = e.state.Assignments[p.ID]
			continue
		}
		status.Questions[p.ID] = randomQuestionIndex(e.rng)
	}
	status.Answers = make(map[string]int)
	status.State = StateActive
	status.Deadline = e.beginRound()

	// The officers' true loyalties go to the cult leader only, never
	// into the broadcast snapshot.
	var events []Event
	if leaderID := e.state.cultLeaderID(); leaderID != "" {
		events = append(events, sendTo(RevealMessage{
			Type:     "CULT_CABIN_SEARCH_REVEAL",
			Officers: officers,
		}, leaderID))
	}
	return events
}

func (e *Engine) submitCabinSearch(senderID string, act Action) ([]Event, error) {
	sender, err := e.requirePlaying(senderID)
	if err != nil {
		return nil, err
	}
	status := e.state.CabinSearchStatus
	if status == nil || status.State != StateActive {
		return nil, errWrongSubState
	}
	if !sender.active() {
		return nil, errNotParticipant
	}
	questionIdx, ok := status.Questions[senderID]
	if !ok {
		return nil, errNotParticipant
	}
	if act.Answer == nil || !validAnswer(questionIdx, *act.Answer) {
		return nil, errInvalidAnswer
	}

	status.Answers[senderID] = *act.Answer

	if e.cabinSearchQuorumMet() {
		return e.resolveCabinSearch(), nil
	}
	return nil, nil
}

func (e *Engine) cabinSearchQuorumMet() bool {
	status := e.state.CabinSearchStatus
	for _, p := range e.state.activePlayers() {
		if _, questioned := status.Questions[p.ID]; !questioned {
			continue
		}
		if _, answered := status.Answers[p.ID]; !answered {
			return false
		}
	}
	return true
}

func (e *Engine) resolveCabinSearch() []Event {
	e.endRound()
	status := e.state.CabinSearchStatus

	status.Result = &CabinSearchResult{
		QuizResults: gradeQuizzes(status.Questions, status.Answers, e.rng),
	}
	status.State = StateCompleted
	e.state.CultCabinSearchCount++

	return nil
}
