package main

import "math/rand"

// Two-party minigames: one player requests, the named target confirms
// or declines. The prompt goes to the target alone; outcomes that
// reveal role information go only to the parties entitled to them.

const (
	maxCaptainSearches   = 2
	maxFeedTheKrakenUses = 2
)

// twoPartyRequest runs the guards shared by every request action and
// returns the sender and target on success.
func (e *Engine) twoPartyRequest(senderID, targetID string) (*Player, *Player, error) {
	sender, err := e.requirePlaying(senderID)
	if err != nil {
		return nil, nil, err
	}
	if !sender.active() {
		return nil, nil, errNotParticipant
	}
	if err := e.requireNoMinigame(); err != nil {
		return nil, nil, err
	}
	if targetID == senderID {
		return nil, nil, errInvalidTarget
	}
	target := e.state.player(targetID)
	if target == nil {
		return nil, nil, errUnknownTarget
	}
	if target.IsEliminated {
		return nil, nil, errInvalidTarget
	}
	return sender, target, nil
}

// twoPartyResponse runs the guards shared by every confirmation: only
// the prompted target may answer, and only while the request is pending.
func (e *Engine) twoPartyResponse(senderID string, status *RequestStatus, accept *bool) error {
	if _, err := e.requirePlaying(senderID); err != nil {
		return err
	}
	if status == nil || status.State != StatePending {
		return errWrongSubState
	}
	if senderID != status.TargetID {
		return errNotParticipant
	}
	if accept == nil {
		return errInvalidAnswer
	}
	return nil
}

func (e *Engine) floggingRequest(senderID, targetID string) ([]Event, error) {
	sender, _, err := e.twoPartyRequest(senderID, targetID)
	if err != nil {
		return nil, err
	}
	if e.state.IsFloggingUsed {
		return nil, errMinigameUsedUp
	}

	e.state.FloggingStatus = &RequestStatus{
		State:       StatePending,
		RequesterID: senderID,
		TargetID:    targetID,
	}

	return []Event{sendTo(PromptMessage{
		Type:          "FLOGGING_PROMPT",
		RequesterID:   senderID,
		RequesterName: sender.Name,
		TargetID:      targetID,
	}, targetID)}, nil
}

// floggingResponse resolves a flogging. On confirmation the target
// publicly rules out one role: a random role other than their current
// assignment, revealed to the two parties.
func (e *Engine) floggingResponse(senderID string, accept *bool) ([]Event, error) {
	status := e.state.FloggingStatus
	if err := e.twoPartyResponse(senderID, status, accept); err != nil {
		return nil, err
	}

	if !*accept {
		status.State = StateCancelled
		return []Event{sendTo(DeniedMessage{
			Type:     "FLOGGING_DENIED",
			TargetID: status.TargetID,
		}, status.RequesterID)}, nil
	}

	target := e.state.player(status.TargetID)
	target.NotRole = randomRoleExcept(e.state.Assignments[target.ID], e.rng)

	status.State = StateCompleted
	e.state.IsFloggingUsed = true

	return []Event{sendTo(ResultMessage{
		Type:     "FLOGGING_RESULT",
		TargetID: target.ID,
		NotRole:  target.NotRole,
	}, status.RequesterID, target.ID)}, nil
}

// randomRoleExcept draws a uniform random loyalty other than current.
func randomRoleExcept(current Role, rng *rand.Rand) Role {
	candidates := make([]Role, 0, 3)
	for _, r := range []Role{RoleSailor, RolePirate, RoleCultLeader, RoleCultist} {
		if r != current {
			candidates = append(candidates, r)
		}
	}
	return candidates[rng.Intn(len(candidates))]
}

func (e *Engine) captainSearchRequest(senderID, targetID string) ([]Event, error) {
	sender, _, err := e.twoPartyRequest(senderID, targetID)
	if err != nil {
		return nil, err
	}
	if e.state.CaptainSearchCount >= maxCaptainSearches {
		return nil, errMinigameUsedUp
	}

	e.state.CaptainSearchStatus = &RequestStatus{
		State:       StatePending,
		RequesterID: senderID,
		TargetID:    targetID,
	}

	return []Event{sendTo(PromptMessage{
		Type:          "CABIN_SEARCH_PROMPT",
		RequesterID:   senderID,
		RequesterName: sender.Name,
		TargetID:      targetID,
	}, targetID)}, nil
}

// captainSearchResponse resolves a captain's cabin search. The target's
// current role goes to the requester alone.
func (e *Engine) captainSearchResponse(senderID string, accept *bool) ([]Event, error) {
	status := e.state.CaptainSearchStatus
	if err := e.twoPartyResponse(senderID, status, accept); err != nil {
		return nil, err
	}

	if !*accept {
		status.State = StateCancelled
		return []Event{sendTo(DeniedMessage{
			Type:     "CABIN_SEARCH_DENIED",
			TargetID: status.TargetID,
		}, status.RequesterID)}, nil
	}

	status.State = StateCompleted
	e.state.CaptainSearchCount++

	return []Event{sendTo(ResultMessage{
		Type:     "CABIN_SEARCH_RESULT",
		TargetID: status.TargetID,
		Role:     e.state.Assignments[status.TargetID],
	}, status.RequesterID)}, nil
}

func (e *Engine) feedTheKrakenRequest(senderID, targetID string) ([]Event, error) {
	sender, _, err := e.twoPartyRequest(senderID, targetID)
	if err != nil {
		return nil, err
	}
	if e.state.FeedTheKrakenCount >= maxFeedTheKrakenUses {
		return nil, errMinigameUsedUp
	}

	e.state.FeedTheKrakenStatus = &RequestStatus{
		State:       StatePending,
		RequesterID: senderID,
		TargetID:    targetID,
	}

	return []Event{sendTo(PromptMessage{
		Type:          "FEED_THE_KRAKEN_PROMPT",
		RequesterID:   senderID,
		RequesterName: sender.Name,
		TargetID:      targetID,
	}, targetID)}, nil
}

// feedTheKrakenResponse resolves a feeding. Confirmation eliminates the
// target and reveals their role to the whole room, including whether
// the cult just lost its leader.
func (e *Engine) feedTheKrakenResponse(senderID string, accept *bool) ([]Event, error) {
	status := e.state.FeedTheKrakenStatus
	if err := e.twoPartyResponse(senderID, status, accept); err != nil {
		return nil, err
	}

	if !*accept {
		status.State = StateCancelled
		return []Event{sendTo(DeniedMessage{
			Type:     "FEED_THE_KRAKEN_DENIED",
			TargetID: status.TargetID,
		}, status.RequesterID)}, nil
	}

	target := e.state.player(status.TargetID)
	role := e.state.Assignments[target.ID]
	target.IsEliminated = true

	status.State = StateCompleted
	e.state.FeedTheKrakenCount++
	e.state.FeedTheKrakenResult = &FeedTheKrakenResult{
		TargetID:             target.ID,
		Role:                 role,
		CultLeaderEliminated: role == RoleCultLeader,
	}

	return []Event{broadcast(ResultMessage{
		Type:                 "FEED_THE_KRAKEN_RESULT",
		TargetID:             target.ID,
		Role:                 role,
		CultLeaderEliminated: role == RoleCultLeader,
	})}, nil
}

func (e *Engine) tongueRequest(senderID, targetID string) ([]Event, error) {
	sender, _, err := e.twoPartyRequest(senderID, targetID)
	if err != nil {
		return nil, err
	}
	if e.state.IsTongueUsed {
		return nil, errMinigameUsedUp
	}

	e.state.TongueStatus = &RequestStatus{
		State:       StatePending,
		RequesterID: senderID,
		TargetID:    targetID,
	}

	return []Event{sendTo(PromptMessage{
		Type:          "OFF_WITH_TONGUE_PROMPT",
		RequesterID:   senderID,
		RequesterName: sender.Name,
		TargetID:      targetID,
	}, targetID)}, nil
}

// tongueResponse resolves a silencing. A silenced player keeps playing
// but may never claim captain in a cabin search again.
func (e *Engine) tongueResponse(senderID string, accept *bool) ([]Event, error) {
	status := e.state.TongueStatus
	if err := e.twoPartyResponse(senderID, status, accept); err != nil {
		return nil, err
	}

	if !*accept {
		status.State = StateCancelled
		return []Event{sendTo(DeniedMessage{
			Type:     "OFF_WITH_TONGUE_DENIED",
			TargetID: status.TargetID,
		}, status.RequesterID)}, nil
	}

	e.state.player(status.TargetID).HasTongue = false
	status.State = StateCompleted
	e.state.IsTongueUsed = true

	return []Event{sendTo(ResultMessage{
		Type:     "OFF_WITH_TONGUE_RESULT",
		TargetID: status.TargetID,
	}, status.RequesterID, status.TargetID)}, nil
}

// denialOfCommand needs no confirmation: it takes effect the moment the
// request lands, permanently shielding the target from conversion.
func (e *Engine) denialOfCommand(senderID, targetID string) ([]Event, error) {
	_, target, err := e.twoPartyRequest(senderID, targetID)
	if err != nil {
		return nil, err
	}
	if e.state.IsDenialUsed {
		return nil, errMinigameUsedUp
	}

	target.IsUnconvertible = true
	e.state.IsDenialUsed = true
	e.state.DenialStatus = &DenialStatus{
		State:       StateCompleted,
		InitiatorID: senderID,
		TargetID:    targetID,
	}

	return []Event{sendTo(ResultMessage{
		Type:     "DENIAL_OF_COMMAND_RESULT",
		TargetID: targetID,
	}, senderID, targetID)}, nil
}
