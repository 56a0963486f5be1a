package main

// Conversion ritual: the cult attempts to convert one player. Every
// active player must consent; consenting players are handed a quiz
// question as cover while the cult leader picks a target. A single
// refusal cancels the whole ritual.

const maxConversions = 3

// eligibleConversionTargets are players the ritual may convert: in
// play, convertible, not the leader, and not already a cultist in the
// current assignment. The original cultist (by originalRoles) remains a
// valid target because the leader has no visibility into that.
func (l *LobbyState) eligibleConversionTargets() []*Player {
	eligible := make([]*Player, 0, len(l.Players))
	for _, p := range l.Players {
		if p.IsEliminated || p.IsUnconvertible {
			continue
		}
		switch l.Assignments[p.ID] {
		case RoleCultLeader, RoleCultist:
			continue
		}
		eligible = append(eligible, p)
	}
	return eligible
}

func (l *LobbyState) conversionEligible(playerID string) bool {
	for _, p := range l.eligibleConversionTargets() {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

func (e *Engine) startConversion(senderID string) ([]Event, error) {
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
	if e.state.ConversionCount >= maxConversions {
		return nil, errMinigameUsedUp
	}
	if len(e.state.eligibleConversionTargets()) == 0 {
		return nil, errNoEligibleTarget
	}

	status := &ConversionStatus{
		State:       StateWaitingForPlayers,
		InitiatorID: senderID,
		Accepted:    map[string]bool{senderID: true},
	}
	e.state.ConversionStatus = status
	e.state.botAccepts(status.Accepted)

	e.checkConversionConsent()
	return nil, nil
}

func (e *Engine) respondConversion(senderID string, accept *bool) ([]Event, error) {
	sender, err := e.requirePlaying(senderID)
	if err != nil {
		return nil, err
	}
	status := e.state.ConversionStatus
	if status == nil || status.State != StateWaitingForPlayers {
		return nil, errWrongSubState
	}
	if !sender.active() {
		return nil, errNotParticipant
	}
	if accept == nil {
		return nil, errInvalidAnswer
	}

	// One refusal cancels for everyone, no matter how many already
	// accepted.
	if !*accept {
		status.State = StateCancelled
		return nil, nil
	}

	status.Accepted[senderID] = true
	e.checkConversionConsent()
	return nil, nil
}

// checkConversionConsent activates the ritual once every active player
// has accepted.
func (e *Engine) checkConversionConsent() {
	status := e.state.ConversionStatus
	for _, p := range e.state.activePlayers() {
		if !status.Accepted[p.ID] {
			return
		}
	}

	leaderID := e.state.cultLeaderID()
	status.Questions = make(map[string]int)
	for _, p := range e.state.activePlayers() {
		if p.ID == leaderID {
			continue
		}
		status.Questions[p.ID] = randomQuestionIndex(e.rng)
	}
	status.Answers = make(map[string]int)
	status.State = StateActive
	status.Deadline = e.beginRound()
}

func (e *Engine) submitConversion(senderID string, act Action) ([]Event, error) {
	sender, err := e.requirePlaying(senderID)
	if err != nil {
		return nil, err
	}
	status := e.state.ConversionStatus
	if status == nil || status.State != StateActive {
		return nil, errWrongSubState
	}
	if !sender.active() {
		return nil, errNotParticipant
	}

	switch {
	case act.TargetID != "":
		if senderID != e.state.cultLeaderID() {
			return nil, errNotCultLeader
		}
		if e.state.player(act.TargetID) == nil {
			return nil, errUnknownTarget
		}
		if !e.state.conversionEligible(act.TargetID) {
			return nil, errInvalidTarget
		}
		// Resubmission overwrites the previous pick.
		status.TargetID = act.TargetID
	case act.Answer != nil:
		questionIdx, ok := status.Questions[senderID]
		if !ok {
			return nil, errNotParticipant
		}
		if !validAnswer(questionIdx, *act.Answer) {
			return nil, errInvalidAnswer
		}
		status.Answers[senderID] = *act.Answer
	default:
		return nil, errInvalidAnswer
	}

	if e.conversionQuorumMet() {
		return e.resolveConversion(), nil
	}
	return nil, nil
}

// conversionQuorumMet reports whether every currently active questioned
// player has answered and the leader (if still in play) has picked.
func (e *Engine) conversionQuorumMet() bool {
	status := e.state.ConversionStatus
	for _, p := range e.state.activePlayers() {
		if _, questioned := status.Questions[p.ID]; !questioned {
			continue
		}
		if _, answered := status.Answers[p.ID]; !answered {
			return false
		}
	}

	leaderID := e.state.cultLeaderID()
	if leader := e.state.player(leaderID); leader != nil && leader.active() {
		return status.TargetID != ""
	}
	return true
}

// resolveConversion grades the quizzes, falls back to a random eligible
// target if the leader never picked, and flips the target to CULTIST if
// the pick is valid.
func (e *Engine) resolveConversion() []Event {
	e.endRound()
	status := e.state.ConversionStatus

	results := gradeQuizzes(status.Questions, status.Answers, e.rng)

	targetID := status.TargetID
	if targetID == "" {
		if eligible := e.state.eligibleConversionTargets(); len(eligible) > 0 {
			targetID = eligible[e.rng.Intn(len(eligible))].ID
		}
	}

	converted := false
	if target := e.state.player(targetID); target != nil &&
		!target.IsUnconvertible &&
		e.state.Assignments[targetID] != RoleCultLeader {
		e.state.Assignments[targetID] = RoleCultist
		converted = true
	}

	e.state.ConversionCount++
	status.State = StateCompleted
	status.Result = &ConversionResult{
		TargetID:    targetID,
		Converted:   converted,
		QuizResults: results,
	}

	return nil
}
