package main

// Guns stash: once per game the crew opens the stash. Everyone must
// confirm ready, then the cult leader quietly distributes exactly three
// guns while the rest of the crew takes a quiz. Guns the leader never
// handed out are scattered randomly when time runs out.

const gunsStashTotal = 3

func gunsTotal(distribution map[string]int) int {
	total := 0
	for _, n := range distribution {
		total += n
	}
	return total
}

func (e *Engine) startGunsStash(senderID string) ([]Event, error) {
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
	if e.state.IsGunsStashUsed {
		return nil, errMinigameUsedUp
	}

	status := &GunsStashStatus{
		State:       StateWaitingForPlayers,
		InitiatorID: senderID,
		Ready:       map[string]bool{senderID: true},
	}
	e.state.GunsStashStatus = status
	e.state.botAccepts(status.Ready)

	e.checkGunsReady()
	return nil, nil
}

func (e *Engine) confirmGunsReady(senderID string) ([]Event, error) {
	sender, err := e.requirePlaying(senderID)
	if err != nil {
		return nil, err
	}
	status := e.state.GunsStashStatus
	if status == nil || status.State != StateWaitingForPlayers {
		return nil, errWrongSubState
	}
	if !sender.active() {
		return nil, errNotParticipant
	}

	status.Ready[senderID] = true
	e.checkGunsReady()
	return nil, nil
}

func (e *Engine) cancelGunsStash(senderID string) ([]Event, error) {
	sender, err := e.requirePlaying(senderID)
	if err != nil {
		return nil, err
	}
	status := e.state.GunsStashStatus
	if status == nil || status.State != StateWaitingForPlayers {
		return nil, errWrongSubState
	}
	if !sender.active() {
		return nil, errNotParticipant
	}

	status.State = StateCancelled
	return nil, nil
}

// checkGunsReady moves to the timed distribution phase once every
// active player has confirmed.
func (e *Engine) checkGunsReady() {
	status := e.state.GunsStashStatus
	for _, p := range e.state.activePlayers() {
		if !status.Ready[p.ID] {
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
	status.Distribution = make(map[string]int)
	status.State = StateDistribution
	status.Deadline = e.beginRound()
}

// submitGunsDistribution replaces the leader's draft allocation in
// full. Partial edits are not a thing: each submission is the whole
// draft.
func (e *Engine) submitGunsDistribution(senderID string, distribution map[string]int) ([]Event, error) {
	sender, err := e.requirePlaying(senderID)
	if err != nil {
		return nil, err
	}
	status := e.state.GunsStashStatus
	if status == nil || status.State != StateDistribution {
		return nil, errWrongSubState
	}
	if !sender.active() {
		return nil, errNotParticipant
	}
	if senderID != e.state.cultLeaderID() {
		return nil, errNotCultLeader
	}

	total := 0
	draft := make(map[string]int, len(distribution))
	for playerID, count := range distribution {
		if count < 0 || e.state.player(playerID) == nil {
			return nil, errInvalidTarget
		}
		if count == 0 {
			continue
		}
		total += count
		draft[playerID] = count
	}
	if total > gunsStashTotal {
		return nil, errInvalidAnswer
	}

	status.Distribution = draft

	if e.gunsStashQuorumMet() {
		return e.resolveGunsStash(), nil
	}
	return nil, nil
}

func (e *Engine) submitGunsStash(senderID string, act Action) ([]Event, error) {
	sender, err := e.requirePlaying(senderID)
	if err != nil {
		return nil, err
	}
	status := e.state.GunsStashStatus
	if status == nil || status.State != StateDistribution {
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

	if e.gunsStashQuorumMet() {
		return e.resolveGunsStash(), nil
	}
	return nil, nil
}

// gunsStashQuorumMet reports whether every active questioned player
// answered and the leader (if in play) placed all three guns.
func (e *Engine) gunsStashQuorumMet() bool {
	status := e.state.GunsStashStatus
	for _, p := range e.state.activePlayers() {
		if _, questioned := status.Questions[p.ID]; !questioned {
			continue
		}
		if _, answered := status.Answers[p.ID]; !answered {
			return false
		}
	}

	if leader := e.state.player(e.state.cultLeaderID()); leader != nil && leader.active() {
		return gunsTotal(status.Distribution) == gunsStashTotal
	}
	return true
}

// resolveGunsStash tops the draft up to exactly three guns by random
// assignment to active players, then grades the quizzes.
func (e *Engine) resolveGunsStash() []Event {
	e.endRound()
	status := e.state.GunsStashStatus

	final := make(map[string]int, len(status.Distribution))
	for playerID, count := range status.Distribution {
		final[playerID] = count
	}
	if active := e.state.activePlayers(); len(active) > 0 {
		for gunsTotal(final) < gunsStashTotal {
			final[active[e.rng.Intn(len(active))].ID]++
		}
	}

	status.Result = &GunsStashResult{
		Distribution: final,
		QuizResults:  gradeQuizzes(status.Questions, status.Answers, e.rng),
	}
	status.State = StateCompleted
	e.state.IsGunsStashUsed = true

	return nil
}
