package main

// Top-level room transitions: lobby.empty -> lobby.waiting ->
// playing.idle, and the operations that move between them.

func (e *Engine) createLobby(senderID string, act Action) ([]Event, error) {
	if e.state != nil {
		return nil, errLobbyExists
	}

	state := newLobbyState(e.code)
	host := newPlayer(senderID, act.Name, act.PhotoURL, true)
	state.Players = append(state.Players, host)
	e.state = state

	return nil, nil
}

func (e *Engine) joinLobby(senderID string, act Action) ([]Event, error) {
	if e.state == nil {
		return nil, errNoLobby
	}

	// Rejoin is idempotent: refresh the profile, flip online, never
	// append a duplicate. Allowed even mid-game so reconnects work.
	if p := e.state.player(senderID); p != nil {
		if act.Name != "" {
			p.Name = act.Name
		}
		if act.PhotoURL != "" {
			p.PhotoURL = act.PhotoURL
		}
		p.IsOnline = true
		return nil, nil
	}

	if e.state.Status != StatusWaiting {
		return nil, errNotWaiting
	}
	if len(e.state.Players) >= maxPlayers {
		return nil, errLobbyFull
	}

	e.state.Players = append(e.state.Players, newPlayer(senderID, act.Name, act.PhotoURL, false))
	return nil, nil
}

func (e *Engine) leaveLobby(senderID string) ([]Event, error) {
	if e.state == nil {
		return nil, errNoLobby
	}
	if e.state.player(senderID) == nil {
		return nil, errUnknownPlayer
	}

	e.removePlayer(senderID)
	return nil, nil
}

func (e *Engine) kickPlayer(senderID, targetID string) ([]Event, error) {
	if e.state == nil {
		return nil, errNoLobby
	}
	sender := e.state.player(senderID)
	if sender == nil {
		return nil, errUnknownPlayer
	}
	if !sender.IsHost {
		return nil, errNotHost
	}
	if targetID == senderID {
		return nil, errInvalidTarget
	}
	if e.state.player(targetID) == nil {
		return nil, errUnknownTarget
	}

	e.removePlayer(targetID)
	return nil, nil
}

// removePlayer drops a player and reassigns the host to the earliest
// remaining joiner if needed. The caller tears down the room when the
// list empties.
func (e *Engine) removePlayer(playerID string) {
	players := e.state.Players[:0]
	wasHost := false
	for _, p := range e.state.Players {
		if p.ID == playerID {
			wasHost = p.IsHost
			continue
		}
		players = append(players, p)
	}
	e.state.Players = players

	if wasHost && len(players) > 0 {
		players[0].IsHost = true
	}
}

func (e *Engine) updateProfile(senderID string, act Action) ([]Event, error) {
	if e.state == nil {
		return nil, errNoLobby
	}
	p := e.state.player(senderID)
	if p == nil {
		return nil, errUnknownPlayer
	}

	if act.Name != "" {
		p.Name = act.Name
	}
	if act.PhotoURL != "" {
		p.PhotoURL = act.PhotoURL
	}
	return nil, nil
}

func (e *Engine) addBot(senderID string) ([]Event, error) {
	if e.state == nil {
		return nil, errNoLobby
	}
	sender := e.state.player(senderID)
	if sender == nil {
		return nil, errUnknownPlayer
	}
	if !sender.IsHost {
		return nil, errNotHost
	}
	if e.state.Status != StatusWaiting {
		return nil, errNotWaiting
	}
	if len(e.state.Players) >= maxPlayers {
		return nil, errLobbyFull
	}

	e.state.Players = append(e.state.Players, newBotPlayer(e.state, e.rng))
	return nil, nil
}

func (e *Engine) startGame(senderID string) ([]Event, error) {
	if e.state == nil {
		return nil, errNoLobby
	}
	sender := e.state.player(senderID)
	if sender == nil {
		return nil, errUnknownPlayer
	}
	if !sender.IsHost {
		return nil, errNotHost
	}
	if e.state.Status != StatusWaiting {
		return nil, errNotWaiting
	}
	if len(e.state.Players) < minPlayers {
		return nil, errTooFewPlayers
	}

	assignments, err := assignRoles(e.state.Players, e.rng)
	if err != nil {
		return nil, err
	}

	original := make(map[string]Role, len(assignments))
	for id, role := range assignments {
		original[id] = role
	}

	e.state.Assignments = assignments
	e.state.OriginalRoles = original
	e.state.clearMinigames()
	e.state.resetCounters()
	for _, p := range e.state.Players {
		p.IsEliminated = false
		p.IsUnconvertible = false
		p.NotRole = ""
		p.HasTongue = true
	}
	e.state.snapshotInitialGameState()
	e.state.Status = StatusPlaying

	// The write pumps marshal events on their own goroutines, so the
	// announcement must not share the live assignments map.
	dealt := make(map[string]Role, len(assignments))
	for id, role := range assignments {
		dealt[id] = role
	}

	return []Event{broadcast(GameStartedMessage{
		Type:        "GAME_STARTED",
		Assignments: dealt,
	})}, nil
}

// resetGame replays the same deal: assignments, original roles, and
// player flags come back from the snapshot taken at game start.
func (e *Engine) resetGame(senderID string) ([]Event, error) {
	if _, err := e.requirePlaying(senderID); err != nil {
		return nil, err
	}
	initial := e.state.InitialGameState
	if initial == nil {
		return nil, errNotPlaying
	}

	assignments := make(map[string]Role, len(initial.Assignments))
	for id, role := range initial.Assignments {
		assignments[id] = role
	}
	e.state.Assignments = assignments

	for _, p := range e.state.Players {
		snap, ok := initial.Players[p.ID]
		if !ok {
			continue
		}
		p.IsEliminated = snap.IsEliminated
		p.IsUnconvertible = snap.IsUnconvertible
		p.NotRole = snap.NotRole
		p.HasTongue = snap.HasTongue
	}

	e.state.clearMinigames()
	e.state.resetCounters()
	e.endRound()

	return nil, nil
}

func (e *Engine) backToLobby(senderID string) ([]Event, error) {
	sender, err := e.requirePlaying(senderID)
	if err != nil {
		return nil, err
	}
	if !sender.IsHost {
		return nil, errNotHost
	}
	if err := e.requireNoMinigame(); err != nil {
		return nil, err
	}

	e.state.Assignments = nil
	e.state.OriginalRoles = nil
	e.state.InitialGameState = nil
	e.state.clearMinigames()
	e.state.resetCounters()
	for _, p := range e.state.Players {
		p.IsReady = false
		p.IsEliminated = false
		p.IsUnconvertible = false
		p.NotRole = ""
		p.HasTongue = true
	}
	e.state.Status = StatusWaiting
	e.endRound()

	return nil, nil
}
