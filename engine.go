package main

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Guard rejections. These never tear down a room; the requester gets a
// single ERROR message and nothing else changes.
var (
	errNoLobby          = errors.New("lobby does not exist")
	errLobbyExists      = errors.New("lobby already exists")
	errLobbyFull        = errors.New("lobby is full")
	errNotHost          = errors.New("only the host may do that")
	errNotPlaying       = errors.New("game is not in progress")
	errNotWaiting       = errors.New("game is already in progress")
	errUnknownPlayer    = errors.New("player not found")
	errUnknownTarget    = errors.New("target player not found")
	errTooFewPlayers    = errors.New("not enough players to start")
	errMinigameActive   = errors.New("another minigame is in progress")
	errMinigameUsedUp   = errors.New("that minigame has no uses left")
	errWrongSubState    = errors.New("action not valid in the current phase")
	errNotParticipant   = errors.New("you are not part of this round")
	errNotCultLeader    = errors.New("only the cult leader may do that")
	errInvalidAnswer    = errors.New("invalid answer")
	errInvalidTarget    = errors.New("invalid target")
	errRoleTaken        = errors.New("that position is already claimed")
	errSilencedCaptain  = errors.New("a silenced player cannot claim captain")
	errNoEligibleTarget = errors.New("no eligible targets remain")
)

// Engine owns one room's LobbyState and applies actions to it. It is
// only ever driven from the room's single goroutine, so it needs no
// locking of its own.
type Engine struct {
	state        *LobbyState
	code         string
	rng          *rand.Rand
	quizDuration time.Duration

	// roundGen is bumped whenever a timed sub-state begins or ends, so
	// a deadline callback scheduled for an earlier round is a no-op.
	roundGen int
	schedule func(gen int, d time.Duration)
}

func newEngine(code string, quizDuration time.Duration, rng *rand.Rand, schedule func(gen int, d time.Duration)) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		code:         code,
		rng:          rng,
		quizDuration: quizDuration,
		schedule:     schedule,
	}
}

// beginRound arms the shared quiz deadline and returns its wall-clock
// value for the snapshot.
func (e *Engine) beginRound() int64 {
	e.roundGen++
	if e.schedule != nil {
		e.schedule(e.roundGen, e.quizDuration)
	}
	return time.Now().Add(e.quizDuration).UnixMilli()
}

// endRound invalidates any pending deadline for the current round.
func (e *Engine) endRound() {
	e.roundGen++
}

// Apply validates and executes one inbound action on behalf of sender.
// On success the returned events are the targeted messages to deliver;
// the caller persists the snapshot and broadcasts LOBBY_UPDATE. On
// error, nothing changed and only the sender is told.
func (e *Engine) Apply(senderID string, act Action) ([]Event, error) {
	switch act.Type {
	case ActionCreateLobby:
		return e.createLobby(senderID, act)
	case ActionJoinLobby:
		return e.joinLobby(senderID, act)
	case ActionLeaveLobby:
		return e.leaveLobby(senderID)
	case ActionKickPlayer:
		return e.kickPlayer(senderID, act.TargetID)
	case ActionUpdateProfile:
		return e.updateProfile(senderID, act)
	case ActionAddBot:
		return e.addBot(senderID)
	case ActionStartGame:
		return e.startGame(senderID)
	case ActionResetGame:
		return e.resetGame(senderID)
	case ActionBackToLobby:
		return e.backToLobby(senderID)

	case ActionStartConversion:
		return e.startConversion(senderID)
	case ActionRespondConversion:
		return e.respondConversion(senderID, act.Accept)
	case ActionSubmitConversion:
		return e.submitConversion(senderID, act)
	case ActionStartCabinSearch:
		return e.startCabinSearch(senderID)
	case ActionClaimCabinSearchRole:
		return e.claimCabinSearchRole(senderID, act.CabinRole)
	case ActionCancelCabinSearch:
		return e.cancelCabinSearch(senderID)
	case ActionSubmitCabinSearch:
		return e.submitCabinSearch(senderID, act)
	case ActionStartGunsStash:
		return e.startGunsStash(senderID)
	case ActionConfirmGunsReady:
		return e.confirmGunsReady(senderID)
	case ActionSubmitGunsSpread:
		return e.submitGunsDistribution(senderID, act.Distribution)
	case ActionSubmitGunsStash:
		return e.submitGunsStash(senderID, act)
	case ActionCancelGunsStash:
		return e.cancelGunsStash(senderID)

	case ActionFloggingRequest:
		return e.floggingRequest(senderID, act.TargetID)
	case ActionFloggingResponse:
		return e.floggingResponse(senderID, act.Accept)
	case ActionCabinSearchRequest:
		return e.captainSearchRequest(senderID, act.TargetID)
	case ActionCabinSearchResponse:
		return e.captainSearchResponse(senderID, act.Accept)
	case ActionFeedTheKrakenRequest:
		return e.feedTheKrakenRequest(senderID, act.TargetID)
	case ActionFeedTheKrakenResponse:
		return e.feedTheKrakenResponse(senderID, act.Accept)
	case ActionTongueRequest:
		return e.tongueRequest(senderID, act.TargetID)
	case ActionTongueResponse:
		return e.tongueResponse(senderID, act.Accept)
	case ActionDenialOfCommand:
		return e.denialOfCommand(senderID, act.TargetID)
	}

	return nil, fmt.Errorf("unknown action type %q", act.Type)
}

// Expire resolves whichever minigame round the deadline was armed for.
// A stale generation (quorum already resolved the round, or the round
// was cancelled) is a no-op.
func (e *Engine) Expire(gen int) ([]Event, bool) {
	if e.state == nil || gen != e.roundGen {
		return nil, false
	}

	l := e.state
	switch {
	case l.ConversionStatus != nil && l.ConversionStatus.State == StateActive:
		return e.resolveConversion(), true
	case l.CabinSearchStatus != nil && l.CabinSearchStatus.State == StateActive:
		return e.resolveCabinSearch(), true
	case l.GunsStashStatus != nil && l.GunsStashStatus.State == StateDistribution:
		return e.resolveGunsStash(), true
	}

	return nil, false
}

// Resume re-arms the deadline for a timed round restored from a
// snapshot. The stored wall-clock deadline is honored when it is still
// in the future; an already-expired round resolves on the next tick.
func (e *Engine) Resume() {
	if e.state == nil {
		return
	}

	var deadline int64
	switch {
	case e.state.ConversionStatus != nil && e.state.ConversionStatus.State == StateActive:
		deadline = e.state.ConversionStatus.Deadline
	case e.state.CabinSearchStatus != nil && e.state.CabinSearchStatus.State == StateActive:
		deadline = e.state.CabinSearchStatus.Deadline
	case e.state.GunsStashStatus != nil && e.state.GunsStashStatus.State == StateDistribution:
		deadline = e.state.GunsStashStatus.Deadline
	default:
		return
	}

	e.roundGen++
	if e.schedule != nil {
		remaining := time.Until(time.UnixMilli(deadline))
		if remaining < 0 {
			remaining = 0
		}
		e.schedule(e.roundGen, remaining)
	}
}

// SetOnline flips a player's connectivity flag. Returns false if the
// player is unknown or the flag already matched.
func (e *Engine) SetOnline(playerID string, online bool) bool {
	if e.state == nil {
		return false
	}
	p := e.state.player(playerID)
	if p == nil || p.IsOnline == online {
		return false
	}
	p.IsOnline = online
	return true
}

// requirePlaying returns the sender's player if a game is in progress.
func (e *Engine) requirePlaying(senderID string) (*Player, error) {
	if e.state == nil {
		return nil, errNoLobby
	}
	if e.state.Status != StatusPlaying {
		return nil, errNotPlaying
	}
	p := e.state.player(senderID)
	if p == nil {
		return nil, errUnknownPlayer
	}
	return p, nil
}

// requireNoMinigame enforces mutual exclusion between minigames.
func (e *Engine) requireNoMinigame() error {
	if name := e.state.activeMinigame(); name != "" {
		return fmt.Errorf("%w: %s", errMinigameActive, name)
	}
	return nil
}
