package main

import (
	"time"
)

// Role is a loyalty card. Exactly one CULT_LEADER exists per game.
type Role string

const (
	RoleSailor     Role = "SAILOR"
	RolePirate     Role = "PIRATE"
	RoleCultLeader Role = "CULT_LEADER"
	RoleCultist    Role = "CULTIST"
)

// CabinRole is a position claimed during the cult cabin search.
type CabinRole string

const (
	CabinCaptain    CabinRole = "CAPTAIN"
	CabinNavigator  CabinRole = "NAVIGATOR"
	CabinLieutenant CabinRole = "LIEUTENANT"
	CabinCrew       CabinRole = "CREW"
)

// LobbyStatus is the top-level phase of a room.
type LobbyStatus string

const (
	StatusWaiting LobbyStatus = "WAITING"
	StatusPlaying LobbyStatus = "PLAYING"
)

// MinigameState is the sub-state of a minigame status block.
type MinigameState string

const (
	// StateWaitingForPlayers gathers consent or ready confirmations.
	StateWaitingForPlayers MinigameState = "WAITING_FOR_PLAYERS"
	// StateClaiming gathers cabin role claims.
	StateClaiming MinigameState = "CLAIMING"
	// StateActive is the timed quiz/answer phase.
	StateActive MinigameState = "ACTIVE"
	// StateDistribution is the timed guns stash allocation phase.
	StateDistribution MinigameState = "DISTRIBUTION"
	// StatePending waits for a single target's confirmation.
	StatePending MinigameState = "PENDING"
	// StateCompleted and StateCancelled are terminal.
	StateCompleted MinigameState = "COMPLETED"
	StateCancelled MinigameState = "CANCELLED"
)

func (s MinigameState) terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Player holds the server-side state for a participant in a room.
type Player struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PhotoURL        string `json:"photoUrl,omitempty"`
	IsHost          bool   `json:"isHost"`
	IsReady         bool   `json:"isReady"`
	IsOnline        bool   `json:"isOnline"`
	IsEliminated    bool   `json:"isEliminated"`
	IsUnconvertible bool   `json:"isUnconvertible"`
	NotRole         Role   `json:"notRole,omitempty"`
	JoinedAt        int64  `json:"joinedAt"`
	HasTongue       bool   `json:"hasTongue"`
	IsBot           bool   `json:"isBot,omitempty"`
}

// active reports whether the player counts toward minigame quorums.
func (p *Player) active() bool {
	return !p.IsEliminated && p.IsOnline
}

// ConversionResult is the terminal payload of a conversion ritual.
type ConversionResult struct {
	TargetID    string          `json:"targetId"`
	Converted   bool            `json:"converted"`
	QuizResults map[string]bool `json:"quizResults"`
}

// ConversionStatus tracks one conversion ritual round.
type ConversionStatus struct {
	State       MinigameState     `json:"state"`
	InitiatorID string            `json:"initiatorId"`
	Accepted    map[string]bool   `json:"accepted"`
	Questions   map[string]int    `json:"questions,omitempty"`
	Answers     map[string]int    `json:"answers,omitempty"`
	TargetID    string            `json:"targetId,omitempty"`
	Deadline    int64             `json:"deadline,omitempty"`
	Result      *ConversionResult `json:"result,omitempty"`
}

// CabinSearchResult is the terminal payload of a cult cabin search.
type CabinSearchResult struct {
	QuizResults map[string]bool `json:"quizResults"`
}

// CabinSearchStatus tracks one cult cabin search round.
type CabinSearchStatus struct {
	State              MinigameState        `json:"state"`
	InitiatorID        string               `json:"initiatorId"`
	Claims             map[string]CabinRole `json:"claims"`
	Questions          map[string]int       `json:"questions,omitempty"`
	Answers            map[string]int       `json:"answers,omitempty"`
	Deadline           int64                `json:"deadline,omitempty"`
	CancellationReason string               `json:"cancellationReason,omitempty"`
	Result             *CabinSearchResult   `json:"result,omitempty"`
}

// GunsStashResult is the terminal payload of the guns stash.
type GunsStashResult struct {
	Distribution map[string]int  `json:"distribution"`
	QuizResults  map[string]bool `json:"quizResults"`
}

// GunsStashStatus tracks the guns stash round.
type GunsStashStatus struct {
	State        MinigameState    `json:"state"`
	InitiatorID  string           `json:"initiatorId"`
	Ready        map[string]bool  `json:"ready"`
	Distribution map[string]int   `json:"distribution,omitempty"`
	Questions    map[string]int   `json:"questions,omitempty"`
	Answers      map[string]int   `json:"answers,omitempty"`
	Deadline     int64            `json:"deadline,omitempty"`
	Result       *GunsStashResult `json:"result,omitempty"`
}

// RequestStatus tracks a two-party request->confirm minigame
// (flogging, captain cabin search, feed the kraken, off with the tongue).
type RequestStatus struct {
	State       MinigameState `json:"state"`
	RequesterID string        `json:"requesterId"`
	TargetID    string        `json:"targetId"`
}

// DenialStatus records a completed denial of command.
type DenialStatus struct {
	State       MinigameState `json:"state"`
	InitiatorID string        `json:"initiatorId"`
	TargetID    string        `json:"targetId"`
}

// FeedTheKrakenResult records who was fed to the kraken.
type FeedTheKrakenResult struct {
	TargetID             string `json:"targetId"`
	Role                 Role   `json:"role"`
	CultLeaderEliminated bool   `json:"cultLeaderEliminated"`
}

// PlayerSnapshot is the per-player portion of the initial game state.
type PlayerSnapshot struct {
	IsEliminated    bool `json:"isEliminated"`
	IsUnconvertible bool `json:"isUnconvertible"`
	NotRole         Role `json:"notRole,omitempty"`
	HasTongue       bool `json:"hasTongue"`
}

// InitialGameState is frozen at game start so RESET_GAME can replay the
// same deal without reshuffling.
type InitialGameState struct {
	Assignments map[string]Role           `json:"assignments"`
	Players     map[string]PlayerSnapshot `json:"players"`
}

// LobbyState is the complete snapshot for one room. It is the single
// source of truth: every mutation replaces it in the store and is
// broadcast whole to all connected clients.
type LobbyState struct {
	Code    string      `json:"code"`
	Players []*Player   `json:"players"`
	Status  LobbyStatus `json:"status"`

	Assignments   map[string]Role `json:"assignments,omitempty"`
	OriginalRoles map[string]Role `json:"originalRoles,omitempty"`

	ConversionStatus    *ConversionStatus    `json:"conversionStatus,omitempty"`
	CabinSearchStatus   *CabinSearchStatus   `json:"cabinSearchStatus,omitempty"`
	GunsStashStatus     *GunsStashStatus     `json:"gunsStashStatus,omitempty"`
	FloggingStatus      *RequestStatus       `json:"floggingStatus,omitempty"`
	CaptainSearchStatus *RequestStatus       `json:"captainSearchStatus,omitempty"`
	FeedTheKrakenStatus *RequestStatus       `json:"feedTheKrakenStatus,omitempty"`
	TongueStatus        *RequestStatus       `json:"tongueStatus,omitempty"`
	DenialStatus        *DenialStatus        `json:"denialStatus,omitempty"`
	FeedTheKrakenResult *FeedTheKrakenResult `json:"feedTheKrakenResult,omitempty"`

	ConversionCount      int  `json:"conversionCount"`
	CultCabinSearchCount int  `json:"cultCabinSearchCount"`
	CaptainSearchCount   int  `json:"captainSearchCount"`
	FeedTheKrakenCount   int  `json:"feedTheKrakenCount"`
	IsFloggingUsed       bool `json:"isFloggingUsed"`
	IsGunsStashUsed      bool `json:"isGunsStashUsed"`
	IsTongueUsed         bool `json:"isTongueUsed"`
	IsDenialUsed         bool `json:"isDenialUsed"`

	InitialGameState *InitialGameState `json:"initialGameState,omitempty"`
}

func newLobbyState(code string) *LobbyState {
	return &LobbyState{
		Code:    code,
		Players: make([]*Player, 0, maxPlayers),
		Status:  StatusWaiting,
	}
}

func newPlayer(id, name, photoURL string, host bool) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		PhotoURL:  photoURL,
		IsHost:    host,
		IsOnline:  true,
		JoinedAt:  time.Now().UnixMilli(),
		HasTongue: true,
	}
}

// player returns the player with the given ID, or nil.
func (l *LobbyState) player(id string) *Player {
	for _, p := range l.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// activePlayers returns all online, non-eliminated players (the quorum set).
func (l *LobbyState) activePlayers() []*Player {
	active := make([]*Player, 0, len(l.Players))
	for _, p := range l.Players {
		if p.active() {
			active = append(active, p)
		}
	}
	return active
}

// cultLeaderID returns the ID of the player currently assigned CULT_LEADER.
func (l *LobbyState) cultLeaderID() string {
	for id, role := range l.Assignments {
		if role == RoleCultLeader {
			return id
		}
	}
	return ""
}

// activeMinigame returns the name of the minigame currently in a
// non-terminal state, or "" if none. At most one minigame may be live
// in a room at a time.
func (l *LobbyState) activeMinigame() string {
	switch {
	case l.ConversionStatus != nil && !l.ConversionStatus.State.terminal():
		return "conversion"
	case l.CabinSearchStatus != nil && !l.CabinSearchStatus.State.terminal():
		return "cult cabin search"
	case l.GunsStashStatus != nil && !l.GunsStashStatus.State.terminal():
		return "guns stash"
	case l.FloggingStatus != nil && !l.FloggingStatus.State.terminal():
		return "flogging"
	case l.CaptainSearchStatus != nil && !l.CaptainSearchStatus.State.terminal():
		return "captain cabin search"
	case l.FeedTheKrakenStatus != nil && !l.FeedTheKrakenStatus.State.terminal():
		return "feed the kraken"
	case l.TongueStatus != nil && !l.TongueStatus.State.terminal():
		return "off with the tongue"
	}
	return ""
}

// clearMinigames drops every minigame status block. Per-round data must
// never leak into the next round or the next game.
func (l *LobbyState) clearMinigames() {
	l.ConversionStatus = nil
	l.CabinSearchStatus = nil
	l.GunsStashStatus = nil
	l.FloggingStatus = nil
	l.CaptainSearchStatus = nil
	l.FeedTheKrakenStatus = nil
	l.TongueStatus = nil
	l.DenialStatus = nil
	l.FeedTheKrakenResult = nil
}

// resetCounters restores all usage counters and flags to their
// start-of-game defaults.
func (l *LobbyState) resetCounters() {
	l.ConversionCount = 0
	l.CultCabinSearchCount = 0
	l.CaptainSearchCount = 0
	l.FeedTheKrakenCount = 0
	l.IsFloggingUsed = false
	l.IsGunsStashUsed = false
	l.IsTongueUsed = false
	l.IsDenialUsed = false
}

// snapshotInitialGameState freezes assignments and player flags so the
// same deal can be replayed via RESET_GAME.
func (l *LobbyState) snapshotInitialGameState() {
	initial := &InitialGameState{
		Assignments: make(map[string]Role, len(l.Assignments)),
		Players:     make(map[string]PlayerSnapshot, len(l.Players)),
	}
	for id, role := range l.Assignments {
		initial.Assignments[id] = role
	}
	for _, p := range l.Players {
		initial.Players[p.ID] = PlayerSnapshot{
			IsEliminated:    p.IsEliminated,
			IsUnconvertible: p.IsUnconvertible,
			NotRole:         p.NotRole,
			HasTongue:       p.HasTongue,
		}
	}
	l.InitialGameState = initial
}
