package main

// Inbound action types. Each websocket message is a flat JSON object
// whose "type" field selects the handler.
const (
	ActionCreateLobby   = "CREATE_LOBBY"
	ActionJoinLobby     = "JOIN_LOBBY"
	ActionLeaveLobby    = "LEAVE_LOBBY"
	ActionKickPlayer    = "KICK_PLAYER"
	ActionUpdateProfile = "UPDATE_PROFILE"
	ActionAddBot        = "ADD_BOT"
	ActionStartGame     = "START_GAME"
	ActionResetGame     = "RESET_GAME"
	ActionBackToLobby   = "BACK_TO_LOBBY"

	ActionStartConversion      = "START_CONVERSION"
	ActionRespondConversion    = "RESPOND_CONVERSION"
	ActionSubmitConversion     = "SUBMIT_CONVERSION_ACTION"
	ActionStartCabinSearch     = "START_CULT_CABIN_SEARCH"
	ActionClaimCabinSearchRole = "CLAIM_CULT_CABIN_SEARCH_ROLE"
	ActionCancelCabinSearch    = "CANCEL_CULT_CABIN_SEARCH"
	ActionSubmitCabinSearch    = "SUBMIT_CULT_CABIN_SEARCH_ACTION"
	ActionStartGunsStash       = "START_CULT_GUNS_STASH"
	ActionConfirmGunsReady     = "CONFIRM_CULT_GUNS_STASH_READY"
	ActionSubmitGunsSpread     = "SUBMIT_CULT_GUNS_STASH_DISTRIBUTION"
	ActionSubmitGunsStash      = "SUBMIT_CULT_GUNS_STASH_ACTION"
	ActionCancelGunsStash      = "CANCEL_CULT_GUNS_STASH"

	ActionFloggingRequest       = "FLOGGING_REQUEST"
	ActionFloggingResponse      = "FLOGGING_CONFIRMATION_RESPONSE"
	ActionCabinSearchRequest    = "CABIN_SEARCH_REQUEST"
	ActionCabinSearchResponse   = "CABIN_SEARCH_RESPONSE"
	ActionFeedTheKrakenRequest  = "FEED_THE_KRAKEN_REQUEST"
	ActionFeedTheKrakenResponse = "FEED_THE_KRAKEN_RESPONSE"
	ActionTongueRequest         = "OFF_WITH_TONGUE_REQUEST"
	ActionTongueResponse        = "OFF_WITH_TONGUE_RESPONSE"
	ActionDenialOfCommand       = "DENIAL_OF_COMMAND"
)

// Action is the inbound message envelope. Fields beyond Type are
// populated per action kind; unused fields are left zero.
type Action struct {
	Type         string         `json:"type"`
	Name         string         `json:"name,omitempty"`
	PhotoURL     string         `json:"photoUrl,omitempty"`
	TargetID     string         `json:"targetId,omitempty"`
	Accept       *bool          `json:"accept,omitempty"`
	Answer       *int           `json:"answer,omitempty"`
	CabinRole    CabinRole      `json:"role,omitempty"`
	Distribution map[string]int `json:"distribution,omitempty"`
}

// LobbyUpdateMessage is the dominant outbound message: the full room
// snapshot, broadcast to every connection after each accepted mutation.
type LobbyUpdateMessage struct {
	Type  string      `json:"type"` // "LOBBY_UPDATE"
	Lobby *LobbyState `json:"lobby"`
}

// GameStartedMessage is broadcast once when a game begins.
type GameStartedMessage struct {
	Type        string          `json:"type"` // "GAME_STARTED"
	Assignments map[string]Role `json:"assignments"`
}

// ErrorMessage is sent to a single requester whose action was rejected.
type ErrorMessage struct {
	Type    string `json:"type"` // "ERROR"
	Message string `json:"message"`
}

// PromptMessage asks a target player to confirm a two-party minigame.
type PromptMessage struct {
	Type          string `json:"type"` // "*_PROMPT"
	RequesterID   string `json:"requesterId"`
	RequesterName string `json:"requesterName"`
	TargetID      string `json:"targetId"`
}

// ResultMessage carries the outcome of a two-party minigame to the
// parties involved. Role fields are only set for the minigames that
// reveal them.
type ResultMessage struct {
	Type                 string `json:"type"` // "*_RESULT"
	TargetID             string `json:"targetId"`
	Role                 Role   `json:"role,omitempty"`
	NotRole              Role   `json:"notRole,omitempty"`
	CultLeaderEliminated bool   `json:"cultLeaderEliminated,omitempty"`
}

// DeniedMessage tells a requester their target declined.
type DeniedMessage struct {
	Type     string `json:"type"` // "*_DENIED"
	TargetID string `json:"targetId"`
}

// RevealMessage discloses the cabin search officers' current roles to
// the cult leader only.
type RevealMessage struct {
	Type     string          `json:"type"` // "CULT_CABIN_SEARCH_REVEAL"
	Officers map[string]Role `json:"officers"`
}

// Event pairs an outbound message with its recipients. An empty
// recipient list means broadcast to the whole room.
type Event struct {
	Msg any
	To  []string
}

func broadcast(msg any) Event {
	return Event{Msg: msg}
}

func sendTo(msg any, playerIDs ...string) Event {
	return Event{Msg: msg, To: playerIDs}
}
