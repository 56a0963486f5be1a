package main

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Bot players fill out small lobbies. They are ordinary Players that
// are always online and ready; wherever a minigame gathers consent,
// readiness, or claims, the engine answers for them immediately, and
// anything requiring judgment (quiz answers, target picks) falls to the
// normal random-fallback resolution at the deadline.

var botNames = []string{
	"Old Gregg",
	"Peg-Leg Pete",
	"Salty Morgan",
	"One-Eye Willa",
	"Bosun Flint",
	"Mad Annie",
	"Deckhand Drake",
	"Gunner Moll",
	"Barnacle Bill",
	"Quartermaster Quinn",
}

func newBotPlayer(state *LobbyState, rng *rand.Rand) *Player {
	name := botNames[rng.Intn(len(botNames))]
	for _, p := range state.Players {
		if p.Name == name {
			name = botNames[rng.Intn(len(botNames))]
		}
	}

	return &Player{
		ID:        "bot-" + uuid.NewString(),
		Name:      name,
		IsReady:   true,
		IsOnline:  true,
		JoinedAt:  time.Now().UnixMilli(),
		HasTongue: true,
		IsBot:     true,
	}
}

// botAccepts records consent for every active bot in the given map.
func (l *LobbyState) botAccepts(accepted map[string]bool) {
	for _, p := range l.activePlayers() {
		if p.IsBot {
			accepted[p.ID] = true
		}
	}
}

// botClaims claims CREW for every active bot that has not claimed yet.
func (l *LobbyState) botClaims(claims map[string]CabinRole) {
	for _, p := range l.activePlayers() {
		if p.IsBot {
			if _, ok := claims[p.ID]; !ok {
				claims[p.ID] = CabinCrew
			}
		}
	}
}
