package main

import (
	"fmt"
	"math/rand"
)

const (
	minPlayers = 5
	maxPlayers = 11
)

type roleCounts struct {
	sailors  int
	pirates  int
	cultists int
}

// roleTable maps player count to role composition. Every composition is
// topped off with exactly one cult leader. The 3-player entry exists for
// degenerate test games only.
var roleTable = map[int]roleCounts{
	3:  {sailors: 1, pirates: 1},
	6:  {sailors: 3, pirates: 2},
	7:  {sailors: 4, pirates: 2},
	8:  {sailors: 4, pirates: 3},
	9:  {sailors: 4, pirates: 3, cultists: 1},
	10: {sailors: 5, pirates: 3, cultists: 1},
	11: {sailors: 5, pirates: 4, cultists: 1},
}

// rolesForPlayerCount returns the role multiset for n players: exactly
// one CULT_LEADER, remainder per the lookup table. Five players get a
// coin flip between two compositions.
func rolesForPlayerCount(n int, rng *rand.Rand) ([]Role, error) {
	var counts roleCounts

	if n == 5 {
		if rng.Intn(2) == 0 {
			counts = roleCounts{sailors: 3, pirates: 1}
		} else {
			counts = roleCounts{sailors: 2, pirates: 2}
		}
	} else {
		var ok bool
		counts, ok = roleTable[n]
		if !ok {
			return nil, fmt.Errorf("unsupported player count: %d", n)
		}
	}

	roles := make([]Role, 0, n)
	for i := 0; i < counts.sailors; i++ {
		roles = append(roles, RoleSailor)
	}
	for i := 0; i < counts.pirates; i++ {
		roles = append(roles, RolePirate)
	}
	for i := 0; i < counts.cultists; i++ {
		roles = append(roles, RoleCultist)
	}
	roles = append(roles, RoleCultLeader)

	return roles, nil
}

// assignRoles shuffles the multiset for n players and maps it
// positionally onto the player list. rand.Shuffle is a Fisher-Yates, so
// every permutation is equally likely.
func assignRoles(players []*Player, rng *rand.Rand) (map[string]Role, error) {
	roles, err := rolesForPlayerCount(len(players), rng)
	if err != nil {
		return nil, err
	}

	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	assignments := make(map[string]Role, len(players))
	for i, p := range players {
		assignments[p.ID] = roles[i]
	}
	return assignments, nil
}
