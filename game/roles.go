package game

import "math/rand"

// Role 玩家身份
type Role string

const (
	RoleUnset    Role = ""
	RoleSeer     Role = "seer"
	RoleWolf     Role = "wolf"
	RoleVillager Role = "villager"
)

const (
	// MinPlayers is the smallest roster that can start a round.
	MinPlayers = 4
	// MaxPlayers is the upper clamp for a room's capacity.
	MaxPlayers = 12
	// twoWolvesAbove: rosters larger than this get a second wolf.
	twoWolvesAbove = 8
)

// WolfCount returns how many wolves a roster of n players gets.
func WolfCount(n int) int {
	if n > twoWolvesAbove {
		return 2
	}
	return 1
}

// AssignRoles returns one role per seat for n players: one seer, one or two
// wolves and villagers for the rest, uniformly shuffled.
func AssignRoles(n int, rng *rand.Rand) ([]Role, error) {
	if n < MinPlayers {
		return nil, Validation("at least 4 players are required")
	}

	roles := make([]Role, n)
	roles[0] = RoleSeer
	wolves := WolfCount(n)
	for i := 1; i <= wolves; i++ {
		roles[i] = RoleWolf
	}
	for i := wolves + 1; i < n; i++ {
		roles[i] = RoleVillager
	}

	// Fisher–Yates
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		roles[i], roles[j] = roles[j], roles[i]
	}
	return roles, nil
}
