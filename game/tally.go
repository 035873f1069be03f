package game

import "sort"

// VoteCount is one leaderboard row.
type VoteCount struct {
	PlayerID string
	Count    int
}

// TallyResult is the outcome of counting one vote per voter.
type TallyResult struct {
	Leaderboard []VoteCount // count descending, ties in roster order
	TopVoted    []string    // every target sharing the highest count
	MaxCount    int
}

// Tally counts votes (voter -> target). order fixes the tie ordering of the
// leaderboard; targets missing from order sort after it by id.
func Tally(votes map[string]string, order []string) TallyResult {
	counts := make(map[string]int, len(votes))
	for _, target := range votes {
		counts[target]++
	}

	rank := make(map[string]int, len(order))
	for i, id := range order {
		rank[id] = i
	}
	position := func(id string) int {
		if i, ok := rank[id]; ok {
			return i
		}
		return len(order)
	}

	res := TallyResult{Leaderboard: make([]VoteCount, 0, len(counts))}
	for id, c := range counts {
		res.Leaderboard = append(res.Leaderboard, VoteCount{PlayerID: id, Count: c})
		if c > res.MaxCount {
			res.MaxCount = c
		}
	}

	sort.Slice(res.Leaderboard, func(i, j int) bool {
		a, b := res.Leaderboard[i], res.Leaderboard[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		pa, pb := position(a.PlayerID), position(b.PlayerID)
		if pa != pb {
			return pa < pb
		}
		return a.PlayerID < b.PlayerID
	})

	for _, row := range res.Leaderboard {
		if row.Count == res.MaxCount {
			res.TopVoted = append(res.TopVoted, row.PlayerID)
		}
	}
	return res
}

// Winner sides.
const (
	WinnerGood = "good"
	WinnerWolf = "wolf"
)

// VoteWinner: good wins if any most-voted player is a wolf, even in a tie.
func VoteWinner(topVoted []string, roleOf func(id string) Role) string {
	for _, id := range topVoted {
		if roleOf(id) == RoleWolf {
			return WinnerGood
		}
	}
	return WinnerWolf
}

// KillWinner: wolves win only by killing the seer.
func KillWinner(targetRole Role) string {
	if targetRole == RoleSeer {
		return WinnerWolf
	}
	return WinnerGood
}
