package game

import "math/rand"

// Weight is a host-selection weight in tenths, so 1.0 is stored as 10.
// Integer arithmetic keeps long-lived rooms free of floating drift.
type Weight int64

const (
	// BaseWeight is a fresh player's weight and the chosen host's reset value.
	BaseWeight Weight = 10
	// WeightStep is added to every player who was not chosen.
	WeightStep Weight = 3
)

// SelectHost draws an index with probability proportional to weights.
// It returns -1 for an empty slice.
func SelectHost(weights []Weight, rng *rand.Rand) int {
	if len(weights) == 0 {
		return -1
	}

	var total Weight
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}

	r := Weight(rng.Int63n(int64(total)))
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		r -= w
		if r < 0 {
			return i
		}
	}
	return 0
}

// Reweight applies the post-selection update: host resets, everyone else grows.
func Reweight(weights []Weight, host int) {
	for i := range weights {
		if i == host {
			weights[i] = BaseWeight
			continue
		}
		weights[i] += WeightStep
	}
}
