package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// NewSeed generates a seed from crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewRand returns a math/rand source seeded from crypto/rand. The result is
// not safe for concurrent use; each room owns its own.
func NewRand() *rand.Rand {
	seed, err := NewSeed()
	if err != nil {
		seed = rand.Int63()
	}
	return rand.New(rand.NewSource(seed))
}
