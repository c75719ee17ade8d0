package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from seed. Boards,
// decks, dice and steals in a room all draw from one of these, so a seed
// replays a whole game.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seed returns seed, or a time-derived seed when it is zero.
func Seed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// Derive returns an independent generator for stream n of seed, so parallel
// simulations get distinct but reproducible games.
func Derive(seed int64, n int) *rand.Rand {
	return New(int64(mix(uint64(seed) + uint64(n)*goldenRatio64)))
}

// Dice rolls two six-sided dice.
func Dice(rng *rand.Rand) (int, int) {
	return rng.IntN(6) + 1, rng.IntN(6) + 1
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
