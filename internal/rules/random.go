package rules

import (
	"math/rand/v2"
	"time"
)

// Rand is the random source behind every probabilistic outcome: idea quality,
// bug injection, interview decisions, launch success and passive income.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// NewRand returns a PCG-backed source. A zero seed picks one from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Chance draws a Bernoulli trial with probability p.
func Chance(r Rand, p float64) bool {
	return r.Float64() < p
}

// Between returns a uniform integer in [lo, hi].
func Between(r Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}
