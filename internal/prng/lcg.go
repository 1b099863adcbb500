// Package prng provides the reproducible linear-congruential stream used to
// synthesize rows. It is not cryptographically secure.
package prng

const (
	multiplier = 9301
	increment  = 49297
	modulus    = 233280

	// DefaultSeed reproduces the reference synthetic dataset.
	DefaultSeed int64 = 12345
)

// LCG is a single stream of values in [0,1). An LCG is not safe for
// concurrent use; each request owns its own instance.
type LCG struct {
	seed int64
}

// New returns a stream starting at seed. Seeds outside [0,233280) are reduced
// into that range.
func New(seed int64) *LCG {
	seed %= modulus
	if seed < 0 {
		seed += modulus
	}
	return &LCG{seed: seed}
}

// Next advances the stream and returns the next value in [0,1).
func (g *LCG) Next() float64 {
	g.seed = (g.seed*multiplier + increment) % modulus
	return float64(g.seed) / modulus
}
