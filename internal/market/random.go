package market

import "math/rand/v2"

// RandomSource yields uniformly distributed values in [0, 1)
type RandomSource interface {
	Float64() float64
}

// RandomFunc adapts a plain function to RandomSource
type RandomFunc func() float64

// Float64 implements RandomSource
func (f RandomFunc) Float64() float64 { return f() }

// DefaultRandom returns the process-wide source from math/rand/v2
func DefaultRandom() RandomSource {
	return RandomFunc(rand.Float64)
}

// NewSeededRandom returns a reproducible source, used by the CLI's simulate command
func NewSeededRandom(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
