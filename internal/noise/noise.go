// Package noise provides the random sample generators used by the engine:
// white Gaussian noise, 1/f^alpha colored noise, and the clock phase-noise
// model built as a weighted sum of colored-noise components.
package noise

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Generator produces an infinite stream of real-valued samples.
type Generator interface {
	Sample() float64
}

// NewSource returns a deterministic random source for the given seed. The
// source type is gonum's (golang.org/x/exp/rand), so it plugs straight into
// the distuv distributions.
func NewSource(seed uint64) rand.Source {
	return rand.NewSource(seed)
}

// DeriveSeed mixes a parent seed and a stream index into an independent
// child seed (splitmix64 finalizer).
func DeriveSeed(seed, stream uint64) uint64 {
	z := seed + (stream+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// WGN generates white Gaussian noise with the given standard deviation. A
// zero standard deviation yields deterministic zeros without consuming the
// random stream.
type WGN struct {
	stddev float64
	dist   distuv.Normal
}

// NewWGN creates a white Gaussian noise generator.
func NewWGN(stddev float64, src rand.Source) *WGN {
	return &WGN{
		stddev: stddev,
		dist:   distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

// Sample returns a single noise sample.
func (g *WGN) Sample() float64 {
	if g.stddev == 0 {
		return 0
	}
	return g.dist.Rand() * g.stddev
}
