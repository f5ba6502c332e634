package noise

import (
	"golang.org/x/exp/rand"

	"github.com/banshee-data/echosim/internal/dsp"
)

const (
	// falphaOrder is the order of the Kasdin shaping filter. Higher orders
	// extend the accurate part of the 1/f^alpha slope towards DC.
	falphaOrder = 128
	// falphaBlockSize amortizes the filter cost; samples are generated in
	// blocks and handed out one at a time.
	falphaBlockSize = 1024
)

// FAlpha generates noise with a 1/f^alpha power spectrum by shaping white
// Gaussian noise through the Kasdin autoregressive filter whose denominator
// coefficients follow the binomial expansion of (1 - z^-1)^(alpha/2).
//
// The filter has a startup transient that biases early samples, so the
// generator pre-runs one full filter length before the first sample is
// handed out.
type FAlpha struct {
	alpha     float64
	amplitude float64
	filter    *dsp.ArFilter
	white     *WGN
	buffer    []float64
	offset    int
}

// NewFAlpha creates a 1/f^alpha generator with the given spectral exponent
// and output amplitude, drawing white noise from src.
func NewFAlpha(alpha, amplitude float64, src rand.Source) *FAlpha {
	coeffs := make([]float64, falphaOrder)
	coeffs[0] = 1
	for k := 1; k < falphaOrder; k++ {
		coeffs[k] = (float64(k) - 1 - alpha/2) * coeffs[k-1] / float64(k)
	}
	g := &FAlpha{
		alpha:     alpha,
		amplitude: amplitude,
		filter:    dsp.NewArFilter(coeffs),
		white:     NewWGN(1, src),
		buffer:    make([]float64, 0, falphaBlockSize),
	}
	for i := 0; i < falphaOrder; i++ {
		g.filter.Filter(g.white.Sample())
	}
	return g
}

// Sample returns the next colored-noise sample.
func (g *FAlpha) Sample() float64 {
	if g.offset >= len(g.buffer) {
		g.fill()
	}
	s := g.buffer[g.offset]
	g.offset++
	return s
}

func (g *FAlpha) fill() {
	g.buffer = g.buffer[:falphaBlockSize]
	for i := range g.buffer {
		g.buffer[i] = g.filter.Filter(g.white.Sample()) * g.amplitude
	}
	g.offset = 0
}
