// Package timing models radar clock behavior: prototype definitions shared
// between radars, per-radar timing instances with materialized oscillator
// offsets, and the stateful phase-noise stream each instance owns.
package timing

import (
	"math"

	"github.com/banshee-data/echosim/internal/noise"
)

// Prototype describes a clock model as declared in a scenario. Instances
// are materialized per radar with New.
type Prototype struct {
	// Name keys the prototype in the world's asset registry.
	Name string
	// Frequency is the nominal oscillator frequency in Hz.
	Frequency float64
	// SyncOnPulse resets the phase-noise state at every receive window
	// instead of free-running across the inter-pulse gap.
	SyncOnPulse bool
	// FreqOffset and PhaseOffset are deterministic oscillator offsets.
	FreqOffset  float64
	PhaseOffset float64
	// RandomFreqOffsetStdev and RandomPhaseOffsetStdev, when non-zero, add a
	// per-instance Gaussian draw to the deterministic offsets.
	RandomFreqOffsetStdev  float64
	RandomPhaseOffsetStdev float64
	// Entries define the 1/f^alpha components of the phase-noise spectrum.
	Entries []noise.AlphaEntry
}

// Timing is a per-radar clock instance. The materialized offsets are drawn
// once at construction; the phase-noise model is stateful and single
// threaded. Clone yields an independent copy for use on another goroutine.
type Timing struct {
	proto       *Prototype
	seed        uint64
	clones      uint64
	freqOffset  float64
	phaseOffset float64
	model       *noise.ClockModel
}

// New materializes a timing instance from a prototype, drawing the random
// offset components from a stream derived from seed.
func New(proto *Prototype, seed uint64) *Timing {
	t := &Timing{
		proto:       proto,
		seed:        seed,
		freqOffset:  proto.FreqOffset,
		phaseOffset: proto.PhaseOffset,
	}
	if proto.RandomFreqOffsetStdev > 0 {
		g := noise.NewWGN(proto.RandomFreqOffsetStdev, noise.NewSource(noise.DeriveSeed(seed, 0)))
		t.freqOffset += g.Sample()
	}
	if proto.RandomPhaseOffsetStdev > 0 {
		g := noise.NewWGN(proto.RandomPhaseOffsetStdev, noise.NewSource(noise.DeriveSeed(seed, 1)))
		t.phaseOffset += g.Sample()
	}
	t.model = noise.NewClockModel(proto.Entries, noise.DeriveSeed(seed, 2), noise.ClockModelOptions{})
	return t
}

// Clone returns an independent timing instance with the same materialized
// offsets and statistical configuration but a fresh phase-noise stream.
// Finalizer goroutines clone the receiver's timing to avoid racing the
// driver's instance.
func (t *Timing) Clone() *Timing {
	t.clones++
	c := &Timing{
		proto:       t.proto,
		seed:        noise.DeriveSeed(t.seed, 16+t.clones),
		freqOffset:  t.freqOffset,
		phaseOffset: t.phaseOffset,
	}
	c.model = noise.NewClockModel(t.proto.Entries, noise.DeriveSeed(c.seed, 2), noise.ClockModelOptions{})
	return c
}

// Name returns the prototype name.
func (t *Timing) Name() string { return t.proto.Name }

// Frequency returns the nominal oscillator frequency in Hz.
func (t *Timing) Frequency() float64 { return t.proto.Frequency }

// SyncOnPulse reports whether the model re-locks at every receive window.
func (t *Timing) SyncOnPulse() bool { return t.proto.SyncOnPulse }

// FreqOffset returns the materialized frequency offset in Hz.
func (t *Timing) FreqOffset() float64 { return t.freqOffset }

// PhaseOffset returns the materialized phase offset in radians.
func (t *Timing) PhaseOffset() float64 { return t.phaseOffset }

// Enabled reports whether the clock model has phase-noise components.
func (t *Timing) Enabled() bool { return t.model.Enabled() }

// NextSample returns the next phase-noise sample in radians.
func (t *Timing) NextSample() float64 { return t.model.Sample() }

// SkipSamples advances the phase-noise stream by n samples.
func (t *Timing) SkipSamples(n int) { t.model.Skip(n) }

// Reset restarts the phase-noise stream (sync-on-pulse re-lock).
func (t *Timing) Reset() { t.model.Reset() }

// JitterSample converts one phase-noise sample to a time jitter in seconds
// at the nominal frequency. Returns zero when the model is disabled or the
// prototype declares no frequency.
func (t *Timing) JitterSample() float64 {
	if !t.Enabled() || t.proto.Frequency == 0 {
		return 0
	}
	return t.NextSample() / (2 * math.Pi * t.proto.Frequency)
}
