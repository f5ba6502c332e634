package noise

import (
	"gonum.org/v1/gonum/stat"
)

// AlphaEntry pairs a spectral exponent with its weight in a clock model.
type AlphaEntry struct {
	Alpha  float64
	Weight float64
}

// ClockModelOptions configures the optional linear trend of a ClockModel.
// The trend bridges inter-pulse phase drift for pulsed radars: a straight
// line from Offset to TrendEnd is superimposed over TotalSize samples.
// TrendRemove subtracts the least-squares linear trend of the generated noise
// itself before the bridge is added; the residual noise remains, so the
// sequence endpoints do not land exactly on the anchors.
type ClockModelOptions struct {
	Offset      float64
	TrendEnd    float64
	TotalSize   int
	TrendRemove bool
}

// ClockModel generates clock phase-noise samples as the weighted sum of
// 1/f^alpha component generators. The model is stateful and single-threaded;
// independent consumers must create their own instance.
type ClockModel struct {
	entries []AlphaEntry
	opts    ClockModelOptions
	seed    uint64
	epoch   uint64

	gens    []*FAlpha
	trend   []float64
	count   int
}

// NewClockModel creates a clock model from the given component entries,
// seeded deterministically from seed.
func NewClockModel(entries []AlphaEntry, seed uint64, opts ClockModelOptions) *ClockModel {
	m := &ClockModel{
		entries: append([]AlphaEntry(nil), entries...),
		opts:    opts,
		seed:    seed,
	}
	m.build()
	return m
}

func (m *ClockModel) build() {
	m.gens = make([]*FAlpha, len(m.entries))
	for i, e := range m.entries {
		src := NewSource(DeriveSeed(m.seed, m.epoch*uint64(len(m.entries)+1)+uint64(i)))
		m.gens[i] = NewFAlpha(e.Alpha, e.Weight, src)
	}
	m.count = 0
	m.trend = nil
	if m.opts.TrendRemove && m.opts.TotalSize > 0 {
		m.precomputeTrend()
	}
}

// precomputeTrend generates the first TotalSize raw samples, fits and
// removes their linear trend, and stores the corrected sequence with the
// anchor bridge applied.
func (m *ClockModel) precomputeTrend() {
	n := m.opts.TotalSize
	raw := make([]float64, n)
	xs := make([]float64, n)
	for i := 0; i < n; i++ {
		raw[i] = m.rawSample()
		xs[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(xs, raw, nil, false)
	m.trend = make([]float64, n)
	for i := 0; i < n; i++ {
		u := float64(i) / float64(n)
		bridge := m.opts.Offset + (m.opts.TrendEnd-m.opts.Offset)*u
		m.trend[i] = raw[i] - (intercept + slope*float64(i)) + bridge
	}
}

func (m *ClockModel) rawSample() float64 {
	var s float64
	for _, g := range m.gens {
		s += g.Sample()
	}
	return s
}

// Sample returns the next phase-noise sample in radians.
func (m *ClockModel) Sample() float64 {
	i := m.count
	m.count++
	if m.trend != nil && i < len(m.trend) {
		return m.trend[i]
	}
	s := m.rawSample()
	if m.opts.TotalSize > 0 && m.trend == nil {
		u := float64(i) / float64(m.opts.TotalSize)
		s += m.opts.Offset + (m.opts.TrendEnd-m.opts.Offset)*u
	}
	return s
}

// Skip discards n samples, advancing the model state.
func (m *ClockModel) Skip(n int) {
	for i := 0; i < n; i++ {
		m.Sample()
	}
}

// Reset restarts the model with a fresh, deterministically derived noise
// stream. Used by sync-on-pulse timing where the clock re-locks at every
// receive window.
func (m *ClockModel) Reset() {
	m.epoch++
	m.build()
}

// Enabled reports whether the model has any noise components.
func (m *ClockModel) Enabled() bool { return len(m.entries) > 0 }
