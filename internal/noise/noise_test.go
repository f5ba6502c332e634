package noise

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

func TestWGNZeroStddevIsSilent(t *testing.T) {
	g := NewWGN(0, NewSource(1))
	for i := 0; i < 100; i++ {
		if s := g.Sample(); s != 0 {
			t.Fatalf("sample %d = %v, want 0", i, s)
		}
	}
}

func TestWGNMoments(t *testing.T) {
	const n = 200000
	g := NewWGN(2.5, NewSource(42))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = g.Sample()
	}
	mean, std := stat.MeanStdDev(samples, nil)
	if math.Abs(mean) > 0.05 {
		t.Errorf("mean = %v, want ~0", mean)
	}
	if math.Abs(std-2.5) > 0.05 {
		t.Errorf("stddev = %v, want ~2.5", std)
	}
}

func TestWGNDeterministicForSeed(t *testing.T) {
	a := NewWGN(1, NewSource(7))
	b := NewWGN(1, NewSource(7))
	for i := 0; i < 1000; i++ {
		if a.Sample() != b.Sample() {
			t.Fatal("generators with equal seeds diverged")
		}
	}
}

// welchPSD estimates the power spectral density by averaging periodograms of
// non-overlapping segments.
func welchPSD(samples []float64, segLen int) []float64 {
	fft := fourier.NewFFT(segLen)
	psd := make([]float64, segLen/2+1)
	segments := 0
	for off := 0; off+segLen <= len(samples); off += segLen {
		coeffs := fft.Coefficients(nil, samples[off:off+segLen])
		for i, c := range coeffs {
			psd[i] += real(c)*real(c) + imag(c)*imag(c)
		}
		segments++
	}
	for i := range psd {
		psd[i] /= float64(segments)
	}
	return psd
}

// psdSlope fits log10(PSD) against log10(f) over the normalized frequency
// band [lo, hi] (cycles per sample) and returns the slope.
func psdSlope(psd []float64, segLen int, lo, hi float64) float64 {
	var xs, ys []float64
	for i := 1; i < len(psd); i++ {
		f := float64(i) / float64(segLen)
		if f < lo || f > hi {
			continue
		}
		xs = append(xs, math.Log10(f))
		ys = append(ys, math.Log10(psd[i]))
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}

func TestFAlphaSpectralSlope(t *testing.T) {
	const (
		n      = 1 << 17
		segLen = 4096
	)
	g := NewFAlpha(2, 1, NewSource(11))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = g.Sample()
	}
	psd := welchPSD(samples, segLen)
	slope := psdSlope(psd, segLen, 5e-4, 0.2)
	if slope < -2.4 || slope > -1.6 {
		t.Errorf("alpha=2 spectral slope = %v, want about -2", slope)
	}
}

func TestFAlphaWhiteIsFlat(t *testing.T) {
	const (
		n      = 1 << 16
		segLen = 2048
	)
	g := NewFAlpha(0, 1, NewSource(13))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = g.Sample()
	}
	psd := welchPSD(samples, segLen)
	slope := psdSlope(psd, segLen, 5e-4, 0.2)
	if math.Abs(slope) > 0.3 {
		t.Errorf("alpha=0 spectral slope = %v, want about 0", slope)
	}
}

func TestClockModelDeterministicForSeed(t *testing.T) {
	entries := []AlphaEntry{{Alpha: 2, Weight: 0.95}, {Alpha: 0, Weight: 0.05}}
	a := NewClockModel(entries, 99, ClockModelOptions{})
	b := NewClockModel(entries, 99, ClockModelOptions{})
	for i := 0; i < 10000; i++ {
		if a.Sample() != b.Sample() {
			t.Fatal("clock models with equal seeds diverged")
		}
	}
}

func TestClockModelResetYieldsFreshStream(t *testing.T) {
	entries := []AlphaEntry{{Alpha: 2, Weight: 1}}
	m := NewClockModel(entries, 5, ClockModelOptions{})
	first := make([]float64, 100)
	for i := range first {
		first[i] = m.Sample()
	}
	m.Reset()
	same := true
	for i := range first {
		if m.Sample() != first[i] {
			same = false
		}
	}
	if same {
		t.Error("reset did not change the noise stream")
	}

	// A reset of a second identically-seeded model reproduces the same
	// post-reset stream, keeping runs bit-reproducible.
	n := NewClockModel(entries, 5, ClockModelOptions{})
	n.Skip(100)
	n.Reset()
	m2 := NewClockModel(entries, 5, ClockModelOptions{})
	m2.Skip(100)
	m2.Reset()
	for i := 0; i < 1000; i++ {
		if n.Sample() != m2.Sample() {
			t.Fatal("post-reset streams diverged between identically seeded models")
		}
	}
}

func TestClockModelDisabledWithoutEntries(t *testing.T) {
	m := NewClockModel(nil, 1, ClockModelOptions{})
	if m.Enabled() {
		t.Error("model with no entries should be disabled")
	}
	if s := m.Sample(); s != 0 {
		t.Errorf("sample = %v, want 0", s)
	}
}

func TestDeriveSeedSpreadsStreams(t *testing.T) {
	seen := map[uint64]bool{}
	for i := uint64(0); i < 1000; i++ {
		s := DeriveSeed(1234, i)
		if seen[s] {
			t.Fatalf("seed collision at stream %d", i)
		}
		seen[s] = true
	}
}
