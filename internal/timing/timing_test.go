package timing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/echosim/internal/noise"
)

func testProto() *Prototype {
	return &Prototype{
		Name:      "clock",
		Frequency: 10e6,
		Entries:   []noise.AlphaEntry{{Alpha: 2, Weight: 0.95}, {Alpha: 0, Weight: 0.05}},
	}
}

func TestMaterializedOffsetsAreStable(t *testing.T) {
	proto := testProto()
	proto.FreqOffset = 100
	proto.RandomFreqOffsetStdev = 10
	a := New(proto, 42)
	b := New(proto, 42)
	if a.FreqOffset() != b.FreqOffset() {
		t.Error("identically seeded instances drew different frequency offsets")
	}
	if a.FreqOffset() == proto.FreqOffset {
		t.Error("random stdev did not perturb the deterministic offset")
	}
	// The offset is constant for the lifetime of the instance.
	first := a.FreqOffset()
	a.NextSample()
	if a.FreqOffset() != first {
		t.Error("frequency offset changed after sampling")
	}
}

func TestCloneKeepsOffsetsFreshStream(t *testing.T) {
	proto := testProto()
	proto.PhaseOffset = 0.25
	orig := New(proto, 7)
	clone := orig.Clone()

	if clone.PhaseOffset() != orig.PhaseOffset() || clone.FreqOffset() != orig.FreqOffset() {
		t.Error("clone changed the materialized oscillator offsets")
	}

	same := true
	for i := 0; i < 1000; i++ {
		if orig.NextSample() != clone.NextSample() {
			same = false
			break
		}
	}
	if same {
		t.Error("clone shares the parent's noise stream")
	}
}

func TestCloneMomentsMatchOriginal(t *testing.T) {
	const n = 100000
	proto := testProto()
	orig := New(proto, 99)
	clone := New(proto, 99).Clone()

	a := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = orig.NextSample()
		b[i] = clone.NextSample()
	}
	meanA, stdA := stat.MeanStdDev(a, nil)
	meanB, stdB := stat.MeanStdDev(b, nil)

	// Random-walk components make the sample mean itself diffuse, so the
	// comparison is loose: same order of magnitude for spread, means within a
	// few spreads of each other.
	if stdB < stdA/4 || stdB > stdA*4 {
		t.Errorf("clone stddev %v too far from original %v", stdB, stdA)
	}
	scale := math.Max(stdA, stdB)
	if math.Abs(meanA-meanB) > 6*scale {
		t.Errorf("clone mean %v too far from original %v", meanB, meanA)
	}
}

func TestSyncOnPulseResetReproducible(t *testing.T) {
	proto := testProto()
	proto.SyncOnPulse = true
	a := New(proto, 3)
	b := New(proto, 3)

	a.SkipSamples(500)
	a.Reset()
	b.SkipSamples(500)
	b.Reset()
	for i := 0; i < 1000; i++ {
		if a.NextSample() != b.NextSample() {
			t.Fatal("post-reset streams diverged between identically seeded instances")
		}
	}
}

func TestDisabledTimingProducesNoJitter(t *testing.T) {
	tm := New(&Prototype{Name: "bare", Frequency: 1e6}, 1)
	if tm.Enabled() {
		t.Error("timing with no entries should be disabled")
	}
	if j := tm.JitterSample(); j != 0 {
		t.Errorf("jitter = %v, want 0", j)
	}
}
