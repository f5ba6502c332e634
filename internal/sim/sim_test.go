package sim

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/echosim/internal/geo"
	"github.com/banshee-data/echosim/internal/noise"
	"github.com/banshee-data/echosim/internal/radar"
	"github.com/banshee-data/echosim/internal/signal"
	"github.com/banshee-data/echosim/internal/sink"
	"github.com/banshee-data/echosim/internal/testutil"
	"github.com/banshee-data/echosim/internal/timing"
	"github.com/banshee-data/echosim/internal/world"
)

// monostaticScenario builds a monostatic pulsed radar with a stationary
// point target: transmitter and receiver attached on one platform at the
// origin, target at (1000, 0, 0).
func monostaticScenario(t *testing.T, withClockNoise bool) *world.World {
	t.Helper()
	p := testutil.Params(0.1, 1000)
	w := world.New(p)

	platform := testutil.StaticPlatform(t, "site", geo.Vec3{})
	w.AddPlatform(platform)

	ant := radar.NewIsotropicAntenna("iso")
	require.NoError(t, w.AddAntenna(ant))

	proto := &timing.Prototype{Name: "clock", Frequency: 9.9931e9}
	if withClockNoise {
		proto.Entries = []noise.AlphaEntry{{Alpha: 2, Weight: 1e-6}}
	}
	require.NoError(t, w.AddTimingPrototype(proto))

	pulse := testutil.BoxcarPulse(t, "chirp", 4, 1000, 1, 9.9931e9, 1)
	require.NoError(t, w.AddSignal(pulse))

	tx, err := radar.NewTransmitter(radar.TransmitterConfig{
		Name: "tx", Platform: platform, Antenna: ant, Timing: timing.New(proto, w.NextSeed()),
		Mode: radar.Pulsed, PRF: 100, Signal: pulse,
	})
	require.NoError(t, err)
	require.NoError(t, w.AddTransmitter(tx))

	rx, err := radar.NewReceiver(radar.ReceiverConfig{
		Name: "rx", Platform: platform, Antenna: ant, Timing: timing.New(proto, w.NextSeed()),
		Mode: radar.Pulsed, WindowLength: 5e-3, WindowPRF: 100,
		NoiseTemperature: 290, Seed: w.NextSeed(),
	})
	require.NoError(t, err)
	require.NoError(t, radar.AttachMonostatic(tx, rx))
	w.AddReceiver(rx)

	tgtPlatform := testutil.StaticPlatform(t, "tgt-site", geo.Vec3{X: 1000})
	w.AddPlatform(tgtPlatform)
	tgt, err := radar.NewIsoTarget(tgtPlatform, "tgt", 1, w.NextSeed())
	require.NoError(t, err)
	w.AddTarget(tgt)

	return w
}

func TestMonostaticPulsedEndToEnd(t *testing.T) {
	w := monostaticScenario(t, false)
	factory, sinks := sink.MemoryFactory()

	summary, err := Run(w, Config{Sinks: factory})
	require.NoError(t, err)

	require.NotZero(t, summary.EventsDispatched)
	mem := sinks["rx"]
	require.NotNil(t, mem)

	chunks := mem.Chunks()
	// Windows open every 10 ms over a 100 ms run; the last window cannot
	// close before the end time.
	require.Len(t, chunks, 10)
	for i, c := range chunks {
		require.Equal(t, i, c.Index)
		require.Len(t, c.Samples, 5, "5 ms window at 1 kHz")
	}

	// The target echo lands at the start of each window and the output is
	// peak-normalized (adc_bits = 0).
	var peak float64
	for _, s := range chunks[0].Samples {
		peak = math.Max(peak, math.Max(math.Abs(real(s)), math.Abs(imag(s))))
	}
	require.InDelta(t, 1.0, peak, 1e-9)
	require.Greater(t, chunks[0].Fullscale, 0.0)
}

func TestProgressCallbackInvoked(t *testing.T) {
	w := monostaticScenario(t, false)
	var calls int
	var last int
	_, err := Run(w, Config{Progress: func(_ string, done, total int) {
		calls++
		require.LessOrEqual(t, done, total)
		require.GreaterOrEqual(t, done, last-100)
		last = done
	}})
	require.NoError(t, err)
	require.Greater(t, calls, 2, "progress must fire on init, events, and completion")
	require.Equal(t, 100, last)
}

func TestDeterministicReplay(t *testing.T) {
	runOnce := func() []sink.Chunk {
		w := monostaticScenario(t, true)
		factory, sinks := sink.MemoryFactory()
		_, err := Run(w, Config{Sinks: factory})
		require.NoError(t, err)
		return sinks["rx"].Chunks()
	}

	a := runOnce()
	b := runOnce()
	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, a[i].StartTime, b[i].StartTime, "chunk %d start", i)
		require.Equal(t, a[i].Fullscale, b[i].Fullscale, "chunk %d fullscale", i)
		require.Equal(t, a[i].Samples, b[i].Samples, "chunk %d samples differ", i)
	}
}

func TestChangingSeedChangesNoiseOnly(t *testing.T) {
	runWithSeed := func(seed uint64) (*Summary, []sink.Chunk) {
		p := testutil.Params(0.1, 1000)
		p.RandomSeed = seed
		w := world.New(p)

		platform := testutil.StaticPlatform(t, "site", geo.Vec3{})
		w.AddPlatform(platform)
		ant := radar.NewIsotropicAntenna("iso")
		proto := &timing.Prototype{Name: "clock", Frequency: 1e9}
		pulse := testutil.BoxcarPulse(t, "chirp", 4, 1000, 1, 1e9, 1)

		tx, err := radar.NewTransmitter(radar.TransmitterConfig{
			Name: "tx", Platform: platform, Antenna: ant, Timing: timing.New(proto, w.NextSeed()),
			Mode: radar.Pulsed, PRF: 100, Signal: pulse,
		})
		require.NoError(t, err)
		require.NoError(t, w.AddTransmitter(tx))
		rx, err := radar.NewReceiver(radar.ReceiverConfig{
			Name: "rx", Platform: platform, Antenna: ant, Timing: timing.New(proto, w.NextSeed()),
			Mode: radar.Pulsed, WindowLength: 5e-3, WindowPRF: 100,
			NoiseTemperature: 290, Seed: w.NextSeed(),
		})
		require.NoError(t, err)
		require.NoError(t, radar.AttachMonostatic(tx, rx))
		w.AddReceiver(rx)

		factory, sinks := sink.MemoryFactory()
		summary, err := Run(w, Config{Sinks: factory})
		require.NoError(t, err)
		return summary, sinks["rx"].Chunks()
	}

	sumA, chunksA := runWithSeed(1)
	sumB, chunksB := runWithSeed(2)

	// Event dispatch structure is seed-independent.
	require.Equal(t, sumA.EventsDispatched, sumB.EventsDispatched)
	require.Equal(t, len(chunksA), len(chunksB))

	// Noise output differs.
	different := false
	for i := range chunksA {
		for j := range chunksA[i].Samples {
			if chunksA[i].Samples[j] != chunksB[i].Samples[j] {
				different = true
				break
			}
		}
	}
	require.True(t, different, "different master seeds must change the noise")
}

func TestCWDirectCouplingEndToEnd(t *testing.T) {
	p := testutil.Params(0.05, 1000)
	w := world.New(p)

	const wavelength = 0.3
	carrier := p.C / wavelength

	txPlatform := testutil.StaticPlatform(t, "tx-site", geo.Vec3{})
	rxPlatform := testutil.StaticPlatform(t, "rx-site", geo.Vec3{X: 100})
	w.AddPlatform(txPlatform)
	w.AddPlatform(rxPlatform)
	ant := radar.NewIsotropicAntenna("iso")
	proto := &timing.Prototype{Name: "clock", Frequency: carrier}

	tx, err := radar.NewTransmitter(radar.TransmitterConfig{
		Name: "tx", Platform: txPlatform, Antenna: ant, Timing: timing.New(proto, w.NextSeed()),
		Mode: radar.CW, Signal: signal.NewCW("carrier", 1, carrier),
	})
	require.NoError(t, err)
	require.NoError(t, w.AddTransmitter(tx))

	rx, err := radar.NewReceiver(radar.ReceiverConfig{
		Name: "rx", Platform: rxPlatform, Antenna: ant, Timing: timing.New(proto, w.NextSeed()),
		Mode: radar.CW, Seed: w.NextSeed(),
	})
	require.NoError(t, err)
	w.AddReceiver(rx)

	factory, sinks := sink.MemoryFactory()
	summary, err := Run(w, Config{Sinks: factory})
	require.NoError(t, err)
	// The integration steps tile the run without gap or overlap: one sample
	// per render-rate interval over 50 ms.
	require.InDelta(t, 50, summary.CWSamples, 1)

	iData, qData, attrs, ok := sinks["rx"].CW()
	require.True(t, ok)
	require.Len(t, iData, summary.CWSamples,
		"emitted dataset must cover exactly the integrated samples")
	require.Equal(t, p.Rate, attrs.SamplingRate)
	require.Equal(t, carrier, attrs.CarrierFrequency)

	// Static geometry and coherent clocks: every sample is identical.
	for i := 1; i < len(iData); i++ {
		require.InDelta(t, iData[0], iData[i], 1e-12, "sample %d drifted", i)
		require.InDelta(t, qData[0], qData[i], 1e-12, "sample %d drifted", i)
	}
	require.Greater(t, cmplx.Abs(complex(iData[0], qData[0])), 0.0)
}

func TestReceiverWithWindowPastEndGetsNoJobs(t *testing.T) {
	p := testutil.Params(0.5, 1000)
	w := world.New(p)
	platform := testutil.StaticPlatform(t, "site", geo.Vec3{})
	ant := radar.NewIsotropicAntenna("iso")
	proto := &timing.Prototype{Name: "clock", Frequency: 1e9}
	pulse := testutil.BoxcarPulse(t, "chirp", 4, 1000, 1, 1e9, 1)

	tx, err := radar.NewTransmitter(radar.TransmitterConfig{
		Name: "tx", Platform: platform, Antenna: ant, Timing: timing.New(proto, w.NextSeed()),
		Mode: radar.Pulsed, PRF: 100, Signal: pulse,
	})
	require.NoError(t, err)
	require.NoError(t, w.AddTransmitter(tx))
	rx, err := radar.NewReceiver(radar.ReceiverConfig{
		Name: "rx", Platform: platform, Antenna: ant, Timing: timing.New(proto, w.NextSeed()),
		Mode: radar.Pulsed, WindowLength: 1e-3, WindowPRF: 100, WindowSkip: 2,
	})
	require.NoError(t, err)
	require.NoError(t, radar.AttachMonostatic(tx, rx))
	w.AddReceiver(rx)

	factory, sinks := sink.MemoryFactory()
	_, err = Run(w, Config{Sinks: factory})
	require.NoError(t, err)

	mem := sinks["rx"]
	require.NotNil(t, mem, "sink must still be opened")
	require.Empty(t, mem.Chunks(), "no windows fit before the end time")
	require.True(t, mem.Closed())
}

func TestSecondPulseBeyondEndTimeNeverFires(t *testing.T) {
	p := testutil.Params(0.015, 1000)
	w := world.New(p)
	platform := testutil.StaticPlatform(t, "site", geo.Vec3{})
	ant := radar.NewIsotropicAntenna("iso")
	proto := &timing.Prototype{Name: "clock", Frequency: 1e9}
	pulse := testutil.BoxcarPulse(t, "chirp", 4, 1000, 1, 1e9, 1)

	tx, err := radar.NewTransmitter(radar.TransmitterConfig{
		Name: "tx", Platform: platform, Antenna: ant, Timing: timing.New(proto, w.NextSeed()),
		Mode: radar.Pulsed, PRF: 50, Signal: pulse,
	})
	require.NoError(t, err)
	require.NoError(t, w.AddTransmitter(tx))

	summary, err := Run(w, Config{})
	require.NoError(t, err)
	require.Equal(t, 1, summary.EventsDispatched, "exactly one pulse fits before the end time")
}

func TestRunRejectsInvalidParameters(t *testing.T) {
	w := world.New(world.DefaultParameters())
	_, err := Run(w, Config{})
	require.Error(t, err, "zero-length simulation must be rejected")
}
