package channel

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/banshee-data/echosim/internal/geo"
	"github.com/banshee-data/echosim/internal/radar"
	"github.com/banshee-data/echosim/internal/signal"
	"github.com/banshee-data/echosim/internal/simerr"
	"github.com/banshee-data/echosim/internal/timing"
	"github.com/banshee-data/echosim/internal/world"
)

func staticPlatform(t *testing.T, name string, pos geo.Vec3) *radar.Platform {
	t.Helper()
	motion := geo.NewPath(geo.InterpStatic)
	motion.AddCoord(geo.Coord{Pos: pos})
	if err := motion.Finalize(); err != nil {
		t.Fatalf("finalize motion: %v", err)
	}
	rotation := geo.NewRotationPath(geo.InterpStatic)
	rotation.AddCoord(geo.RotationCoord{})
	if err := rotation.Finalize(); err != nil {
		t.Fatalf("finalize rotation: %v", err)
	}
	p, err := radar.NewPlatform(name, motion, rotation)
	if err != nil {
		t.Fatalf("new platform: %v", err)
	}
	return p
}

func linearPlatform(t *testing.T, name string, from, to geo.Vec3, t0, t1 float64) *radar.Platform {
	t.Helper()
	motion := geo.NewPath(geo.InterpLinear)
	motion.AddCoord(geo.Coord{Pos: from, T: t0})
	motion.AddCoord(geo.Coord{Pos: to, T: t1})
	if err := motion.Finalize(); err != nil {
		t.Fatalf("finalize motion: %v", err)
	}
	rotation := geo.NewRotationPath(geo.InterpStatic)
	rotation.AddCoord(geo.RotationCoord{})
	if err := rotation.Finalize(); err != nil {
		t.Fatalf("finalize rotation: %v", err)
	}
	p, err := radar.NewPlatform(name, motion, rotation)
	if err != nil {
		t.Fatalf("new platform: %v", err)
	}
	return p
}

func testParams() world.Parameters {
	p := world.DefaultParameters()
	p.EndTime = 1
	p.Rate = 1000
	return p
}

type bench struct {
	tx  *radar.Transmitter
	rx  *radar.Receiver
	sig *signal.RadarSignal
}

// pulsedBench builds a transmitter/receiver pair at the given positions with
// isotropic antennas and a boxcar pulse at the given carrier.
func pulsedBench(t *testing.T, txPos, rxPos geo.Vec3, carrier float64, noPropLoss bool) bench {
	t.Helper()
	txPlatform := staticPlatform(t, "tx-platform", txPos)
	rxPlatform := staticPlatform(t, "rx-platform", rxPos)
	ant := radar.NewIsotropicAntenna("iso")
	proto := &timing.Prototype{Name: "clock", Frequency: carrier}

	data := make([]complex128, 8)
	for i := range data {
		data[i] = 1
	}
	sig := signal.NewSignal(data, 1000, 1)
	pulse, err := signal.NewPulse("pulse", 1, carrier, 8.0/1000, sig)
	if err != nil {
		t.Fatalf("new pulse: %v", err)
	}

	tx, err := radar.NewTransmitter(radar.TransmitterConfig{
		Name: "tx", Platform: txPlatform, Antenna: ant, Timing: timing.New(proto, 1),
		Mode: radar.Pulsed, PRF: 100, Signal: pulse,
	})
	if err != nil {
		t.Fatalf("new transmitter: %v", err)
	}
	rx, err := radar.NewReceiver(radar.ReceiverConfig{
		Name: "rx", Platform: rxPlatform, Antenna: ant, Timing: timing.New(proto, 2),
		Mode: radar.Pulsed, WindowLength: 1e-2, WindowPRF: 100,
		NoPropagationLoss: noPropLoss,
	})
	if err != nil {
		t.Fatalf("new receiver: %v", err)
	}
	return bench{tx: tx, rx: rx, sig: pulse}
}

func TestMonostaticStationaryPointTarget(t *testing.T) {
	p := testParams()
	const wavelength = 0.03
	carrier := p.C / wavelength

	b := pulsedBench(t, geo.Vec3{}, geo.Vec3{}, carrier, false)
	tgtPlatform := staticPlatform(t, "tgt-platform", geo.Vec3{X: 1000})
	tgt, err := radar.NewIsoTarget(tgtPlatform, "tgt", 1, 3)
	if err != nil {
		t.Fatalf("new target: %v", err)
	}

	resp, err := BuildResponse(p, b.tx, b.rx, b.sig, 0, tgt)
	if err != nil {
		t.Fatalf("build response: %v", err)
	}
	points := resp.Points()
	if len(points) < 2 {
		t.Fatalf("response has %d points, want at least 2", len(points))
	}

	first := points[0]
	wantDelay := 2000.0 / p.C
	if math.Abs(first.Delay-wantDelay) > 1e-12 {
		t.Errorf("delay = %v, want %v", first.Delay, wantDelay)
	}

	// Bistatic radar equation with Gt = Gr = RCS = 1 and rTx = rRx = 1000 m.
	wantPower := 1.0 / (4 * math.Pi) * wavelength * wavelength / (math.Pow(4*math.Pi, 2) * 1e12)
	if math.Abs(first.Power-wantPower)/wantPower > 1e-9 {
		t.Errorf("power = %v, want %v", first.Power, wantPower)
	}

	if math.Abs(first.DopplerFactor-1.0) > 1e-12 {
		t.Errorf("doppler factor = %v, want exactly 1 for static geometry", first.DopplerFactor)
	}

	wantPhase := math.Mod(-wantDelay*2*math.Pi*carrier, 2*math.Pi)
	gotPhase := math.Mod(first.Phase, 2*math.Pi)
	if math.Abs(math.Mod(gotPhase-wantPhase+3*math.Pi, 2*math.Pi)-math.Pi) > 1e-6 {
		t.Errorf("phase = %v, want %v (mod 2pi)", gotPhase, wantPhase)
	}

	// Every point of a static scene is identical.
	for _, pt := range points[1:] {
		if math.Abs(pt.Delay-first.Delay) > 1e-15 || math.Abs(pt.Power-first.Power) > 1e-24 {
			t.Error("static scene produced varying interpolation points")
			break
		}
	}
}

func TestBistaticApproachDopplerIsRelativistic(t *testing.T) {
	p := testParams()
	const wavelength = 0.1
	carrier := p.C / wavelength

	b := pulsedBench(t, geo.Vec3{}, geo.Vec3{}, carrier, false)
	// Target crossing (1000,0,0) at t=1s moving +x at 300 m/s.
	tgtPlatform := linearPlatform(t, "tgt-platform", geo.Vec3{X: 700}, geo.Vec3{X: 1300}, 0, 2)
	tgt, err := radar.NewIsoTarget(tgtPlatform, "tgt", 1, 3)
	if err != nil {
		t.Fatalf("new target: %v", err)
	}

	resp, err := BuildResponse(p, b.tx, b.rx, b.sig, 1, tgt)
	if err != nil {
		t.Fatalf("build response: %v", err)
	}
	d := resp.Points()[0].DopplerFactor
	if d < 0.999997 || d > 1.000003 {
		t.Errorf("doppler factor = %v, want within 1 +- 3e-6 for 300 m/s", d)
	}
	if d == 1.0 {
		t.Error("doppler factor is exactly 1 for a moving target")
	}
	// Receding target lowers the received frequency.
	if d >= 1.0 {
		t.Errorf("doppler factor = %v, want < 1 for a receding target", d)
	}
}

func TestDirectCWCouplingMagnitude(t *testing.T) {
	p := testParams()
	const wavelength = 0.3
	carrier := p.C / wavelength

	txPlatform := staticPlatform(t, "tx-platform", geo.Vec3{})
	rxPlatform := staticPlatform(t, "rx-platform", geo.Vec3{X: 100})
	ant := radar.NewIsotropicAntenna("iso")
	proto := &timing.Prototype{Name: "clock", Frequency: carrier}

	tx, err := radar.NewTransmitter(radar.TransmitterConfig{
		Name: "tx", Platform: txPlatform, Antenna: ant, Timing: timing.New(proto, 1),
		Mode: radar.CW, Signal: signal.NewCW("carrier", 1, carrier),
	})
	if err != nil {
		t.Fatalf("new transmitter: %v", err)
	}
	rx, err := radar.NewReceiver(radar.ReceiverConfig{
		Name: "rx", Platform: rxPlatform, Antenna: ant, Timing: timing.New(proto, 2),
		Mode: radar.CW,
	})
	if err != nil {
		t.Fatalf("new receiver: %v", err)
	}

	c, err := DirectCW(p, tx, rx, 0.5)
	if err != nil {
		t.Fatalf("direct cw: %v", err)
	}
	want := wavelength / (4 * math.Pi * 100)
	if math.Abs(cmplx.Abs(c)-want)/want > 1e-9 {
		t.Errorf("|sample| = %v, want %v", cmplx.Abs(c), want)
	}
}

func TestDirectCWZeroForCollocatedRadars(t *testing.T) {
	p := testParams()
	platform := staticPlatform(t, "shared", geo.Vec3{})
	ant := radar.NewIsotropicAntenna("iso")
	proto := &timing.Prototype{Name: "clock", Frequency: 1e9}

	tx, err := radar.NewTransmitter(radar.TransmitterConfig{
		Name: "tx", Platform: platform, Antenna: ant, Timing: timing.New(proto, 1),
		Mode: radar.CW, Signal: signal.NewCW("carrier", 1, 1e9),
	})
	if err != nil {
		t.Fatalf("new transmitter: %v", err)
	}
	rx, err := radar.NewReceiver(radar.ReceiverConfig{
		Name: "rx", Platform: platform, Antenna: ant, Timing: timing.New(proto, 2),
		Mode: radar.CW,
	})
	if err != nil {
		t.Fatalf("new receiver: %v", err)
	}

	c, err := DirectCW(p, tx, rx, 0)
	if err != nil {
		t.Fatalf("direct cw: %v", err)
	}
	if c != 0 {
		t.Errorf("collocated direct cw = %v, want zero contribution", c)
	}
}

func TestReflectedRangeErrorWhenTargetOnTransmitter(t *testing.T) {
	p := testParams()
	b := pulsedBench(t, geo.Vec3{}, geo.Vec3{X: 100}, 1e9, false)
	tgtPlatform := staticPlatform(t, "tgt-platform", geo.Vec3{})
	tgt, err := radar.NewIsoTarget(tgtPlatform, "tgt", 1, 3)
	if err != nil {
		t.Fatalf("new target: %v", err)
	}

	_, err = BuildResponse(p, b.tx, b.rx, b.sig, 0, tgt)
	if err == nil {
		t.Fatal("expected range error for target collocated with transmitter")
	}
	if !errors.Is(err, simerr.ErrRange) {
		t.Errorf("error class = %v, want range", simerr.Class(err))
	}
}

func TestNoPropagationLossFlag(t *testing.T) {
	p := testParams()
	const wavelength = 0.3
	carrier := p.C / wavelength

	withLoss := pulsedBench(t, geo.Vec3{}, geo.Vec3{X: 500}, carrier, false)
	without := pulsedBench(t, geo.Vec3{}, geo.Vec3{X: 500}, carrier, true)

	respLoss, err := BuildResponse(p, withLoss.tx, withLoss.rx, withLoss.sig, 0, nil)
	if err != nil {
		t.Fatalf("build response: %v", err)
	}
	respFree, err := BuildResponse(p, without.tx, without.rx, without.sig, 0, nil)
	if err != nil {
		t.Fatalf("build response: %v", err)
	}

	ratio := respFree.Points()[0].Power / respLoss.Points()[0].Power
	want := math.Pow(4*math.Pi, 2) * 500 * 500 / (wavelength * wavelength)
	if math.Abs(ratio-want)/want > 1e-9 {
		t.Errorf("power ratio = %v, want %v", ratio, want)
	}
}

func TestResponseSpansPulseLength(t *testing.T) {
	p := testParams()
	b := pulsedBench(t, geo.Vec3{}, geo.Vec3{X: 300}, 1e9, false)
	resp, err := BuildResponse(p, b.tx, b.rx, b.sig, 0.25, nil)
	if err != nil {
		t.Fatalf("build response: %v", err)
	}
	delay := 300.0 / p.C
	if math.Abs(resp.Start()-(0.25+delay)) > 1e-9 {
		t.Errorf("start = %v, want transmit time plus delay", resp.Start())
	}
	if got := resp.End() - resp.Start(); math.Abs(got-b.sig.Length()) > 1.5/p.SimSamplingRate {
		t.Errorf("span = %v, want about pulse length %v", got, b.sig.Length())
	}
}
