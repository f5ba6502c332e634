// Package channel solves the propagation physics of the radar channel: the
// bistatic radar equation with relativistic Doppler for pulsed responses,
// and per-sample complex-envelope contributions for continuous-wave paths.
package channel

import (
	"math"
	"math/cmplx"

	"github.com/banshee-data/echosim/internal/geo"
	"github.com/banshee-data/echosim/internal/radar"
	"github.com/banshee-data/echosim/internal/signal"
	"github.com/banshee-data/echosim/internal/simerr"
	"github.com/banshee-data/echosim/internal/world"
)

// Epsilon is the geometric proximity below which a range is degenerate and
// the physics solve fails.
const Epsilon = 1e-12

// reResults holds the solved radar equation for one time point.
type reResults struct {
	power            float64
	delay            float64
	dopplerFactor    float64
	phase            float64
	noiseTemperature float64
}

// phaseMod reduces a phase to (-2pi, 2pi) once its magnitude exceeds 2^40
// radians, where double precision would otherwise erode on long CW runs;
// smaller phases are returned unchanged.
func phaseMod(x float64) float64 {
	if math.Abs(x) > float64(uint64(1)<<40) {
		return math.Mod(x, 2*math.Pi)
	}
	return x
}

// solveReflected solves the bistatic radar equation for the path
// Tx -> Target -> Rx at transmit time t. dt is the finite-difference step
// for velocity estimation.
func solveReflected(p world.Parameters, tx *radar.Transmitter, rx *radar.Receiver, tgt *radar.Target,
	t, dt float64, sig *signal.RadarSignal) (reResults, error) {
	var res reResults

	pTx, err := tx.Position(t)
	if err != nil {
		return res, err
	}
	pRx, err := rx.Position(t)
	if err != nil {
		return res, err
	}
	pTgt, err := tgt.Position(t)
	if err != nil {
		return res, err
	}

	txToTgt := pTgt.Sub(pTx)
	rxToTgt := pTgt.Sub(pRx)
	rTx := txToTgt.Length()
	rRx := rxToTgt.Length()
	if rTx <= Epsilon || rRx <= Epsilon {
		return res, simerr.Range("transmitter or receiver too close to target %q at t=%v", tgt.Name(), t)
	}

	res.delay = (rTx + rRx) / p.C

	inAngle := geo.ToSVec(txToTgt).Unit()
	outAngle := geo.ToSVec(rxToTgt).Unit()
	rcs, err := tgt.RCS(inAngle, outAngle)
	if err != nil {
		return res, err
	}
	wavelength := p.C / sig.Carrier()

	txRot, err := tx.Rotation(t)
	if err != nil {
		return res, err
	}
	// Receiver boresight is evaluated at arrival time.
	rxRot, err := rx.Rotation(t + res.delay)
	if err != nil {
		return res, err
	}
	gainTx := tx.Gain(inAngle, txRot, wavelength)
	gainRx := rx.Gain(outAngle, rxRot, wavelength)

	res.power = gainTx * gainRx * rcs / (4 * math.Pi)
	if !rx.NoPropagationLoss() {
		dist := rTx * rRx
		res.power *= wavelength * wavelength / (math.Pow(4*math.Pi, 2) * dist * dist)
	}
	res.phase = phaseMod(-res.delay * 2 * math.Pi * sig.Carrier())

	// Relativistic Doppler from finite-difference velocities.
	pTxNext, err := tx.Position(t + dt)
	if err != nil {
		return res, err
	}
	pRxNext, err := rx.Position(t + dt)
	if err != nil {
		return res, err
	}
	pTgtNext, err := tgt.Position(t + dt)
	if err != nil {
		return res, err
	}
	betaT := pTxNext.Sub(pTx).Scale(1 / (dt * p.C))
	betaR := pRxNext.Sub(pRx).Scale(1 / (dt * p.C))
	betaTgt := pTgtNext.Sub(pTgt).Scale(1 / (dt * p.C))

	uTxTgt := txToTgt.Scale(1 / rTx)
	uTgtRx := rxToTgt.Scale(-1 / rRx)

	gammaT := 1 / math.Sqrt(1-betaT.Dot(betaT))
	gammaR := 1 / math.Sqrt(1-betaR.Dot(betaR))

	term1 := (1 - betaTgt.Dot(uTxTgt)) / (1 - betaT.Dot(uTxTgt))
	term2 := (1 - betaR.Dot(uTgtRx)) / (1 - betaTgt.Dot(uTgtRx))
	res.dopplerFactor = term1 * term2 * (gammaR / gammaT)

	res.noiseTemperature = rx.NoiseTemperatureAt(rxRot)
	return res, nil
}

// solveDirect solves the one-way radar equation for the path Tx -> Rx at
// transmit time t.
func solveDirect(p world.Parameters, tx *radar.Transmitter, rx *radar.Receiver,
	t, dt float64, sig *signal.RadarSignal) (reResults, error) {
	var res reResults

	pTx, err := tx.Position(t)
	if err != nil {
		return res, err
	}
	pRx, err := rx.Position(t)
	if err != nil {
		return res, err
	}
	txToRx := pRx.Sub(pTx)
	dist := txToRx.Length()
	if dist <= Epsilon {
		return res, simerr.Range("transmitter %q and receiver %q are collocated at t=%v", tx.Name(), rx.Name(), t)
	}

	res.delay = dist / p.C
	wavelength := p.C / sig.Carrier()

	txRot, err := tx.Rotation(t)
	if err != nil {
		return res, err
	}
	rxRot, err := rx.Rotation(t + res.delay)
	if err != nil {
		return res, err
	}
	outAngle := geo.ToSVec(txToRx).Unit()
	inAngle := geo.ToSVec(txToRx.Neg()).Unit()
	gainTx := tx.Gain(outAngle, txRot, wavelength)
	gainRx := rx.Gain(inAngle, rxRot, wavelength)

	res.power = gainTx * gainRx / (4 * math.Pi)
	if !rx.NoPropagationLoss() {
		res.power *= wavelength * wavelength / (math.Pow(4*math.Pi, 2) * dist * dist)
	}
	res.phase = phaseMod(-res.delay * 2 * math.Pi * sig.Carrier())

	pTxNext, err := tx.Position(t + dt)
	if err != nil {
		return res, err
	}
	pRxNext, err := rx.Position(t + dt)
	if err != nil {
		return res, err
	}
	betaT := pTxNext.Sub(pTx).Scale(1 / (dt * p.C))
	betaR := pRxNext.Sub(pRx).Scale(1 / (dt * p.C))
	uTxRx := txToRx.Scale(1 / dist)

	gammaT := 1 / math.Sqrt(1-betaT.Dot(betaT))
	gammaR := 1 / math.Sqrt(1-betaR.Dot(betaR))
	res.dopplerFactor = ((1 - betaR.Dot(uTxRx)) / (1 - betaT.Dot(uTxRx))) * (gammaR / gammaT)

	res.noiseTemperature = rx.NoiseTemperatureAt(rxRot)
	return res, nil
}

// BuildResponse simulates one transmitted pulse's interaction with a
// receiver, producing the per-pulse Response. A nil target selects the
// direct path. The pulse is sampled at the simulation sampling rate over its
// length, always including both endpoints.
func BuildResponse(p world.Parameters, tx *radar.Transmitter, rx *radar.Receiver,
	sig *signal.RadarSignal, startTime float64, tgt *radar.Target) (*radar.Response, error) {

	dt := 1.0 / p.SimSamplingRate
	length := sig.Length()
	steps := int(math.Ceil(length / dt))
	if steps < 1 {
		steps = 1
	}

	resp := radar.NewResponse(tx, sig)
	for i := 0; i <= steps; i++ {
		t := startTime + float64(i)*dt
		if t > startTime+length {
			t = startTime + length
		}
		var (
			res reResults
			err error
		)
		if tgt != nil {
			res, err = solveReflected(p, tx, rx, tgt, t, dt, sig)
		} else {
			res, err = solveDirect(p, tx, rx, t, dt, sig)
		}
		if err != nil {
			return nil, err
		}
		resp.AddPoint(signal.InterpPoint{
			Power:            res.power,
			Time:             t + res.delay,
			Delay:            res.delay,
			DopplerFactor:    res.dopplerFactor,
			Phase:            res.phase,
			NoiseTemperature: res.noiseTemperature,
		})
	}
	return resp, nil
}

// DirectCW returns the complex envelope contribution of the direct path
// Tx -> Rx at time t, including the non-coherent local oscillator term from
// the transmitter/receiver timing offset difference. Degenerate geometry
// contributes zero.
func DirectCW(p world.Parameters, tx *radar.Transmitter, rx *radar.Receiver, t float64) (complex128, error) {
	pTx, err := tx.Position(t)
	if err != nil {
		return 0, err
	}
	pRx, err := rx.Position(t)
	if err != nil {
		return 0, err
	}
	txToRx := pRx.Sub(pTx)
	dist := txToRx.Length()
	if dist <= Epsilon {
		warnf("degenerate direct range %q -> %q at t=%v, contributing zero", tx.Name(), rx.Name(), t)
		return 0, nil
	}

	sig := tx.Signal()
	carrier := sig.Carrier()
	wavelength := p.C / carrier
	tau := dist / p.C

	txRot, err := tx.Rotation(t)
	if err != nil {
		return 0, err
	}
	rxRot, err := rx.Rotation(t + tau)
	if err != nil {
		return 0, err
	}
	u := txToRx.Scale(1 / dist)
	gainTx := tx.Gain(geo.ToSVec(u), txRot, wavelength)
	gainRx := rx.Gain(geo.ToSVec(u.Neg()), rxRot, wavelength)

	power := sig.Power() * gainTx * gainRx * wavelength * wavelength / math.Pow(4*math.Pi, 2)
	if !rx.NoPropagationLoss() {
		power /= dist * dist
	}
	amplitude := math.Sqrt(power)
	phase := phaseMod(-2 * math.Pi * carrier * tau)

	contribution := cmplx.Rect(amplitude, phase)
	return contribution * loTerm(tx, rx, t), nil
}

// ReflectedCW returns the complex envelope contribution of the path
// Tx -> Target -> Rx at time t. Degenerate geometry contributes zero.
func ReflectedCW(p world.Parameters, tx *radar.Transmitter, rx *radar.Receiver, tgt *radar.Target, t float64) (complex128, error) {
	pTx, err := tx.Position(t)
	if err != nil {
		return 0, err
	}
	pRx, err := rx.Position(t)
	if err != nil {
		return 0, err
	}
	pTgt, err := tgt.Position(t)
	if err != nil {
		return 0, err
	}

	txToTgt := pTgt.Sub(pTx)
	tgtToRx := pRx.Sub(pTgt)
	rTx := txToTgt.Length()
	rRx := tgtToRx.Length()
	if rTx <= Epsilon || rRx <= Epsilon {
		warnf("degenerate reflected range via %q at t=%v, contributing zero", tgt.Name(), t)
		return 0, nil
	}

	sig := tx.Signal()
	carrier := sig.Carrier()
	wavelength := p.C / carrier
	tau := (rTx + rRx) / p.C

	uIn := txToTgt.Scale(1 / rTx)
	uOut := tgtToRx.Scale(1 / rRx)
	rcs, err := tgt.RCS(geo.ToSVec(uIn), geo.ToSVec(uOut.Neg()))
	if err != nil {
		return 0, err
	}

	txRot, err := tx.Rotation(t)
	if err != nil {
		return 0, err
	}
	rxRot, err := rx.Rotation(t + tau)
	if err != nil {
		return 0, err
	}
	gainTx := tx.Gain(geo.ToSVec(uIn), txRot, wavelength)
	gainRx := rx.Gain(geo.ToSVec(uOut.Neg()), rxRot, wavelength)

	power := sig.Power() * gainTx * gainRx * rcs * wavelength * wavelength / math.Pow(4*math.Pi, 3)
	if !rx.NoPropagationLoss() {
		power /= rTx * rTx * rRx * rRx
	}
	amplitude := math.Sqrt(power)
	phase := phaseMod(-2 * math.Pi * carrier * tau)

	contribution := cmplx.Rect(amplitude, phase)
	return contribution * loTerm(tx, rx, t), nil
}

// loTerm is the non-coherent local oscillator phase factor between the
// transmitter and receiver clocks.
func loTerm(tx *radar.Transmitter, rx *radar.Receiver, t float64) complex128 {
	deltaF := tx.Timing().FreqOffset() - rx.Timing().FreqOffset()
	deltaPhi := tx.Timing().PhaseOffset() - rx.Timing().PhaseOffset()
	return cmplx.Rect(1, phaseMod(2*math.Pi*deltaF*t+deltaPhi))
}
