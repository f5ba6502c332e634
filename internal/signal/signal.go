// Package signal provides the radar waveform representation and the
// fractional-delay rendering of received pulses from interpolation points.
package signal

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/echosim/internal/dsp"
)

// InterpPoint is one sample of a received signal's instantaneous properties.
type InterpPoint struct {
	Power            float64 // power scaling relative to transmitted power
	Time             float64 // absolute arrival time of this point
	Delay            float64 // propagation delay in seconds
	DopplerFactor    float64 // relativistic doppler factor f_recv/f_trans
	Phase            float64 // carrier phase shift in radians
	NoiseTemperature float64 // receiver noise temperature along arrival direction
}

// Form distinguishes pulsed waveforms from continuous-wave carriers.
type Form int

const (
	// FormPulse is a finite-length baseband pulse rendered per window.
	FormPulse Form = iota
	// FormCW is a constant-amplitude carrier integrated per sample.
	FormCW
)

// Signal holds baseband I/Q samples at a native rate. When an oversample
// ratio greater than one is in effect, the samples are raised to the render
// rate on load so every later stage works at a single rate.
type Signal struct {
	data []complex128
	rate float64
}

// NewSignal stores baseband data sampled at rate, upsampled by the given
// integer ratio.
func NewSignal(data []complex128, rate float64, oversample int) *Signal {
	if oversample <= 1 {
		return &Signal{data: append([]complex128(nil), data...), rate: rate}
	}
	up := dsp.NewUpsampler(oversample)
	return &Signal{
		data: up.Upsample(data),
		rate: rate * float64(oversample),
	}
}

// Rate returns the sample rate of the stored data.
func (s *Signal) Rate() float64 { return s.rate }

// Size returns the number of stored samples.
func (s *Signal) Size() int { return len(s.data) }

// RadarSignal couples a named waveform with its transmit power and carrier.
type RadarSignal struct {
	name    string
	power   float64
	carrier float64
	length  float64
	form    Form
	signal  *Signal
}

// NewPulse creates a pulsed radar signal from loaded baseband data.
func NewPulse(name string, power, carrier, length float64, sig *Signal) (*RadarSignal, error) {
	if sig == nil || sig.Size() == 0 {
		return nil, fmt.Errorf("pulse %q: empty baseband signal", name)
	}
	return &RadarSignal{
		name:    name,
		power:   power,
		carrier: carrier,
		length:  length,
		form:    FormPulse,
		signal:  sig,
	}, nil
}

// NewCW creates a continuous-wave radar signal.
func NewCW(name string, power, carrier float64) *RadarSignal {
	return &RadarSignal{name: name, power: power, carrier: carrier, form: FormCW}
}

// Name returns the signal's registry name.
func (r *RadarSignal) Name() string { return r.name }

// Power returns the transmit power in watts.
func (r *RadarSignal) Power() float64 { return r.power }

// Carrier returns the carrier frequency in Hz.
func (r *RadarSignal) Carrier() float64 { return r.carrier }

// Length returns the pulse length in seconds (zero for CW).
func (r *RadarSignal) Length() float64 { return r.length }

// Form returns whether the signal is pulsed or CW.
func (r *RadarSignal) Form() Form { return r.form }

// Rate returns the render sample rate of the stored baseband data.
func (r *RadarSignal) Rate() float64 {
	if r.signal == nil {
		return 0
	}
	return r.signal.Rate()
}

// ErrCWRender is returned when a per-window render is requested for a CW
// signal; CW samples are produced by the per-sample channel integration.
var ErrCWRender = errors.New("render called on CW signal")

// Render produces the received I/Q samples of this pulse from the given
// interpolation points. fracWinDelay is the receive window's fractional
// sample offset in [-0.5, 0.5) samples. The returned rate is the render rate
// of the output samples.
func (r *RadarSignal) Render(points []InterpPoint, fracWinDelay float64) ([]complex128, float64, error) {
	if r.form == FormCW {
		return nil, 0, ErrCWRender
	}
	if len(points) == 0 {
		return nil, 0, fmt.Errorf("render %q: no interpolation points", r.name)
	}

	size := r.signal.Size()
	rate := r.signal.Rate()
	out := make([]complex128, size)
	timestep := 1.0 / rate

	filt := dsp.DefaultInterpFilter()
	filtLength := dsp.RenderFilterLength
	kernel := make([]float64, filtLength+1)

	// Integer part of the first point's delay; per-sample fractional delays
	// are taken relative to it.
	idelay := math.Floor(rate * points[0].Delay)

	iter, next := 0, 0
	if len(points) > 1 {
		next = 1
	}
	lastDelay := math.Inf(1)
	sampleTime := points[0].Time

	for i := 0; i < size; i++ {
		// Advance to the bracketing pair of interpolation points.
		for sampleTime > points[next].Time && next+1 < len(points) {
			iter = next
			next++
		}
		aw, bw := 1.0, 0.0
		if iter < next && points[next].Time > points[iter].Time {
			bw = (sampleTime - points[iter].Time) / (points[next].Time - points[iter].Time)
			aw = 1 - bw
		}

		amplitude := math.Sqrt(points[iter].Power)*aw + math.Sqrt(points[next].Power)*bw
		fdelay := (points[iter].Delay*aw+points[next].Delay*bw)*rate - idelay - fracWinDelay
		phase := math.Mod(points[iter].Phase*aw+points[next].Phase*bw, 2*math.Pi)

		start := int(math.Floor(math.Max(float64(i)-fdelay-float64(filtLength)/2.0, 0)))
		end := int(math.Floor(math.Max(float64(i)-fdelay+float64(filtLength)/2.0, 0)))
		if start > size {
			start = size
		}
		if end > size {
			end = size
		}

		// The kernel only depends on the fractional delay; reuse it while the
		// delay holds still (static geometry).
		if fdelay != lastDelay || i <= filtLength/2 {
			for j := 0; j < end-start; j++ {
				kernel[j] = filt.Value(float64(i) - fdelay - float64(j+start))
			}
		}

		var accum complex128
		for j := start; j < end; j++ {
			accum += complex(amplitude*kernel[j-start], 0) * r.signal.data[j]
		}
		sinP, cosP := math.Sincos(phase)
		out[i] = complex(
			cosP*real(accum)+sinP*imag(accum),
			-sinP*real(accum)+cosP*imag(accum),
		)

		lastDelay = fdelay
		sampleTime += timestep
	}
	return out, rate, nil
}
