package finalize

import (
	"errors"
	"math"

	"github.com/banshee-data/echosim/internal/channel"
	"github.com/banshee-data/echosim/internal/dsp"
	"github.com/banshee-data/echosim/internal/noise"
	"github.com/banshee-data/echosim/internal/radar"
	"github.com/banshee-data/echosim/internal/signal"
	"github.com/banshee-data/echosim/internal/sink"
	"github.com/banshee-data/echosim/internal/world"
)

// Result reports what a finalizer emitted for its receiver.
type Result struct {
	Receiver       string
	ChunksEmitted  int
	SamplesEmitted int
	Err            error
}

// RunPulsed is the body of a pulsed receiver's dedicated finalizer
// goroutine. It clones the receiver's timing model for private state, opens
// the receiver's sink, and consumes rendering jobs until the shutdown
// sentinel arrives.
func RunPulsed(p world.Parameters, rx *radar.Receiver, targets []*radar.Target, open sink.Factory) Result {
	result := Result{Receiver: rx.Name()}

	tm := rx.Timing().Clone()
	out, err := open(rx.Name())
	if err != nil {
		result.Err = err
		// Drain jobs until shutdown so the driver never blocks on a dead
		// finalizer.
		for {
			if _, ok := rx.DequeueFinalizerJob(); !ok {
				return result
			}
		}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && result.Err == nil {
			result.Err = cerr
		}
	}()

	opsf("finalizer started for receiver %q", rx.Name())
	rate := p.RenderRate()
	dt := 1.0 / rate
	noiseSrc := noise.NewSource(noise.DeriveSeed(rx.Seed(), 7))
	chunkIndex := 0

	for {
		job, ok := rx.DequeueFinalizerJob()
		if !ok {
			break
		}

		windowSamples := int(math.Ceil(job.Duration * rate))
		pnoise := make([]float64, windowSamples)
		actualStart := job.IdealStart

		if tm.Enabled() {
			// Advance the private clock model to the start of this window.
			if tm.SyncOnPulse() {
				tm.Reset()
				tm.SkipSamples(int(math.Floor(rate * rx.WindowSkip())))
			} else {
				interPulse := 1.0/rx.WindowPRF() - rx.WindowLength()
				tm.SkipSamples(int(math.Floor(rate * interPulse)))
			}
			for i := range pnoise {
				pnoise[i] = tm.NextSample()
			}
			// The first noise sample jitters the window start.
			actualStart += pnoise[0] / (2 * math.Pi * tm.Frequency())
		}

		// Split the jittered start into a sample-aligned time and a
		// fractional sample delay.
		roundedStart := math.Round(actualStart*rate) / rate
		fracDelay := actualStart*rate - math.Round(actualStart*rate)
		actualStart = roundedStart

		window := make([]complex128, windowSamples)

		boresight, err := rx.Rotation(actualStart)
		if err != nil {
			result.Err = err
			continue
		}
		applyThermalNoise(window, rx.NoiseTemperatureAt(boresight), rate/2.0, noiseSrc)

		// Overlay interference from CW transmitters active at window close.
		for i := range window {
			tSample := actualStart + float64(i)*dt
			var acc complex128
			for _, cw := range job.ActiveCWSources {
				if !rx.NoDirect() {
					c, err := channel.DirectCW(p, cw, rx, tSample)
					if err != nil {
						result.Err = err
						break
					}
					acc += c
				}
				for _, tgt := range targets {
					c, err := channel.ReflectedCW(p, cw, rx, tgt, tSample)
					if err != nil {
						result.Err = err
						break
					}
					acc += c
				}
			}
			window[i] += acc
		}
		if result.Err != nil {
			continue
		}

		if err := renderWindow(window, job.Duration, actualStart, fracDelay, rate, job.Responses); err != nil {
			result.Err = err
			continue
		}

		if tm.Enabled() {
			applyPhaseNoise(pnoise, window)
		}

		if p.OversampleRatio > 1 {
			window = dsp.Downsample(window, p.OversampleRatio)
		}

		fullscale := quantizeAndScale(window, p.ADCBits)

		if err := out.AddChunk(window, actualStart, fullscale, chunkIndex); err != nil {
			result.Err = err
			// Keep draining so the driver never blocks on a full queue.
			for {
				if _, ok := rx.DequeueFinalizerJob(); !ok {
					return result
				}
			}
		}
		chunkIndex++
		result.ChunksEmitted++
		result.SamplesEmitted += len(window)
	}

	opsf("finalizer for receiver %q finished after %d chunks", rx.Name(), result.ChunksEmitted)
	return result
}

// FinalizeCW is the one-shot finalization task for a CW receiver: overlay
// logged pulsed interferences, add thermal noise, apply a continuous
// phase-noise stream, decimate, quantize, and write the combined dataset.
func FinalizeCW(p world.Parameters, rx *radar.Receiver, open sink.Factory) Result {
	result := Result{Receiver: rx.Name()}

	buffer := rx.CWData()
	out, err := open(rx.Name())
	if err != nil {
		result.Err = err
		return result
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && result.Err == nil {
			result.Err = cerr
		}
	}()

	tm := rx.Timing().Clone()
	if len(buffer) == 0 {
		opsf("no cw data to finalize for receiver %q", rx.Name())
		result.Err = out.WriteCW(nil, nil, sink.CWAttributes{
			SamplingRate:     p.Rate,
			StartTime:        p.StartTime,
			CarrierFrequency: tm.Frequency(),
		})
		return result
	}

	// Overlay pulsed interferences at their sample positions.
	for _, resp := range rx.InterferenceLog() {
		rendered, prate, err := resp.Render(0)
		if err != nil {
			if errors.Is(err, signal.ErrCWRender) {
				continue
			}
			result.Err = err
			return result
		}
		startIndex := int((resp.Start() - p.StartTime) * prate)
		for i := 0; i < len(rendered); i++ {
			if idx := startIndex + i; idx >= 0 && idx < len(buffer) {
				buffer[idx] += rendered[i]
			}
		}
	}

	noiseSrc := noise.NewSource(noise.DeriveSeed(rx.Seed(), 7))
	applyThermalNoise(buffer, rx.NoiseTemperature(), p.RenderRate()/2.0, noiseSrc)

	if tm.Enabled() {
		pnoise := make([]float64, len(buffer))
		for i := range pnoise {
			pnoise[i] = tm.NextSample()
		}
		applyPhaseNoise(pnoise, buffer)
	}

	if p.OversampleRatio > 1 {
		buffer = dsp.Downsample(buffer, p.OversampleRatio)
	}

	quantizeAndScale(buffer, p.ADCBits)

	iData := make([]float64, len(buffer))
	qData := make([]float64, len(buffer))
	for i, s := range buffer {
		iData[i] = real(s)
		qData[i] = imag(s)
	}
	result.Err = out.WriteCW(iData, qData, sink.CWAttributes{
		SamplingRate:     p.Rate,
		StartTime:        p.StartTime,
		CarrierFrequency: tm.Frequency(),
	})
	result.SamplesEmitted = len(buffer)
	return result
}
