// Package finalize implements the asynchronous receiver finalization
// pipeline: per-receiver goroutines that turn rendering jobs into windowed
// I/Q chunks, and the one-shot finalization of CW receiver buffers.
package finalize

import (
	"math"
	"math/cmplx"

	"golang.org/x/exp/rand"

	"github.com/banshee-data/echosim/internal/noise"
	"github.com/banshee-data/echosim/internal/radar"
	"github.com/banshee-data/echosim/internal/world"
)

// applyThermalNoise adds i.i.d. complex Gaussian noise for the given noise
// temperature. The total power k*T*B is split evenly between the I and Q
// channels.
func applyThermalNoise(window []complex128, temperature, bandwidth float64, src rand.Source) {
	if temperature == 0 {
		return
	}
	totalPower := world.BoltzmannK * temperature * bandwidth
	stddev := math.Sqrt(totalPower / 2.0)
	gen := noise.NewWGN(stddev, src)
	for i := range window {
		window[i] += complex(gen.Sample(), gen.Sample())
	}
}

// applyPhaseNoise rotates each window sample by its phase-noise sample.
func applyPhaseNoise(pnoise []float64, window []complex128) {
	for i := range window {
		if i >= len(pnoise) {
			break
		}
		window[i] *= cmplx.Rect(1, pnoise[i])
	}
}

// renderWindow renders every response overlapping the window and adds the
// results at their sample positions, clipping at the window boundaries.
func renderWindow(window []complex128, length, start, fracDelay, rate float64, responses []*radar.Response) error {
	end := start + length
	for _, resp := range responses {
		if resp.Start() > end || resp.End() < start {
			continue
		}
		rendered, _, err := resp.Render(fracDelay)
		if err != nil {
			return err
		}
		startSample := int(math.Round(rate * (resp.Start() - start)))
		offset := 0
		if startSample < 0 {
			offset = -startSample
			startSample = 0
		}
		for i := offset; i < len(rendered) && i-offset+startSample < len(window); i++ {
			window[i-offset+startSample] += rendered[i]
		}
	}
	return nil
}

// quantizeAndScale applies the ADC model to the window. With adcBits > 0 a
// uniform mid-tread quantizer over the window's full-scale amplitude is
// applied, clamping to [-1, 1]; otherwise the window is normalized to unit
// peak. The full-scale value is returned.
func quantizeAndScale(window []complex128, adcBits int) float64 {
	var max float64
	for _, s := range window {
		if r := math.Abs(real(s)); r > max {
			max = r
		}
		if im := math.Abs(imag(s)); im > max {
			max = im
		}
	}
	if adcBits > 0 {
		adcSimulate(window, adcBits, max)
	} else if max != 0 {
		for i := range window {
			window[i] /= complex(max, 0)
		}
	}
	return max
}

// adcSimulate models quantization and saturation of an ADC with the given
// bit depth over +-fullscale.
func adcSimulate(window []complex128, bits int, fullscale float64) {
	if fullscale == 0 {
		return
	}
	levels := math.Pow(2, float64(bits-1))
	clamp := func(v float64) float64 {
		q := math.Floor(levels*v/fullscale) / levels
		return math.Min(math.Max(q, -1), 1)
	}
	for i := range window {
		window[i] = complex(clamp(real(window[i])), clamp(imag(window[i])))
	}
}
