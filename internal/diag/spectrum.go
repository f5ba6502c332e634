// Package diag renders diagnostic plots of simulated receiver output, such
// as the power spectral density of an emitted I/Q stream.
package diag

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PSD estimates the power spectral density of a complex sample stream by
// averaging Blackman-windowed periodograms over non-overlapping segments.
// It returns the frequency axis (Hz, DC-centered) and the PSD in dB.
func PSD(samples []complex128, rate float64, segLen int) (freqs, powerDB []float64) {
	if segLen > len(samples) {
		segLen = len(samples)
	}
	if segLen < 2 {
		return nil, nil
	}

	window := make([]float64, segLen)
	for i := range window {
		window[i] = 0.42 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(segLen-1)) +
			0.08*math.Cos(4*math.Pi*float64(i)/float64(segLen-1))
	}

	fft := fourier.NewCmplxFFT(segLen)
	acc := make([]float64, segLen)
	segments := 0
	buf := make([]complex128, segLen)
	for off := 0; off+segLen <= len(samples); off += segLen {
		for i := 0; i < segLen; i++ {
			buf[i] = samples[off+i] * complex(window[i], 0)
		}
		coeffs := fft.Coefficients(nil, buf)
		for i, c := range coeffs {
			acc[i] += real(c)*real(c) + imag(c)*imag(c)
		}
		segments++
	}

	freqs = make([]float64, segLen)
	powerDB = make([]float64, segLen)
	half := segLen / 2
	for i := 0; i < segLen; i++ {
		src := (i + half) % segLen
		p := acc[src] / float64(segments)
		if p <= 0 {
			powerDB[i] = -200
		} else {
			powerDB[i] = 10 * math.Log10(p)
		}
		freqs[i] = (float64(i) - float64(half)) * rate / float64(segLen)
	}
	return freqs, powerDB
}

// PlotPSD writes a PSD plot of the sample stream to a PNG file.
func PlotPSD(samples []complex128, rate float64, title, path string) error {
	freqs, powerDB := PSD(samples, rate, 1024)
	if freqs == nil {
		return fmt.Errorf("plot psd: not enough samples")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "frequency (Hz)"
	p.Y.Label.Text = "power (dB)"

	pts := make(plotter.XYs, len(freqs))
	for i := range freqs {
		pts[i].X = freqs[i]
		pts[i].Y = powerDB[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plot psd: %w", err)
	}
	p.Add(line)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("plot psd: %w", err)
	}
	return nil
}
