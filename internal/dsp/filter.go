// Package dsp provides the signal-processing kernels used by the simulation
// engine: IIR/FIR/AR filters, polyphase resampling, the Kaiser-windowed sinc
// interpolation table, and a small linear interpolation set for tabulated
// gain and RCS patterns.
package dsp

import "fmt"

// IirFilter is a Direct Form II IIR filter with equal-order numerator and
// denominator coefficient vectors.
type IirFilter struct {
	a []float64
	b []float64
	w []float64
}

// NewIirFilter builds a filter from denominator (a) and numerator (b)
// coefficients. Both vectors must be the same length; a[0] is assumed to be 1.
func NewIirFilter(den, num []float64) (*IirFilter, error) {
	if len(den) != len(num) {
		return nil, fmt.Errorf("iir filter: mixed-order filters are not supported (%d vs %d)", len(den), len(num))
	}
	if len(den) == 0 {
		return nil, fmt.Errorf("iir filter: empty coefficient vectors")
	}
	f := &IirFilter{
		a: append([]float64(nil), den...),
		b: append([]float64(nil), num...),
		w: make([]float64, len(den)),
	}
	return f, nil
}

// Filter passes a single sample through the filter and returns the output.
func (f *IirFilter) Filter(x float64) float64 {
	order := len(f.w)
	for j := order - 1; j > 0; j-- {
		f.w[j] = f.w[j-1]
	}
	f.w[0] = x
	for j := 1; j < order; j++ {
		f.w[0] -= f.a[j] * f.w[j]
	}
	var y float64
	for j := 0; j < order; j++ {
		y += f.b[j] * f.w[j]
	}
	return y
}

// FilterBlock filters samples in place.
func (f *IirFilter) FilterBlock(samples []float64) {
	for i, x := range samples {
		samples[i] = f.Filter(x)
	}
}

// ArFilter is an all-pole (autoregressive) filter. The coefficient vector
// holds the denominator polynomial; coeffs[0] is assumed to be 1.
type ArFilter struct {
	coeffs []float64
	w      []float64
}

// NewArFilter builds an all-pole filter from denominator coefficients.
func NewArFilter(coeffs []float64) *ArFilter {
	return &ArFilter{
		coeffs: append([]float64(nil), coeffs...),
		w:      make([]float64, len(coeffs)),
	}
}

// Filter passes a single sample through the filter.
func (f *ArFilter) Filter(x float64) float64 {
	order := len(f.w)
	for j := order - 1; j > 0; j-- {
		f.w[j] = f.w[j-1]
	}
	f.w[0] = x
	for j := 1; j < order; j++ {
		f.w[0] -= f.coeffs[j] * f.w[j]
	}
	return f.w[0]
}

// FirFilter is a tapped delay line filter.
type FirFilter struct {
	taps []float64
}

// NewFirFilter builds a FIR filter from the given tap weights.
func NewFirFilter(taps []float64) *FirFilter {
	return &FirFilter{taps: append([]float64(nil), taps...)}
}

// FilterBlock convolves the taps with samples in place.
func (f *FirFilter) FilterBlock(samples []float64) {
	order := len(f.taps)
	line := make([]float64, order)
	for i, x := range samples {
		line[0] = x
		var y float64
		for j := 0; j < order; j++ {
			y += line[j] * f.taps[j]
		}
		samples[i] = y
		for j := order - 1; j > 0; j-- {
			line[j] = line[j-1]
		}
	}
}

// FilterComplexBlock convolves the taps with complex samples in place.
func (f *FirFilter) FilterComplexBlock(samples []complex128) {
	order := len(f.taps)
	line := make([]complex128, order)
	for i, x := range samples {
		line[0] = x
		var y complex128
		for j := 0; j < order; j++ {
			y += line[j] * complex(f.taps[j], 0)
		}
		samples[i] = y
		for j := order - 1; j > 0; j-- {
			line[j] = line[j-1]
		}
	}
}
