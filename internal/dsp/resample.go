package dsp

import "math"

// RenderFilterLength is the length of the rendering interpolation filter in
// taps. The anti-alias decimation filter uses double this length for a
// faster rolloff.
const RenderFilterLength = 33

func sinc(x float64) float64 {
	if x == 0 {
		return 1.0
	}
	return math.Sin(x*math.Pi) / (x * math.Pi)
}

// blackmanFir designs a lowpass FIR at the given normalized cutoff using the
// Blackman window. The window trades rolloff against stopband attenuation at
// roughly the level of a Kaiser window with beta 7.04.
func blackmanFir(cutoff float64) []float64 {
	length := RenderFilterLength * 2
	coeffs := make([]float64, length)
	n := float64(length) / 2.0
	for i := 0; i < length; i++ {
		filt := sinc(cutoff * (float64(i) - n))
		window := 0.42 - 0.5*math.Cos(math.Pi*float64(i)/n) + 0.08*math.Cos(2*math.Pi*float64(i)/n)
		coeffs[i] = filt * window
	}
	return coeffs
}

// Upsampler raises the sample rate of a stream by an integer ratio using a
// polyphase realization of a Hamming-windowed sinc interpolation filter. An
// internal history buffer keeps successive Upsample calls seamless.
type Upsampler struct {
	ratio      int
	filterSize int
	filterbank []float64
	history    []complex128
}

// NewUpsampler creates an upsampler for the given integer ratio.
func NewUpsampler(ratio int) *Upsampler {
	filterSize := 8*ratio + 1
	bank := make([]float64, filterSize)
	for i := 0; i < filterSize; i++ {
		window := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(filterSize))
		filt := sinc(float64(i-filterSize/2) / float64(ratio))
		bank[i] = filt * window
	}
	return &Upsampler{
		ratio:      ratio,
		filterSize: filterSize,
		filterbank: bank,
		history:    make([]complex128, filterSize/ratio+1),
	}
}

// sampleAt returns input sample n, reaching into the history buffer for
// negative indices.
func (u *Upsampler) sampleAt(in []complex128, n int) complex128 {
	if n >= 0 {
		return in[n]
	}
	return u.history[n+len(u.history)]
}

// Upsample produces ratio*len(in) output samples. Only the active polyphase
// branch of the filter bank is evaluated per output sample; see section 4.7.4
// of Oppenheim and Schafer, Discrete Time Signal Processing, 2nd ed.
func (u *Upsampler) Upsample(in []complex128) []complex128 {
	out := make([]complex128, len(in)*u.ratio)
	for o := range out {
		branch := o % u.ratio
		m := o / u.ratio
		var acc complex128
		for j := branch; j < u.filterSize; j += u.ratio {
			acc += complex(u.filterbank[j], 0) * u.sampleAt(in, m-j/u.ratio)
		}
		out[o] = acc
	}
	// Carry the trailing input samples into the history for the next block.
	h := len(u.history)
	if len(in) >= h {
		copy(u.history, in[len(in)-h:])
	} else {
		copy(u.history, u.history[len(in):])
		copy(u.history[h-len(in):], in)
	}
	return out
}

// Downsample reduces the sample rate by an integer ratio. An anti-alias
// Blackman-windowed FIR lowpass at cutoff 1/ratio is run over a zero-padded
// copy of the input, then every ratio-th sample is kept starting at half the
// filter length, scaled by 1/ratio.
func Downsample(in []complex128, ratio int) []complex128 {
	if ratio <= 1 {
		return in
	}
	coeffs := blackmanFir(1.0 / float64(ratio))
	filtLength := len(coeffs)

	tmp := make([]complex128, len(in)+filtLength)
	copy(tmp, in)
	filt := NewFirFilter(coeffs)
	filt.FilterComplexBlock(tmp)

	out := make([]complex128, len(in)/ratio)
	scale := complex(1.0/float64(ratio), 0)
	for i := range out {
		out[i] = tmp[i*ratio+filtLength/2] * scale
	}
	return out
}
