package dsp

import "math"

// DecimationFactor is the integer downsampling ratio applied before
// framing: 44100 Hz -> 11025 Hz.
const DecimationFactor = 4

// firTaps is the tap count of the anti-alias low-pass filter. Odd and
// symmetric, so the filter is exactly linear-phase (resample_poly(1, M)
// semantics): the group delay is a constant (firTaps-1)/2 samples,
// which a symmetric window removes when re-centering the convolution.
const firTaps = 63

// Decimate low-pass filters then downsamples a signal by factor
// (DecimationFactor by default), mirroring scipy's `resample_poly(1, 4)`:
// a linear-phase FIR anti-alias filter followed by picking every
// factor-th sample.
func Decimate(signal []float64, factor int) []float64 {
	if len(signal) == 0 {
		return nil
	}
	taps := lowpassFIR(firTaps, 1.0/(2.0*float64(factor)))
	filtered := convolveSame(signal, taps)

	out := make([]float64, 0, len(filtered)/factor+1)
	for i := 0; i < len(filtered); i += factor {
		out = append(out, filtered[i])
	}
	return out
}

// lowpassFIR designs a windowed-sinc low-pass filter with the given
// normalized cutoff (cycles/sample, 0 < cutoff < 0.5), tapered by a
// Hamming window and normalized to unit DC gain.
func lowpassFIR(numTaps int, cutoff float64) []float64 {
	taps := make([]float64, numTaps)
	center := float64(numTaps-1) / 2
	window := Hamming(numTaps)

	for n := 0; n < numTaps; n++ {
		m := float64(n) - center
		var h float64
		if m == 0 {
			h = 2 * cutoff
		} else {
			h = math.Sin(2*math.Pi*cutoff*m) / (math.Pi * m)
		}
		taps[n] = h * window[n]
	}

	var sum float64
	for _, t := range taps {
		sum += t
	}
	if sum != 0 {
		for i := range taps {
			taps[i] /= sum
		}
	}
	return taps
}

// convolveSame convolves signal with taps, zero-padding at the edges,
// and re-centers the result so output[i] aligns with input[i] (the
// filter's linear phase cancels the group delay).
func convolveSame(signal, taps []float64) []float64 {
	half := len(taps) / 2
	out := make([]float64, len(signal))
	for i := range signal {
		var acc float64
		for k, t := range taps {
			j := i + k - half
			if j < 0 || j >= len(signal) {
				continue
			}
			acc += signal[j] * t
		}
		out[i] = acc
	}
	return out
}
