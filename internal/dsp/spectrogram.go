// Package dsp implements the Spectrogram (component B): decimation,
// framing, windowing and FFT magnitude extraction.
package dsp

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// WindowSize is the frame length, in decimated-signal samples.
	WindowSize = 1024
	// HopSize is the frame advance, in decimated-signal samples.
	HopSize = 512
	// NativeSampleRate is the sample rate the core requires after the
	// PCM Loader stage.
	NativeSampleRate = 44100
	// EffectiveSampleRate is the rate after decimation by DecimationFactor.
	// This is the default used when callers decimate at the package's
	// default factor; Compute recomputes the effective rate for whatever
	// factor it is actually given.
	EffectiveSampleRate = NativeSampleRate / DecimationFactor
	// Bins is the number of retained (real-signal, lower-half) FFT bins.
	Bins = WindowSize / 2
)

// Spectrogram is a 2-D array of non-negative magnitudes indexed by
// (frame, bin). Frame advance corresponds to HopTime seconds.
type Spectrogram struct {
	Cells               [][]float64 // Cells[frame][bin]
	HopTime             float64     // seconds between consecutive frames
	EffectiveSampleRate int         // decimated sample rate these cells were framed at
}

// NumFrames reports how many frames the spectrogram holds.
func (s Spectrogram) NumFrames() int { return len(s.Cells) }

// Compute runs the full component-B pipeline on a mono signal sampled
// at 44100 Hz: decimate by decimationFactor, frame with a Hamming
// taper, FFT, keep the lower half-spectrum magnitude. A signal shorter
// than one decimated window yields an empty Spectrogram, not an error.
func Compute(signal []float64, decimationFactor int) Spectrogram {
	effRate := NativeSampleRate / decimationFactor
	decimated := Decimate(signal, decimationFactor)
	if len(decimated) < WindowSize {
		return Spectrogram{HopTime: float64(HopSize) / float64(effRate), EffectiveSampleRate: effRate}
	}

	window := Hamming(WindowSize)
	var cells [][]float64
	for start := 0; start+WindowSize <= len(decimated); start += HopSize {
		frame := make([]float64, WindowSize)
		copy(frame, decimated[start:start+WindowSize])
		for i := range frame {
			frame[i] *= window[i]
		}

		spectrum := fft.FFTReal(frame)
		mag := make([]float64, Bins)
		for i := 0; i < Bins; i++ {
			mag[i] = cmplx.Abs(spectrum[i])
		}
		cells = append(cells, mag)
	}

	return Spectrogram{
		Cells:               cells,
		HopTime:             float64(HopSize) / float64(effRate),
		EffectiveSampleRate: effRate,
	}
}
