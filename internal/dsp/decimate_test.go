package dsp

import (
	"math"
	"testing"
)

func sineWave(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestDecimateLength(t *testing.T) {
	signal := sineWave(440, NativeSampleRate, NativeSampleRate)
	decimated := Decimate(signal, DecimationFactor)

	want := len(signal) / DecimationFactor
	if len(decimated) != want {
		t.Fatalf("expected %d decimated samples, got %d", want, len(decimated))
	}
}

func TestDecimateEmptyInput(t *testing.T) {
	if got := Decimate(nil, DecimationFactor); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestDecimatePreservesLowFrequencyTone(t *testing.T) {
	// A 440Hz tone survives decimation to 11025Hz (well under Nyquist);
	// the decimated signal should retain a comparable RMS energy.
	signal := sineWave(440, NativeSampleRate, NativeSampleRate)
	decimated := Decimate(signal, DecimationFactor)

	rms := func(xs []float64) float64 {
		var sum float64
		for _, x := range xs {
			sum += x * x
		}
		return math.Sqrt(sum / float64(len(xs)))
	}

	before, after := rms(signal), rms(decimated)
	if after < before*0.5 {
		t.Errorf("decimation attenuated a passband tone too much: before=%.4f after=%.4f", before, after)
	}
}
