// Package fingerprint implements the Peak Picker (component C) and the
// Hash Generator (component D).
package fingerprint

import (
	"github.com/tidesound/soundprint/internal/dsp"
	"github.com/tidesound/soundprint/internal/model"
)

// Threshold is the minimum magnitude (exclusive) a band's strongest bin
// must exceed to be emitted as a peak.
const Threshold = 100.0

// bandEdges are the six fixed half-open sub-band boundaries, in bin index.
var bandEdges = [...]int{0, 10, 20, 40, 80, 160, 511}

// ExtractPeaks reduces a spectrogram to a constellation: for each
// frame and each of the six fixed bands, the band's loudest bin is
// emitted as a peak iff its magnitude strictly exceeds Threshold.
// Peaks are returned ordered (frame ascending, band ascending); ties
// within a band resolve to the lowest bin index (natural argmax
// tie-break).
func ExtractPeaks(spec dsp.Spectrogram) []model.Peak {
	var peaks []model.Peak

	for frameIdx, cell := range spec.Cells {
		for band := 0; band < len(bandEdges)-1; band++ {
			lo, hi := bandEdges[band], bandEdges[band+1]
			if hi > len(cell) {
				hi = len(cell)
			}
			if lo >= hi {
				continue
			}

			bestBin := lo
			bestMag := cell[lo]
			for bin := lo + 1; bin < hi; bin++ {
				if cell[bin] > bestMag {
					bestMag = cell[bin]
					bestBin = bin
				}
			}

			if bestMag <= Threshold {
				continue
			}

			peaks = append(peaks, model.Peak{
				FrameIndex: frameIdx,
				BandIndex:  band,
				BinIndex:   bestBin,
				Time:       float64(frameIdx) * spec.HopTime,
				Freq:       float64(bestBin) * float64(spec.EffectiveSampleRate) / float64(dsp.WindowSize),
				Mag:        bestMag,
			})
		}
	}

	return peaks
}
