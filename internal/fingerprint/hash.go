package fingerprint

import (
	"math"

	"github.com/tidesound/soundprint/internal/model"
)

// Bit widths of the packed token's wire format, MSB to LSB:
// f1[9] | f2[9] | dt[14].
const (
	freqBits  = 9
	deltaBits = 14

	freqMask  = uint32(1)<<freqBits - 1
	deltaMask = uint32(1)<<deltaBits - 1

	f2Shift = deltaBits
	f1Shift = deltaBits + freqBits
)

// Params tunes the hash generator's anchor/target pairing.
type Params struct {
	// TargetZoneSize is how many peaks following the anchor (after the
	// gap) are paired with it.
	TargetZoneSize int
	// AnchorGap is the fixed offset between an anchor and the start of
	// its target zone.
	AnchorGap int
}

// DefaultParams are the anchor/target pairing constants.
func DefaultParams() Params {
	return Params{TargetZoneSize: 5, AnchorGap: 3}
}

// PackToken packs (f1, f2, dt) into the 32-bit wire format. It returns
// ok=false, rather than silently truncating, when any field does not
// fit its allotted bits.
func PackToken(f1, f2, dt uint32) (model.Token, bool) {
	if f1 > freqMask || f2 > freqMask || dt > deltaMask {
		return 0, false
	}
	return model.Token((f1 << f1Shift) | (f2 << f2Shift) | (dt & deltaMask)), true
}

// UnpackToken extracts (f1, f2, dt) from a packed token.
func UnpackToken(t model.Token) (f1, f2, dt uint32) {
	v := uint32(t)
	f1 = (v >> f1Shift) & freqMask
	f2 = (v >> f2Shift) & freqMask
	dt = v & deltaMask
	return
}

// Record pairs a generated token with the anchor's offset (ms) in its
// source signal.
type Record struct {
	Token        model.Token
	AnchorOffset model.AnchorOffset
}

// GenerateTokens forms (anchor, target)-pair tokens from an ordered
// constellation: for each anchor in [0, L-AnchorGap-TargetZoneSize),
// pair it with each of the TargetZoneSize peaks starting AnchorGap
// positions after it. A constellation too short for even one zone
// yields no tokens, not an error. Output order is (anchor ascending,
// target ascending).
func GenerateTokens(peaks []model.Peak, p Params) []Record {
	l := len(peaks)
	bound := l - p.AnchorGap - p.TargetZoneSize
	if bound <= 0 {
		return nil
	}

	var out []Record
	for i := 0; i < bound; i++ {
		anchor := peaks[i]
		zoneStart := i + p.AnchorGap
		zoneEnd := zoneStart + p.TargetZoneSize
		for j := zoneStart; j < zoneEnd; j++ {
			target := peaks[j]

			f1 := uint32(math.Round(anchor.Freq / 10))
			f2 := uint32(math.Round(target.Freq / 10))
			dt := uint32(math.Round((target.Time-anchor.Time)*1000)) & deltaMask

			token, ok := PackToken(f1, f2, dt)
			if !ok {
				continue
			}

			out = append(out, Record{
				Token:        token,
				AnchorOffset: model.AnchorOffset(math.Round(anchor.Time * 1000)),
			})
		}
	}
	return out
}
