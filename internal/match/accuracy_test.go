package match

import (
	"testing"

	"github.com/tidesound/soundprint/internal/fingerprint"
	"github.com/tidesound/soundprint/internal/model"
)

// memIndex is a minimal in-memory Index built directly from postings,
// used to keep this property test independent of any storage backend.
type memIndex struct {
	byToken map[model.Token][]model.Posting
}

func newMemIndex() *memIndex {
	return &memIndex{byToken: make(map[model.Token][]model.Posting)}
}

func (m *memIndex) add(trackID uint32, records []fingerprint.Record) {
	for _, r := range records {
		m.byToken[r.Token] = append(m.byToken[r.Token], model.Posting{
			Token: r.Token, TrackID: trackID, AnchorOffset: r.AnchorOffset,
		})
	}
}

func (m *memIndex) Lookup(tokens []model.Token) ([]model.Posting, error) {
	var out []model.Posting
	for _, t := range tokens {
		out = append(out, m.byToken[t]...)
	}
	return out, nil
}

// syntheticConstellation builds a deterministic, non-repeating
// sequence of peaks across the full bin range, standing in for a
// track's full-length constellation.
func syntheticConstellation(numPeaks int) []model.Peak {
	peaks := make([]model.Peak, numPeaks)
	for i := 0; i < numPeaks; i++ {
		peaks[i] = model.Peak{
			Time: float64(i) * 0.05,
			Freq: float64(100 + (i*37)%5000),
		}
	}
	return peaks
}

// rebased shifts a slice of peaks so the first one starts at time 0,
// the way a query clip's own local timeline would, regardless of
// where it was trimmed from the source recording.
func rebased(peaks []model.Peak) []model.Peak {
	if len(peaks) == 0 {
		return peaks
	}
	out := make([]model.Peak, len(peaks))
	t0 := peaks[0].Time
	for i, p := range peaks {
		p.Time -= t0
		out[i] = p
	}
	return out
}

// TestAccuracySubClipsStillMatch mirrors the reference's accuracy
// harness: trim contiguous sub-clips from a known track's constellation
// (start offsets every 17 peaks, two lengths each) and confirm each
// sub-clip still resolves to that track.
func TestAccuracySubClipsStillMatch(t *testing.T) {
	params := fingerprint.DefaultParams()
	full := syntheticConstellation(400)

	idx := newMemIndex()
	idx.add(1, fingerprint.GenerateTokens(full, params))

	minSubClip := params.AnchorGap + params.TargetZoneSize + 20
	hits, total := 0, 0
	for start := 0; start+minSubClip <= len(full); start += 17 {
		for _, length := range []int{minSubClip, minSubClip * 2} {
			end := start + length
			if end > len(full) {
				continue
			}
			total++

			sub := rebased(full[start:end])
			records := fingerprint.GenerateTokens(sub, params)

			candidate, ok, err := Query(idx, records, DefaultConfig())
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if ok && candidate.TrackID == 1 {
				hits++
			}
		}
	}

	if total == 0 {
		t.Fatal("test generated no sub-clips")
	}
	rate := float64(hits) / float64(total)
	if rate < 0.95 {
		t.Errorf("sub-clip match rate too low: %d/%d (%.2f%%)", hits, total, rate*100)
	}
}
