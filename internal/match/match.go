// Package match implements the Matcher (component F): scoring a
// query's tokens against the Index Store by anchor-offset
// histogramming.
package match

import (
	"fmt"

	"github.com/tidesound/soundprint/internal/fingerprint"
	"github.com/tidesound/soundprint/internal/model"
)

// Config tunes the matcher's decision rule.
type Config struct {
	// Threshold is M: the minimum modal score a track must reach to be
	// considered a match.
	Threshold int
}

// DefaultConfig is M = 5.
func DefaultConfig() Config {
	return Config{Threshold: 5}
}

// Index is the subset of the Index Store the matcher needs: a
// token-set lookup. It is stateless per call.
type Index interface {
	Lookup(tokens []model.Token) ([]model.Posting, error)
}

// Candidate is a scored track, blind to its attributes: the matcher
// deals only in ids.
type Candidate struct {
	TrackID      uint32
	Score        int
	AnchorOffset model.AnchorOffset // the Δ of the winning alignment
}

// Query scores a query's generated tokens against the index. It
// returns the winning candidate, or ok=false if no track's modal score
// reaches cfg.Threshold.
func Query(idx Index, records []fingerprint.Record, cfg Config) (Candidate, bool, error) {
	if len(records) == 0 {
		return Candidate{}, false, nil
	}

	// Step 1: QOFF[token] = anchor offset, keeping the last occurrence
	// if a token recurs within the query.
	qoff := make(map[model.Token]model.AnchorOffset, len(records))
	tokens := make([]model.Token, 0, len(records))
	for _, r := range records {
		if _, seen := qoff[r.Token]; !seen {
			tokens = append(tokens, r.Token)
		}
		qoff[r.Token] = r.AnchorOffset
	}

	postings, err := idx.Lookup(tokens)
	if err != nil {
		return Candidate{}, false, fmt.Errorf("matcher lookup: %w", err)
	}

	// Steps 3-4: histogram counts[trackID][delta], then S(trackID) = max count.
	counts := make(map[uint32]map[model.AnchorOffset]int)
	for _, p := range postings {
		anchorOff, ok := qoff[p.Token]
		if !ok {
			continue
		}
		delta := p.AnchorOffset - anchorOff
		bucket, ok := counts[p.TrackID]
		if !ok {
			bucket = make(map[model.AnchorOffset]int)
			counts[p.TrackID] = bucket
		}
		bucket[delta]++
	}

	// Step 5: best track by S, ties broken by smallest track id.
	var best Candidate
	found := false
	for trackID, deltas := range counts {
		var bestDelta model.AnchorOffset
		bestCount := 0
		for delta, c := range deltas {
			if c > bestCount || (c == bestCount && delta < bestDelta) {
				bestCount = c
				bestDelta = delta
			}
		}

		if !found || bestCount > best.Score || (bestCount == best.Score && trackID < best.TrackID) {
			best = Candidate{TrackID: trackID, Score: bestCount, AnchorOffset: bestDelta}
			found = true
		}
	}

	if !found || best.Score < cfg.Threshold {
		return Candidate{}, false, nil
	}
	return best, true, nil
}
