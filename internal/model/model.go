// Package model holds the plain data types shared across the
// fingerprinting pipeline: peaks, tokens, postings, and tracks.
package model

import "errors"

// Sentinel errors surfaced by the core, per the error-handling design.
var (
	// ErrDecode means the waveform source could not be parsed or read.
	ErrDecode = errors.New("soundprint: waveform could not be decoded")

	// ErrStorage means the Index Store failed a read or write.
	ErrStorage = errors.New("soundprint: index store operation failed")

	// ErrNoMatch means a query completed but no track cleared the score threshold.
	ErrNoMatch = errors.New("soundprint: no confident match")
)

// Peak is a single (time, frequency) constellation point.
type Peak struct {
	FrameIndex int     // frame this peak was drawn from
	BandIndex  int     // which of the six sub-bands produced it
	BinIndex   int     // FFT bin index within the decimated spectrogram
	Time       float64 // seconds from start of signal
	Freq       float64 // Hz
	Mag        float64 // magnitude (not squared, not dB)
}

// Token is the 32-bit packed (f1, f2, dt) hash of an anchor/target pair.
type Token uint32

// AnchorOffset is a token's source time, in milliseconds from the start
// of the signal it was produced from.
type AnchorOffset int64

// Posting is one row of the inverted index: a token seen at a given
// offset within a given track.
type Posting struct {
	Token        Token
	TrackID      uint32
	AnchorOffset AnchorOffset
}

// TrackAttributes is the opaque metadata record supplied on ingest and
// returned on match. The core never inspects these fields.
type TrackAttributes struct {
	Title         string
	Artist        string
	Album         string
	Year          string
	SourceLocator string
}

// Track is a catalog entry: a generated id plus its attributes.
type Track struct {
	ID         uint32
	Attributes TrackAttributes
}

// MatchResult is the outcome of a successful query.
type MatchResult struct {
	Track        Track
	Score        int          // modal count S(track_id)
	AnchorOffset AnchorOffset // best-fit delta, ms
}
