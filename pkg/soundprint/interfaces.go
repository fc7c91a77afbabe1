// Package soundprint is the public facade over the fingerprinting and
// matching core: a signal-processing front end, a hash generator, a
// persistent inverted index, and an anchor-offset matcher, following
// Wang's "Industrial-Strength Audio Search".
package soundprint

import (
	"context"

	"github.com/tidesound/soundprint/internal/model"
)

// Service is the core's external contract: ingest a track's audio,
// and match an unknown clip against the catalog.
type Service interface {
	// AddTrack fingerprints the WAV file at wavPath and stores it under
	// attrs, returning the new track's id. Empty audio is not an error:
	// it ingests a track with zero postings.
	AddTrack(ctx context.Context, wavPath string, attrs model.TrackAttributes) (uint32, error)

	// MatchClip fingerprints the WAV file at wavPath and looks up the
	// best-scoring track in the catalog. ok is false when no track
	// clears the match threshold (model.ErrNoMatch's condition) or when
	// the clip produced no usable tokens.
	MatchClip(ctx context.Context, wavPath string) (result model.MatchResult, ok bool, err error)

	// GetTrack fetches a track's attributes by id.
	GetTrack(id uint32) (model.Track, bool, error)

	// ListTracks returns every track in the catalog.
	ListTracks() ([]model.Track, error)

	// Close releases resources held by the service (database handles, etc).
	Close() error
}

// Storage is the persistence contract the service depends on: the
// Index Store operations, plus the opaque state map. *catalog.Store
// satisfies this; tests may supply a fake.
type Storage interface {
	AddTrack(attrs model.TrackAttributes) (uint32, error)
	AddPostings(trackID uint32, postings []model.Posting) error
	Lookup(tokens []model.Token) ([]model.Posting, error)
	GetTrack(id uint32) (model.Track, bool, error)
	ListTracks() ([]model.Track, error)
	PostingCount(trackID uint32) (int64, error)
	GetState(key string) (string, bool, error)
	SetState(key, value string) error
	Close() error
}

// Logger is the logging contract the service depends on, so callers
// may substitute their own implementation.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
