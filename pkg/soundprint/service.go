package soundprint

import (
	"context"
	"fmt"

	"github.com/tidesound/soundprint/internal/catalog"
	"github.com/tidesound/soundprint/internal/dsp"
	"github.com/tidesound/soundprint/internal/fingerprint"
	"github.com/tidesound/soundprint/internal/match"
	"github.com/tidesound/soundprint/internal/model"
	"github.com/tidesound/soundprint/internal/pcmio"
	"github.com/tidesound/soundprint/pkg/logging"
)

// service wires the PCM Loader, Spectrogram, Peak Picker, Hash
// Generator, Index Store, and Matcher into the Service contract.
type service struct {
	storage          Storage
	logger           Logger
	fanout           fingerprint.Params
	matchCfg         match.Config
	decimationFactor int
	ownsStorage      bool
}

// New builds a Service from the given options. If no Storage option is
// supplied, it opens a catalog.Store at Config.DBPath and owns its
// lifecycle (closed by Service.Close).
func New(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	storage := cfg.Storage
	ownsStorage := false
	if storage == nil {
		store, err := catalog.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		storage = store
		ownsStorage = true
	}

	return &service{
		storage:          storage,
		logger:           logger,
		fanout:           cfg.Fanout,
		matchCfg:         match.Config{Threshold: cfg.MatchThreshold},
		decimationFactor: cfg.DecimationFactor,
		ownsStorage:      ownsStorage,
	}, nil
}

// fingerprintFile runs the pipeline shared by AddTrack and MatchClip:
// load -> spectrogram -> peaks -> tokens. Empty, missing or truncated
// audio yields a nil slice, not an error, so the growing-file tolerance
// of the PCM loader flows through unchanged; an unsupported encoding
// returns the loader's model.ErrDecode.
func (s *service) fingerprintFile(wavPath string) ([]fingerprint.Record, error) {
	signal, err := pcmio.LoadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	if signal.Empty() {
		return nil, nil
	}

	spec := dsp.Compute(signal.Samples, s.decimationFactor)
	peaks := fingerprint.ExtractPeaks(spec)
	return fingerprint.GenerateTokens(peaks, s.fanout), nil
}

func (s *service) AddTrack(ctx context.Context, wavPath string, attrs model.TrackAttributes) (uint32, error) {
	records, err := s.fingerprintFile(wavPath)
	if err != nil {
		return 0, err
	}

	trackID, err := s.storage.AddTrack(attrs)
	if err != nil {
		return 0, err
	}

	if len(records) == 0 {
		s.logger.Warnf("track %d (%s) produced no fingerprints", trackID, attrs.Title)
		return trackID, nil
	}

	postings := make([]model.Posting, len(records))
	for i, r := range records {
		postings[i] = model.Posting{Token: r.Token, TrackID: trackID, AnchorOffset: r.AnchorOffset}
	}

	if err := s.storage.AddPostings(trackID, postings); err != nil {
		return 0, err
	}

	s.logger.Infof("ingested track %d (%s): %d postings", trackID, attrs.Title, len(postings))
	return trackID, nil
}

func (s *service) MatchClip(ctx context.Context, wavPath string) (model.MatchResult, bool, error) {
	records, err := s.fingerprintFile(wavPath)
	if err != nil {
		return model.MatchResult{}, false, err
	}
	if len(records) == 0 {
		return model.MatchResult{}, false, nil
	}

	candidate, ok, err := match.Query(s.storage, records, s.matchCfg)
	if err != nil {
		return model.MatchResult{}, false, err
	}
	if !ok {
		return model.MatchResult{}, false, nil
	}

	track, found, err := s.storage.GetTrack(candidate.TrackID)
	if err != nil {
		return model.MatchResult{}, false, err
	}
	if !found {
		return model.MatchResult{}, false, fmt.Errorf("%w: track %d vanished from catalog", model.ErrStorage, candidate.TrackID)
	}

	s.logger.Debugf("matched track %d with score %d", candidate.TrackID, candidate.Score)
	return model.MatchResult{
		Track:        track,
		Score:        candidate.Score,
		AnchorOffset: candidate.AnchorOffset,
	}, true, nil
}

func (s *service) GetTrack(id uint32) (model.Track, bool, error) {
	return s.storage.GetTrack(id)
}

func (s *service) ListTracks() ([]model.Track, error) {
	return s.storage.ListTracks()
}

func (s *service) Close() error {
	if !s.ownsStorage {
		return nil
	}
	return s.storage.Close()
}
