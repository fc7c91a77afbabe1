package soundprint

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidesound/soundprint/internal/model"
)

// fakeStorage is an in-memory Storage, exercising the service against
// the Storage contract without a real database.
type fakeStorage struct {
	tracks   map[uint32]model.Track
	postings map[model.Token][]model.Posting
	state    map[string]string
	nextID   uint32
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		tracks:   make(map[uint32]model.Track),
		postings: make(map[model.Token][]model.Posting),
		state:    make(map[string]string),
	}
}

func (f *fakeStorage) AddTrack(attrs model.TrackAttributes) (uint32, error) {
	f.nextID++
	f.tracks[f.nextID] = model.Track{ID: f.nextID, Attributes: attrs}
	return f.nextID, nil
}

func (f *fakeStorage) AddPostings(trackID uint32, postings []model.Posting) error {
	for _, p := range postings {
		f.postings[p.Token] = append(f.postings[p.Token], p)
	}
	return nil
}

func (f *fakeStorage) Lookup(tokens []model.Token) ([]model.Posting, error) {
	var out []model.Posting
	for _, t := range tokens {
		out = append(out, f.postings[t]...)
	}
	return out, nil
}

func (f *fakeStorage) GetTrack(id uint32) (model.Track, bool, error) {
	t, ok := f.tracks[id]
	return t, ok, nil
}

func (f *fakeStorage) ListTracks() ([]model.Track, error) {
	out := make([]model.Track, 0, len(f.tracks))
	for _, t := range f.tracks {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStorage) PostingCount(trackID uint32) (int64, error) {
	var n int64
	for _, ps := range f.postings {
		for _, p := range ps {
			if p.TrackID == trackID {
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeStorage) GetState(key string) (string, bool, error) {
	v, ok := f.state[key]
	return v, ok, nil
}

func (f *fakeStorage) SetState(key, value string) error {
	f.state[key] = value
	return nil
}

func (f *fakeStorage) Close() error { return nil }

type fakeLogger struct{}

func (fakeLogger) Debugf(string, ...any) {}
func (fakeLogger) Infof(string, ...any)  {}
func (fakeLogger) Warnf(string, ...any)  {}
func (fakeLogger) Errorf(string, ...any) {}

// writeSyntheticWAV writes a mono 44100Hz 16-bit PCM file summing the
// given tone frequencies, strong enough that each contributes a peak
// comfortably above the fingerprint.Threshold in its own sub-band.
func writeSyntheticWAV(t *testing.T, path string, freqs []float64, seconds float64) {
	t.Helper()
	const sampleRate = 44100
	n := int(seconds * sampleRate)

	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		var v float64
		for _, f := range freqs {
			v += 0.5 * math.Sin(2*math.Pi*f*float64(i)/sampleRate)
		}
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		samples[i] = int16(v * 32000)
	}

	var data bytes.Buffer
	for _, s := range samples {
		binary.Write(&data, binary.LittleEndian, s)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func newTestService(t *testing.T) Service {
	t.Helper()
	storage := newFakeStorage()
	svc, err := New(WithStorage(storage), WithLogger(fakeLogger{}))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

// bandFreqs is one representative frequency per fixed sub-band, chosen
// well inside each band's bin range after decimation to 11025Hz.
var bandFreqs = []float64{50, 160, 320, 640, 1290, 2500}

func TestServiceIdentityMatch(t *testing.T) {
	svc := newTestService(t)
	dir := t.TempDir()

	trackPath := filepath.Join(dir, "track.wav")
	writeSyntheticWAV(t, trackPath, bandFreqs, 2.0)

	ctx := context.Background()
	id, err := svc.AddTrack(ctx, trackPath, model.TrackAttributes{Title: "Synth", Artist: "Test"})
	require.NoError(t, err)
	require.NotZero(t, id)

	result, ok, err := svc.MatchClip(ctx, trackPath)
	require.NoError(t, err)
	require.True(t, ok, "expected the ingested track to self-match")
	require.Equal(t, id, result.Track.ID)
	require.GreaterOrEqual(t, result.Score, 5)
}

func TestServiceDiscriminatesDifferentTracks(t *testing.T) {
	svc := newTestService(t)
	dir := t.TempDir()

	trackA := filepath.Join(dir, "a.wav")
	writeSyntheticWAV(t, trackA, bandFreqs, 2.0)
	trackB := filepath.Join(dir, "b.wav")
	writeSyntheticWAV(t, trackB, []float64{70, 190, 380, 720, 1500, 3000}, 2.0)

	ctx := context.Background()
	idA, err := svc.AddTrack(ctx, trackA, model.TrackAttributes{Title: "A", Artist: "Test"})
	require.NoError(t, err)
	idB, err := svc.AddTrack(ctx, trackB, model.TrackAttributes{Title: "B", Artist: "Test"})
	require.NoError(t, err)
	require.NotEqual(t, idA, idB)

	result, ok, err := svc.MatchClip(ctx, trackA)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, idA, result.Track.ID)
}

func TestServiceSilentClipYieldsNoMatch(t *testing.T) {
	svc := newTestService(t)
	dir := t.TempDir()

	trackPath := filepath.Join(dir, "track.wav")
	writeSyntheticWAV(t, trackPath, bandFreqs, 2.0)
	ctx := context.Background()
	_, err := svc.AddTrack(ctx, trackPath, model.TrackAttributes{Title: "Synth", Artist: "Test"})
	require.NoError(t, err)

	silencePath := filepath.Join(dir, "silence.wav")
	writeSyntheticWAV(t, silencePath, nil, 2.0)

	_, ok, err := svc.MatchClip(ctx, silencePath)
	require.NoError(t, err)
	require.False(t, ok, "silence produces no peaks above threshold and so no match")
}

func TestServiceGetAndListTracks(t *testing.T) {
	svc := newTestService(t)
	dir := t.TempDir()
	trackPath := filepath.Join(dir, "track.wav")
	writeSyntheticWAV(t, trackPath, bandFreqs, 1.0)

	ctx := context.Background()
	id, err := svc.AddTrack(ctx, trackPath, model.TrackAttributes{Title: "Synth", Artist: "Test"})
	require.NoError(t, err)

	track, found, err := svc.GetTrack(id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Synth", track.Attributes.Title)

	tracks, err := svc.ListTracks()
	require.NoError(t, err)
	require.Len(t, tracks, 1)
}
