// Package catalog implements the Index Store (component E): a
// persistent catalog of tracks plus an inverted posting list over
// token -> (track_id, offset), backed by SQLite through GORM.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tidesound/soundprint/internal/model"
)

// trackRow is the `tracks` relation.
type trackRow struct {
	ID            uint32 `gorm:"primaryKey;autoIncrement"`
	Title         string
	Artist        string
	Album         string
	Year          string
	SourceLocator string
	CreatedAt     time.Time
}

// postingRow is the `postings` relation: append-only, indexed on Token.
type postingRow struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Token        uint32 `gorm:"index:idx_token"`
	TrackID      uint32 `gorm:"index:idx_track"`
	AnchorOffset int64
}

// stateRow is the opaque `state` key/value relation reserved for
// external collaborators; the core never reads or writes it.
type stateRow struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// Store is a handle to the Index Store, held for the lifetime of an
// operation and safe to share across concurrent queries.
type Store struct {
	db *gorm.DB
}

// Open creates or opens the SQLite-backed catalog at path and runs its
// (idempotent) migrations.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: opening catalog: %v", model.ErrStorage, err)
	}

	if err := db.AutoMigrate(&trackRow{}, &postingRow{}, &stateRow{}); err != nil {
		return nil, fmt.Errorf("%w: migrating catalog: %v", model.ErrStorage, err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}

// AddTrack inserts a new track row and returns its generated id.
func (s *Store) AddTrack(attrs model.TrackAttributes) (uint32, error) {
	row := trackRow{
		Title:         attrs.Title,
		Artist:        attrs.Artist,
		Album:         attrs.Album,
		Year:          attrs.Year,
		SourceLocator: attrs.SourceLocator,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return 0, fmt.Errorf("%w: adding track: %v", model.ErrStorage, err)
	}
	return row.ID, nil
}

// AddPostings bulk-inserts postings for a track inside a single
// transaction, so a reader either observes all of a track's postings
// or none.
func (s *Store) AddPostings(trackID uint32, postings []model.Posting) error {
	if len(postings) == 0 {
		return nil
	}

	rows := make([]postingRow, len(postings))
	for i, p := range postings {
		rows[i] = postingRow{
			Token:        uint32(p.Token),
			TrackID:      trackID,
			AnchorOffset: int64(p.AnchorOffset),
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		const batchSize = 500
		return tx.CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("%w: adding postings for track %d: %v", model.ErrStorage, trackID, err)
	}
	return nil
}

// Lookup returns every posting whose token is among the given set.
// Order is unspecified.
func (s *Store) Lookup(tokens []model.Token) ([]model.Posting, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	raw := make([]uint32, len(tokens))
	for i, t := range tokens {
		raw[i] = uint32(t)
	}

	var rows []postingRow
	if err := s.db.Where("token IN ?", raw).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: looking up %d tokens: %v", model.ErrStorage, len(tokens), err)
	}

	out := make([]model.Posting, len(rows))
	for i, r := range rows {
		out[i] = model.Posting{
			Token:        model.Token(r.Token),
			TrackID:      r.TrackID,
			AnchorOffset: model.AnchorOffset(r.AnchorOffset),
		}
	}
	return out, nil
}

// GetTrack fetches a track's attributes by id.
func (s *Store) GetTrack(id uint32) (model.Track, bool, error) {
	var row trackRow
	err := s.db.First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Track{}, false, nil
	}
	if err != nil {
		return model.Track{}, false, fmt.Errorf("%w: fetching track %d: %v", model.ErrStorage, id, err)
	}

	return model.Track{
		ID: row.ID,
		Attributes: model.TrackAttributes{
			Title:         row.Title,
			Artist:        row.Artist,
			Album:         row.Album,
			Year:          row.Year,
			SourceLocator: row.SourceLocator,
		},
	}, true, nil
}

// ListTracks returns every track in the catalog.
func (s *Store) ListTracks() ([]model.Track, error) {
	var rows []trackRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: listing tracks: %v", model.ErrStorage, err)
	}

	out := make([]model.Track, len(rows))
	for i, row := range rows {
		out[i] = model.Track{
			ID: row.ID,
			Attributes: model.TrackAttributes{
				Title:         row.Title,
				Artist:        row.Artist,
				Album:         row.Album,
				Year:          row.Year,
				SourceLocator: row.SourceLocator,
			},
		}
	}
	return out, nil
}

// PostingCount reports how many postings reference a track, for
// diagnostics.
func (s *Store) PostingCount(trackID uint32) (int64, error) {
	var count int64
	if err := s.db.Model(&postingRow{}).Where("track_id = ?", trackID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: counting postings for track %d: %v", model.ErrStorage, trackID, err)
	}
	return count, nil
}

// GetState reads an opaque key from the state table. It is never
// called by the core matcher or ingest path; it exists for external
// collaborators such as a recent-matches cache.
func (s *Store) GetState(key string) (string, bool, error) {
	var row stateRow
	err := s.db.First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: reading state %q: %v", model.ErrStorage, key, err)
	}
	return row.Value, true, nil
}

// SetState upserts an opaque key/value pair in the state table.
func (s *Store) SetState(key, value string) error {
	row := stateRow{Key: key, Value: value}
	err := s.db.Clauses(onConflictUpdate()).Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: writing state %q: %v", model.ErrStorage, key, err)
	}
	return nil
}
