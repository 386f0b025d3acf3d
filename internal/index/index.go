package index

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/anjankaur/shazam-for-gurbani/internal/fingerprint"
)

// ErrUnavailable marks storage-layer failures. Callers match it with
// errors.Is to distinguish a broken index from an empty lookup, which is
// never an error.
var ErrUnavailable = errors.New("fingerprint index unavailable")

// Track is one ingested audio file. TrackID is the ingested file's base
// name and is immutable after insert.
type Track struct {
	TrackID    string `gorm:"primaryKey;type:varchar(255)"`
	TokenCount int
	CreatedAt  time.Time
}

// Posting maps a token hash back to where it occurred: which track, at
// which anchor frame. Append-only; a re-ingested track replaces its
// postings wholesale.
type Posting struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Hash        uint32 `gorm:"index:idx_posting_hash"`
	TrackID     string `gorm:"type:varchar(255);index:idx_posting_track"`
	TrackOffset uint32
}

// Index is the persistent hash -> postings store. Reads are safe for any
// number of concurrent callers; writes to the same track are serialized by
// a per-track mutex so replace-then-insert sequences never interleave.
type Index struct {
	db    *gorm.DB
	locks sync.Map // trackID -> *sync.Mutex
}

func New(db *gorm.DB) (*Index, error) {
	if err := db.AutoMigrate(&Track{}, &Posting{}); err != nil {
		return nil, fmt.Errorf("%w: migrating: %v", ErrUnavailable, err)
	}
	return &Index{db: db}, nil
}

func (ix *Index) trackLock(trackID string) *sync.Mutex {
	mu, _ := ix.locks.LoadOrStore(trackID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Insert stores postings for every token of trackID, first removing any
// prior postings for that id so re-ingestion replaces rather than appends.
func (ix *Index) Insert(trackID string, tokens []fingerprint.Token) error {
	mu := ix.trackLock(trackID)
	mu.Lock()
	defer mu.Unlock()

	err := ix.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("track_id = ?", trackID).Delete(&Posting{}).Error; err != nil {
			return err
		}
		if err := tx.Where("track_id = ?", trackID).Delete(&Track{}).Error; err != nil {
			return err
		}

		rows := make([]Posting, 0, len(tokens))
		for _, tok := range tokens {
			rows = append(rows, Posting{
				Hash:        tok.Hash,
				TrackID:     trackID,
				TrackOffset: tok.Offset,
			})
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return err
			}
		}

		return tx.Create(&Track{TrackID: trackID, TokenCount: len(tokens)}).Error
	})
	if err != nil {
		return fmt.Errorf("%w: inserting track %s: %v", ErrUnavailable, trackID, err)
	}
	return nil
}

// Lookup fetches postings for every hash in one batch. Unknown hashes are
// simply absent from the result.
func (ix *Index) Lookup(hashes []uint32) (map[uint32][]Posting, error) {
	result := make(map[uint32][]Posting)
	if len(hashes) == 0 {
		return result, nil
	}

	var rows []Posting
	if err := ix.db.Where("hash IN ?", hashes).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: looking up %d hashes: %v", ErrUnavailable, len(hashes), err)
	}
	for _, r := range rows {
		result[r.Hash] = append(result[r.Hash], r)
	}
	return result, nil
}

// Tracks lists every indexed track.
func (ix *Index) Tracks() ([]Track, error) {
	var tracks []Track
	if err := ix.db.Order("track_id").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("%w: listing tracks: %v", ErrUnavailable, err)
	}
	return tracks, nil
}

// TrackCount returns the number of indexed tracks.
func (ix *Index) TrackCount() (int64, error) {
	var n int64
	if err := ix.db.Model(&Track{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: counting tracks: %v", ErrUnavailable, err)
	}
	return n, nil
}

// PostingCount returns the number of stored postings.
func (ix *Index) PostingCount() (int64, error) {
	var n int64
	if err := ix.db.Model(&Posting{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: counting postings: %v", ErrUnavailable, err)
	}
	return n, nil
}
