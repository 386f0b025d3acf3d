package metadata

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShabadMapping ties an ingested audio file to its Shabad. AudioFilename
// is the unique key; re-registration updates the row in place.
type ShabadMapping struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	AudioFilename string `gorm:"uniqueIndex:idx_mapping_filename;type:varchar(255);not null"`
	ShabadID      string `gorm:"index:idx_mapping_shabad;type:varchar(50);not null"`
	ArtistName    string `gorm:"type:varchar(255)"`
	StartAng      *int
	CreatedAt     time.Time
}

// Resolution is the resolved identity of a matched track.
type Resolution struct {
	ShabadID   string
	ArtistName string
	StartAng   *int
}

// Resolver maps track ids (ingested file names) to Shabad identities,
// falling back to the filename grammar when no stored mapping exists.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) (*Resolver, error) {
	if err := db.AutoMigrate(&ShabadMapping{}); err != nil {
		return nil, fmt.Errorf("migrating shabad mappings: %w", err)
	}
	return &Resolver{db: db}, nil
}

// Register upserts a mapping keyed by audio filename. A conflicting row
// gets its shabad id, artist, and ang overwritten; a duplicate row is
// never created.
func (r *Resolver) Register(filename, shabadID, artistName string, startAng *int) error {
	mapping := ShabadMapping{
		AudioFilename: filename,
		ShabadID:      shabadID,
		ArtistName:    artistName,
		StartAng:      startAng,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "audio_filename"}},
		DoUpdates: clause.AssignmentColumns([]string{"shabad_id", "artist_name", "start_ang"}),
	}).Create(&mapping).Error
	if err != nil {
		return fmt.Errorf("registering mapping for %s: %w", filename, err)
	}
	return nil
}

// Resolve looks up trackID's identity: first the stored mapping, then the
// filename grammar. A track that matches neither resolves to nil with no
// error; deciding what an unresolved match means is the caller's job.
func (r *Resolver) Resolve(trackID string) (*Resolution, error) {
	var mapping ShabadMapping
	err := r.db.Where("audio_filename = ?", trackID).First(&mapping).Error
	if err == nil {
		return &Resolution{
			ShabadID:   mapping.ShabadID,
			ArtistName: mapping.ArtistName,
			StartAng:   mapping.StartAng,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("resolving %s: %w", trackID, err)
	}

	shabadID, artistName, ok := ParseFilename(trackID)
	if !ok {
		return nil, nil
	}
	return &Resolution{ShabadID: shabadID, ArtistName: artistName}, nil
}

// List returns all stored mappings ordered by filename.
func (r *Resolver) List() ([]ShabadMapping, error) {
	var mappings []ShabadMapping
	if err := r.db.Order("audio_filename").Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}
	return mappings, nil
}

// Count returns the number of stored mappings.
func (r *Resolver) Count() (int64, error) {
	var n int64
	if err := r.db.Model(&ShabadMapping{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting mappings: %w", err)
	}
	return n, nil
}
