// Package storage persists the application's keyed state blobs.
//
// The quota engine, the link catalog, and the statistics aggregator each own
// their in-memory state and write it through here after every mutation. Each
// key maps to a single row whose value is replaced atomically inside a
// transaction, so a crash can lose at most the write in flight, never corrupt
// an older blob.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"linkdrop/internal/pkg/dbtxn"
)

// Well-known blob keys.
const (
	KeyLinks = "links"
	KeyUsage = "usage"
	KeyStats = "stats"
)

// Blob is one persisted state document.
type Blob struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// Store reads and writes keyed JSON blobs.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New constructs a store on top of an open database handle.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("storage")}
}

// Load unmarshals the blob stored under key into out. It reports whether the
// key existed; when it does not, out is left untouched so callers keep their
// zero-value default.
func (s *Store) Load(key string, out any) (bool, error) {
	var blob Blob
	err := s.db.First(&blob, "key = ?", key).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, fmt.Errorf("storage: load %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(blob.Value), out); err != nil {
		return false, fmt.Errorf("storage: decode %q: %w", key, err)
	}
	return true, nil
}

// Save marshals value and replaces the blob stored under key in one transaction.
func (s *Store) Save(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("storage: encode %q: %w", key, err)
	}

	blob := Blob{Key: key, Value: string(raw), UpdatedAt: time.Now().UTC()}
	err = dbtxn.WithRetry(s.logger, s.db, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&blob).Error
	})
	if err != nil {
		return fmt.Errorf("storage: save %q: %w", key, err)
	}
	return nil
}

// Delete removes the blob stored under key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	err := dbtxn.WithRetry(s.logger, s.db, func(tx *gorm.DB) error {
		return tx.Delete(&Blob{}, "key = ?", key).Error
	})
	if err != nil {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}
