package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntryRepository defines decoupled operations for session entry persistence.
type EntryRepository interface {
	Get(ctx context.Context, name string) (*Entry, error)
	Put(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, name string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// gormEntryRepo is a GORM-backed implementation of EntryRepository.
// Use constructor NewEntryRepository to obtain an instance.
type gormEntryRepo struct{ db *gorm.DB }

// NewEntryRepository creates an EntryRepository. Accepts *gorm.DB to avoid global access.
func NewEntryRepository(db *gorm.DB) EntryRepository { return &gormEntryRepo{db: db} }

// Get returns nil without an error when no entry with that name exists.
func (r *gormEntryRepo) Get(ctx context.Context, name string) (*Entry, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var entry Entry
	err := r.db.WithContext(ctx).First(&entry, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *gormEntryRepo) Put(ctx context.Context, entry Entry) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
}

// Delete is a no-op for a missing entry.
func (r *gormEntryRepo) Delete(ctx context.Context, name string) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	return r.db.WithContext(ctx).Where("name = ?", name).Delete(&Entry{}).Error
}

func (r *gormEntryRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("repository not initialized")
	}
	res := r.db.WithContext(ctx).
		Where("expires_at > ? AND expires_at <= ?", time.Time{}, now.UTC()).
		Delete(&Entry{})
	return res.RowsAffected, res.Error
}
