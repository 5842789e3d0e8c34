package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"BabyKeeper/internal/model"
)

// LogEntryRepository stores the generic activity rows. Writes that must be
// visible to pullers go through ApplyMutation, which records the change-log
// entry in the same transaction as the row itself.
type LogEntryRepository interface {
	GetByID(ctx context.Context, id string) (*model.LogEntry, error)
	// ApplyMutation upserts or tombstones the row and appends the matching
	// change entry atomically.
	ApplyMutation(ctx context.Context, entry *model.LogEntry, op string) error
	// RecentForBaby returns live rows with StartedAt after the cutoff.
	RecentForBaby(ctx context.Context, babyID string, cutoff time.Time) ([]model.LogEntry, error)
}

type logEntryRepo struct {
	db *gorm.DB
}

func NewLogEntryRepository(db *gorm.DB) LogEntryRepository {
	return &logEntryRepo{db: db}
}

func (r *logEntryRepo) GetByID(ctx context.Context, id string) (*model.LogEntry, error) {
	var e model.LogEntry
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *logEntryRepo) ApplyMutation(ctx context.Context, entry *model.LogEntry, op string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		change := model.ChangeEntry{
			BabyID:     entry.BabyID,
			EntityType: entry.Type,
			EntityID:   entry.ID,
			Op:         op,
		}
		if op == "delete" {
			entry.Deleted = true
			if err := tx.Model(&model.LogEntry{}).Where("id = ?", entry.ID).
				Update("deleted", true).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Save(entry).Error; err != nil {
				return err
			}
			change.Data = entry.Data
		}
		return tx.Create(&change).Error
	})
}

func (r *logEntryRepo) RecentForBaby(ctx context.Context, babyID string, cutoff time.Time) ([]model.LogEntry, error) {
	var entries []model.LogEntry
	err := r.db.WithContext(ctx).
		Where("baby_id = ? AND deleted = ? AND started_at >= ?", babyID, false, cutoff).
		Order("started_at").Find(&entries).Error
	return entries, err
}
