package repo

import (
	"context"

	"gorm.io/gorm"

	"BabyKeeper/internal/model"
)

// ChangeLogRepository is the append-only per-baby change stream.
type ChangeLogRepository interface {
	// ListAfter returns up to limit entries with Seq > since, oldest first.
	ListAfter(ctx context.Context, babyID string, since int64, limit int) ([]model.ChangeEntry, error)
	// LatestSeq returns the newest sequence for a baby, 0 when the log is empty.
	LatestSeq(ctx context.Context, babyID string) (int64, error)
}

type changeLogRepo struct {
	db *gorm.DB
}

func NewChangeLogRepository(db *gorm.DB) ChangeLogRepository {
	return &changeLogRepo{db: db}
}

func (r *changeLogRepo) ListAfter(ctx context.Context, babyID string, since int64, limit int) ([]model.ChangeEntry, error) {
	var entries []model.ChangeEntry
	err := r.db.WithContext(ctx).
		Where("baby_id = ? AND seq > ?", babyID, since).
		Order("seq").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *changeLogRepo) LatestSeq(ctx context.Context, babyID string) (int64, error) {
	var seq *int64
	err := r.db.WithContext(ctx).Model(&model.ChangeEntry{}).
		Where("baby_id = ?", babyID).Select("MAX(seq)").Scan(&seq).Error
	if err != nil || seq == nil {
		return 0, err
	}
	return *seq, nil
}
