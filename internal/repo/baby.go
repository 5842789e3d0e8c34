package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"BabyKeeper/internal/model"
)

// BabyRepository covers babies and access grants.
type BabyRepository interface {
	GetBaby(ctx context.Context, id string) (*model.Baby, error)
	CreateBaby(ctx context.Context, baby *model.Baby, ownerGrant *model.BabyAccess) error
	ListForUser(ctx context.Context, userID int64) ([]model.Baby, []model.BabyAccess, error)
	// AccessLevel returns the grant level, or "" when no grant exists.
	AccessLevel(ctx context.Context, babyID string, userID int64) (string, error)
}

type babyRepo struct {
	db *gorm.DB
}

func NewBabyRepository(db *gorm.DB) BabyRepository {
	return &babyRepo{db: db}
}

func (r *babyRepo) GetBaby(ctx context.Context, id string) (*model.Baby, error) {
	var b model.Baby
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBaby inserts the baby and its owner grant atomically.
func (r *babyRepo) CreateBaby(ctx context.Context, baby *model.Baby, ownerGrant *model.BabyAccess) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(baby).Error; err != nil {
			return err
		}
		return tx.Create(ownerGrant).Error
	})
}

func (r *babyRepo) ListForUser(ctx context.Context, userID int64) ([]model.Baby, []model.BabyAccess, error) {
	var grants []model.BabyAccess
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&grants).Error; err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.BabyID)
	}
	var babies []model.Baby
	if len(ids) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&babies).Error; err != nil {
			return nil, nil, err
		}
	}
	return babies, grants, nil
}

func (r *babyRepo) AccessLevel(ctx context.Context, babyID string, userID int64) (string, error) {
	var g model.BabyAccess
	err := r.db.WithContext(ctx).
		Where("baby_id = ? AND user_id = ?", babyID, userID).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return g.Level, nil
}
