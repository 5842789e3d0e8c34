package model

import "time"

// Baby is the shared child record.
type Baby struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"size:255"`
	BirthDate   *time.Time
	OwnerUserID int64 `gorm:"index"`
	ArchivedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Access levels a caregiver can hold on a baby.
const (
	AccessOwner  = "owner"
	AccessEditor = "editor"
	AccessViewer = "viewer"
)

// BabyAccess is one caregiver's grant. Deleting the row revokes access;
// revocation is observed by clients through verify-access, not through the
// change stream.
type BabyAccess struct {
	BabyID         string `gorm:"primaryKey;size:36"`
	UserID         int64  `gorm:"primaryKey"`
	Level          string `gorm:"size:16"`
	CaregiverLabel string `gorm:"size:255"`
	LastAccessedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanEdit reports whether the level permits mutations.
func CanEdit(level string) bool {
	return level == AccessOwner || level == AccessEditor
}
