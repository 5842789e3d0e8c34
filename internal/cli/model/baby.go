package model

import "time"

// AccessLevel is the permission a caregiver holds on a baby record.
type AccessLevel string

const (
	AccessOwner  AccessLevel = "owner"
	AccessEditor AccessLevel = "editor"
	AccessViewer AccessLevel = "viewer"
)

// CanEdit reports whether the level permits mutations.
func (l AccessLevel) CanEdit() bool {
	return l == AccessOwner || l == AccessEditor
}

// Baby is the shared child record caregivers hold access grants to.
type Baby struct {
	ID          string
	Name        string
	BirthDate   time.Time // zero when unknown
	OwnerUserID string
	ArchivedAt  time.Time // zero when not archived
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Archived reports whether the baby record has been archived server-side.
func (b Baby) Archived() bool { return !b.ArchivedAt.IsZero() }

// AccessGrant binds a user to a baby at a given access level.
// The (BabyID, UserID) pair is the composite key and the unit of revocation.
type AccessGrant struct {
	BabyID         string
	UserID         string
	Level          AccessLevel
	CaregiverLabel string
	LastAccessedAt time.Time
}
