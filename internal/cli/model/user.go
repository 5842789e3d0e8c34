package model

import "time"

// User is the locally cached authenticated identity. The local store holds at
// most one row; it is created by bootstrap and updated by sync pulls.
type User struct {
	ID            string // local id, stored as string regardless of server representation
	ExternalID    string // identity-provider id
	Email         string
	FirstName     string
	DefaultBabyID string // empty when no default is set
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AuthSession is the cached session marker used to answer "am I still
// nominally signed in" without network access.
type AuthSession struct {
	UserID     string
	ExternalID string
	LastAuthAt time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the offline access window has closed.
func (s AuthSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
