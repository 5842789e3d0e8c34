package model

import "time"

// User is the server-side account row. IDs are numeric here; they are
// rendered as strings on the wire so clients never depend on the storage
// representation.
type User struct {
	ID            int64  `gorm:"primaryKey"`
	Login         string `gorm:"uniqueIndex;size:255"` // email
	Password      string // bcrypt hash
	ExternalID    string `gorm:"size:64"`
	FirstName     string `gorm:"size:255"`
	DefaultBabyID string `gorm:"size:36"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
