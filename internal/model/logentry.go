package model

import "time"

// LogEntry is the generic activity-log row. The server does not model each
// activity type; it stores the client's JSON payload verbatim, keyed by type,
// and indexes only the columns queries need. Clients own the schema of Data.
type LogEntry struct {
	ID        string `gorm:"primaryKey;size:36"`
	BabyID    string `gorm:"index;size:36"`
	Type      string `gorm:"index;size:32"`
	UserID    int64  // caregiver who logged it
	Data      []byte // the full entity JSON as the client sent it
	StartedAt time.Time `gorm:"index"`
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
