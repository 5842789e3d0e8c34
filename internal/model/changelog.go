package model

import "time"

// ChangeEntry is one record of the per-baby change log the delta pull walks.
// Seq is a strictly increasing server-assigned sequence; clients store the
// highest Seq they applied as their cursor and never interpret it beyond
// ordering.
type ChangeEntry struct {
	Seq        int64  `gorm:"primaryKey;autoIncrement"`
	BabyID     string `gorm:"index;size:36"`
	EntityType string `gorm:"size:32"`
	EntityID   string `gorm:"size:36"`
	Op         string `gorm:"size:16"` // create | update | delete
	Data       []byte // post-write state, empty for deletes
	CreatedAt  time.Time
}
