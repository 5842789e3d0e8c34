package model

import "time"

// EntityType tags rows on the wire and in the outbox.
type EntityType string

const (
	EntityUser          EntityType = "user"
	EntityBaby          EntityType = "baby"
	EntityBabyAccess    EntityType = "baby_access"
	EntityFeedLog       EntityType = "feed_log"
	EntitySleepLog      EntityType = "sleep_log"
	EntityNappyLog      EntityType = "nappy_log"
	EntitySolidsLog     EntityType = "solids_log"
	EntityGrowthLog     EntityType = "growth_log"
	EntityBathLog       EntityType = "bath_log"
	EntityMedicationLog EntityType = "medication_log"
	EntityPumpingLog    EntityType = "pumping_log"
	EntityActivityLog   EntityType = "activity_log"
)

// LogEntityTypes lists the per-activity tables, i.e. every entity type whose
// payload carries a babyId.
var LogEntityTypes = []EntityType{
	EntityFeedLog, EntitySleepLog, EntityNappyLog, EntitySolidsLog,
	EntityGrowthLog, EntityBathLog, EntityMedicationLog, EntityPumpingLog,
	EntityActivityLog,
}

// IsLogEntity reports whether t is one of the activity log tables.
func IsLogEntity(t EntityType) bool {
	for _, lt := range LogEntityTypes {
		if lt == t {
			return true
		}
	}
	return false
}

type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSyncing OutboxStatus = "syncing"
	OutboxSynced  OutboxStatus = "synced"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxEntry is one queued, not-yet-confirmed local mutation. Payload holds
// the full intended post-write state as JSON, never a diff.
type OutboxEntry struct {
	MutationID    string
	EntityType    EntityType
	EntityID      string
	BabyID        string // empty for mutations not scoped to a baby
	Op            Operation
	Payload       []byte
	Status        OutboxStatus
	ErrorMessage  string
	CreatedAt     time.Time
	LastAttemptAt time.Time
}

// SyncCursor is the per-baby watermark into the server change log.
// It only ever moves forward.
type SyncCursor struct {
	BabyID     string
	Cursor     int64
	LastSyncAt time.Time
}

type SyncStatusValue string

const (
	SyncIdle     SyncStatusValue = "idle"
	SyncRunning  SyncStatusValue = "syncing"
	SyncComplete SyncStatusValue = "complete"
	SyncError    SyncStatusValue = "error"
)

// SyncStatus is observational per-category state for the UI; it is not
// correctness-critical.
type SyncStatus struct {
	EntityType   EntityType
	Status       SyncStatusValue
	LastSyncAt   time.Time
	ErrorMessage string
	Progress     int // 0-100, -1 when unknown
}
