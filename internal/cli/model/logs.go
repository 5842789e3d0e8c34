package model

import "time"

type FeedMethod string

const (
	FeedBreast FeedMethod = "breast"
	FeedBottle FeedMethod = "bottle"
)

type FeedSide string

const (
	SideLeft  FeedSide = "left"
	SideRight FeedSide = "right"
)

// FeedLog records a single feed. Bottle feeds carry AmountML, breast feeds
// carry DurationMinutes and EndSide.
type FeedLog struct {
	ID              string
	BabyID          string
	LoggedByUserID  string
	Method          FeedMethod
	StartedAt       time.Time
	EndedAt         time.Time // zero when instantaneous or unknown
	DurationMinutes int
	AmountML        float64
	IsEstimated     bool
	EndSide         FeedSide
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type SleepLog struct {
	ID              string
	BabyID          string
	LoggedByUserID  string
	StartedAt       time.Time
	EndedAt         time.Time // zero while the sleep is ongoing
	DurationMinutes int
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type NappyType string

const (
	NappyWee   NappyType = "wee"
	NappyPoo   NappyType = "poo"
	NappyMixed NappyType = "mixed"
	NappyDry   NappyType = "dry"
)

type NappyLog struct {
	ID             string
	BabyID         string
	LoggedByUserID string
	Type           NappyType
	Colour         string
	Consistency    string
	StartedAt      time.Time // instant event, no end time
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type SolidsLog struct {
	ID             string
	BabyID         string
	LoggedByUserID string
	Food           string // display text: "Apple, Pear, Carrot"
	Reaction       string // allergic | hate | liked | loved
	StartedAt      time.Time
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type GrowthLog struct {
	ID             string
	BabyID         string
	LoggedByUserID string
	WeightG        float64
	HeightCM       float64
	HeadCM         float64
	MeasuredAt     time.Time
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type BathLog struct {
	ID             string
	BabyID         string
	LoggedByUserID string
	StartedAt      time.Time
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type MedicationLog struct {
	ID             string
	BabyID         string
	LoggedByUserID string
	Name           string
	DoseAmount     float64
	DoseUnit       string
	GivenAt        time.Time
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type PumpingLog struct {
	ID              string
	BabyID          string
	LoggedByUserID  string
	Side            FeedSide
	AmountML        float64
	DurationMinutes int
	StartedAt       time.Time
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ActivityLog is the generic catch-all for activities without a dedicated
// table (tummy time, play, outdoors, ...).
type ActivityLog struct {
	ID             string
	BabyID         string
	LoggedByUserID string
	Kind           string
	StartedAt      time.Time
	EndedAt        time.Time
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
