package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"BabyKeeper/internal/cli/model"
)

// Wire DTOs. Timestamps travel as RFC3339 strings, entity ids as strings
// regardless of server-side representation (legacy integer rows included).
// Each DTO decodes into a validated domain value at the sync boundary;
// unrecognized or malformed shapes are rejected, never cast through.

// ChangeRecord is one entry of a delta pull: the complete post-write state
// of a row, or a deletion marker.
type ChangeRecord struct {
	Type       string          `json:"type"`
	Op         string          `json:"op"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data,omitempty"`
	SequenceID int64           `json:"sequenceId"`
	CreatedAt  string          `json:"createdAt"`
}

type PullResponse struct {
	Changes    []ChangeRecord `json:"changes"`
	NextCursor int64          `json:"nextCursor"`
	HasMore    bool           `json:"hasMore"`
}

type PushMutation struct {
	MutationID string          `json:"mutationId"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Op         string          `json:"op"`
	Payload    json.RawMessage `json:"payload"`
}

type PushRequest struct {
	Mutations []PushMutation `json:"mutations"`
}

// Per-mutation result statuses.
const (
	ResultSuccess  = "success"
	ResultConflict = "conflict"
	ResultDenied   = "denied"
	ResultInvalid  = "invalid"
)

type MutationResult struct {
	MutationID string          `json:"mutationId"`
	Status     string          `json:"status"`
	EntityType string          `json:"entityType,omitempty"`
	ServerData json.RawMessage `json:"serverData,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type PushResponse struct {
	Results []MutationResult `json:"results"`
}

type VerifyAccessResponse struct {
	HasAccess bool   `json:"hasAccess"`
	Reason    string `json:"reason,omitempty"` // no_access | baby_not_found
}

type LoginResponse struct {
	UserID     string `json:"userId"`
	ExternalID string `json:"externalId"`
}

type CreateBabyRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate,omitempty"`
}

type CreateBabyResponse struct {
	Baby   BabyDTO   `json:"baby"`
	Access AccessDTO `json:"access"`
}

type BootstrapResponse struct {
	User           UserDTO          `json:"user"`
	Babies         []BabyDTO        `json:"babies"`
	BabyAccess     []AccessDTO      `json:"babyAccess"`
	RecentLogs     []ChangeRecord   `json:"recentLogs"`
	CursorsByBaby  map[string]int64 `json:"cursors"`
	ServerTime     string           `json:"serverTime"`
}

// ---- time helpers ----

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ---- user ----

type UserDTO struct {
	ID            string `json:"id"`
	ExternalID    string `json:"externalId"`
	Email         string `json:"email,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	DefaultBabyID string `json:"defaultBabyId,omitempty"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

func (d UserDTO) Decode() (model.User, error) {
	if d.ID == "" {
		return model.User{}, errors.New("user: missing id")
	}
	created, err := parseTime(d.CreatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("user %s: bad createdAt: %w", d.ID, err)
	}
	updated, err := parseTime(d.UpdatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("user %s: bad updatedAt: %w", d.ID, err)
	}
	return model.User{
		ID:            d.ID,
		ExternalID:    d.ExternalID,
		Email:         d.Email,
		FirstName:     d.FirstName,
		DefaultBabyID: d.DefaultBabyID,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}, nil
}

// ---- baby ----

type BabyDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BirthDate   string `json:"birthDate,omitempty"`
	OwnerUserID string `json:"ownerUserId,omitempty"`
	ArchivedAt  string `json:"archivedAt,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func (d BabyDTO) Decode() (model.Baby, error) {
	if d.ID == "" || d.Name == "" {
		return model.Baby{}, errors.New("baby: missing id or name")
	}
	birth, err := parseTime(d.BirthDate)
	if err != nil {
		return model.Baby{}, fmt.Errorf("baby %s: bad birthDate: %w", d.ID, err)
	}
	archived, err := parseTime(d.ArchivedAt)
	if err != nil {
		return model.Baby{}, fmt.Errorf("baby %s: bad archivedAt: %w", d.ID, err)
	}
	created, err := parseTime(d.CreatedAt)
	if err != nil {
		return model.Baby{}, fmt.Errorf("baby %s: bad createdAt: %w", d.ID, err)
	}
	updated, err := parseTime(d.UpdatedAt)
	if err != nil {
		return model.Baby{}, fmt.Errorf("baby %s: bad updatedAt: %w", d.ID, err)
	}
	return model.Baby{
		ID:          d.ID,
		Name:        d.Name,
		BirthDate:   birth,
		OwnerUserID: d.OwnerUserID,
		ArchivedAt:  archived,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

// ---- access grant ----

type AccessDTO struct {
	BabyID         string `json:"babyId"`
	UserID         string `json:"userId"`
	AccessLevel    string `json:"accessLevel"`
	CaregiverLabel string `json:"caregiverLabel,omitempty"`
	LastAccessedAt string `json:"lastAccessedAt,omitempty"`
}

func (d AccessDTO) Decode() (model.AccessGrant, error) {
	if d.BabyID == "" || d.UserID == "" {
		return model.AccessGrant{}, errors.New("access grant: missing babyId or userId")
	}
	switch model.AccessLevel(d.AccessLevel) {
	case model.AccessOwner, model.AccessEditor, model.AccessViewer:
	default:
		return model.AccessGrant{}, fmt.Errorf("access grant %s/%s: unknown level %q", d.BabyID, d.UserID, d.AccessLevel)
	}
	last, err := parseTime(d.LastAccessedAt)
	if err != nil {
		return model.AccessGrant{}, fmt.Errorf("access grant %s/%s: bad lastAccessedAt: %w", d.BabyID, d.UserID, err)
	}
	return model.AccessGrant{
		BabyID:         d.BabyID,
		UserID:         d.UserID,
		Level:          model.AccessLevel(d.AccessLevel),
		CaregiverLabel: d.CaregiverLabel,
		LastAccessedAt: last,
	}, nil
}

// ---- activity logs ----

type FeedLogDTO struct {
	ID              string  `json:"id"`
	BabyID          string  `json:"babyId"`
	LoggedByUserID  string  `json:"loggedByUserId"`
	Method          string  `json:"method"`
	StartedAt       string  `json:"startedAt"`
	EndedAt         string  `json:"endedAt,omitempty"`
	DurationMinutes int     `json:"durationMinutes,omitempty"`
	AmountML        float64 `json:"amountMl,omitempty"`
	IsEstimated     bool    `json:"isEstimated,omitempty"`
	EndSide         string  `json:"endSide,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func FromFeedLog(l model.FeedLog) FeedLogDTO {
	return FeedLogDTO{
		ID:              l.ID,
		BabyID:          l.BabyID,
		LoggedByUserID:  l.LoggedByUserID,
		Method:          string(l.Method),
		StartedAt:       formatTime(l.StartedAt),
		EndedAt:         formatTime(l.EndedAt),
		DurationMinutes: l.DurationMinutes,
		AmountML:        l.AmountML,
		IsEstimated:     l.IsEstimated,
		EndSide:         string(l.EndSide),
		Notes:           l.Notes,
		CreatedAt:       formatTime(l.CreatedAt),
		UpdatedAt:       formatTime(l.UpdatedAt),
	}
}

func (d FeedLogDTO) Decode() (model.FeedLog, error) {
	if d.ID == "" || d.BabyID == "" {
		return model.FeedLog{}, errors.New("feed log: missing id or babyId")
	}
	if d.Method != string(model.FeedBreast) && d.Method != string(model.FeedBottle) {
		return model.FeedLog{}, fmt.Errorf("feed log %s: unknown method %q", d.ID, d.Method)
	}
	times, err := parseTimes(d.StartedAt, d.EndedAt, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return model.FeedLog{}, fmt.Errorf("feed log %s: %w", d.ID, err)
	}
	return model.FeedLog{
		ID:              d.ID,
		BabyID:          d.BabyID,
		LoggedByUserID:  d.LoggedByUserID,
		Method:          model.FeedMethod(d.Method),
		StartedAt:       times[0],
		EndedAt:         times[1],
		DurationMinutes: d.DurationMinutes,
		AmountML:        d.AmountML,
		IsEstimated:     d.IsEstimated,
		EndSide:         model.FeedSide(d.EndSide),
		Notes:           d.Notes,
		CreatedAt:       times[2],
		UpdatedAt:       times[3],
	}, nil
}

type SleepLogDTO struct {
	ID              string `json:"id"`
	BabyID          string `json:"babyId"`
	LoggedByUserID  string `json:"loggedByUserId"`
	StartedAt       string `json:"startedAt"`
	EndedAt         string `json:"endedAt,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

func FromSleepLog(l model.SleepLog) SleepLogDTO {
	return SleepLogDTO{
		ID:              l.ID,
		BabyID:          l.BabyID,
		LoggedByUserID:  l.LoggedByUserID,
		StartedAt:       formatTime(l.StartedAt),
		EndedAt:         formatTime(l.EndedAt),
		DurationMinutes: l.DurationMinutes,
		Notes:           l.Notes,
		CreatedAt:       formatTime(l.CreatedAt),
		UpdatedAt:       formatTime(l.UpdatedAt),
	}
}

func (d SleepLogDTO) Decode() (model.SleepLog, error) {
	if d.ID == "" || d.BabyID == "" {
		return model.SleepLog{}, errors.New("sleep log: missing id or babyId")
	}
	times, err := parseTimes(d.StartedAt, d.EndedAt, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return model.SleepLog{}, fmt.Errorf("sleep log %s: %w", d.ID, err)
	}
	return model.SleepLog{
		ID:              d.ID,
		BabyID:          d.BabyID,
		LoggedByUserID:  d.LoggedByUserID,
		StartedAt:       times[0],
		EndedAt:         times[1],
		DurationMinutes: d.DurationMinutes,
		Notes:           d.Notes,
		CreatedAt:       times[2],
		UpdatedAt:       times[3],
	}, nil
}

type NappyLogDTO struct {
	ID             string `json:"id"`
	BabyID         string `json:"babyId"`
	LoggedByUserID string `json:"loggedByUserId"`
	Type           string `json:"type,omitempty"`
	Colour         string `json:"colour,omitempty"`
	Consistency    string `json:"consistency,omitempty"`
	StartedAt      string `json:"startedAt"`
	Notes          string `json:"notes,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

func FromNappyLog(l model.NappyLog) NappyLogDTO {
	return NappyLogDTO{
		ID:             l.ID,
		BabyID:         l.BabyID,
		LoggedByUserID: l.LoggedByUserID,
		Type:           string(l.Type),
		Colour:         l.Colour,
		Consistency:    l.Consistency,
		StartedAt:      formatTime(l.StartedAt),
		Notes:          l.Notes,
		CreatedAt:      formatTime(l.CreatedAt),
		UpdatedAt:      formatTime(l.UpdatedAt),
	}
}

func (d NappyLogDTO) Decode() (model.NappyLog, error) {
	if d.ID == "" || d.BabyID == "" {
		return model.NappyLog{}, errors.New("nappy log: missing id or babyId")
	}
	times, err := parseTimes(d.StartedAt, "", d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return model.NappyLog{}, fmt.Errorf("nappy log %s: %w", d.ID, err)
	}
	return model.NappyLog{
		ID:             d.ID,
		BabyID:         d.BabyID,
		LoggedByUserID: d.LoggedByUserID,
		Type:           model.NappyType(d.Type),
		Colour:         d.Colour,
		Consistency:    d.Consistency,
		StartedAt:      times[0],
		Notes:          d.Notes,
		CreatedAt:      times[2],
		UpdatedAt:      times[3],
	}, nil
}

type SolidsLogDTO struct {
	ID             string `json:"id"`
	BabyID         string `json:"babyId"`
	LoggedByUserID string `json:"loggedByUserId"`
	Food           string `json:"food"`
	Reaction       string `json:"reaction,omitempty"`
	StartedAt      string `json:"startedAt"`
	Notes          string `json:"notes,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

func FromSolidsLog(l model.SolidsLog) SolidsLogDTO {
	return SolidsLogDTO{
		ID:             l.ID,
		BabyID:         l.BabyID,
		LoggedByUserID: l.LoggedByUserID,
		Food:           l.Food,
		Reaction:       l.Reaction,
		StartedAt:      formatTime(l.StartedAt),
		Notes:          l.Notes,
		CreatedAt:      formatTime(l.CreatedAt),
		UpdatedAt:      formatTime(l.UpdatedAt),
	}
}

func (d SolidsLogDTO) Decode() (model.SolidsLog, error) {
	if d.ID == "" || d.BabyID == "" {
		return model.SolidsLog{}, errors.New("solids log: missing id or babyId")
	}
	times, err := parseTimes(d.StartedAt, "", d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return model.SolidsLog{}, fmt.Errorf("solids log %s: %w", d.ID, err)
	}
	return model.SolidsLog{
		ID:             d.ID,
		BabyID:         d.BabyID,
		LoggedByUserID: d.LoggedByUserID,
		Food:           d.Food,
		Reaction:       d.Reaction,
		StartedAt:      times[0],
		Notes:          d.Notes,
		CreatedAt:      times[2],
		UpdatedAt:      times[3],
	}, nil
}

type GrowthLogDTO struct {
	ID             string  `json:"id"`
	BabyID         string  `json:"babyId"`
	LoggedByUserID string  `json:"loggedByUserId"`
	WeightG        float64 `json:"weightG,omitempty"`
	HeightCM       float64 `json:"heightCm,omitempty"`
	HeadCM         float64 `json:"headCm,omitempty"`
	MeasuredAt     string  `json:"measuredAt"`
	Notes          string  `json:"notes,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

func FromGrowthLog(l model.GrowthLog) GrowthLogDTO {
	return GrowthLogDTO{
		ID:             l.ID,
		BabyID:         l.BabyID,
		LoggedByUserID: l.LoggedByUserID,
		WeightG:        l.WeightG,
		HeightCM:       l.HeightCM,
		HeadCM:         l.HeadCM,
		MeasuredAt:     formatTime(l.MeasuredAt),
		Notes:          l.Notes,
		CreatedAt:      formatTime(l.CreatedAt),
		UpdatedAt:      formatTime(l.UpdatedAt),
	}
}

func (d GrowthLogDTO) Decode() (model.GrowthLog, error) {
	if d.ID == "" || d.BabyID == "" {
		return model.GrowthLog{}, errors.New("growth log: missing id or babyId")
	}
	times, err := parseTimes(d.MeasuredAt, "", d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return model.GrowthLog{}, fmt.Errorf("growth log %s: %w", d.ID, err)
	}
	return model.GrowthLog{
		ID:             d.ID,
		BabyID:         d.BabyID,
		LoggedByUserID: d.LoggedByUserID,
		WeightG:        d.WeightG,
		HeightCM:       d.HeightCM,
		HeadCM:         d.HeadCM,
		MeasuredAt:     times[0],
		Notes:          d.Notes,
		CreatedAt:      times[2],
		UpdatedAt:      times[3],
	}, nil
}

type BathLogDTO struct {
	ID             string `json:"id"`
	BabyID         string `json:"babyId"`
	LoggedByUserID string `json:"loggedByUserId"`
	StartedAt      string `json:"startedAt"`
	Notes          string `json:"notes,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

func FromBathLog(l model.BathLog) BathLogDTO {
	return BathLogDTO{
		ID:             l.ID,
		BabyID:         l.BabyID,
		LoggedByUserID: l.LoggedByUserID,
		StartedAt:      formatTime(l.StartedAt),
		Notes:          l.Notes,
		CreatedAt:      formatTime(l.CreatedAt),
		UpdatedAt:      formatTime(l.UpdatedAt),
	}
}

func (d BathLogDTO) Decode() (model.BathLog, error) {
	if d.ID == "" || d.BabyID == "" {
		return model.BathLog{}, errors.New("bath log: missing id or babyId")
	}
	times, err := parseTimes(d.StartedAt, "", d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return model.BathLog{}, fmt.Errorf("bath log %s: %w", d.ID, err)
	}
	return model.BathLog{
		ID:             d.ID,
		BabyID:         d.BabyID,
		LoggedByUserID: d.LoggedByUserID,
		StartedAt:      times[0],
		Notes:          d.Notes,
		CreatedAt:      times[2],
		UpdatedAt:      times[3],
	}, nil
}

type MedicationLogDTO struct {
	ID             string  `json:"id"`
	BabyID         string  `json:"babyId"`
	LoggedByUserID string  `json:"loggedByUserId"`
	Name           string  `json:"name"`
	DoseAmount     float64 `json:"doseAmount,omitempty"`
	DoseUnit       string  `json:"doseUnit,omitempty"`
	GivenAt        string  `json:"givenAt"`
	Notes          string  `json:"notes,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

func FromMedicationLog(l model.MedicationLog) MedicationLogDTO {
	return MedicationLogDTO{
		ID:             l.ID,
		BabyID:         l.BabyID,
		LoggedByUserID: l.LoggedByUserID,
		Name:           l.Name,
		DoseAmount:     l.DoseAmount,
		DoseUnit:       l.DoseUnit,
		GivenAt:        formatTime(l.GivenAt),
		Notes:          l.Notes,
		CreatedAt:      formatTime(l.CreatedAt),
		UpdatedAt:      formatTime(l.UpdatedAt),
	}
}

func (d MedicationLogDTO) Decode() (model.MedicationLog, error) {
	if d.ID == "" || d.BabyID == "" {
		return model.MedicationLog{}, errors.New("medication log: missing id or babyId")
	}
	times, err := parseTimes(d.GivenAt, "", d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return model.MedicationLog{}, fmt.Errorf("medication log %s: %w", d.ID, err)
	}
	return model.MedicationLog{
		ID:             d.ID,
		BabyID:         d.BabyID,
		LoggedByUserID: d.LoggedByUserID,
		Name:           d.Name,
		DoseAmount:     d.DoseAmount,
		DoseUnit:       d.DoseUnit,
		GivenAt:        times[0],
		Notes:          d.Notes,
		CreatedAt:      times[2],
		UpdatedAt:      times[3],
	}, nil
}

type PumpingLogDTO struct {
	ID              string  `json:"id"`
	BabyID          string  `json:"babyId"`
	LoggedByUserID  string  `json:"loggedByUserId"`
	Side            string  `json:"side,omitempty"`
	AmountML        float64 `json:"amountMl,omitempty"`
	DurationMinutes int     `json:"durationMinutes,omitempty"`
	StartedAt       string  `json:"startedAt"`
	Notes           string  `json:"notes,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func FromPumpingLog(l model.PumpingLog) PumpingLogDTO {
	return PumpingLogDTO{
		ID:              l.ID,
		BabyID:          l.BabyID,
		LoggedByUserID:  l.LoggedByUserID,
		Side:            string(l.Side),
		AmountML:        l.AmountML,
		DurationMinutes: l.DurationMinutes,
		StartedAt:       formatTime(l.StartedAt),
		Notes:           l.Notes,
		CreatedAt:       formatTime(l.CreatedAt),
		UpdatedAt:       formatTime(l.UpdatedAt),
	}
}

func (d PumpingLogDTO) Decode() (model.PumpingLog, error) {
	if d.ID == "" || d.BabyID == "" {
		return model.PumpingLog{}, errors.New("pumping log: missing id or babyId")
	}
	times, err := parseTimes(d.StartedAt, "", d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return model.PumpingLog{}, fmt.Errorf("pumping log %s: %w", d.ID, err)
	}
	return model.PumpingLog{
		ID:              d.ID,
		BabyID:          d.BabyID,
		LoggedByUserID:  d.LoggedByUserID,
		Side:            model.FeedSide(d.Side),
		AmountML:        d.AmountML,
		DurationMinutes: d.DurationMinutes,
		StartedAt:       times[0],
		Notes:           d.Notes,
		CreatedAt:       times[2],
		UpdatedAt:       times[3],
	}, nil
}

type ActivityLogDTO struct {
	ID             string `json:"id"`
	BabyID         string `json:"babyId"`
	LoggedByUserID string `json:"loggedByUserId"`
	Kind           string `json:"kind"`
	StartedAt      string `json:"startedAt"`
	EndedAt        string `json:"endedAt,omitempty"`
	Notes          string `json:"notes,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

func FromActivityLog(l model.ActivityLog) ActivityLogDTO {
	return ActivityLogDTO{
		ID:             l.ID,
		BabyID:         l.BabyID,
		LoggedByUserID: l.LoggedByUserID,
		Kind:           l.Kind,
		StartedAt:      formatTime(l.StartedAt),
		EndedAt:        formatTime(l.EndedAt),
		Notes:          l.Notes,
		CreatedAt:      formatTime(l.CreatedAt),
		UpdatedAt:      formatTime(l.UpdatedAt),
	}
}

func (d ActivityLogDTO) Decode() (model.ActivityLog, error) {
	if d.ID == "" || d.BabyID == "" {
		return model.ActivityLog{}, errors.New("activity log: missing id or babyId")
	}
	times, err := parseTimes(d.StartedAt, d.EndedAt, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return model.ActivityLog{}, fmt.Errorf("activity log %s: %w", d.ID, err)
	}
	return model.ActivityLog{
		ID:             d.ID,
		BabyID:         d.BabyID,
		LoggedByUserID: d.LoggedByUserID,
		Kind:           d.Kind,
		StartedAt:      times[0],
		EndedAt:        times[1],
		Notes:          d.Notes,
		CreatedAt:      times[2],
		UpdatedAt:      times[3],
	}, nil
}

// parseTimes parses (startedAt, endedAt, createdAt, updatedAt) in one go;
// startedAt is required, the rest may be empty.
func parseTimes(started, ended, created, updated string) ([4]time.Time, error) {
	var out [4]time.Time
	if started == "" {
		return out, errors.New("missing startedAt")
	}
	var err error
	if out[0], err = parseTime(started); err != nil {
		return out, fmt.Errorf("bad startedAt: %w", err)
	}
	if out[1], err = parseTime(ended); err != nil {
		return out, fmt.Errorf("bad endedAt: %w", err)
	}
	if out[2], err = parseTime(created); err != nil {
		return out, fmt.Errorf("bad createdAt: %w", err)
	}
	if out[3], err = parseTime(updated); err != nil {
		return out, fmt.Errorf("bad updatedAt: %w", err)
	}
	return out, nil
}
