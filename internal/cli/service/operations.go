package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"BabyKeeper/internal/cli/api"
	"BabyKeeper/internal/cli/model"
)

// Local mutations. Every write commits the domain row and its outbox entry in
// one transaction, so a crash can never record an activity the sync loop does
// not know about, or queue a mutation for a row that was never written.

var ErrNotFound = errors.New("record not found")

// submit runs write(tx) and appends the outbox entry atomically.
func (e *Engine) submit(write func(tx *sql.Tx) error, entry model.OutboxEntry, touched ...string) error {
	entry.MutationID = uuid.NewString()
	entry.CreatedAt = time.Now()
	return e.store.WithTx(func(tx *sql.Tx) error {
		if err := write(tx); err != nil {
			return err
		}
		return e.Outbox.Enqueue(tx, entry)
	}, append(touched, "outbox")...)
}

func marshalPayload(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// DTOs contain only plain fields; a marshal failure is a programming
		// error, not a runtime condition.
		panic(fmt.Sprintf("marshal outbox payload: %v", err))
	}
	return b
}

// deletePayload is the minimal body for a delete mutation.
func deletePayload(id string) []byte {
	return marshalPayload(map[string]string{"id": id})
}

// stamp fills identity and bookkeeping fields common to all log writes.
func (e *Engine) stamp(id *string, babyID string, loggedBy *string, created, updated *time.Time, op model.Operation) error {
	userID, err := e.requireEdit(babyID)
	if err != nil {
		return err
	}
	now := time.Now()
	if op == model.OpCreate {
		if *id == "" {
			*id = uuid.NewString()
		}
		*loggedBy = userID
		*created = now
	}
	*updated = now
	return nil
}

// ---- feed ----

func (e *Engine) CreateFeed(l model.FeedLog) (model.FeedLog, error) {
	if l.Method != model.FeedBreast && l.Method != model.FeedBottle {
		return l, fmt.Errorf("feed method must be breast or bottle, got %q", l.Method)
	}
	if l.StartedAt.IsZero() {
		l.StartedAt = time.Now()
	}
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpCreate); err != nil {
		return l, err
	}
	return l, e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertFeed(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityFeedLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpCreate, Payload: marshalPayload(api.FromFeedLog(l)),
	}, "feed_logs")
}

func (e *Engine) UpdateFeed(l model.FeedLog) error {
	existing, err := e.Logs.GetFeed(l.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	l.BabyID, l.LoggedByUserID, l.CreatedAt = existing.BabyID, existing.LoggedByUserID, existing.CreatedAt
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpUpdate); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertFeed(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityFeedLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpUpdate, Payload: marshalPayload(api.FromFeedLog(l)),
	}, "feed_logs")
}

func (e *Engine) DeleteFeed(id string) error {
	existing, err := e.Logs.GetFeed(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if _, err := e.requireEdit(existing.BabyID); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.DeleteFeed(tx, id)
	}, model.OutboxEntry{
		EntityType: model.EntityFeedLog, EntityID: id, BabyID: existing.BabyID,
		Op: model.OpDelete, Payload: deletePayload(id),
	}, "feed_logs")
}

// ---- sleep ----

func (e *Engine) CreateSleep(l model.SleepLog) (model.SleepLog, error) {
	if l.StartedAt.IsZero() {
		l.StartedAt = time.Now()
	}
	if !l.EndedAt.IsZero() && l.EndedAt.Before(l.StartedAt) {
		return l, errors.New("sleep cannot end before it starts")
	}
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpCreate); err != nil {
		return l, err
	}
	return l, e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertSleep(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntitySleepLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpCreate, Payload: marshalPayload(api.FromSleepLog(l)),
	}, "sleep_logs")
}

func (e *Engine) UpdateSleep(l model.SleepLog) error {
	existing, err := e.Logs.GetSleep(l.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	l.BabyID, l.LoggedByUserID, l.CreatedAt = existing.BabyID, existing.LoggedByUserID, existing.CreatedAt
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpUpdate); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertSleep(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntitySleepLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpUpdate, Payload: marshalPayload(api.FromSleepLog(l)),
	}, "sleep_logs")
}

func (e *Engine) DeleteSleep(id string) error {
	existing, err := e.Logs.GetSleep(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if _, err := e.requireEdit(existing.BabyID); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.DeleteSleep(tx, id)
	}, model.OutboxEntry{
		EntityType: model.EntitySleepLog, EntityID: id, BabyID: existing.BabyID,
		Op: model.OpDelete, Payload: deletePayload(id),
	}, "sleep_logs")
}

// ---- nappy ----

func (e *Engine) CreateNappy(l model.NappyLog) (model.NappyLog, error) {
	switch l.Type {
	case model.NappyWee, model.NappyPoo, model.NappyMixed, model.NappyDry:
	default:
		return l, fmt.Errorf("unknown nappy type %q", l.Type)
	}
	if l.StartedAt.IsZero() {
		l.StartedAt = time.Now()
	}
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpCreate); err != nil {
		return l, err
	}
	return l, e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertNappy(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityNappyLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpCreate, Payload: marshalPayload(api.FromNappyLog(l)),
	}, "nappy_logs")
}

func (e *Engine) UpdateNappy(l model.NappyLog) error {
	existing, err := e.Logs.GetNappy(l.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	l.BabyID, l.LoggedByUserID, l.CreatedAt = existing.BabyID, existing.LoggedByUserID, existing.CreatedAt
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpUpdate); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertNappy(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityNappyLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpUpdate, Payload: marshalPayload(api.FromNappyLog(l)),
	}, "nappy_logs")
}

func (e *Engine) DeleteNappy(id string) error {
	existing, err := e.Logs.GetNappy(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if _, err := e.requireEdit(existing.BabyID); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.DeleteNappy(tx, id)
	}, model.OutboxEntry{
		EntityType: model.EntityNappyLog, EntityID: id, BabyID: existing.BabyID,
		Op: model.OpDelete, Payload: deletePayload(id),
	}, "nappy_logs")
}

// ---- solids ----

func (e *Engine) CreateSolids(l model.SolidsLog) (model.SolidsLog, error) {
	if l.Food == "" {
		return l, errors.New("solids log needs a food")
	}
	if l.StartedAt.IsZero() {
		l.StartedAt = time.Now()
	}
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpCreate); err != nil {
		return l, err
	}
	return l, e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertSolids(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntitySolidsLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpCreate, Payload: marshalPayload(api.FromSolidsLog(l)),
	}, "solids_logs")
}

func (e *Engine) UpdateSolids(l model.SolidsLog) error {
	existing, err := e.Logs.GetSolids(l.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	l.BabyID, l.LoggedByUserID, l.CreatedAt = existing.BabyID, existing.LoggedByUserID, existing.CreatedAt
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpUpdate); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertSolids(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntitySolidsLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpUpdate, Payload: marshalPayload(api.FromSolidsLog(l)),
	}, "solids_logs")
}

func (e *Engine) DeleteSolids(id string) error {
	existing, err := e.Logs.GetSolids(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if _, err := e.requireEdit(existing.BabyID); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.DeleteSolids(tx, id)
	}, model.OutboxEntry{
		EntityType: model.EntitySolidsLog, EntityID: id, BabyID: existing.BabyID,
		Op: model.OpDelete, Payload: deletePayload(id),
	}, "solids_logs")
}

// ---- growth ----

func (e *Engine) CreateGrowth(l model.GrowthLog) (model.GrowthLog, error) {
	if l.WeightG <= 0 && l.HeightCM <= 0 && l.HeadCM <= 0 {
		return l, errors.New("growth log needs at least one measurement")
	}
	if l.MeasuredAt.IsZero() {
		l.MeasuredAt = time.Now()
	}
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpCreate); err != nil {
		return l, err
	}
	return l, e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertGrowth(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityGrowthLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpCreate, Payload: marshalPayload(api.FromGrowthLog(l)),
	}, "growth_logs")
}

func (e *Engine) UpdateGrowth(l model.GrowthLog) error {
	existing, err := e.Logs.GetGrowth(l.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	l.BabyID, l.LoggedByUserID, l.CreatedAt = existing.BabyID, existing.LoggedByUserID, existing.CreatedAt
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpUpdate); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertGrowth(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityGrowthLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpUpdate, Payload: marshalPayload(api.FromGrowthLog(l)),
	}, "growth_logs")
}

func (e *Engine) DeleteGrowth(id string) error {
	existing, err := e.Logs.GetGrowth(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if _, err := e.requireEdit(existing.BabyID); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.DeleteGrowth(tx, id)
	}, model.OutboxEntry{
		EntityType: model.EntityGrowthLog, EntityID: id, BabyID: existing.BabyID,
		Op: model.OpDelete, Payload: deletePayload(id),
	}, "growth_logs")
}

// ---- bath ----

func (e *Engine) CreateBath(l model.BathLog) (model.BathLog, error) {
	if l.StartedAt.IsZero() {
		l.StartedAt = time.Now()
	}
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpCreate); err != nil {
		return l, err
	}
	return l, e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertBath(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityBathLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpCreate, Payload: marshalPayload(api.FromBathLog(l)),
	}, "bath_logs")
}

func (e *Engine) UpdateBath(l model.BathLog) error {
	existing, err := e.Logs.GetBath(l.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	l.BabyID, l.LoggedByUserID, l.CreatedAt = existing.BabyID, existing.LoggedByUserID, existing.CreatedAt
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpUpdate); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertBath(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityBathLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpUpdate, Payload: marshalPayload(api.FromBathLog(l)),
	}, "bath_logs")
}

func (e *Engine) DeleteBath(id string) error {
	existing, err := e.Logs.GetBath(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if _, err := e.requireEdit(existing.BabyID); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.DeleteBath(tx, id)
	}, model.OutboxEntry{
		EntityType: model.EntityBathLog, EntityID: id, BabyID: existing.BabyID,
		Op: model.OpDelete, Payload: deletePayload(id),
	}, "bath_logs")
}

// ---- medication ----

func (e *Engine) CreateMedication(l model.MedicationLog) (model.MedicationLog, error) {
	if l.Name == "" {
		return l, errors.New("medication log needs a name")
	}
	if l.GivenAt.IsZero() {
		l.GivenAt = time.Now()
	}
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpCreate); err != nil {
		return l, err
	}
	return l, e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertMedication(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityMedicationLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpCreate, Payload: marshalPayload(api.FromMedicationLog(l)),
	}, "medication_logs")
}

func (e *Engine) UpdateMedication(l model.MedicationLog) error {
	existing, err := e.Logs.GetMedication(l.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	l.BabyID, l.LoggedByUserID, l.CreatedAt = existing.BabyID, existing.LoggedByUserID, existing.CreatedAt
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpUpdate); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertMedication(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityMedicationLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpUpdate, Payload: marshalPayload(api.FromMedicationLog(l)),
	}, "medication_logs")
}

func (e *Engine) DeleteMedication(id string) error {
	existing, err := e.Logs.GetMedication(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if _, err := e.requireEdit(existing.BabyID); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.DeleteMedication(tx, id)
	}, model.OutboxEntry{
		EntityType: model.EntityMedicationLog, EntityID: id, BabyID: existing.BabyID,
		Op: model.OpDelete, Payload: deletePayload(id),
	}, "medication_logs")
}

// ---- pumping ----

func (e *Engine) CreatePumping(l model.PumpingLog) (model.PumpingLog, error) {
	if l.StartedAt.IsZero() {
		l.StartedAt = time.Now()
	}
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpCreate); err != nil {
		return l, err
	}
	return l, e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertPumping(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityPumpingLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpCreate, Payload: marshalPayload(api.FromPumpingLog(l)),
	}, "pumping_logs")
}

func (e *Engine) UpdatePumping(l model.PumpingLog) error {
	existing, err := e.Logs.GetPumping(l.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	l.BabyID, l.LoggedByUserID, l.CreatedAt = existing.BabyID, existing.LoggedByUserID, existing.CreatedAt
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpUpdate); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertPumping(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityPumpingLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpUpdate, Payload: marshalPayload(api.FromPumpingLog(l)),
	}, "pumping_logs")
}

func (e *Engine) DeletePumping(id string) error {
	existing, err := e.Logs.GetPumping(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if _, err := e.requireEdit(existing.BabyID); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.DeletePumping(tx, id)
	}, model.OutboxEntry{
		EntityType: model.EntityPumpingLog, EntityID: id, BabyID: existing.BabyID,
		Op: model.OpDelete, Payload: deletePayload(id),
	}, "pumping_logs")
}

// ---- generic activity ----

func (e *Engine) CreateActivity(l model.ActivityLog) (model.ActivityLog, error) {
	if l.Kind == "" {
		return l, errors.New("activity log needs a kind")
	}
	if l.StartedAt.IsZero() {
		l.StartedAt = time.Now()
	}
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpCreate); err != nil {
		return l, err
	}
	return l, e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertActivity(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityActivityLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpCreate, Payload: marshalPayload(api.FromActivityLog(l)),
	}, "activity_logs")
}

func (e *Engine) UpdateActivity(l model.ActivityLog) error {
	existing, err := e.Logs.GetActivity(l.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	l.BabyID, l.LoggedByUserID, l.CreatedAt = existing.BabyID, existing.LoggedByUserID, existing.CreatedAt
	if err := e.stamp(&l.ID, l.BabyID, &l.LoggedByUserID, &l.CreatedAt, &l.UpdatedAt, model.OpUpdate); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.UpsertActivity(tx, l)
	}, model.OutboxEntry{
		EntityType: model.EntityActivityLog, EntityID: l.ID, BabyID: l.BabyID,
		Op: model.OpUpdate, Payload: marshalPayload(api.FromActivityLog(l)),
	}, "activity_logs")
}

func (e *Engine) DeleteActivity(id string) error {
	existing, err := e.Logs.GetActivity(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if _, err := e.requireEdit(existing.BabyID); err != nil {
		return err
	}
	return e.submit(func(tx *sql.Tx) error {
		return e.Logs.DeleteActivity(tx, id)
	}, model.OutboxEntry{
		EntityType: model.EntityActivityLog, EntityID: id, BabyID: existing.BabyID,
		Op: model.OpDelete, Payload: deletePayload(id),
	}, "activity_logs")
}

// SelectBaby switches the active baby and bumps the grant's last-accessed
// marker. Selection is local state and never enters the outbox.
func (e *Engine) SelectBaby(babyID string) error {
	userID, err := e.currentUserID()
	if err != nil {
		return err
	}
	b, err := e.Entities.GetBaby(babyID)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrNotFound
	}
	if err := e.Entities.SetActiveBaby(babyID); err != nil {
		return err
	}
	return e.Entities.TouchAccess(babyID, userID, time.Now())
}
