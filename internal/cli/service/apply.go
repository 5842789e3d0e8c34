package service

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"BabyKeeper/internal/cli/api"
	"BabyKeeper/internal/cli/model"
)

// Appliers for pulled change records. Every applier is a pure id-keyed
// upsert or delete, so replaying a batch after a partial failure converges
// to the same state.

// applyChange routes one change record to its table. Records with an unknown
// type are skipped with a warning: an older client must not fail a whole
// batch because the server learned a new entity type.
func (e *Engine) applyChange(tx *sql.Tx, rec api.ChangeRecord) error {
	t := model.EntityType(rec.Type)
	if rec.Op == string(model.OpDelete) {
		return e.applyDelete(tx, t, rec.ID)
	}
	switch t {
	case model.EntityUser:
		return decodeApply(rec, func(d api.UserDTO) error {
			u, err := d.Decode()
			if err != nil {
				return err
			}
			return e.Entities.UpsertUser(tx, u)
		})
	case model.EntityBaby:
		return decodeApply(rec, func(d api.BabyDTO) error {
			b, err := d.Decode()
			if err != nil {
				return err
			}
			return e.Entities.UpsertBaby(tx, b)
		})
	case model.EntityBabyAccess:
		return decodeApply(rec, func(d api.AccessDTO) error {
			g, err := d.Decode()
			if err != nil {
				return err
			}
			return e.Entities.UpsertAccess(tx, g)
		})
	case model.EntityFeedLog:
		return decodeApply(rec, func(d api.FeedLogDTO) error {
			l, err := d.Decode()
			if err != nil {
				return err
			}
			return e.Logs.UpsertFeed(tx, l)
		})
	case model.EntitySleepLog:
		return decodeApply(rec, func(d api.SleepLogDTO) error {
			l, err := d.Decode()
			if err != nil {
				return err
			}
			return e.Logs.UpsertSleep(tx, l)
		})
	case model.EntityNappyLog:
		return decodeApply(rec, func(d api.NappyLogDTO) error {
			l, err := d.Decode()
			if err != nil {
				return err
			}
			return e.Logs.UpsertNappy(tx, l)
		})
	case model.EntitySolidsLog:
		return decodeApply(rec, func(d api.SolidsLogDTO) error {
			l, err := d.Decode()
			if err != nil {
				return err
			}
			return e.Logs.UpsertSolids(tx, l)
		})
	case model.EntityGrowthLog:
		return decodeApply(rec, func(d api.GrowthLogDTO) error {
			l, err := d.Decode()
			if err != nil {
				return err
			}
			return e.Logs.UpsertGrowth(tx, l)
		})
	case model.EntityBathLog:
		return decodeApply(rec, func(d api.BathLogDTO) error {
			l, err := d.Decode()
			if err != nil {
				return err
			}
			return e.Logs.UpsertBath(tx, l)
		})
	case model.EntityMedicationLog:
		return decodeApply(rec, func(d api.MedicationLogDTO) error {
			l, err := d.Decode()
			if err != nil {
				return err
			}
			return e.Logs.UpsertMedication(tx, l)
		})
	case model.EntityPumpingLog:
		return decodeApply(rec, func(d api.PumpingLogDTO) error {
			l, err := d.Decode()
			if err != nil {
				return err
			}
			return e.Logs.UpsertPumping(tx, l)
		})
	case model.EntityActivityLog:
		return decodeApply(rec, func(d api.ActivityLogDTO) error {
			l, err := d.Decode()
			if err != nil {
				return err
			}
			return e.Logs.UpsertActivity(tx, l)
		})
	default:
		e.log.Warnw("skipping change with unknown entity type", "type", rec.Type, "id", rec.ID)
		return nil
	}
}

func (e *Engine) applyDelete(tx *sql.Tx, t model.EntityType, id string) error {
	switch t {
	case model.EntityFeedLog:
		return e.Logs.DeleteFeed(tx, id)
	case model.EntitySleepLog:
		return e.Logs.DeleteSleep(tx, id)
	case model.EntityNappyLog:
		return e.Logs.DeleteNappy(tx, id)
	case model.EntitySolidsLog:
		return e.Logs.DeleteSolids(tx, id)
	case model.EntityGrowthLog:
		return e.Logs.DeleteGrowth(tx, id)
	case model.EntityBathLog:
		return e.Logs.DeleteBath(tx, id)
	case model.EntityMedicationLog:
		return e.Logs.DeleteMedication(tx, id)
	case model.EntityPumpingLog:
		return e.Logs.DeletePumping(tx, id)
	case model.EntityActivityLog:
		return e.Logs.DeleteActivity(tx, id)
	case model.EntityBabyAccess, model.EntityBaby:
		// Revocations and baby removals arrive through verify-access and
		// purge, not through the delta stream; a stray delete here is
		// ignored rather than half-purging.
		e.log.Warnw("ignoring delete for entity outside the delta stream", "type", t, "id", id)
		return nil
	default:
		e.log.Warnw("skipping delete with unknown entity type", "type", t, "id", id)
		return nil
	}
}

// tablesFor maps an entity type to the store table a change touches, for
// notifier invalidation.
func tablesFor(t model.EntityType) string {
	switch t {
	case model.EntityUser:
		return "users"
	case model.EntityBaby:
		return "babies"
	case model.EntityBabyAccess:
		return "baby_access"
	case model.EntityFeedLog:
		return "feed_logs"
	case model.EntitySleepLog:
		return "sleep_logs"
	case model.EntityNappyLog:
		return "nappy_logs"
	case model.EntitySolidsLog:
		return "solids_logs"
	case model.EntityGrowthLog:
		return "growth_logs"
	case model.EntityBathLog:
		return "bath_logs"
	case model.EntityMedicationLog:
		return "medication_logs"
	case model.EntityPumpingLog:
		return "pumping_logs"
	case model.EntityActivityLog:
		return "activity_logs"
	}
	return ""
}

func decodeApply[D any](rec api.ChangeRecord, apply func(D) error) error {
	var dto D
	if err := json.Unmarshal(rec.Data, &dto); err != nil {
		return fmt.Errorf("decode %s %s: %w", rec.Type, rec.ID, err)
	}
	return apply(dto)
}
