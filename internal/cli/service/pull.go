package service

import (
	"context"
	"database/sql"
	"time"

	"BabyKeeper/internal/cli/api"
	"BabyKeeper/internal/cli/model"
)

// maxPullPages bounds a single pull cycle. A device that was offline for
// weeks catches up over several ticks instead of holding one tick hostage.
const maxPullPages = 10

// PullBaby drains the server change log for one baby from the local cursor
// forward. Each page is applied and its cursor advance committed in one
// transaction: a crash between pages re-pulls only the unapplied tail, and
// re-applying is safe because every applier is an id-keyed upsert.
func (e *Engine) PullBaby(ctx context.Context, babyID string) (int, api.Status, string) {
	applied := 0
	touched := map[model.EntityType]struct{}{}

	for page := 0; page < maxPullPages; page++ {
		cursor, err := e.Cursors.Cursor(babyID)
		if err != nil {
			return applied, api.StatusInvalid, err.Error()
		}
		resp, st, msg := e.client.Pull(ctx, babyID, cursor, e.cfg.PullPageLimit)
		if st != api.StatusOK {
			if st == api.StatusDenied || st == api.StatusNotFound {
				e.suspectRevocation(ctx, babyID)
			}
			e.recordPullOutcome(touched, st, msg)
			return applied, st, msg
		}

		tables := []string{"sync_cursors"}
		err = e.store.WithTx(func(tx *sql.Tx) error {
			for _, rec := range resp.Changes {
				if err := e.applyChange(tx, rec); err != nil {
					return err
				}
				t := model.EntityType(rec.Type)
				touched[t] = struct{}{}
				if tbl := tablesFor(t); tbl != "" {
					tables = append(tables, tbl)
				}
			}
			return e.Cursors.Advance(tx, babyID, resp.NextCursor, time.Now())
		}, tables...)
		if err != nil {
			e.recordPullOutcome(touched, api.StatusInvalid, err.Error())
			return applied, api.StatusInvalid, err.Error()
		}
		applied += len(resp.Changes)
		if !resp.HasMore {
			break
		}
	}

	e.recordPullOutcome(touched, api.StatusOK, "")
	return applied, api.StatusOK, ""
}

// recordPullOutcome updates the observational per-category status rows. This
// is display state only; failures here are logged and swallowed.
func (e *Engine) recordPullOutcome(touched map[model.EntityType]struct{}, st api.Status, msg string) {
	// Always reflect the overall outcome on the baby category so the status
	// view has something to show even when a pull returned no changes.
	touched[model.EntityBaby] = struct{}{}
	status := model.SyncComplete
	if st != api.StatusOK {
		status = model.SyncError
	}
	for t := range touched {
		err := e.Cursors.SetStatus(model.SyncStatus{
			EntityType:   t,
			Status:       status,
			LastSyncAt:   time.Now(),
			ErrorMessage: msg,
			Progress:     -1,
		})
		if err != nil {
			e.log.Warnw("failed to record sync status", "entityType", t, "err", err)
		}
	}
}
