package service

import (
	"context"
	"database/sql"
	"fmt"

	"BabyKeeper/internal/cli/api"
)

// NeedsBootstrap reports whether the local store is cold (no cached user).
func (e *Engine) NeedsBootstrap() (bool, error) {
	u, err := e.Entities.GetUser()
	if err != nil {
		return false, err
	}
	return u == nil, nil
}

// Bootstrap seeds a cold store with the full server snapshot: the user, every
// accessible baby with its grant, a recent window of activity logs, and the
// per-baby cursors at the snapshot watermark. Seeding cursors from the
// snapshot means the first delta pull picks up exactly where the snapshot
// ends, with no gap and no replay of the whole history.
func (e *Engine) Bootstrap(ctx context.Context) (api.Status, string) {
	resp, st, msg := e.client.Bootstrap(ctx)
	if st != api.StatusOK {
		return st, msg
	}

	user, err := resp.User.Decode()
	if err != nil {
		return api.StatusInvalid, err.Error()
	}

	err = e.store.WithTx(func(tx *sql.Tx) error {
		if err := e.Entities.UpsertUser(tx, user); err != nil {
			return err
		}
		for _, d := range resp.Babies {
			b, err := d.Decode()
			if err != nil {
				return err
			}
			if err := e.Entities.UpsertBaby(tx, b); err != nil {
				return err
			}
		}
		for _, d := range resp.BabyAccess {
			g, err := d.Decode()
			if err != nil {
				return err
			}
			if err := e.Entities.UpsertAccess(tx, g); err != nil {
				return err
			}
		}
		for _, rec := range resp.RecentLogs {
			if err := e.applyChange(tx, rec); err != nil {
				return err
			}
		}
		for babyID, cursor := range resp.CursorsByBaby {
			if _, err := tx.Exec(`INSERT INTO sync_cursors(baby_id, cursor, last_sync_at)
                VALUES(?, ?, strftime('%s','now'))
                ON CONFLICT(baby_id) DO UPDATE SET cursor = excluded.cursor
                WHERE excluded.cursor > sync_cursors.cursor`, babyID, cursor); err != nil {
				return err
			}
		}
		return nil
	}, "users", "babies", "baby_access", "sync_cursors",
		"feed_logs", "sleep_logs", "nappy_logs", "solids_logs", "growth_logs",
		"bath_logs", "medication_logs", "pumping_logs", "activity_logs")
	if err != nil {
		return api.StatusInvalid, fmt.Sprintf("apply bootstrap snapshot: %v", err)
	}

	// Pick an initial active baby: the user's default, else the first listed.
	active, err := e.Entities.ActiveBaby()
	if err == nil && active == "" {
		pick := user.DefaultBabyID
		if pick == "" && len(resp.Babies) > 0 {
			pick = resp.Babies[0].ID
		}
		if pick != "" {
			if err := e.Entities.SetActiveBaby(pick); err != nil {
				e.log.Warnw("failed to set initial active baby", "err", err)
			}
		}
	}

	if err := e.Session.Save(user.ID, user.ExternalID, e.cfg.SessionTTL); err != nil {
		e.log.Warnw("failed to record auth session", "err", err)
	}
	e.events.Publish(Event{Kind: EventSuccess, Message: "local data ready"})
	return api.StatusOK, ""
}
