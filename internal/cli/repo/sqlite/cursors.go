package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"BabyKeeper/internal/cli/model"
	"BabyKeeper/internal/cli/store"
)

// CursorRepo tracks the per-baby pull cursor and the observational
// per-category sync status rows.
type CursorRepo struct {
	s *store.Store
}

func NewCursorRepo(s *store.Store) *CursorRepo {
	return &CursorRepo{s: s}
}

// Cursor returns the last applied server sequence for the baby, 0 when the
// baby has never been pulled.
func (r *CursorRepo) Cursor(babyID string) (int64, error) {
	var c int64
	err := r.s.DB().QueryRow(`SELECT cursor FROM sync_cursors WHERE baby_id = ?`, babyID).Scan(&c)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return c, err
}

// Advance moves the cursor forward. A smaller or equal value is ignored:
// the cursor is monotonic and is never rewound except by wiping the row.
func (r *CursorRepo) Advance(q DBTX, babyID string, cursor int64, at time.Time) error {
	_, err := q.Exec(`INSERT INTO sync_cursors(baby_id, cursor, last_sync_at) VALUES(?, ?, ?)
        ON CONFLICT(baby_id) DO UPDATE SET
          cursor = excluded.cursor,
          last_sync_at = excluded.last_sync_at
        WHERE excluded.cursor > sync_cursors.cursor`,
		babyID, cursor, unix(at))
	return err
}

// Status returns the observational sync status for an entity category,
// an idle default when none is recorded.
func (r *CursorRepo) Status(entityType model.EntityType) (model.SyncStatus, error) {
	st := model.SyncStatus{EntityType: entityType, Status: model.SyncIdle, Progress: -1}
	var status string
	var lastSync int64
	err := r.s.DB().QueryRow(`SELECT status, last_sync_at, error_message, progress
        FROM sync_status WHERE entity_type = ?`, string(entityType)).
		Scan(&status, &lastSync, &st.ErrorMessage, &st.Progress)
	if errors.Is(err, sql.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.Status = model.SyncStatusValue(status)
	st.LastSyncAt = fromUnix(lastSync)
	return st, nil
}

// SetStatus records the latest sync outcome for an entity category.
func (r *CursorRepo) SetStatus(st model.SyncStatus) error {
	if st.LastSyncAt.IsZero() && st.Status == model.SyncComplete {
		st.LastSyncAt = time.Now()
	}
	return r.s.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO sync_status(entity_type, status, last_sync_at, error_message, progress)
            VALUES(?, ?, ?, ?, ?)
            ON CONFLICT(entity_type) DO UPDATE SET
              status = excluded.status,
              last_sync_at = excluded.last_sync_at,
              error_message = excluded.error_message,
              progress = excluded.progress`,
			string(st.EntityType), string(st.Status), unix(st.LastSyncAt), st.ErrorMessage, st.Progress)
		return err
	}, "sync_status")
}
