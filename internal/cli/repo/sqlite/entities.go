package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"BabyKeeper/internal/cli/model"
	"BabyKeeper/internal/cli/store"
)

// EntityRepo persists users, babies, access grants and the active-baby
// selection in the local store.
type EntityRepo struct {
	s *store.Store
}

func NewEntityRepo(s *store.Store) *EntityRepo {
	return &EntityRepo{s: s}
}

// UpsertUser writes the single cached user row.
func (r *EntityRepo) UpsertUser(q DBTX, u model.User) error {
	_, err := q.Exec(`INSERT INTO users(id, external_id, email, first_name, default_baby_id, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
          external_id = excluded.external_id,
          email = excluded.email,
          first_name = excluded.first_name,
          default_baby_id = excluded.default_baby_id,
          updated_at = excluded.updated_at`,
		u.ID, u.ExternalID, u.Email, u.FirstName, u.DefaultBabyID, unix(u.CreatedAt), unix(u.UpdatedAt))
	return err
}

// GetUser returns the cached user, or nil when the store is cold.
func (r *EntityRepo) GetUser() (*model.User, error) {
	var u model.User
	var created, updated int64
	err := r.s.DB().QueryRow(`SELECT id, external_id, email, first_name, default_baby_id, created_at, updated_at FROM users LIMIT 1`).
		Scan(&u.ID, &u.ExternalID, &u.Email, &u.FirstName, &u.DefaultBabyID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = fromUnix(created)
	u.UpdatedAt = fromUnix(updated)
	return &u, nil
}

func (r *EntityRepo) UpsertBaby(q DBTX, b model.Baby) error {
	_, err := q.Exec(`INSERT INTO babies(id, name, birth_date, owner_user_id, archived_at, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
          name = excluded.name,
          birth_date = excluded.birth_date,
          owner_user_id = excluded.owner_user_id,
          archived_at = excluded.archived_at,
          updated_at = excluded.updated_at`,
		b.ID, b.Name, unix(b.BirthDate), b.OwnerUserID, unix(b.ArchivedAt), unix(b.CreatedAt), unix(b.UpdatedAt))
	return err
}

func scanBaby(row interface{ Scan(...any) error }) (model.Baby, error) {
	var b model.Baby
	var birth, archived, created, updated int64
	err := row.Scan(&b.ID, &b.Name, &birth, &b.OwnerUserID, &archived, &created, &updated)
	if err != nil {
		return b, err
	}
	b.BirthDate = fromUnix(birth)
	b.ArchivedAt = fromUnix(archived)
	b.CreatedAt = fromUnix(created)
	b.UpdatedAt = fromUnix(updated)
	return b, nil
}

const babyCols = `id, name, birth_date, owner_user_id, archived_at, created_at, updated_at`

// GetBaby returns nil when the baby is not cached locally.
func (r *EntityRepo) GetBaby(id string) (*model.Baby, error) {
	b, err := scanBaby(r.s.DB().QueryRow(`SELECT `+babyCols+` FROM babies WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBabies returns all locally cached babies, unarchived first, by name.
func (r *EntityRepo) ListBabies() ([]model.Baby, error) {
	rows, err := r.s.DB().Query(`SELECT ` + babyCols + ` FROM babies ORDER BY archived_at != 0, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Baby
	for rows.Next() {
		b, err := scanBaby(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

func (r *EntityRepo) UpsertAccess(q DBTX, g model.AccessGrant) error {
	_, err := q.Exec(`INSERT INTO baby_access(baby_id, user_id, level, caregiver_label, last_accessed_at)
        VALUES(?, ?, ?, ?, ?)
        ON CONFLICT(baby_id, user_id) DO UPDATE SET
          level = excluded.level,
          caregiver_label = excluded.caregiver_label,
          last_accessed_at = excluded.last_accessed_at`,
		g.BabyID, g.UserID, string(g.Level), g.CaregiverLabel, unix(g.LastAccessedAt))
	return err
}

// GetAccess returns nil when the user holds no grant for the baby.
func (r *EntityRepo) GetAccess(babyID, userID string) (*model.AccessGrant, error) {
	var g model.AccessGrant
	var level string
	var lastAccessed int64
	err := r.s.DB().QueryRow(`SELECT baby_id, user_id, level, caregiver_label, last_accessed_at
        FROM baby_access WHERE baby_id = ? AND user_id = ?`, babyID, userID).
		Scan(&g.BabyID, &g.UserID, &level, &g.CaregiverLabel, &lastAccessed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g.Level = model.AccessLevel(level)
	g.LastAccessedAt = fromUnix(lastAccessed)
	return &g, nil
}

// TouchAccess bumps the last-accessed timestamp on a grant.
func (r *EntityRepo) TouchAccess(babyID, userID string, at time.Time) error {
	_, err := r.s.DB().Exec(`UPDATE baby_access SET last_accessed_at = ? WHERE baby_id = ? AND user_id = ?`,
		unix(at), babyID, userID)
	return err
}

// ActiveBaby returns the persisted active-baby selection, empty when unset.
func (r *EntityRepo) ActiveBaby() (string, error) {
	var id string
	err := r.s.DB().QueryRow(`SELECT baby_id FROM active_baby WHERE id = 'current'`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (r *EntityRepo) SetActiveBaby(babyID string) error {
	return r.s.WithTx(func(tx *sql.Tx) error {
		if babyID == "" {
			_, err := tx.Exec(`DELETE FROM active_baby WHERE id = 'current'`)
			return err
		}
		_, err := tx.Exec(`INSERT INTO active_baby(id, baby_id) VALUES('current', ?)
            ON CONFLICT(id) DO UPDATE SET baby_id = excluded.baby_id`, babyID)
		return err
	}, "active_baby")
}

// logTables lists every per-activity table carrying a baby_id column.
var logTables = []string{
	"feed_logs", "sleep_logs", "nappy_logs", "solids_logs", "growth_logs",
	"bath_logs", "medication_logs", "pumping_logs", "activity_logs",
}

// PurgeBaby removes every local row scoped to the baby in one transaction:
// the access grant, the cached baby, all activity logs, the sync cursor and
// any queued outbox mutations (they can never be delivered once access is
// gone). If the purged baby was the active selection, the selection moves to
// the next available baby. Returns the new active baby id (empty when none)
// and the number of dropped mutations.
func (r *EntityRepo) PurgeBaby(babyID string) (nextActive string, droppedMutations int64, err error) {
	err = r.s.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM baby_access WHERE baby_id = ?`, babyID); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM babies WHERE id = ?`, babyID); err != nil {
			return err
		}
		for _, table := range logTables {
			if _, err := tx.Exec(`DELETE FROM `+table+` WHERE baby_id = ?`, babyID); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(`DELETE FROM sync_cursors WHERE baby_id = ?`, babyID); err != nil {
			return err
		}
		res, err := tx.Exec(`DELETE FROM outbox WHERE baby_id = ?`, babyID)
		if err != nil {
			return err
		}
		droppedMutations, _ = res.RowsAffected()

		// Never leave the active-baby pointer dangling on the purged record.
		var active string
		err = tx.QueryRow(`SELECT baby_id FROM active_baby WHERE id = 'current'`).Scan(&active)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if active != babyID {
			nextActive = active
			return nil
		}
		err = tx.QueryRow(`SELECT id FROM babies ORDER BY archived_at != 0, name LIMIT 1`).Scan(&nextActive)
		if errors.Is(err, sql.ErrNoRows) {
			nextActive = ""
			_, err = tx.Exec(`DELETE FROM active_baby WHERE id = 'current'`)
			return err
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(`UPDATE active_baby SET baby_id = ? WHERE id = 'current'`, nextActive)
		return err
	}, append(append([]string{}, logTables...),
		"babies", "baby_access", "sync_cursors", "outbox", "active_baby")...)
	return nextActive, droppedMutations, err
}

// Wipe removes all local data. Used by destructive logout.
func (r *EntityRepo) Wipe() error {
	tables := append(append([]string{}, logTables...),
		"users", "babies", "baby_access", "outbox", "sync_cursors",
		"sync_status", "auth_session", "active_baby")
	return r.s.WithTx(func(tx *sql.Tx) error {
		for _, table := range tables {
			if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
				return err
			}
		}
		return nil
	}, tables...)
}
