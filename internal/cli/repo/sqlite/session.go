package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"BabyKeeper/internal/cli/model"
	"BabyKeeper/internal/cli/store"
)

// SessionRepo persists the singleton offline auth session marker.
type SessionRepo struct {
	s *store.Store
}

func NewSessionRepo(s *store.Store) *SessionRepo {
	return &SessionRepo{s: s}
}

// Get returns the cached session, or nil when none exists.
func (r *SessionRepo) Get() (*model.AuthSession, error) {
	var sess model.AuthSession
	var lastAuth, expires int64
	err := r.s.DB().QueryRow(`SELECT user_id, external_id, last_auth_at, expires_at
        FROM auth_session WHERE id = 'current'`).
		Scan(&sess.UserID, &sess.ExternalID, &lastAuth, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.LastAuthAt = fromUnix(lastAuth)
	sess.ExpiresAt = fromUnix(expires)
	return &sess, nil
}

// Save records a fresh session after a successful authentication.
func (r *SessionRepo) Save(userID, externalID string, ttl time.Duration) error {
	now := time.Now()
	return r.s.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO auth_session(id, user_id, external_id, last_auth_at, expires_at)
            VALUES('current', ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
              user_id = excluded.user_id,
              external_id = excluded.external_id,
              last_auth_at = excluded.last_auth_at,
              expires_at = excluded.expires_at`,
			userID, externalID, now.Unix(), now.Add(ttl).Unix())
		return err
	}, "auth_session")
}

// Refresh extends the offline window after a successful server round-trip.
// A missing session is a no-op.
func (r *SessionRepo) Refresh(ttl time.Duration) error {
	now := time.Now()
	return r.s.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE auth_session SET last_auth_at = ?, expires_at = ? WHERE id = 'current'`,
			now.Unix(), now.Add(ttl).Unix())
		return err
	}, "auth_session")
}

// Clear drops the session on sign-out.
func (r *SessionRepo) Clear() error {
	return r.s.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM auth_session WHERE id = 'current'`)
		return err
	}, "auth_session")
}
