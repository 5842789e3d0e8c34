package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"BabyKeeper/internal/cli/model"
	"BabyKeeper/internal/cli/store"
)

// OutboxRepo manages the durable queue of not-yet-confirmed local mutations.
// FIFO order is rowid order, which matches enqueue order; a delete can never
// overtake the create it depends on.
type OutboxRepo struct {
	s *store.Store
}

func NewOutboxRepo(s *store.Store) *OutboxRepo {
	return &OutboxRepo{s: s}
}

// Enqueue appends a mutation. It takes a DBTX so callers can commit the
// domain write and the outbox row atomically.
func (r *OutboxRepo) Enqueue(q DBTX, e model.OutboxEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := q.Exec(`INSERT INTO outbox(mutation_id, entity_type, entity_id, baby_id, op, payload,
          status, error_message, created_at, last_attempt_at)
        VALUES(?, ?, ?, ?, ?, ?, 'pending', '', ?, 0)`,
		e.MutationID, string(e.EntityType), e.EntityID, e.BabyID, string(e.Op), e.Payload,
		unix(e.CreatedAt))
	return err
}

const outboxCols = `mutation_id, entity_type, entity_id, baby_id, op, payload, status, error_message, created_at, last_attempt_at`

func scanOutbox(row interface{ Scan(...any) error }) (model.OutboxEntry, error) {
	var e model.OutboxEntry
	var entityType, op, status string
	var created, attempted int64
	err := row.Scan(&e.MutationID, &entityType, &e.EntityID, &e.BabyID, &op, &e.Payload,
		&status, &e.ErrorMessage, &created, &attempted)
	if err != nil {
		return e, err
	}
	e.EntityType = model.EntityType(entityType)
	e.Op = model.Operation(op)
	e.Status = model.OutboxStatus(status)
	e.CreatedAt = fromUnix(created)
	e.LastAttemptAt = fromUnix(attempted)
	return e, nil
}

func (r *OutboxRepo) listByStatus(statuses ...model.OutboxStatus) ([]model.OutboxEntry, error) {
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	rows, err := r.s.DB().Query(`SELECT `+outboxCols+` FROM outbox
        WHERE status IN (`+strings.Join(placeholders, ",")+`) ORDER BY rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.OutboxEntry
	for rows.Next() {
		e, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// ListPending returns deliverable entries in enqueue (FIFO) order.
// Failed entries are not included: permission failures must never be
// silently retried, and other failures wait for an explicit RetryFailed.
func (r *OutboxRepo) ListPending() ([]model.OutboxEntry, error) {
	return r.listByStatus(model.OutboxPending)
}

// ListFailed returns entries kept for diagnosis after a non-retryable error.
func (r *OutboxRepo) ListFailed() ([]model.OutboxEntry, error) {
	return r.listByStatus(model.OutboxFailed)
}

// MarkSyncing claims an entry for an in-flight send. The guarded UPDATE is
// the at-most-one-in-flight invariant: a second overlapping flush sees zero
// rows affected and skips the entry.
func (r *OutboxRepo) MarkSyncing(mutationID string) (bool, error) {
	res, err := r.s.DB().Exec(`UPDATE outbox SET status = 'syncing', last_attempt_at = ?
        WHERE mutation_id = ? AND status = 'pending'`, time.Now().Unix(), mutationID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// RecoverStale returns abandoned claims to the queue. A syncing entry whose
// last attempt is older than the cutoff belongs to a flush that died
// mid-flight (crash, kill); no live claim sits that long because the HTTP
// request backing it has a timeout.
func (r *OutboxRepo) RecoverStale(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	var n int64
	err := r.s.WithTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE outbox SET status = 'pending'
            WHERE status = 'syncing' AND last_attempt_at < ?`, cutoff)
		if err != nil {
			return err
		}
		n, _ = res.RowsAffected()
		return nil
	}, "outbox")
	return n, err
}

// InFlightEntities reports the entity ids with a claimed (syncing) mutation.
// A flush must not send later mutations of these entities: the server would
// see an update or delete overtake the create it depends on.
func (r *OutboxRepo) InFlightEntities() (map[string]bool, error) {
	rows, err := r.s.DB().Query(`SELECT DISTINCT entity_id FROM outbox WHERE status = 'syncing'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res[id] = true
	}
	return res, rows.Err()
}

// MarkSynced removes a confirmed entry; the mutation is now server state.
func (r *OutboxRepo) MarkSynced(mutationID string) error {
	return r.s.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM outbox WHERE mutation_id = ?`, mutationID)
		return err
	}, "outbox")
}

// MarkFailed parks an entry with its server-reported error message.
func (r *OutboxRepo) MarkFailed(mutationID, errorMessage string) error {
	return r.s.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE outbox SET status = 'failed', error_message = ? WHERE mutation_id = ?`,
			errorMessage, mutationID)
		return err
	}, "outbox")
}

// Requeue returns a syncing entry to pending after a transient failure.
func (r *OutboxRepo) Requeue(mutationID string) error {
	return r.s.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE outbox SET status = 'pending' WHERE mutation_id = ? AND status = 'syncing'`,
			mutationID)
		return err
	}, "outbox")
}

// RetryFailed resets failed entries to pending for a user-requested retry.
func (r *OutboxRepo) RetryFailed() (int64, error) {
	var n int64
	err := r.s.WithTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE outbox SET status = 'pending', error_message = '' WHERE status = 'failed'`)
		if err != nil {
			return err
		}
		n, _ = res.RowsAffected()
		return nil
	}, "outbox")
	return n, err
}

// CountUnsynced counts every queued mutation regardless of state. The logout
// guard treats any non-empty outbox as unsynced work.
func (r *OutboxRepo) CountUnsynced() (int, error) {
	var n int
	err := r.s.DB().QueryRow(`SELECT COUNT(*) FROM outbox`).Scan(&n)
	return n, err
}
