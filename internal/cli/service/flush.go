package service

import (
	"context"
	"database/sql"
	"time"

	"BabyKeeper/internal/cli/api"
	"BabyKeeper/internal/cli/model"
)

// accessDeniedMarker tags outbox entries rejected on permission grounds.
// These entries are terminal: they are never picked up again by the flush
// loop and survive only for diagnosis until their baby is purged.
const accessDeniedMarker = "access denied"

// staleClaimAge is how long a syncing claim may sit before a flush treats it
// as abandoned by a dead process. No live claim outlives the HTTP timeout of
// the request behind it, so a few timeouts is safely past any in-flight send.
func staleClaimAge(httpTimeout time.Duration) time.Duration {
	age := 3 * httpTimeout
	if age < time.Minute {
		return time.Minute
	}
	return age
}

// FlushOutbox delivers queued mutations in FIFO order. Entries are claimed
// with a guarded status flip before the request goes out, so an overlapping
// flush (tick racing a focus trigger, or a one-shot sync racing the watch
// process) cannot send the same mutation twice. Claims stranded by a process
// that died mid-flight are swept back to pending first, and entities with a
// claim held elsewhere are skipped whole so their mutations keep their order.
func (e *Engine) FlushOutbox(ctx context.Context) (int, api.Status, string) {
	if n, err := e.Outbox.RecoverStale(staleClaimAge(e.cfg.HTTPTimeout)); err != nil {
		return 0, api.StatusInvalid, err.Error()
	} else if n > 0 {
		e.log.Infow("recovered abandoned in-flight mutations", "count", n)
	}

	pending, err := e.Outbox.ListPending()
	if err != nil {
		return 0, api.StatusInvalid, err.Error()
	}
	if len(pending) == 0 {
		return 0, api.StatusOK, ""
	}

	// Snapshot before claiming anything: ids seen here are held by another
	// flush, ids claimed below are ours.
	blocked, err := e.Outbox.InFlightEntities()
	if err != nil {
		return 0, api.StatusInvalid, err.Error()
	}

	var claimed []model.OutboxEntry
	for _, entry := range pending {
		if blocked[entry.EntityID] {
			continue
		}
		ok, err := e.Outbox.MarkSyncing(entry.MutationID)
		if err != nil {
			return 0, api.StatusInvalid, err.Error()
		}
		if !ok {
			// Lost the claim race. Later mutations of the same entity must
			// wait behind the winner or the server sees them out of order.
			blocked[entry.EntityID] = true
			continue
		}
		claimed = append(claimed, entry)
	}
	if len(claimed) == 0 {
		// Another flush got here first.
		return 0, api.StatusOK, ""
	}

	req := api.PushRequest{Mutations: make([]api.PushMutation, 0, len(claimed))}
	for _, entry := range claimed {
		req.Mutations = append(req.Mutations, api.PushMutation{
			MutationID: entry.MutationID,
			EntityType: string(entry.EntityType),
			EntityID:   entry.EntityID,
			Op:         string(entry.Op),
			Payload:    entry.Payload,
		})
	}

	resp, st, msg := e.client.Push(ctx, req)
	switch st {
	case api.StatusOK:
		// handled below
	case api.StatusDenied:
		// The whole request was rejected on permission grounds. Park every
		// claimed entry and let verify-access decide what that means.
		for _, entry := range claimed {
			if err := e.Outbox.MarkFailed(entry.MutationID, accessDeniedMarker); err != nil {
				e.log.Errorw("failed to park denied mutation", "mutationId", entry.MutationID, "err", err)
			}
			if entry.BabyID != "" {
				e.suspectRevocation(ctx, entry.BabyID)
			}
		}
		return 0, st, msg
	default:
		// Transient, unauthorized or malformed: nothing was durably applied
		// server-side that we know of, so everything goes back to pending.
		e.requeueAll(claimed)
		return 0, st, msg
	}

	results := make(map[string]api.MutationResult, len(resp.Results))
	for _, r := range resp.Results {
		results[r.MutationID] = r
	}

	delivered := 0
	for _, entry := range claimed {
		r, found := results[entry.MutationID]
		if !found {
			// The server did not account for this mutation; treat as transient.
			if err := e.Outbox.Requeue(entry.MutationID); err != nil {
				e.log.Errorw("failed to requeue unacknowledged mutation", "mutationId", entry.MutationID, "err", err)
			}
			continue
		}
		switch r.Status {
		case api.ResultSuccess:
			if err := e.Outbox.MarkSynced(entry.MutationID); err != nil {
				e.log.Errorw("failed to confirm mutation", "mutationId", entry.MutationID, "err", err)
				continue
			}
			delivered++
		case api.ResultConflict:
			// The server kept its version; adopt it locally, then confirm.
			if len(r.ServerData) > 0 {
				rec := api.ChangeRecord{Type: string(entry.EntityType), Op: string(model.OpUpdate), ID: entry.EntityID, Data: r.ServerData}
				tbl := tablesFor(entry.EntityType)
				err := e.store.WithTx(func(tx *sql.Tx) error {
					return e.applyChange(tx, rec)
				}, tbl)
				if err != nil {
					e.log.Errorw("failed to adopt server version after conflict", "mutationId", entry.MutationID, "err", err)
				}
			}
			if err := e.Outbox.MarkSynced(entry.MutationID); err != nil {
				e.log.Errorw("failed to confirm conflicted mutation", "mutationId", entry.MutationID, "err", err)
				continue
			}
			delivered++
		case api.ResultDenied:
			if err := e.Outbox.MarkFailed(entry.MutationID, accessDeniedMarker); err != nil {
				e.log.Errorw("failed to park denied mutation", "mutationId", entry.MutationID, "err", err)
			}
			if entry.BabyID != "" {
				e.suspectRevocation(ctx, entry.BabyID)
			}
		default: // invalid or anything unrecognized
			reason := r.Error
			if reason == "" {
				reason = "rejected by server"
			}
			if err := e.Outbox.MarkFailed(entry.MutationID, reason); err != nil {
				e.log.Errorw("failed to park rejected mutation", "mutationId", entry.MutationID, "err", err)
			}
			e.events.Publish(Event{Kind: EventError, Message: "a change was rejected by the server: " + reason})
		}
	}
	return delivered, api.StatusOK, ""
}

func (e *Engine) requeueAll(entries []model.OutboxEntry) {
	for _, entry := range entries {
		if err := e.Outbox.Requeue(entry.MutationID); err != nil {
			e.log.Errorw("failed to requeue mutation", "mutationId", entry.MutationID, "err", err)
		}
	}
}
