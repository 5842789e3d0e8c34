package service

import (
	"context"
	"fmt"
	"sync"

	"BabyKeeper/internal/cli/api"
)

// detector deduplicates revocation checks. A single push can surface the
// same denied baby many times (one per queued mutation); the baby is
// verified against the server once, not once per mutation.
type detector struct {
	mu      sync.Mutex
	checked map[string]bool
}

func newDetector() *detector {
	return &detector{checked: make(map[string]bool)}
}

// begin claims the check for a baby. Returns false when a check already ran
// or is in flight.
func (d *detector) begin(babyID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.checked[babyID] {
		return false
	}
	d.checked[babyID] = true
	return true
}

// reset forgets a baby so a later signal can re-trigger verification. Used
// when a check was inconclusive or access turned out to be intact.
func (d *detector) reset(babyID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.checked, babyID)
}

// suspectRevocation handles a permission-shaped failure for a baby. A 403 on
// its own is not proof of revocation (it can be a stale token or a server
// bug), so the grant is verified with a dedicated call before anything is
// destroyed. Only a definitive "no access" or "baby not found" answer
// triggers the purge; an unreachable server leaves everything in place and
// the next signal re-checks.
func (e *Engine) suspectRevocation(ctx context.Context, babyID string) {
	if !e.detector.begin(babyID) {
		return
	}

	resp, st, msg := e.client.VerifyAccess(ctx, babyID)
	switch {
	case st == api.StatusOK && resp.HasAccess:
		// False alarm. The failed mutation stays parked for manual retry.
		e.log.Infow("access verified intact after a denied response", "babyId", babyID)
		e.detector.reset(babyID)
	case (st == api.StatusOK && !resp.HasAccess) || st == api.StatusNotFound:
		e.revokeLocally(babyID)
	default:
		// Inconclusive: transient failure or auth problem. Do not purge on a
		// guess; allow a future signal to verify again.
		e.log.Warnw("revocation check inconclusive", "babyId", babyID, "status", st.String(), "msg", msg)
		e.detector.reset(babyID)
	}
}

// revokeLocally removes every local trace of a baby the user can no longer
// see and tells the user what happened and what was lost.
func (e *Engine) revokeLocally(babyID string) {
	b, err := e.Entities.GetBaby(babyID)
	if err != nil {
		e.log.Errorw("failed to load baby before purge", "babyId", babyID, "err", err)
	}
	name := babyID
	if b != nil {
		name = b.Name
	}

	nextActive, dropped, err := e.Entities.PurgeBaby(babyID)
	if err != nil {
		e.log.Errorw("failed to purge revoked baby", "babyId", babyID, "err", err)
		e.detector.reset(babyID)
		return
	}

	msg := fmt.Sprintf("your access to %s was removed; local records were cleared", name)
	if dropped > 0 {
		msg += fmt.Sprintf(" (%d unsynced changes could not be delivered)", dropped)
	}
	e.log.Infow("purged revoked baby", "babyId", babyID, "droppedMutations", dropped, "nextActive", nextActive)
	e.events.Publish(Event{Kind: EventAccessRevoked, Message: msg, BabyID: babyID})
}
