package service

import (
	"context"
	"errors"
	"fmt"

	"BabyKeeper/internal/cli/api"
	"BabyKeeper/internal/cli/model"
)

// ErrUnsyncedChanges means the outbox still holds mutations that would be
// lost by signing out now.
var ErrUnsyncedChanges = errors.New("unsynced changes remain")

// LogoutCheck is what the UI needs to warn the user before sign-out.
type LogoutCheck struct {
	Unsynced int  // queued mutations that have not reached the server
	Failed   int  // of those, parked after a non-retryable error
	CanSync  bool // whether sync-and-logout is worth offering
}

// CheckLogout inspects the outbox before sign-out. Zero unsynced means the
// caller may log out immediately without ceremony. CanSync reflects the last
// recorded sync outcome: after a failed cycle the server is presumed
// unreachable and offering sync-and-logout would just fail again.
func (e *Engine) CheckLogout() (LogoutCheck, error) {
	total, err := e.Outbox.CountUnsynced()
	if err != nil {
		return LogoutCheck{}, err
	}
	failed, err := e.Outbox.ListFailed()
	if err != nil {
		return LogoutCheck{}, err
	}
	st, err := e.Cursors.Status(model.EntityBaby)
	if err != nil {
		return LogoutCheck{}, err
	}
	online := st.Status != model.SyncError
	return LogoutCheck{Unsynced: total, Failed: len(failed), CanSync: online && total > len(failed)}, nil
}

// SyncAndLogout runs a final sync cycle and signs out only if it drained the
// outbox. Entries parked as failed do not block: they can never be delivered
// by retrying, and holding the logout hostage to them helps nobody — but the
// caller is told they exist via CheckLogout.
func (e *Engine) SyncAndLogout(ctx context.Context) error {
	if _, st, msg := e.FlushOutbox(ctx); st != api.StatusOK && st != api.StatusDenied {
		return fmt.Errorf("final sync failed (%s): %s", st.String(), msg)
	}
	pending, err := e.Outbox.ListPending()
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return ErrUnsyncedChanges
	}
	return e.Logout()
}

// Logout signs out without touching cached data: the token and session go,
// the local records stay for the next sign-in of the same user.
func (e *Engine) Logout() error {
	if err := e.Session.Clear(); err != nil {
		return err
	}
	return e.tokens.Clear()
}

// LogoutAndWipe signs out and destroys all local data, including any queued
// mutations. Explicitly destructive; the caller confirms with the user first.
func (e *Engine) LogoutAndWipe() error {
	if err := e.Entities.Wipe(); err != nil {
		return err
	}
	return e.Logout()
}
