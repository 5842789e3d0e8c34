package service

import (
	"context"
	"database/sql"
	"fmt"

	"BabyKeeper/internal/cli/api"
	"BabyKeeper/internal/cli/model"
)

// CreateBaby registers a new baby on the server and caches it locally with
// the owner grant. This is an online-only operation: the server mints the id
// and the grant, so there is nothing to queue while offline.
func (e *Engine) CreateBaby(ctx context.Context, name, birthDate string) (*model.Baby, api.Status, string) {
	if _, err := e.currentUserID(); err != nil {
		return nil, api.StatusInvalid, err.Error()
	}

	resp, st, msg := e.client.CreateBaby(ctx, name, birthDate)
	if st != api.StatusOK {
		return nil, st, msg
	}

	baby, err := resp.Baby.Decode()
	if err != nil {
		return nil, api.StatusInvalid, err.Error()
	}
	grant, err := resp.Access.Decode()
	if err != nil {
		return nil, api.StatusInvalid, err.Error()
	}

	err = e.store.WithTx(func(tx *sql.Tx) error {
		if err := e.Entities.UpsertBaby(tx, baby); err != nil {
			return err
		}
		return e.Entities.UpsertAccess(tx, grant)
	}, "babies", "baby_access")
	if err != nil {
		return nil, api.StatusInvalid, fmt.Sprintf("cache new baby: %v", err)
	}

	active, err := e.Entities.ActiveBaby()
	if err == nil && active == "" {
		if err := e.Entities.SetActiveBaby(baby.ID); err != nil {
			e.log.Warnw("failed to activate new baby", "err", err)
		}
	}

	e.events.Publish(Event{Kind: EventSuccess, Message: fmt.Sprintf("baby %s added", baby.Name), BabyID: baby.ID})
	return &baby, api.StatusOK, ""
}
