package commands

import (
	"context"
	"fmt"
	"time"

	"BabyKeeper/internal/cli/model"
	"BabyKeeper/internal/config"
)

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show sync queue and session state" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	e, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	sess, err := e.Session.Get()
	if err != nil {
		return err
	}
	switch {
	case sess == nil:
		fmt.Fprintln(Out, "Session:  signed out")
	case sess.Expired(time.Now()):
		fmt.Fprintln(Out, "Session:  expired, sign in again")
	default:
		fmt.Fprintf(Out, "Session:  ok until %s\n", sess.ExpiresAt.Local().Format(time.DateTime))
	}

	pending, err := e.Outbox.ListPending()
	if err != nil {
		return err
	}
	failed, err := e.Outbox.ListFailed()
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Queued:   %d pending, %d rejected\n", len(pending), len(failed))
	for _, entry := range failed {
		fmt.Fprintf(Out, "  ! %s %s %s: %s\n", entry.Op, entry.EntityType, entry.EntityID, entry.ErrorMessage)
	}

	babyID, err := e.Entities.ActiveBaby()
	if err != nil {
		return err
	}
	if babyID != "" {
		cursor, err := e.Cursors.Cursor(babyID)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Baby:     %s (cursor %d)\n", babyID, cursor)
	} else {
		fmt.Fprintln(Out, "Baby:     none selected")
	}

	st, err := e.Cursors.Status(model.EntityBaby)
	if err != nil {
		return err
	}
	if !st.LastSyncAt.IsZero() {
		line := fmt.Sprintf("Sync:     %s at %s", st.Status, st.LastSyncAt.Local().Format(time.DateTime))
		if st.Status == model.SyncError && st.ErrorMessage != "" {
			line += " (" + st.ErrorMessage + ")"
		}
		fmt.Fprintln(Out, line)
	} else {
		fmt.Fprintln(Out, "Sync:     never ran")
	}
	return nil
}

func init() { RegisterCmd(statusCmd{}) }
