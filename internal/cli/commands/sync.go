package commands

import (
	"context"
	"fmt"

	"BabyKeeper/internal/cli/service"
	"BabyKeeper/internal/config"
)

type syncCmd struct{}

func (syncCmd) Name() string        { return "sync" }
func (syncCmd) Description() string { return "Run one sync cycle now" }
func (syncCmd) Usage() string       { return "sync [--retry]" }

func (syncCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	retry := false
	for _, a := range args {
		if a == "--retry" {
			retry = true
		} else {
			return ErrUsage
		}
	}
	return withEngine(cfg, func(e *service.Engine) error {
		events := e.Events().Subscribe()

		if retry {
			n, err := e.Outbox.RetryFailed()
			if err != nil {
				return err
			}
			if n > 0 {
				fmt.Fprintf(Out, "Re-queued %d rejected change(s).\n", n)
			}
		}

		cold, err := e.NeedsBootstrap()
		if err != nil {
			return err
		}
		if cold {
			if st, msg := e.Bootstrap(ctx); msg != "" {
				return fmt.Errorf("initial download failed (%s): %s", st.String(), msg)
			}
		}
		if err := e.SyncOnce(ctx); err != nil {
			return err
		}
		drainEvents(events)

		n, err := e.Outbox.CountUnsynced()
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(Out, "Everything is in sync.")
		} else {
			fmt.Fprintf(Out, "%d change(s) still queued.\n", n)
		}
		return nil
	})
}

func init() { RegisterCmd(syncCmd{}) }
