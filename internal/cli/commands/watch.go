package commands

import (
	"context"
	"fmt"

	"BabyKeeper/internal/cli/service"
	"BabyKeeper/internal/config"
)

// watchCmd keeps a scheduler running in the foreground, syncing on an
// interval until interrupted. This is the long-lived mode a desktop shell
// would embed; the other commands are one-shot.
type watchCmd struct{}

func (watchCmd) Name() string        { return "watch" }
func (watchCmd) Description() string { return "Sync continuously until interrupted" }
func (watchCmd) Usage() string       { return "watch" }

func (watchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	return withEngine(cfg, func(e *service.Engine) error {
		events := e.Events().Subscribe()
		go func() {
			for ev := range pump(ctx, events) {
				switch ev.Kind {
				case service.EventAccessRevoked:
					fmt.Fprintf(Out, "\n*** %s ***\n", ev.Message)
				case service.EventError:
					fmt.Fprintf(Out, "warning: %s\n", ev.Message)
				}
			}
		}()

		cold, err := e.NeedsBootstrap()
		if err != nil {
			return err
		}
		if cold {
			if st, msg := e.Bootstrap(ctx); msg != "" {
				return fmt.Errorf("initial download failed (%s): %s", st.String(), msg)
			}
		}

		fmt.Fprintf(Out, "Syncing every %s, Ctrl-C to stop.\n", cfg.SyncInterval)
		sched := service.NewScheduler(e, cfg.SyncInterval)
		sched.Kick()
		sched.Run(ctx)
		return nil
	})
}

// pump forwards events until ctx ends, closing the returned channel so the
// printer goroutine exits with the command.
func pump(ctx context.Context, in <-chan service.Event) <-chan service.Event {
	out := make(chan service.Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-in:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func init() { RegisterCmd(watchCmd{}) }
