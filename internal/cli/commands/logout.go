package commands

import (
	"context"
	"errors"
	"fmt"

	"BabyKeeper/internal/cli/service"
	"BabyKeeper/internal/config"
)

// logoutCmd implements the guarded sign-out. With unsynced work queued it
// refuses to proceed unless the user picked a resolution: --sync delivers the
// queue first, --force discards local data outright.
type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Sign out (guards unsynced changes)" }
func (logoutCmd) Usage() string       { return "logout [--sync|--force]" }

func (logoutCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	var doSync, force bool
	for _, a := range args {
		switch a {
		case "--sync":
			doSync = true
		case "--force":
			force = true
		default:
			return ErrUsage
		}
	}

	e, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if force {
		if err := e.LogoutAndWipe(); err != nil {
			return err
		}
		fmt.Fprintln(Out, "Signed out; local data removed.")
		return nil
	}

	check, err := e.CheckLogout()
	if err != nil {
		return err
	}
	if check.Unsynced == 0 {
		if err := e.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(Out, "Signed out.")
		return nil
	}

	if !doSync {
		fmt.Fprintf(Out, "You have %d unsynced change(s)", check.Unsynced)
		if check.Failed > 0 {
			fmt.Fprintf(Out, " (%d previously rejected)", check.Failed)
		}
		fmt.Fprintln(Out, ".")
		if check.CanSync {
			fmt.Fprintln(Out, "Run 'bkcli logout --sync' to deliver them first, or 'bkcli logout --force' to discard them.")
		} else {
			fmt.Fprintln(Out, "The last sync failed; retry once the server is reachable, or 'bkcli logout --force' to discard them.")
		}
		return errors.New("logout aborted")
	}

	if err := e.SyncAndLogout(ctx); err != nil {
		if errors.Is(err, service.ErrUnsyncedChanges) {
			return errors.New("some changes could not be delivered; resolve them or use --force")
		}
		return err
	}
	fmt.Fprintln(Out, "Changes delivered, signed out.")
	return nil
}

func init() { RegisterCmd(logoutCmd{}) }
