package commands

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"BabyKeeper/internal/cli/api"
	fsrepo "BabyKeeper/internal/cli/repo/fs"
	"BabyKeeper/internal/cli/service"
	"BabyKeeper/internal/cli/store"
	"BabyKeeper/internal/config"
)

// openStore opens the per-user DB, recovering from corruption by discarding
// the file. Everything in it is rebuildable from the server, so a corrupt
// store is treated as a cold start rather than an error the user has to fix.
func openStore(login string) (*store.Store, error) {
	s, path, err := store.OpenForUser(login)
	if errors.Is(err, store.ErrCorrupt) && path != "" {
		fmt.Fprintln(Out, "Local data was unreadable and has been reset; it will be re-downloaded.")
		_ = os.Remove(path)
		s, _, err = store.OpenForUser(login)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// openEngine wires a sync engine for the remembered login.
func openEngine(cfg *config.Config) (*service.Engine, func(), error) {
	tokens := fsrepo.AuthFSStore{}
	login, err := tokens.LoadLogin()
	if err != nil {
		return nil, nil, errors.New("not signed in, run: bkcli login <email> <password>")
	}
	s, err := openStore(login)
	if err != nil {
		return nil, nil, err
	}
	logger, err := zap.NewProduction()
	if err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	client := api.NewClient(cfg.ServerURL, cfg.HTTPTimeout, tokens)
	e := service.NewEngine(cfg, logger.Sugar(), s, client, tokens)
	cleanup := func() {
		_ = logger.Sync()
		_ = s.Close()
	}
	return e, cleanup, nil
}

// drainEvents prints any notices the engine produced during a command.
// Revocation notices are printed prominently; toasts go out as plain lines.
func drainEvents(events <-chan service.Event) {
	for {
		select {
		case ev := <-events:
			switch ev.Kind {
			case service.EventAccessRevoked:
				fmt.Fprintf(Out, "\n*** %s ***\n\n", ev.Message)
			case service.EventError:
				fmt.Fprintf(Out, "warning: %s\n", ev.Message)
			default:
				fmt.Fprintln(Out, ev.Message)
			}
		default:
			return
		}
	}
}

// requireActiveBaby resolves the active baby or tells the user how to pick one.
func requireActiveBaby(e *service.Engine) (string, error) {
	babyID, err := e.Entities.ActiveBaby()
	if err != nil {
		return "", err
	}
	if babyID == "" {
		return "", errors.New("no baby selected, run: bkcli babies && bkcli use <babyId>")
	}
	return babyID, nil
}
