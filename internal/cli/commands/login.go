package commands

import (
	"context"
	"fmt"

	fsrepo "BabyKeeper/internal/cli/repo/fs"
	"BabyKeeper/internal/config"
)

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Sign in and download your data" }
func (loginCmd) Usage() string       { return "login <email> <password>" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	email, password := args[0], args[1]

	tokens := fsrepo.AuthFSStore{}
	if err := tokens.SaveLogin(email); err != nil {
		return err
	}
	e, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := e.Login(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Signed in.")

	cold, err := e.NeedsBootstrap()
	if err != nil {
		return err
	}
	if cold {
		fmt.Fprintln(Out, "Downloading your data...")
		if st, msg := e.Bootstrap(ctx); msg != "" {
			return fmt.Errorf("initial download failed (%s): %s", st.String(), msg)
		}
		fmt.Fprintln(Out, "Done.")
	}
	return nil
}

func init() { RegisterCmd(loginCmd{}) }
