package commands

import (
	"context"
	"fmt"

	fsrepo "BabyKeeper/internal/cli/repo/fs"
	"BabyKeeper/internal/config"
)

type registerCmd struct{}

func (registerCmd) Name() string        { return "register" }
func (registerCmd) Description() string { return "Create an account and sign in" }
func (registerCmd) Usage() string       { return "register <email> <password>" }

func (registerCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
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

	if err := e.Register(ctx, email, password); err != nil {
		return err
	}
	if _, err := e.Login(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Account created.")

	if st, msg := e.Bootstrap(ctx); msg != "" {
		return fmt.Errorf("initial download failed (%s): %s", st.String(), msg)
	}
	return nil
}

func init() { RegisterCmd(registerCmd{}) }
