package commands

import (
	"context"
	"flag"
	"fmt"

	"BabyKeeper/internal/cli/api"
	"BabyKeeper/internal/config"
)

type babiesCmd struct{}

func (babiesCmd) Name() string        { return "babies" }
func (babiesCmd) Description() string { return "List babies you have access to" }
func (babiesCmd) Usage() string       { return "babies" }

func (babiesCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	e, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := e.RequireSession(); err != nil {
		return err
	}

	babies, err := e.Entities.ListBabies()
	if err != nil {
		return err
	}
	if len(babies) == 0 {
		fmt.Fprintln(Out, "No babies yet. Sync first or ask for access.")
		return nil
	}
	active, err := e.Entities.ActiveBaby()
	if err != nil {
		return err
	}
	u, err := e.Entities.GetUser()
	if err != nil {
		return err
	}
	for _, b := range babies {
		marker := " "
		if b.ID == active {
			marker = "*"
		}
		level := "?"
		if u != nil {
			if g, err := e.Entities.GetAccess(b.ID, u.ID); err == nil && g != nil {
				level = string(g.Level)
			}
		}
		suffix := ""
		if b.Archived() {
			suffix = " (archived)"
		}
		fmt.Fprintf(Out, "%s %-24s %-8s %s%s\n", marker, b.ID, level, b.Name, suffix)
	}
	return nil
}

type useCmd struct{}

func (useCmd) Name() string        { return "use" }
func (useCmd) Description() string { return "Select the active baby" }
func (useCmd) Usage() string       { return "use <babyId>" }

func (useCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	e, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := e.RequireSession(); err != nil {
		return err
	}
	if err := e.SelectBaby(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Active baby: %s\n", args[0])
	return nil
}

type newBabyCmd struct{}

func (newBabyCmd) Name() string        { return "new-baby" }
func (newBabyCmd) Description() string { return "Register a new baby (requires connectivity)" }
func (newBabyCmd) Usage() string       { return "new-baby <name> [--born <RFC3339>]" }

func (newBabyCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	name := args[0]
	fs := flag.NewFlagSet("new-baby", flag.ContinueOnError)
	born := fs.String("born", "", "birth date, RFC3339")
	if err := fs.Parse(args[1:]); err != nil {
		return ErrUsage
	}

	e, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := e.RequireSession(); err != nil {
		return err
	}

	baby, st, msg := e.CreateBaby(ctx, name, *born)
	if st != api.StatusOK {
		return fmt.Errorf("create baby: %s", msg)
	}
	fmt.Fprintf(Out, "Baby %s registered (%s).\n", baby.Name, baby.ID)
	return nil
}

func init() {
	RegisterCmd(babiesCmd{})
	RegisterCmd(useCmd{})
	RegisterCmd(newBabyCmd{})
}
