package commands

import (
	"context"
	"flag"
	"fmt"

	"BabyKeeper/internal/cli/model"
	"BabyKeeper/internal/cli/service"
	"BabyKeeper/internal/config"
)

// Correction commands. A mum who logged 120 ml instead of 20 fixes the entry
// here; the change goes through the same outbox as the original write.

type editFeedCmd struct{}

func (editFeedCmd) Name() string        { return "edit-feed" }
func (editFeedCmd) Description() string { return "Correct a logged feed" }
func (editFeedCmd) Usage() string {
	return "edit-feed <id> [--ml N] [--mins N] [--side left|right] [--at RFC3339] [--notes ...]"
}

func (editFeedCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	fs := flag.NewFlagSet("edit-feed", flag.ContinueOnError)
	ml := fs.Float64("ml", 0, "amount in ml")
	mins := fs.Int("mins", 0, "duration in minutes")
	side := fs.String("side", "", "side the feed ended on")
	at := fs.String("at", "", "start time")
	notes := fs.String("notes", "", "free-form note")
	if err := fs.Parse(args[1:]); err != nil {
		return ErrUsage
	}
	started, err := parseAt(*at)
	if err != nil {
		return err
	}
	return withEngine(cfg, func(e *service.Engine) error {
		existing, err := e.Logs.GetFeed(args[0])
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("no feed log with id %s", args[0])
		}
		l := *existing
		// Only the flags the user actually passed change the entry.
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "ml":
				l.AmountML = *ml
			case "mins":
				l.DurationMinutes = *mins
			case "side":
				l.EndSide = model.FeedSide(*side)
			case "at":
				l.StartedAt = started
			case "notes":
				l.Notes = *notes
			}
		})
		if err := e.UpdateFeed(l); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Feed updated (%s).\n", l.ID)
		return nil
	})
}

type editSleepCmd struct{}

func (editSleepCmd) Name() string        { return "edit-sleep" }
func (editSleepCmd) Description() string { return "Correct a logged sleep" }
func (editSleepCmd) Usage() string {
	return "edit-sleep <id> [--from RFC3339] [--to RFC3339] [--notes ...]"
}

func (editSleepCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	fs := flag.NewFlagSet("edit-sleep", flag.ContinueOnError)
	from := fs.String("from", "", "start time")
	to := fs.String("to", "", "end time")
	notes := fs.String("notes", "", "free-form note")
	if err := fs.Parse(args[1:]); err != nil {
		return ErrUsage
	}
	started, err := parseAt(*from)
	if err != nil {
		return err
	}
	ended, err := parseAt(*to)
	if err != nil {
		return err
	}
	return withEngine(cfg, func(e *service.Engine) error {
		existing, err := e.Logs.GetSleep(args[0])
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("no sleep log with id %s", args[0])
		}
		l := *existing
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "from":
				l.StartedAt = started
			case "to":
				l.EndedAt = ended
			case "notes":
				l.Notes = *notes
			}
		})
		if !l.StartedAt.IsZero() && !l.EndedAt.IsZero() {
			l.DurationMinutes = int(l.EndedAt.Sub(l.StartedAt).Minutes())
		}
		if err := e.UpdateSleep(l); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Sleep updated (%s).\n", l.ID)
		return nil
	})
}

type delCmd struct{}

func (delCmd) Name() string        { return "del" }
func (delCmd) Description() string { return "Delete a logged entry" }
func (delCmd) Usage() string {
	return "del <feed|sleep|nappy|solids|growth|bath|med|pump|activity> <id>"
}

func (delCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	kind, id := args[0], args[1]
	return withEngine(cfg, func(e *service.Engine) error {
		var err error
		switch kind {
		case "feed":
			err = e.DeleteFeed(id)
		case "sleep":
			err = e.DeleteSleep(id)
		case "nappy":
			err = e.DeleteNappy(id)
		case "solids":
			err = e.DeleteSolids(id)
		case "growth":
			err = e.DeleteGrowth(id)
		case "bath":
			err = e.DeleteBath(id)
		case "med":
			err = e.DeleteMedication(id)
		case "pump":
			err = e.DeletePumping(id)
		case "activity":
			err = e.DeleteActivity(id)
		default:
			return ErrUsage
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "%s entry deleted (%s).\n", kind, id)
		return nil
	})
}

func init() {
	RegisterCmd(editFeedCmd{})
	RegisterCmd(editSleepCmd{})
	RegisterCmd(delCmd{})
}
