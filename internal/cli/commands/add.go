package commands

import (
	"context"
	"flag"
	"fmt"
	"time"

	"BabyKeeper/internal/cli/model"
	"BabyKeeper/internal/cli/service"
	"BabyKeeper/internal/config"
)

// Activity logging commands. Each writes locally and queues the mutation;
// nothing here waits for the network.

func parseAt(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func withEngine(cfg *config.Config, fn func(e *service.Engine) error) error {
	e, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := e.RequireSession(); err != nil {
		return err
	}
	return fn(e)
}

type addFeedCmd struct{}

func (addFeedCmd) Name() string        { return "add-feed" }
func (addFeedCmd) Description() string { return "Log a feed for the active baby" }
func (addFeedCmd) Usage() string {
	return "add-feed <breast|bottle> [--mins N] [--ml N] [--side left|right] [--est] [--at RFC3339] [--notes ...]"
}

func (addFeedCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	fs := flag.NewFlagSet("add-feed", flag.ContinueOnError)
	mins := fs.Int("mins", 0, "duration in minutes (breast)")
	ml := fs.Float64("ml", 0, "amount in ml (bottle)")
	side := fs.String("side", "", "side the feed ended on")
	est := fs.Bool("est", false, "amount is estimated")
	at := fs.String("at", "", "start time, defaults to now")
	notes := fs.String("notes", "", "free-form note")
	if err := fs.Parse(args[1:]); err != nil {
		return ErrUsage
	}
	started, err := parseAt(*at)
	if err != nil {
		return err
	}
	return withEngine(cfg, func(e *service.Engine) error {
		babyID, err := requireActiveBaby(e)
		if err != nil {
			return err
		}
		l, err := e.CreateFeed(model.FeedLog{
			BabyID:          babyID,
			Method:          model.FeedMethod(args[0]),
			DurationMinutes: *mins,
			AmountML:        *ml,
			EndSide:         model.FeedSide(*side),
			IsEstimated:     *est,
			StartedAt:       started,
			Notes:           *notes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Feed logged (%s).\n", l.ID)
		return nil
	})
}

type addSleepCmd struct{}

func (addSleepCmd) Name() string        { return "add-sleep" }
func (addSleepCmd) Description() string { return "Log a sleep for the active baby" }
func (addSleepCmd) Usage() string {
	return "add-sleep [--from RFC3339] [--to RFC3339] [--notes ...]"
}

func (addSleepCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("add-sleep", flag.ContinueOnError)
	from := fs.String("from", "", "start time, defaults to now")
	to := fs.String("to", "", "end time, empty while ongoing")
	notes := fs.String("notes", "", "free-form note")
	if err := fs.Parse(args); err != nil {
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
		babyID, err := requireActiveBaby(e)
		if err != nil {
			return err
		}
		mins := 0
		if !started.IsZero() && !ended.IsZero() {
			mins = int(ended.Sub(started).Minutes())
		}
		l, err := e.CreateSleep(model.SleepLog{
			BabyID: babyID, StartedAt: started, EndedAt: ended,
			DurationMinutes: mins, Notes: *notes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Sleep logged (%s).\n", l.ID)
		return nil
	})
}

type addNappyCmd struct{}

func (addNappyCmd) Name() string        { return "add-nappy" }
func (addNappyCmd) Description() string { return "Log a nappy change for the active baby" }
func (addNappyCmd) Usage() string {
	return "add-nappy <wee|poo|mixed|dry> [--colour ...] [--consistency ...] [--at RFC3339] [--notes ...]"
}

func (addNappyCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	fs := flag.NewFlagSet("add-nappy", flag.ContinueOnError)
	colour := fs.String("colour", "", "contents colour")
	consistency := fs.String("consistency", "", "contents consistency")
	at := fs.String("at", "", "time, defaults to now")
	notes := fs.String("notes", "", "free-form note")
	if err := fs.Parse(args[1:]); err != nil {
		return ErrUsage
	}
	started, err := parseAt(*at)
	if err != nil {
		return err
	}
	return withEngine(cfg, func(e *service.Engine) error {
		babyID, err := requireActiveBaby(e)
		if err != nil {
			return err
		}
		l, err := e.CreateNappy(model.NappyLog{
			BabyID: babyID, Type: model.NappyType(args[0]),
			Colour: *colour, Consistency: *consistency,
			StartedAt: started, Notes: *notes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Nappy logged (%s).\n", l.ID)
		return nil
	})
}

type addSolidsCmd struct{}

func (addSolidsCmd) Name() string        { return "add-solids" }
func (addSolidsCmd) Description() string { return "Log a solids meal for the active baby" }
func (addSolidsCmd) Usage() string {
	return "add-solids <food> [--reaction allergic|hate|liked|loved] [--at RFC3339] [--notes ...]"
}

func (addSolidsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	fs := flag.NewFlagSet("add-solids", flag.ContinueOnError)
	reaction := fs.String("reaction", "", "how it went down")
	at := fs.String("at", "", "time, defaults to now")
	notes := fs.String("notes", "", "free-form note")
	if err := fs.Parse(args[1:]); err != nil {
		return ErrUsage
	}
	started, err := parseAt(*at)
	if err != nil {
		return err
	}
	return withEngine(cfg, func(e *service.Engine) error {
		babyID, err := requireActiveBaby(e)
		if err != nil {
			return err
		}
		l, err := e.CreateSolids(model.SolidsLog{
			BabyID: babyID, Food: args[0], Reaction: *reaction,
			StartedAt: started, Notes: *notes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Solids logged (%s).\n", l.ID)
		return nil
	})
}

type addGrowthCmd struct{}

func (addGrowthCmd) Name() string        { return "add-growth" }
func (addGrowthCmd) Description() string { return "Log a growth measurement for the active baby" }
func (addGrowthCmd) Usage() string {
	return "add-growth [--weight-g N] [--height-cm N] [--head-cm N] [--at RFC3339] [--notes ...]"
}

func (addGrowthCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("add-growth", flag.ContinueOnError)
	weight := fs.Float64("weight-g", 0, "weight in grams")
	height := fs.Float64("height-cm", 0, "height in cm")
	head := fs.Float64("head-cm", 0, "head circumference in cm")
	at := fs.String("at", "", "measurement time, defaults to now")
	notes := fs.String("notes", "", "free-form note")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	measured, err := parseAt(*at)
	if err != nil {
		return err
	}
	return withEngine(cfg, func(e *service.Engine) error {
		babyID, err := requireActiveBaby(e)
		if err != nil {
			return err
		}
		l, err := e.CreateGrowth(model.GrowthLog{
			BabyID: babyID, WeightG: *weight, HeightCM: *height, HeadCM: *head,
			MeasuredAt: measured, Notes: *notes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Growth logged (%s).\n", l.ID)
		return nil
	})
}

type addBathCmd struct{}

func (addBathCmd) Name() string        { return "add-bath" }
func (addBathCmd) Description() string { return "Log a bath for the active baby" }
func (addBathCmd) Usage() string       { return "add-bath [--at RFC3339] [--notes ...]" }

func (addBathCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("add-bath", flag.ContinueOnError)
	at := fs.String("at", "", "time, defaults to now")
	notes := fs.String("notes", "", "free-form note")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	started, err := parseAt(*at)
	if err != nil {
		return err
	}
	return withEngine(cfg, func(e *service.Engine) error {
		babyID, err := requireActiveBaby(e)
		if err != nil {
			return err
		}
		l, err := e.CreateBath(model.BathLog{BabyID: babyID, StartedAt: started, Notes: *notes})
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Bath logged (%s).\n", l.ID)
		return nil
	})
}

type addMedCmd struct{}

func (addMedCmd) Name() string        { return "add-med" }
func (addMedCmd) Description() string { return "Log a medication dose for the active baby" }
func (addMedCmd) Usage() string {
	return "add-med <name> [--dose N] [--unit ml|mg|drops] [--at RFC3339] [--notes ...]"
}

func (addMedCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	fs := flag.NewFlagSet("add-med", flag.ContinueOnError)
	dose := fs.Float64("dose", 0, "dose amount")
	unit := fs.String("unit", "", "dose unit")
	at := fs.String("at", "", "time given, defaults to now")
	notes := fs.String("notes", "", "free-form note")
	if err := fs.Parse(args[1:]); err != nil {
		return ErrUsage
	}
	given, err := parseAt(*at)
	if err != nil {
		return err
	}
	return withEngine(cfg, func(e *service.Engine) error {
		babyID, err := requireActiveBaby(e)
		if err != nil {
			return err
		}
		l, err := e.CreateMedication(model.MedicationLog{
			BabyID: babyID, Name: args[0], DoseAmount: *dose, DoseUnit: *unit,
			GivenAt: given, Notes: *notes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Medication logged (%s).\n", l.ID)
		return nil
	})
}

type addPumpCmd struct{}

func (addPumpCmd) Name() string        { return "add-pump" }
func (addPumpCmd) Description() string { return "Log a pumping session" }
func (addPumpCmd) Usage() string {
	return "add-pump [--side left|right] [--ml N] [--mins N] [--at RFC3339] [--notes ...]"
}

func (addPumpCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("add-pump", flag.ContinueOnError)
	side := fs.String("side", "", "side pumped")
	ml := fs.Float64("ml", 0, "amount in ml")
	mins := fs.Int("mins", 0, "duration in minutes")
	at := fs.String("at", "", "time, defaults to now")
	notes := fs.String("notes", "", "free-form note")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	started, err := parseAt(*at)
	if err != nil {
		return err
	}
	return withEngine(cfg, func(e *service.Engine) error {
		babyID, err := requireActiveBaby(e)
		if err != nil {
			return err
		}
		l, err := e.CreatePumping(model.PumpingLog{
			BabyID: babyID, Side: model.FeedSide(*side), AmountML: *ml,
			DurationMinutes: *mins, StartedAt: started, Notes: *notes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Pumping logged (%s).\n", l.ID)
		return nil
	})
}

type addActivityCmd struct{}

func (addActivityCmd) Name() string        { return "add-activity" }
func (addActivityCmd) Description() string { return "Log a generic activity (tummy time, play, ...)" }
func (addActivityCmd) Usage() string {
	return "add-activity <kind> [--from RFC3339] [--to RFC3339] [--notes ...]"
}

func (addActivityCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	fs := flag.NewFlagSet("add-activity", flag.ContinueOnError)
	from := fs.String("from", "", "start time, defaults to now")
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
		babyID, err := requireActiveBaby(e)
		if err != nil {
			return err
		}
		l, err := e.CreateActivity(model.ActivityLog{
			BabyID: babyID, Kind: args[0], StartedAt: started, EndedAt: ended, Notes: *notes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Activity logged (%s).\n", l.ID)
		return nil
	})
}

func init() {
	RegisterCmd(addFeedCmd{})
	RegisterCmd(addSleepCmd{})
	RegisterCmd(addNappyCmd{})
	RegisterCmd(addSolidsCmd{})
	RegisterCmd(addGrowthCmd{})
	RegisterCmd(addBathCmd{})
	RegisterCmd(addMedCmd{})
	RegisterCmd(addPumpCmd{})
	RegisterCmd(addActivityCmd{})
}
