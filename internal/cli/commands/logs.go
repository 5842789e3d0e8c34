package commands

import (
	"context"
	"fmt"
	"time"

	"BabyKeeper/internal/cli/service"
	"BabyKeeper/internal/config"
)

type logsCmd struct{}

func (logsCmd) Name() string        { return "logs" }
func (logsCmd) Description() string { return "Show recent activity for the active baby" }
func (logsCmd) Usage() string       { return "logs [feed|sleep|nappy] [limit]" }

func (logsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	kind := "feed"
	if len(args) > 0 {
		kind = args[0]
	}
	limit := 20
	if len(args) > 1 {
		if _, err := fmt.Sscan(args[1], &limit); err != nil || limit <= 0 {
			return ErrUsage
		}
	}
	return withEngine(cfg, func(e *service.Engine) error {
		babyID, err := requireActiveBaby(e)
		if err != nil {
			return err
		}
		switch kind {
		case "feed":
			feeds, err := e.Logs.ListFeed(babyID, limit)
			if err != nil {
				return err
			}
			for _, l := range feeds {
				detail := fmt.Sprintf("%d min", l.DurationMinutes)
				if l.Method == "bottle" {
					detail = fmt.Sprintf("%.0f ml", l.AmountML)
					if l.IsEstimated {
						detail += " (est)"
					}
				}
				fmt.Fprintf(Out, "%s  %-6s %-12s %s\n",
					l.StartedAt.Local().Format(time.DateTime), l.Method, detail, l.Notes)
			}
		case "sleep":
			sleeps, err := e.Logs.ListSleep(babyID, limit)
			if err != nil {
				return err
			}
			for _, l := range sleeps {
				end := "ongoing"
				if !l.EndedAt.IsZero() {
					end = l.EndedAt.Local().Format(time.TimeOnly)
				}
				fmt.Fprintf(Out, "%s - %-8s %3d min  %s\n",
					l.StartedAt.Local().Format(time.DateTime), end, l.DurationMinutes, l.Notes)
			}
		case "nappy":
			nappies, err := e.Logs.ListNappy(babyID, limit)
			if err != nil {
				return err
			}
			for _, l := range nappies {
				fmt.Fprintf(Out, "%s  %-6s %s %s\n",
					l.StartedAt.Local().Format(time.DateTime), l.Type, l.Colour, l.Notes)
			}
		default:
			return ErrUsage
		}
		return nil
	})
}

func init() { RegisterCmd(logsCmd{}) }
