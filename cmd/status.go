package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/aggregate"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/sync"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running entry and today's total",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	a := application
	now := a.Now().In(a.Location)
	today := timecalc.DayRange(now)

	data, deferred := loadRange(cmd, today)
	if data == nil {
		return deferred
	}
	out := cmd.OutOrStdout()

	for _, e := range data.Entries {
		if !e.Running() {
			continue
		}
		elapsed := int64(now.Sub(e.Start).Seconds())
		fmt.Fprintln(out, headingStyle.Render("Running:"))
		fmt.Fprintf(out, "  Project: %s\n", projectName(e, data.Names))
		if e.Description != "" {
			fmt.Fprintf(out, "  Description: %s\n", e.Description)
		}
		fmt.Fprintf(out, "  Since: %s\n", e.Start.In(a.Location).Format("15:04"))
		fmt.Fprintf(out, "  Elapsed: %s\n", formatElapsed(elapsed))
		if data.Result.Provenance != sync.Live {
			fmt.Fprintln(out, mutedStyle.Render("  (as of the cached fetch; pass --refresh for the current state)"))
		}
		break
	}

	summary := aggregate.Aggregate(data.Entries, data.Names, aggregate.Options{Range: today, Rounding: a.Rounding()})
	fmt.Fprintf(out, "Today: %s logged.\n", timecalc.FormatDuration(summary.TotalSeconds))
	return deferred
}
