package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/rollup"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/sync"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

var (
	rollupRefetch           bool
	rollupDays              bool
	rollupIncludeWeekends   bool
	rollupIncludeNonWorking bool
)

var rollupCmd = &cobra.Command{
	Use:       "rollup [week|month|year]",
	Short:     "Show totals per week, month or year against the daily target",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"week", "month", "year"},
	RunE:      runRollup,
}

func init() {
	rollupCmd.Flags().BoolVar(&rollupRefetch, "refetch", false, "Refetch the selected period before showing it")
	rollupCmd.Flags().BoolVar(&rollupDays, "days", false, "Show every day of each period")
	rollupCmd.Flags().BoolVar(&rollupIncludeWeekends, "include-weekends", false, "Give weekends a target (default from config)")
	rollupCmd.Flags().BoolVar(&rollupIncludeNonWorking, "include-non-working", false, "Count hours on non-working days (default from config)")
}

func runRollup(cmd *cobra.Command, args []string) error {
	a := application
	period := rollup.Week
	if len(args) == 1 {
		period = rollup.Period(args[0])
	}

	flags := currentRangeFlags()
	var r timecalc.Range
	if flags.from != "" || flags.to != "" {
		var err error
		if r, err = flags.resolve(a.Now(), a.Location, a.WeekStart()); err != nil {
			return err
		}
	} else {
		anchor := a.Today()
		if flags.date != "" {
			d, err := timecalc.ParseDate(flags.date, a.Location)
			if err != nil {
				return err
			}
			anchor = d
		}
		r = period.Range(anchor, a.WeekStart())
	}

	if rollupRefetch {
		report, err := refetch(cmd, r)
		if err != nil {
			return err
		}
		printReport(cmd.ErrOrStderr(), report)
	}

	data, deferred := loadRange(cmd, r)
	if data == nil {
		return deferred
	}

	opts := rollup.Options{
		Period:            period,
		WeekStart:         a.WeekStart(),
		TargetHours:       a.Config.TargetHours,
		IncludeWeekends:   a.Config.Rollups.IncludeWeekends,
		IncludeNonWorking: a.Config.Rollups.IncludeNonWorking,
	}
	if cmd.Flags().Changed("include-weekends") {
		opts.IncludeWeekends = rollupIncludeWeekends
	}
	if cmd.Flags().Changed("include-non-working") {
		opts.IncludeNonWorking = rollupIncludeNonWorking
	}

	days := rollup.DaysFromEntries(data.Entries, r, data.Names, a.Rounding(), a.NonWorking.IsNonWorking)
	printRollup(cmd.OutOrStdout(), rollup.Build(days, opts), opts, rollupDays)
	return deferred
}

func printRollup(w io.Writer, ro rollup.Rollup, opts rollup.Options, withDays bool) {
	fmt.Fprintf(w, "%-40s%10s%10s%10s\n", "Period", "Hours", "Target", "Delta")
	fmt.Fprintln(w, rule+rule+"----------")
	for _, p := range ro.Periods {
		fmt.Fprintf(w, "%-40s%10s%10s  %s\n", p.Label, formatHours(p.Seconds), formatHours(p.TargetSeconds), formatDelta(p.DeltaSeconds()))
		if !withDays {
			continue
		}
		for _, d := range p.Days {
			marker := ""
			switch {
			case d.NonWorking:
				marker = " non-working"
			case timecalc.IsWeekend(d.Date) && !opts.IncludeWeekends:
				marker = " weekend"
			}
			line := fmt.Sprintf("  %s %s%s", d.Date.Format("Mon"), timecalc.DateKey(d.Date), marker)
			if !d.Counted {
				line = mutedStyle.Render(line + " (not counted)")
			}
			fmt.Fprintf(w, "%-40s%10s%10s\n", line, formatHours(d.Seconds), formatHours(d.TargetSeconds))
		}
	}
	if len(ro.Periods) > 1 {
		fmt.Fprintln(w, rule+rule+"----------")
		fmt.Fprintf(w, "%-40s%10s%10s  %s\n", "Total", formatHours(ro.Seconds), formatHours(ro.TargetSeconds), formatDelta(ro.DeltaSeconds()))
	}
}

func printReport(w io.Writer, report sync.RefetchReport) {
	if report.Fetched {
		fmt.Fprintln(w, mutedStyle.Render(report.Message()))
		return
	}
	fmt.Fprintln(w, warnStyle.Render("⚠ "+report.Message()))
}
