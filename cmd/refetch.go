package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/sync"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

var refetchCmd = &cobra.Command{
	Use:   "refetch [day|week|month|year]",
	Short: "Fetch a period again, bypassing the cache",
	Long: `refetch replaces the cached entries of one day, week, month or year
(around --date, default today) with a fresh API call. It uses one call of
the daily quota; the rest of the cache is left alone.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"day", "week", "month", "year"},
	RunE:      runRefetch,
}

func runRefetch(cmd *cobra.Command, args []string) error {
	a := application
	flags := currentRangeFlags()
	if len(args) == 1 {
		flags.period = args[0]
	}
	r, err := flags.resolve(a.Now(), a.Location, a.WeekStart())
	if err != nil {
		return err
	}

	report, err := refetch(cmd, r)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), report)
	if !report.Fetched {
		return report.Err
	}
	return nil
}

func refetch(cmd *cobra.Command, r timecalc.Range) (sync.RefetchReport, error) {
	a := application
	ctx := commandContext(cmd)
	orch, err := a.Sync()
	if err != nil {
		return sync.RefetchReport{}, err
	}
	ws, err := a.Workspace(ctx, flagWorkspace)
	if err != nil {
		return sync.RefetchReport{}, err
	}
	report := orch.Refetch(ctx, sync.Request{Identity: a.Identity(), WorkspaceID: ws, Range: r})
	if errors.Is(report.Err, sync.ErrAuth) {
		return report, report.Err
	}
	return report, nil
}
