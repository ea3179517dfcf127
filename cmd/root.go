package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/app"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/cache"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/metrics"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/storage"
)

var (
	flagWorkspace int64
	flagDate      string
	flagFrom      string
	flagTo        string
	flagPeriod    string
	flagRefresh   bool
	flagLogLevel  string
	flagStats     bool
)

// application is opened before every command that needs local state and
// closed after it.
var application *app.App

var rootCmd = &cobra.Command{
	Use:   "ttv",
	Short: "Trivial Toggl Viewer – a cache-first viewer for Toggl Track",
	Long: `ttv shows your Toggl Track time entries grouped by project and client,
with week/month/year rollups. API responses are cached in ~/.ttv/ and
time-entry fetches are limited to a daily budget; pass --refresh to bypass
the cache.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: openApp,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp(cmd)
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(exitCode(err))
	}
}

// execute runs the root command. cobra skips the post-run hook when a
// command fails, so the app is closed and --stats printed here instead.
func execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	if application != nil {
		application.Close()
		application = nil
	}
	if flagStats {
		if werr := writeStats(rootCmd.ErrOrStderr()); werr != nil {
			fmt.Fprintln(rootCmd.ErrOrStderr(), warnStyle.Render("Warning:"), werr)
		}
	}
	return err
}

// exitCode is 2 for local storage failures and 1 for everything else.
func exitCode(err error) int {
	if errors.Is(err, cache.ErrStorage) || errors.Is(err, storage.ErrCorrupt) {
		return 2
	}
	return 1
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.Int64Var(&flagWorkspace, "workspace", 0, "Workspace id (default: the only workspace, or default_workspace)")
	pf.StringVar(&flagDate, "date", "", "Day to show, or the day inside --period (YYYY-MM-DD, default today)")
	pf.StringVar(&flagFrom, "from", "", "First day of a custom range (YYYY-MM-DD)")
	pf.StringVar(&flagTo, "to", "", "Last day of a custom range, inclusive (YYYY-MM-DD, default today)")
	pf.StringVar(&flagPeriod, "period", "day", "Range around --date: day, week, month or year")
	pf.BoolVar(&flagRefresh, "refresh", false, "Bypass the cache (still limited by the daily quota)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	pf.BoolVar(&flagStats, "stats", false, "Print API and cache counters to stderr on exit")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(rollupCmd)
	rootCmd.AddCommand(refetchCmd)
	rootCmd.AddCommand(workspacesCmd)
	rootCmd.AddCommand(quotaCmd)
	rootCmd.AddCommand(nonWorkingCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(exportCmd)
}

func openApp(cmd *cobra.Command, args []string) error {
	a, err := app.Open(commandContext(cmd), app.Options{LogLevel: flagLogLevel})
	if err != nil {
		return err
	}
	application = a
	for _, d := range a.Diagnostics() {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("Warning:"), d, "(starting from empty state)")
	}
	return nil
}

func closeApp(cmd *cobra.Command) error {
	if application == nil {
		return nil
	}
	err := application.Close()
	application = nil
	if flagStats {
		if werr := writeStats(cmd.ErrOrStderr()); werr != nil {
			return werr
		}
	}
	return err
}

func writeStats(w io.Writer) error {
	return metrics.Write(w, prometheus.DefaultGatherer)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
