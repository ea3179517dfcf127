package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

var nonWorkingCmd = &cobra.Command{
	Use:     "nonworking",
	Aliases: []string{"holiday"},
	Short:   "Mark days as non-working",
}

var nonWorkingToggleCmd = &cobra.Command{
	Use:   "toggle [YYYY-MM-DD]",
	Short: "Toggle a day (default today) between working and non-working",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNonWorkingToggle,
}

var nonWorkingSetCmd = &cobra.Command{
	Use:   "set [YYYY-MM-DD]",
	Short: "Mark a day (default today) as non-working",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setNonWorking(cmd, args, true)
	},
}

var nonWorkingUnsetCmd = &cobra.Command{
	Use:   "unset [YYYY-MM-DD]",
	Short: "Mark a day (default today) as working again",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setNonWorking(cmd, args, false)
	},
}

var nonWorkingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List non-working days",
	Args:  cobra.NoArgs,
	RunE:  runNonWorkingList,
}

func init() {
	nonWorkingCmd.AddCommand(nonWorkingToggleCmd)
	nonWorkingCmd.AddCommand(nonWorkingSetCmd)
	nonWorkingCmd.AddCommand(nonWorkingUnsetCmd)
	nonWorkingCmd.AddCommand(nonWorkingListCmd)
}

// dayArg is the optional day argument, today when absent.
func dayArg(args []string) (time.Time, error) {
	a := application
	if len(args) == 0 {
		return a.Today(), nil
	}
	return timecalc.ParseDate(args[0], a.Location)
}

func runNonWorkingToggle(cmd *cobra.Command, args []string) error {
	day, err := dayArg(args)
	if err != nil {
		return err
	}
	on, err := application.NonWorking.Toggle(day)
	if err != nil {
		return err
	}
	printDayState(cmd, day, on)
	return nil
}

func setNonWorking(cmd *cobra.Command, args []string, on bool) error {
	day, err := dayArg(args)
	if err != nil {
		return err
	}
	if err := application.NonWorking.Set(day, on); err != nil {
		return err
	}
	printDayState(cmd, day, on)
	return nil
}

func printDayState(cmd *cobra.Command, day time.Time, nonWorking bool) {
	state := "working"
	if nonWorking {
		state = "non-working"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now a %s day.\n", timecalc.DateKey(day), state)
}

func runNonWorkingList(cmd *cobra.Command, args []string) error {
	days := application.NonWorking.Days()
	out := cmd.OutOrStdout()
	if len(days) == 0 {
		fmt.Fprintln(out, "No non-working days.")
		return nil
	}
	for _, d := range days {
		fmt.Fprintln(out, d)
	}
	return nil
}
