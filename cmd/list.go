package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/aggregate"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/model"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List time entries",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	r, err := resolveRange()
	if err != nil {
		return err
	}
	data, deferred := loadRange(cmd, r)
	if data == nil {
		return deferred
	}
	printList(cmd.OutOrStdout(), data.Entries, data.Names, r, application.Location)
	return deferred
}

// printList groups entries by date and prints them. Running entries are
// shown as ongoing.
func printList(w io.Writer, entries []model.TimeEntry, names aggregate.Names, r timecalc.Range, loc *time.Location) {
	var currentDay string
	printed := 0
	for _, e := range entries {
		if !r.Contains(e.Start) {
			continue
		}
		start := e.Start.In(loc)
		day := timecalc.DateKey(start)
		if day != currentDay {
			fmt.Fprintln(w, headingStyle.Render(day))
			currentDay = day
		}

		endStr := "ongoing"
		durStr := ""
		if e.Stop != nil {
			endStr = e.Stop.In(loc).Format("15:04")
			durStr = fmt.Sprintf(" (%s)", timecalc.FormatDuration(e.Duration))
		}

		desc := ""
		if e.Description != "" {
			desc = "  " + e.Description
		}

		fmt.Fprintf(w, "%s–%s  %s%s%s\n", start.Format("15:04"), endStr, projectName(e, names), desc, durStr)
		printed++
	}
	if printed == 0 {
		fmt.Fprintln(w, "No entries found.")
	}
}

func projectName(e model.TimeEntry, names aggregate.Names) string {
	if e.ProjectID == nil {
		return aggregate.NoProject
	}
	if p, ok := names.Projects[*e.ProjectID]; ok && p.Name != "" {
		return p.Name
	}
	return aggregate.UnknownProject
}
