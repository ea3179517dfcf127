package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/aggregate"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/model"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export finished time entries to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json")
}

// exportRow is one finished entry with resolved names.
type exportRow struct {
	Date            string    `json:"date"`
	Client          string    `json:"client"`
	Project         string    `json:"project"`
	Description     string    `json:"description"`
	Start           time.Time `json:"start"`
	Stop            time.Time `json:"stop"`
	DurationSeconds int64     `json:"duration_seconds"`
}

func runExport(cmd *cobra.Command, args []string) error {
	r, err := resolveRange()
	if err != nil {
		return err
	}
	data, deferred := loadRange(cmd, r)
	if data == nil {
		return deferred
	}

	rows := exportRows(data.Entries, data.Names, r, application.Location)
	out := cmd.OutOrStdout()
	switch exportFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
	case "csv":
		printCSV(out, rows)
	default:
		return fmt.Errorf("unknown export format %q (want csv or json)", exportFormat)
	}
	return deferred
}

func exportRows(entries []model.TimeEntry, names aggregate.Names, r timecalc.Range, loc *time.Location) []exportRow {
	rows := []exportRow{}
	for _, e := range entries {
		if e.Running() || !r.Contains(e.Start) {
			continue
		}
		client := aggregate.NoClient
		if e.ProjectID != nil {
			if p, ok := names.Projects[*e.ProjectID]; ok && p.ClientID != nil {
				client = aggregate.UnknownClient
				if c, ok := names.Clients[*p.ClientID]; ok {
					client = c.Name
				}
			}
		}
		rows = append(rows, exportRow{
			Date:            timecalc.DateKey(e.Start.In(loc)),
			Client:          client,
			Project:         projectName(e, names),
			Description:     e.Description,
			Start:           e.Start.In(loc),
			Stop:            e.Stop.In(loc),
			DurationSeconds: e.Duration,
		})
	}
	return rows
}

func printCSV(w io.Writer, rows []exportRow) {
	fmt.Fprintln(w, "date,client,project,description,start,stop,duration_minutes")
	for _, row := range rows {
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%d\n",
			csvEscape(row.Date),
			csvEscape(row.Client),
			csvEscape(row.Project),
			csvEscape(row.Description),
			csvEscape(row.Start.Format(time.RFC3339)),
			csvEscape(row.Stop.Format(time.RFC3339)),
			row.DurationSeconds/60,
		)
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
