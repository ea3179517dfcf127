package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/aggregate"
)

var (
	showByClient bool
	showSort     string
	showFormat   string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show hours grouped by project and description",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showByClient, "by-client", false, "Group projects by client")
	showCmd.Flags().StringVar(&showSort, "sort", "hours", "Order: hours or first-seen")
	showCmd.Flags().StringVar(&showFormat, "format", "md", "Output format: md, csv, json")
}

func runShow(cmd *cobra.Command, args []string) error {
	r, err := resolveRange()
	if err != nil {
		return err
	}
	data, deferred := loadRange(cmd, r)
	if data == nil {
		return deferred
	}

	summary := aggregate.Aggregate(data.Entries, data.Names, aggregate.Options{
		Range:    r,
		Rounding: application.Rounding(),
	})
	if showSort != "first-seen" {
		summary = summary.SortedByHours()
	}

	out := cmd.OutOrStdout()
	switch showFormat {
	case "csv":
		printSummaryCSV(out, summary, data.Names)
	case "json":
		if err := printSummaryJSON(out, summary, data.Names); err != nil {
			return err
		}
	default:
		fmt.Fprintln(out, rangeHeading(r))
		fmt.Fprintln(out, rule)
		if showByClient {
			for _, c := range aggregate.ByClient(summary, data.Names) {
				fmt.Fprintf(out, "%-28s%10s\n", headingStyle.Render(c.Name), formatHours(c.TotalSeconds))
				for _, p := range c.Projects {
					printProject(out, p, "  ")
				}
			}
		} else {
			for _, p := range summary.Projects {
				printProject(out, p, "")
			}
		}
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "%-28s%10s\n", "Total", formatHours(summary.TotalSeconds))
	}
	return deferred
}

func printProject(w io.Writer, p aggregate.ProjectSummary, indent string) {
	fmt.Fprintf(w, "%s%-28s%10s\n", indent, p.Name, formatHours(p.TotalSeconds))
	for _, e := range p.Entries {
		fmt.Fprintf(w, "%s  %-26s%10s\n", indent, e.Description, formatHours(e.RoundedSeconds))
	}
}

func printSummaryCSV(w io.Writer, s aggregate.Summary, names aggregate.Names) {
	fmt.Fprintln(w, "client,project,description,hours,raw_hours")
	for _, c := range aggregate.ByClient(s, names) {
		for _, p := range c.Projects {
			for _, e := range p.Entries {
				fmt.Fprintf(w, "%s,%s,%s,%.2f,%.2f\n",
					csvEscape(c.Name),
					csvEscape(p.Name),
					csvEscape(e.Description),
					e.Hours(),
					float64(e.Seconds)/3600,
				)
			}
		}
	}
}

type jsonEntry struct {
	Description string  `json:"description"`
	Hours       float64 `json:"hours"`
	RawSeconds  int64   `json:"raw_seconds"`
}

type jsonProject struct {
	ID      *int64      `json:"id"`
	Name    string      `json:"name"`
	Client  string      `json:"client"`
	Hours   float64     `json:"hours"`
	Entries []jsonEntry `json:"entries"`
}

func printSummaryJSON(w io.Writer, s aggregate.Summary, names aggregate.Names) error {
	doc := struct {
		Projects []jsonProject `json:"projects"`
		Total    float64       `json:"total_hours"`
	}{Projects: []jsonProject{}, Total: s.TotalHours()}

	for _, c := range aggregate.ByClient(s, names) {
		for _, p := range c.Projects {
			jp := jsonProject{ID: p.ProjectID, Name: p.Name, Client: c.Name, Hours: p.TotalHours()}
			for _, e := range p.Entries {
				jp.Entries = append(jp.Entries, jsonEntry{Description: e.Description, Hours: e.Hours(), RawSeconds: e.Seconds})
			}
			doc.Projects = append(doc.Projects, jp)
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
