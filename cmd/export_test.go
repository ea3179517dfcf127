package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/aggregate"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/model"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

func TestCsvEscape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"with space", "with space"},
		{"with,comma", `"with,comma"`},
		{`with"quote`, `"with""quote"`},
		{"with\nnewline", "\"with\nnewline\""},
		{"with\rreturn", "\"with\rreturn\""},
		{"", ""},
	}
	for _, tt := range tests {
		got := csvEscape(tt.input)
		if got != tt.want {
			t.Errorf("csvEscape(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExportRowsSkipsRunningAndResolvesClients(t *testing.T) {
	pid, cid := int64(10), int64(7)
	stop := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)
	entries := []model.TimeEntry{
		{ID: 1, ProjectID: &pid, Description: "Dev", Start: stop.Add(-time.Hour), Stop: &stop, Duration: 3600},
		{ID: 2, Description: "Running", Start: stop.Add(time.Hour), Duration: -1},
		{ID: 3, Description: "Outside", Start: stop.AddDate(0, 0, 1), Stop: &stop, Duration: 60},
	}
	names := aggregate.NewNames(
		[]model.Project{{ID: pid, Name: "Alpha", ClientID: &cid}},
		[]model.Client{{ID: cid, Name: "Acme"}},
	)
	r := timecalc.DayRange(time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC))

	rows := exportRows(entries, names, r, time.UTC)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1: %+v", len(rows), rows)
	}
	got := rows[0]
	if got.Client != "Acme" || got.Project != "Alpha" || got.Date != "2026-02-03" || got.DurationSeconds != 3600 {
		t.Errorf("row = %+v", got)
	}

	var b strings.Builder
	printCSV(&b, rows)
	if !strings.Contains(b.String(), "2026-02-03,Acme,Alpha,Dev,") {
		t.Errorf("csv = %q", b.String())
	}
}
