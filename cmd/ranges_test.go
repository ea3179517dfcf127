package cmd

import (
	"testing"
	"time"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

func TestRangeFlagsResolve(t *testing.T) {
	loc := time.UTC
	today := time.Date(2026, 2, 4, 15, 30, 0, 0, loc)

	tests := []struct {
		name        string
		flags       rangeFlags
		first, last string
		wantErr     bool
	}{
		{name: "default is today", flags: rangeFlags{period: "day"}, first: "2026-02-04", last: "2026-02-04"},
		{name: "explicit date", flags: rangeFlags{date: "2026-01-15"}, first: "2026-01-15", last: "2026-01-15"},
		{name: "week around date", flags: rangeFlags{date: "2026-02-04", period: "week"}, first: "2026-02-02", last: "2026-02-08"},
		{name: "month", flags: rangeFlags{period: "month"}, first: "2026-02-01", last: "2026-02-28"},
		{name: "year", flags: rangeFlags{date: "2025-06-01", period: "year"}, first: "2025-01-01", last: "2025-12-31"},
		{name: "from only runs to today", flags: rangeFlags{from: "2026-02-01"}, first: "2026-02-01", last: "2026-02-04"},
		{name: "from and to win over period", flags: rangeFlags{from: "2026-01-30", to: "2026-02-02", period: "year"}, first: "2026-01-30", last: "2026-02-02"},
		{name: "to without from", flags: rangeFlags{to: "2026-02-02"}, wantErr: true},
		{name: "to before from", flags: rangeFlags{from: "2026-02-03", to: "2026-02-01"}, wantErr: true},
		{name: "bad date", flags: rangeFlags{date: "04.02.2026"}, wantErr: true},
		{name: "bad period", flags: rangeFlags{period: "fortnight"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.flags.resolve(today, loc, timecalc.Monday)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("resolve() = %v, want error", r)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve() error = %v", err)
			}
			if got := timecalc.DateKey(r.FirstDay()); got != tt.first {
				t.Errorf("first day = %s, want %s", got, tt.first)
			}
			if got := timecalc.DateKey(r.LastDay()); got != tt.last {
				t.Errorf("last day = %s, want %s", got, tt.last)
			}
		})
	}
}

func TestRangeFlagsResolveUsesReferenceZone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 23:30 UTC is already the next day in Berlin.
	now := time.Date(2026, 2, 3, 23, 30, 0, 0, time.UTC)
	r, err := rangeFlags{period: "day"}.resolve(now, berlin, timecalc.Monday)
	if err != nil {
		t.Fatal(err)
	}
	if got := timecalc.DateKey(r.FirstDay()); got != "2026-02-04" {
		t.Errorf("day = %s, want 2026-02-04", got)
	}
}
