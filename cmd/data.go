package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/aggregate"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/model"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/sync"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

// rangeData is everything a command needs to render one range.
type rangeData struct {
	Workspace int64
	Range     timecalc.Range
	Entries   []model.TimeEntry
	Names     aggregate.Names
	Result    sync.Result[[]model.TimeEntry]
}

// loadRange fetches entries and names for r and prints the provenance
// banner. When the API rejected the token but cached data exists, the
// cached data is returned together with the auth error so the caller can
// render it and still fail.
func loadRange(cmd *cobra.Command, r timecalc.Range) (*rangeData, error) {
	a := application
	ctx := commandContext(cmd)
	orch, err := a.Sync()
	if err != nil {
		return nil, err
	}
	ws, err := a.Workspace(ctx, flagWorkspace)
	if err != nil {
		return nil, err
	}

	req := sync.Request{Identity: a.Identity(), WorkspaceID: ws, Range: r, Force: flagRefresh}
	var res sync.Result[[]model.TimeEntry]
	if len(r.Days()) > 1 {
		res = orch.PeriodEntries(ctx, req)
	} else {
		res = orch.TimeEntries(ctx, req)
	}

	out := cmd.OutOrStdout()
	var deferred error
	data := res.Data
	if !res.HasData() {
		if res.Fallback == nil {
			return nil, noData(res.Err)
		}
		cmd.PrintErrln(authFallbackNote(res.Fallback.FetchedAt, a.Location))
		data = res.Fallback.Data
		deferred = res.Err
	} else {
		printBanner(out, res.Provenance, res.FetchedAt, res.Err, a.Location)
	}
	if res.Diagnostic != nil {
		cmd.PrintErrln(warnStyle.Render("Warning:"), res.Diagnostic)
	}

	names, err := orch.Names(ctx, a.Identity(), ws, data, res.Provenance == sync.Live)
	if err != nil && deferred == nil {
		deferred = err
	}
	return &rangeData{Workspace: ws, Range: r, Entries: data, Names: names, Result: res}, deferred
}

func resolveRange() (timecalc.Range, error) {
	a := application
	return currentRangeFlags().resolve(a.Now(), a.Location, a.WeekStart())
}
