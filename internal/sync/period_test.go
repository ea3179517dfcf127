package sync_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/cache"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/model"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/sync"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

func ptr(v int64) *int64 { return &v }

func TestCachedEntriesByDayNewestRecordWins(t *testing.T) {
	f := newFixture(t, 10)
	mon := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)
	week := timecalc.WeekRange(mon, timecalc.Monday)

	putEntries(t, f.store, week, []model.TimeEntry{
		finished(1, 7, mon.Add(9*time.Hour), 3600),
		finished(2, 7, tue.Add(9*time.Hour), 3600),
	}, now.Add(-2*time.Hour))
	putEntries(t, f.store, timecalc.DayRange(tue), []model.TimeEntry{
		finished(3, 7, tue.Add(10*time.Hour), 1800),
	}, now.Add(-time.Hour))

	entries, oldest, complete, err := f.orch.CachedEntriesByDay(context.Background(), identity, 7, timecalc.DaysRange(mon, tue))
	if err != nil {
		t.Fatal(err)
	}
	if !complete {
		t.Error("both days are cached, want complete")
	}
	if len(entries) != 2 || entries[0].ID != 1 || entries[1].ID != 3 {
		t.Errorf("entries = %+v, want ids 1 and 3", entries)
	}
	if !oldest.Equal(now.Add(-2 * time.Hour)) {
		t.Errorf("oldest = %v", oldest)
	}
	if f.remote.entryCalls.Load() != 0 {
		t.Error("cached read must not call the API")
	}
}

func TestCachedEntriesByDayReportsGaps(t *testing.T) {
	f := newFixture(t, 10)
	mon := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	putEntries(t, f.store, timecalc.DayRange(mon), nil, now)

	_, _, complete, err := f.orch.CachedEntriesByDay(context.Background(), identity, 7, timecalc.DaysRange(mon, mon.AddDate(0, 0, 1)))
	if err != nil {
		t.Fatal(err)
	}
	if complete {
		t.Error("second day is not cached, want incomplete")
	}
}

func TestPeriodEntriesUsesCoveredCache(t *testing.T) {
	f := newFixture(t, 10)
	mon := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	week := timecalc.WeekRange(mon, timecalc.Monday)
	for _, d := range week.Days() {
		putEntries(t, f.store, timecalc.DayRange(d), []model.TimeEntry{finished(d.Unix(), 7, d.Add(8*time.Hour), 60)}, now)
	}

	res := f.orch.PeriodEntries(context.Background(), sync.Request{Identity: identity, WorkspaceID: 7, Range: week})
	if res.Provenance != sync.Cached || len(res.Data) != 7 {
		t.Fatalf("res = %+v", res)
	}
	if f.remote.entryCalls.Load() != 0 {
		t.Error("fully cached period must not call the API")
	}
}

func TestPeriodEntriesFetchesGaps(t *testing.T) {
	f := newFixture(t, 10)
	mon := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	week := timecalc.WeekRange(mon, timecalc.Monday)
	f.remote.entries = []model.TimeEntry{finished(1, 7, mon.Add(9*time.Hour), 3600)}

	res := f.orch.PeriodEntries(context.Background(), sync.Request{Identity: identity, WorkspaceID: 7, Range: week})
	if res.Provenance != sync.Live || len(res.Data) != 1 {
		t.Fatalf("res = %+v", res)
	}
	if f.remote.entryCalls.Load() != 1 {
		t.Errorf("remote called %d times, want 1", f.remote.entryCalls.Load())
	}
}

func TestNamesRefreshesUnknownProjects(t *testing.T) {
	f := newFixture(t, 10)
	f.remote.projects = []model.Project{{ID: 1, Name: "Old"}}
	if res := f.orch.Projects(context.Background(), identity, 7, false); res.Provenance != sync.Live {
		t.Fatalf("seed = %+v", res)
	}

	f.remote.projects = []model.Project{{ID: 1, Name: "Old"}, {ID: 2, Name: "New", ClientID: ptr(9)}}
	f.remote.clients = []model.Client{{ID: 9, Name: "Globex"}}
	entry := finished(1, 7, now.Add(-time.Hour), 60)
	entry.ProjectID = ptr(2)

	names, err := f.orch.Names(context.Background(), identity, 7, []model.TimeEntry{entry}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := names.Projects[2]; ok {
		t.Error("cached names should be used when the entries were not fetched live")
	}

	names, err = f.orch.Names(context.Background(), identity, 7, []model.TimeEntry{entry}, true)
	if err != nil {
		t.Fatal(err)
	}
	if names.Projects[2].Name != "New" || names.Clients[9].Name != "Globex" {
		t.Errorf("names = %+v", names)
	}
	if got := f.remote.projectCalls.Load(); got != 2 {
		t.Errorf("project fetches = %d, want 2", got)
	}
}

func TestCachedEntriesByDaySkipsUndecodableRecords(t *testing.T) {
	f := newFixture(t, 10)
	mon := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)
	week := timecalc.WeekRange(mon, timecalc.Monday)

	putEntries(t, f.store, timecalc.DayRange(mon), []model.TimeEntry{finished(1, 7, mon.Add(9*time.Hour), 3600)}, now.Add(-3*time.Hour))
	if err := f.store.Put(context.Background(), cache.EntriesKey(identity, 7, week), json.RawMessage(`{"not":"a list"}`), now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	entries, _, complete, err := f.orch.CachedEntriesByDay(context.Background(), identity, 7, timecalc.DaysRange(mon, tue))
	if err != nil {
		t.Fatal(err)
	}
	if complete {
		t.Error("tuesday is only covered by an undecodable record, want incomplete")
	}
	if len(entries) != 1 || entries[0].ID != 1 {
		t.Errorf("entries = %+v, want the older monday record", entries)
	}
}

func TestPeriodEntriesRefetchesOverUndecodableRecord(t *testing.T) {
	f := newFixture(t, 10)
	mon := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	week := timecalc.WeekRange(mon, timecalc.Monday)
	if err := f.store.Put(context.Background(), cache.EntriesKey(identity, 7, week), json.RawMessage(`{"not":"a list"}`), now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	f.remote.entries = []model.TimeEntry{finished(1, 7, mon.Add(9*time.Hour), 3600)}

	res := f.orch.PeriodEntries(context.Background(), sync.Request{Identity: identity, WorkspaceID: 7, Range: week})
	if res.Provenance != sync.Live || len(res.Data) != 1 {
		t.Fatalf("res = %+v, want live with one entry", res)
	}
	if got := f.remote.entryCalls.Load(); got != 1 {
		t.Errorf("remote called %d times, want 1", got)
	}
}
