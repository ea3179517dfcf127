package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/cache"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/model"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

// RefetchReport describes the outcome of refetching a period.
type RefetchReport struct {
	Range      timecalc.Range
	Fetched    bool
	Provenance Provenance
	Entries    int
	Err        error
}

// Message is a one-line summary for the user.
func (r RefetchReport) Message() string {
	label := r.Range.Label()
	switch {
	case r.Fetched:
		return fmt.Sprintf("refetched %s: %d entries", label, r.Entries)
	case errors.Is(r.Err, ErrQuotaExhausted):
		return fmt.Sprintf("%s not refetched: daily quota exhausted", label)
	case errors.Is(r.Err, ErrAuth):
		return fmt.Sprintf("%s not refetched: API token rejected", label)
	case r.Err != nil:
		return fmt.Sprintf("%s not refetched: %v", label, r.Err)
	default:
		return fmt.Sprintf("%s not refetched", label)
	}
}

// Refetch forces a fetch of exactly req.Range, bypassing any cache hit for
// it. The call is quota-limited like any other time-entry fetch.
func (o *Orchestrator) Refetch(ctx context.Context, req Request) RefetchReport {
	req.Force = true
	res := o.TimeEntries(ctx, req)
	return RefetchReport{
		Range:      req.Range,
		Fetched:    res.Provenance == Live,
		Provenance: res.Provenance,
		Entries:    len(res.Data),
		Err:        res.Err,
	}
}

// CachedEntriesByDay assembles the cached entries of r without calling the
// API. For every calendar day the most recently fetched record whose range
// covers that day supplies the day's entries. It also returns the oldest
// fetch time among the records used, and whether every day was covered.
func (o *Orchestrator) CachedEntriesByDay(ctx context.Context, identity string, workspaceID int64,
	r timecalc.Range) ([]model.TimeEntry, time.Time, bool, error) {
	records, err := o.store.List(ctx, identity, workspaceID, cache.ScopeTimeEntries)
	if err != nil {
		return nil, time.Time{}, false, err
	}

	type candidate struct {
		span    timecalc.Range
		rec     cache.Record
		entries []model.TimeEntry
	}
	var candidates []*candidate
	for _, rec := range records {
		span, ok := rec.Key.Range(o.loc)
		if !ok || !span.Overlaps(r) {
			continue
		}
		// An undecodable record covers nothing, like a miss in lookup.
		var entries []model.TimeEntry
		if err := json.Unmarshal(rec.Payload, &entries); err != nil {
			o.log.Warn().Err(err).Str("key", rec.Key.From+".."+rec.Key.To).Msg("skipping undecodable cache record")
			continue
		}
		candidates = append(candidates, &candidate{span: span, rec: rec, entries: entries})
	}

	var (
		out      []model.TimeEntry
		oldest   time.Time
		complete = true
	)
	for _, day := range r.Days() {
		var best *candidate
		for _, c := range candidates {
			if !c.span.Contains(day) {
				continue
			}
			if best == nil || c.rec.FetchedAt.After(best.rec.FetchedAt) {
				best = c
			}
		}
		if best == nil {
			complete = false
			continue
		}
		if oldest.IsZero() || best.rec.FetchedAt.Before(oldest) {
			oldest = best.rec.FetchedAt
		}
		dayRange := timecalc.DayRange(day)
		for _, e := range best.entries {
			if dayRange.Contains(e.Start.In(o.loc)) {
				out = append(out, e)
			}
		}
	}
	return out, oldest, complete, nil
}

// PeriodEntries returns the entries of a multi-day period. When cached
// records already cover every day, they are merged per day without calling
// the API; otherwise the whole period is requested through TimeEntries and
// the merge is repeated so newer per-day records still win.
func (o *Orchestrator) PeriodEntries(ctx context.Context, req Request) Result[[]model.TimeEntry] {
	if !req.Force {
		entries, fetchedAt, complete, err := o.CachedEntriesByDay(ctx, req.Identity, req.WorkspaceID, req.Range)
		if err != nil {
			o.log.Warn().Err(err).Msg("listing cached entries failed")
		} else if complete {
			return Result[[]model.TimeEntry]{Data: entries, Provenance: Cached, FetchedAt: fetchedAt}
		}
	}

	res := o.TimeEntries(ctx, req)
	if !res.HasData() {
		return res
	}
	entries, fetchedAt, _, err := o.CachedEntriesByDay(ctx, req.Identity, req.WorkspaceID, req.Range)
	if err != nil || res.Diagnostic != nil {
		// The cache could not be read back; the fetched payload is still valid.
		return res
	}
	res.Data = entries
	if res.Provenance != Live {
		res.FetchedAt = fetchedAt
	}
	return res
}
