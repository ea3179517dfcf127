// Package rollup builds weekly, monthly and yearly totals from per-day
// aggregates, with non-working days and a daily hour target.
package rollup

import (
	"fmt"
	"time"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/aggregate"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/model"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

// Period is the rollup granularity.
type Period string

const (
	Week  Period = "week"
	Month Period = "month"
	Year  Period = "year"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Week, Month, Year:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q (want week, month or year)", s)
}

// Range returns the period of kind p containing t.
func (p Period) Range(t time.Time, start timecalc.WeekStart) timecalc.Range {
	switch p {
	case Month:
		return timecalc.MonthRange(t)
	case Year:
		return timecalc.YearRange(t)
	default:
		return timecalc.WeekRange(t, start)
	}
}

// Day is the input for one calendar day.
type Day struct {
	// Date is midnight of the day in the reference zone.
	Date       time.Time
	Seconds    int64
	NonWorking bool
}

// Options controls Build.
type Options struct {
	Period      Period
	WeekStart   timecalc.WeekStart
	TargetHours float64
	// IncludeWeekends gives Saturdays and Sundays a target.
	IncludeWeekends bool
	// IncludeNonWorking counts the hours of non-working days in totals.
	IncludeNonWorking bool
}

// DayTotal is one day of a period.
type DayTotal struct {
	Date       time.Time
	Seconds    int64
	NonWorking bool
	// Counted reports whether Seconds contributes to the period total.
	Counted bool
	// TargetSeconds is zero for non-working days and for weekends unless
	// weekends are included.
	TargetSeconds int64
}

// PeriodTotal is one week, month or year.
type PeriodTotal struct {
	Label         string
	Start         time.Time
	End           time.Time
	Days          []DayTotal
	Seconds       int64
	WorkingDays   int
	TargetSeconds int64
}

// DeltaSeconds is overtime (positive) or undertime (negative).
func (p PeriodTotal) DeltaSeconds() int64 { return p.Seconds - p.TargetSeconds }

// Rollup is the ordered list of periods plus their sums.
type Rollup struct {
	Periods       []PeriodTotal
	Seconds       int64
	TargetSeconds int64
}

// DeltaSeconds is the overall overtime or undertime.
func (r Rollup) DeltaSeconds() int64 { return r.Seconds - r.TargetSeconds }

// Build groups days into periods. Days must be sorted by date; a period
// spans the days of the input that fall into it.
func Build(days []Day, opts Options) Rollup {
	target := int64(opts.TargetHours * 3600)

	var out Rollup
	var cur *PeriodTotal
	var curKey string
	for _, d := range days {
		key := periodKey(d.Date, opts)
		if cur == nil || key != curKey {
			if cur != nil {
				out.add(*cur, opts)
			}
			cur = &PeriodTotal{Start: d.Date}
			curKey = key
		}

		dt := DayTotal{
			Date:       d.Date,
			Seconds:    d.Seconds,
			NonWorking: d.NonWorking,
			Counted:    !d.NonWorking || opts.IncludeNonWorking,
		}
		if isWorkingDay(d, opts) {
			dt.TargetSeconds = target
			cur.WorkingDays++
		}
		if dt.Counted {
			cur.Seconds += dt.Seconds
		}
		cur.TargetSeconds += dt.TargetSeconds
		cur.End = d.Date
		cur.Days = append(cur.Days, dt)
	}
	if cur != nil {
		out.add(*cur, opts)
	}
	return out
}

func (r *Rollup) add(p PeriodTotal, opts Options) {
	p.Label = Label(p.Start, p.End, opts)
	r.Periods = append(r.Periods, p)
	r.Seconds += p.Seconds
	r.TargetSeconds += p.TargetSeconds
}

func isWorkingDay(d Day, opts Options) bool {
	if d.NonWorking {
		return false
	}
	return opts.IncludeWeekends || !timecalc.IsWeekend(d.Date)
}

func periodKey(t time.Time, opts Options) string {
	switch opts.Period {
	case Month:
		return t.Format("2006-01")
	case Year:
		return t.Format("2006")
	default:
		return timecalc.DateKey(timecalc.StartOfWeek(t, opts.WeekStart))
	}
}

// Label renders "W09 2026 (2026-02-23 → 2026-03-01)", "Feb 2026" or "2026".
// first and last are the first and last day present in the period.
func Label(first, last time.Time, opts Options) string {
	switch opts.Period {
	case Month:
		return first.Format("Jan 2006")
	case Year:
		return first.Format("2006")
	default:
		year, week := timecalc.StartOfWeek(first, opts.WeekStart).ISOWeek()
		return fmt.Sprintf("W%02d %d (%s → %s)", week, year,
			timecalc.DateKey(first), timecalc.DateKey(last))
	}
}

// DaysFromEntries returns one Day per calendar day of r. Each day's seconds
// is the grand total of aggregating that day's entries, so rounding applies
// per description bucket within the day. Entries are assigned to the day of
// their start in r's location.
func DaysFromEntries(entries []model.TimeEntry, r timecalc.Range, names aggregate.Names,
	rounding aggregate.Rounding, isNonWorking func(time.Time) bool) []Day {
	loc := r.Start.Location()
	byDay := map[string][]model.TimeEntry{}
	for _, e := range entries {
		if e.Running() || !r.Contains(e.Start) {
			continue
		}
		k := timecalc.DateKey(e.Start.In(loc))
		byDay[k] = append(byDay[k], e)
	}

	var days []Day
	for _, date := range r.Days() {
		d := Day{Date: date}
		if list := byDay[timecalc.DateKey(date)]; len(list) > 0 {
			s := aggregate.Aggregate(list, names, aggregate.Options{Rounding: rounding})
			d.Seconds = s.TotalSeconds
		}
		if isNonWorking != nil {
			d.NonWorking = isNonWorking(date)
		}
		days = append(days, d)
	}
	return days
}
