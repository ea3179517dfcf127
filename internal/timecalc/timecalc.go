package timecalc

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used in cache keys, state files and flags.
const DateLayout = "2006-01-02"

// WeekStart selects the first day of a rollup week.
type WeekStart string

const (
	Monday WeekStart = "monday"
	Sunday WeekStart = "sunday"
)

// Range is a half-open interval [Start, End) of instants.
type Range struct {
	Start time.Time
	End   time.Time
}

// DayRange returns the range covering the calendar day of t in t's location.
func DayRange(t time.Time) Range {
	start := StartOfDay(t)
	return Range{Start: start, End: Midnight(start)}
}

// DaysRange returns the range covering the calendar days from..to inclusive,
// in the location of from.
func DaysRange(from, to time.Time) Range {
	start := StartOfDay(from)
	last := StartOfDay(to.In(from.Location()))
	if last.Before(start) {
		last = start
	}
	return Range{Start: start, End: Midnight(last)}
}

// Contains reports whether t lies in [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Overlaps reports whether the two ranges share at least one instant.
func (r Range) Overlaps(o Range) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// FirstDay returns the start of the first calendar day in the range.
func (r Range) FirstDay() time.Time {
	return StartOfDay(r.Start)
}

// LastDay returns the start of the last calendar day in the range.
func (r Range) LastDay() time.Time {
	return StartOfDay(r.End.Add(-time.Nanosecond))
}

// Days lists the start of every calendar day in the range.
func (r Range) Days() []time.Time {
	var days []time.Time
	for d := r.FirstDay(); d.Before(r.End); d = Midnight(d) {
		days = append(days, d)
	}
	return days
}

// Label renders "2026-02-03" for a single day and "2026-01-01 → 2026-01-10" otherwise.
func (r Range) Label() string {
	first := r.FirstDay().Format(DateLayout)
	last := r.LastDay().Format(DateLayout)
	if first == last {
		return first
	}
	return fmt.Sprintf("%s → %s", first, last)
}

// ParseDate parses a YYYY-MM-DD value as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", value)
	}
	return d, nil
}

// DateKey formats the calendar day of t.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// StartOfWeek returns midnight of the first day of the week containing t.
func StartOfWeek(t time.Time, start WeekStart) time.Time {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	offset := int(t.Weekday())
	if start != Sunday {
		offset = (offset + 6) % 7
	}
	return StartOfDay(t.AddDate(0, 0, -offset))
}

// WeekRange returns the week containing t.
func WeekRange(t time.Time, start WeekStart) Range {
	first := StartOfWeek(t, start)
	return Range{Start: first, End: StartOfDay(first.AddDate(0, 0, 7))}
}

// MonthRange returns the calendar month containing t.
func MonthRange(t time.Time) Range {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Range{Start: first, End: first.AddDate(0, 1, 0)}
}

// YearRange returns the calendar year containing t.
func YearRange(t time.Time) Range {
	first := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	return Range{Start: first, End: first.AddDate(1, 0, 0)}
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Midnight returns the start of the next day (midnight) in the same location.
func Midnight(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
