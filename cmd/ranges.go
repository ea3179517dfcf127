package cmd

import (
	"fmt"
	"time"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/rollup"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

// rangeFlags are the date selection flags shared by all commands.
type rangeFlags struct {
	date   string
	from   string
	to     string
	period string
}

func currentRangeFlags() rangeFlags {
	return rangeFlags{date: flagDate, from: flagFrom, to: flagTo, period: flagPeriod}
}

// resolve turns the flags into whole calendar days in loc. --from/--to win
// over --date/--period.
func (f rangeFlags) resolve(today time.Time, loc *time.Location, weekStart timecalc.WeekStart) (timecalc.Range, error) {
	today = timecalc.StartOfDay(today.In(loc))

	if f.from != "" || f.to != "" {
		if f.from == "" {
			return timecalc.Range{}, fmt.Errorf("--to requires --from")
		}
		from, err := timecalc.ParseDate(f.from, loc)
		if err != nil {
			return timecalc.Range{}, err
		}
		to := today
		if f.to != "" {
			if to, err = timecalc.ParseDate(f.to, loc); err != nil {
				return timecalc.Range{}, err
			}
		}
		if to.Before(from) {
			return timecalc.Range{}, fmt.Errorf("--to %s is before --from %s", f.to, f.from)
		}
		return timecalc.DaysRange(from, to), nil
	}

	anchor := today
	if f.date != "" {
		d, err := timecalc.ParseDate(f.date, loc)
		if err != nil {
			return timecalc.Range{}, err
		}
		anchor = d
	}
	if f.period == "" || f.period == "day" {
		return timecalc.DayRange(anchor), nil
	}
	p, err := rollup.ParsePeriod(f.period)
	if err != nil {
		return timecalc.Range{}, fmt.Errorf("--period: %w", err)
	}
	return p.Range(anchor, weekStart), nil
}
