package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/sync"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	overStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	underStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const rule = "--------------------------------"

// provenanceBanner describes where the data came from. It is empty for
// live data.
func provenanceBanner(p sync.Provenance, fetchedAt time.Time, err error, loc *time.Location) string {
	when := fetchedAt.In(loc).Format("2006-01-02 15:04")
	switch p {
	case sync.Cached:
		return mutedStyle.Render(fmt.Sprintf("cached %s (use --refresh to update)", when))
	case sync.CachedDueToQuota:
		return warnStyle.Render(fmt.Sprintf("⚠ daily API quota exhausted, showing cached data from %s", when))
	case sync.CachedDueToError:
		reason := "Toggl API unavailable"
		if err != nil {
			reason = err.Error()
		}
		return warnStyle.Render(fmt.Sprintf("⚠ %s, showing cached data from %s", reason, when))
	default:
		return ""
	}
}

func printBanner(w io.Writer, p sync.Provenance, fetchedAt time.Time, err error, loc *time.Location) {
	if b := provenanceBanner(p, fetchedAt, err, loc); b != "" {
		fmt.Fprintln(w, b)
	}
}

// authFallbackNote is printed above cached data shown after the API
// rejected the token.
func authFallbackNote(fetchedAt time.Time, loc *time.Location) string {
	return warnStyle.Render(fmt.Sprintf("⚠ API token rejected, showing cached data from %s; update TOGGL_API_TOKEN",
		fetchedAt.In(loc).Format("2006-01-02 15:04")))
}

func formatHours(seconds int64) string {
	return fmt.Sprintf("%.2fh", float64(seconds)/3600)
}

func formatDelta(seconds int64) string {
	s := fmt.Sprintf("%+.2fh", float64(seconds)/3600)
	switch {
	case seconds > 0:
		return overStyle.Render(s)
	case seconds < 0:
		return underStyle.Render(s)
	default:
		return s
	}
}

// formatElapsed formats seconds as "1h 2m 3s", "2m 3s" or "3s".
func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// noData turns a result without data into the command error.
func noData(err error) error {
	if errors.Is(err, sync.ErrQuotaExhausted) {
		return fmt.Errorf("%w and nothing is cached for this range; try again tomorrow", err)
	}
	return err
}

func rangeHeading(r timecalc.Range) string {
	return headingStyle.Render(r.Label())
}
