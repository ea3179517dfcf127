// Package quota tracks how many time-entry fetches were made on the current
// day of a fixed reference time zone and refuses calls beyond a daily limit.
package quota

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/storage"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

// DefaultLimit is the daily call budget when none is configured.
const DefaultLimit = 30

// State is the persisted quota record.
type State struct {
	CallCount int    `json:"call_count"`
	ResetDay  string `json:"reset_day"`
}

// Config configures a Tracker.
type Config struct {
	// Path of the quota state file.
	Path string
	// Limit is the daily call budget. Values below 1 use DefaultLimit.
	Limit int
	// Location is the reference time zone that defines "today".
	Location *time.Location
	// Now returns the current instant. Defaults to time.Now.
	Now    func() time.Time
	Logger zerolog.Logger
}

// Tracker is the persistent daily call counter. It is safe for concurrent use.
type Tracker struct {
	path  string
	limit int
	loc   *time.Location
	now   func() time.Time
	log   zerolog.Logger

	mu    sync.Mutex
	state State
	diag  error
}

// Open loads the quota file. An unreadable or corrupt file starts a fresh
// day with no calls counted; the problem is reported through Diagnostic.
func Open(cfg Config) *Tracker {
	t := &Tracker{
		path:  cfg.Path,
		limit: cfg.Limit,
		loc:   cfg.Location,
		now:   cfg.Now,
		log:   cfg.Logger,
	}
	if t.limit < 1 {
		t.limit = DefaultLimit
	}
	if t.loc == nil {
		t.loc = time.Local
	}
	if t.now == nil {
		t.now = time.Now
	}

	var st State
	if _, err := storage.ReadJSON(t.path, &st); err != nil {
		t.diag = err
		t.log.Warn().Err(err).Str("path", t.path).Msg("quota state unreadable, starting from zero")
		st = State{}
	}
	if st.CallCount < 0 {
		st.CallCount = 0
	}
	t.state = st

	t.mu.Lock()
	t.resetIfStaleLocked()
	t.mu.Unlock()
	return t
}

// Diagnostic returns the problem found while loading the quota file, if any.
func (t *Tracker) Diagnostic() error { return t.diag }

// Limit returns the daily call budget.
func (t *Tracker) Limit() int { return t.limit }

// Location returns the reference time zone.
func (t *Tracker) Location() *time.Location { return t.loc }

// ResetIfStale zeroes the counter when the reference day has changed since
// the state was last written. Calling it repeatedly has no further effect.
func (t *Tracker) ResetIfStale() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfStaleLocked()
}

// Remaining returns how many calls may still be made today.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfStaleLocked()
	if r := t.limit - t.state.CallCount; r > 0 {
		return r
	}
	return 0
}

// State returns a copy of the current, day-normalised state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfStaleLocked()
	return t.state
}

// TryConsume records n calls if that keeps today's count within the limit.
// It returns false and leaves the state unchanged otherwise.
func (t *Tracker) TryConsume(n int) bool {
	if n < 1 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfStaleLocked()

	if t.state.CallCount+n > t.limit {
		t.log.Info().
			Int("call_count", t.state.CallCount).
			Int("limit", t.limit).
			Msg("quota refused")
		return false
	}
	t.state.CallCount += n
	t.persistLocked()
	return true
}

func (t *Tracker) today() string {
	return timecalc.DateKey(t.now().In(t.loc))
}

func (t *Tracker) resetIfStaleLocked() {
	today := t.today()
	if t.state.ResetDay == today {
		return
	}
	if t.state.ResetDay != "" {
		t.log.Debug().
			Str("previous_day", t.state.ResetDay).
			Str("today", today).
			Int("previous_count", t.state.CallCount).
			Msg("quota reset for new day")
	}
	t.state = State{CallCount: 0, ResetDay: today}
	t.persistLocked()
}

// persistLocked writes the state as a whole. A failed write keeps the
// in-memory count so this process still honours the budget.
func (t *Tracker) persistLocked() {
	if t.path == "" {
		return
	}
	if err := storage.WriteJSON(t.path, t.state); err != nil {
		t.log.Warn().Err(err).Str("path", t.path).Msg("could not persist quota state")
	}
}
