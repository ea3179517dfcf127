// Package nonworking persists the set of calendar days the user marked as
// non-working (holidays, sick days).
package nonworking

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/storage"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

type file struct {
	Days []string `json:"days"`
}

// Store is the non-working-days set backed by a JSON file.
type Store struct {
	path string
	log  zerolog.Logger

	mu   sync.RWMutex
	days map[string]bool
	diag error
}

// Open loads the set. A corrupt file yields an empty set and a Diagnostic.
func Open(path string, log zerolog.Logger) *Store {
	s := &Store{path: path, log: log, days: map[string]bool{}}
	var f file
	if _, err := storage.ReadJSON(path, &f); err != nil {
		s.diag = err
		log.Warn().Err(err).Str("path", path).Msg("non-working days unreadable, starting empty")
		return s
	}
	for _, d := range f.Days {
		if _, err := time.Parse(timecalc.DateLayout, d); err != nil {
			log.Warn().Str("day", d).Msg("ignoring malformed non-working day")
			continue
		}
		s.days[d] = true
	}
	return s
}

// Diagnostic returns the problem found while loading, if any.
func (s *Store) Diagnostic() error { return s.diag }

// IsNonWorking reports whether the calendar day of t is marked.
func (s *Store) IsNonWorking(t time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.days[timecalc.DateKey(t)]
}

// Toggle flips the mark for the day of t and returns the new state.
func (s *Store) Toggle(t time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := timecalc.DateKey(t)
	next := !s.days[k]
	if err := s.setLocked(k, next); err != nil {
		return !next, err
	}
	return next, nil
}

// Set marks or unmarks the day of t.
func (s *Store) Set(t time.Time, nonWorking bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(timecalc.DateKey(t), nonWorking)
}

// Days returns the marked days as sorted YYYY-MM-DD strings.
func (s *Store) Days() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

func (s *Store) setLocked(day string, nonWorking bool) error {
	if s.days[day] == nonWorking {
		return nil
	}
	if nonWorking {
		s.days[day] = true
	} else {
		delete(s.days, day)
	}
	if err := storage.WriteJSON(s.path, file{Days: s.sortedLocked()}); err != nil {
		// Roll back so memory matches disk.
		if nonWorking {
			delete(s.days, day)
		} else {
			s.days[day] = true
		}
		return fmt.Errorf("saving non-working days: %w", err)
	}
	return nil
}

func (s *Store) sortedLocked() []string {
	out := make([]string, 0, len(s.days))
	for d := range s.days {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
