// Package cache persists the payloads of successful remote fetches, one record
// per Key. A record is replaced as a whole; payloads are never merged on disk.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

// Scope names the kind of data a record holds.
type Scope string

const (
	ScopeWorkspaces  Scope = "workspaces"
	ScopeProjects    Scope = "projects"
	ScopeClients     Scope = "clients"
	ScopeTimeEntries Scope = "time_entries"
)

// WholeHistory is the degenerate range used by metadata records.
const WholeHistory = "*"

// ErrStorage matches every *StorageError.
var ErrStorage = errors.New("cache storage error")

// StorageError reports an unreadable, corrupt or unwritable cache.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Key identifies one cached payload.
type Key struct {
	Identity    string `json:"identity"`
	WorkspaceID int64  `json:"workspace_id"`
	Scope       Scope  `json:"scope"`
	From        string `json:"from"`
	To          string `json:"to"`
}

// MetadataKey returns the key for a workspace, project or client listing.
func MetadataKey(identity string, workspaceID int64, scope Scope) Key {
	return Key{Identity: identity, WorkspaceID: workspaceID, Scope: scope, From: WholeHistory, To: WholeHistory}
}

// EntriesKey returns the key for the time entries of the calendar days in r.
func EntriesKey(identity string, workspaceID int64, r timecalc.Range) Key {
	return Key{
		Identity:    identity,
		WorkspaceID: workspaceID,
		Scope:       ScopeTimeEntries,
		From:        timecalc.DateKey(r.FirstDay()),
		To:          timecalc.DateKey(r.LastDay()),
	}
}

func (k Key) String() string {
	return strings.Join([]string{
		k.Identity,
		strconv.FormatInt(k.WorkspaceID, 10),
		string(k.Scope),
		k.From,
		k.To,
	}, "|")
}

// Range returns the calendar days the key covers, anchored in loc.
// ok is false for whole-history keys.
func (k Key) Range(loc *time.Location) (timecalc.Range, bool) {
	if k.From == WholeHistory || k.To == WholeHistory {
		return timecalc.Range{}, false
	}
	from, err := timecalc.ParseDate(k.From, loc)
	if err != nil {
		return timecalc.Range{}, false
	}
	to, err := timecalc.ParseDate(k.To, loc)
	if err != nil {
		return timecalc.Range{}, false
	}
	return timecalc.DaysRange(from, to), true
}

// Record is one successful fetch outcome.
type Record struct {
	Key       Key             `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Store is the persistent key-value cache. A miss is reported as ok=false,
// never as an error.
type Store interface {
	Get(ctx context.Context, key Key) (Record, bool, error)
	Put(ctx context.Context, key Key, payload json.RawMessage, fetchedAt time.Time) error
	Invalidate(ctx context.Context, key Key) error
	// List returns every record of the identity, workspace and scope,
	// ordered by key.
	List(ctx context.Context, identity string, workspaceID int64, scope Scope) ([]Record, error)
	// Clear removes every record of identity, or all records when identity is empty.
	Clear(ctx context.Context, identity string) error
	// Diagnostic returns the problem found while opening the store, if any.
	// A store with a diagnostic behaves as an empty cache.
	Diagnostic() error
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
)

// Open opens the store for backend below dir.
func Open(ctx context.Context, backend Backend, dir string) (Store, error) {
	switch backend {
	case BackendSQLite:
		return OpenSQLite(ctx, filepath.Join(dir, "cache.sqlite"))
	case BackendFile, "":
		return OpenFile(filepath.Join(dir, "cache.json")), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
