package cache

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/storage"
)

const fileVersion = 1

// fileState is the on-disk layout of cache.json.
type fileState struct {
	Version int               `json:"version"`
	Records map[string]Record `json:"records"`
}

// FileStore keeps every record in one JSON file that is rewritten atomically
// on each mutation.
type FileStore struct {
	path string

	mu      sync.Mutex
	records map[string]Record
	diag    error
}

// OpenFile loads the cache file at path. A missing file is an empty cache; an
// unreadable or corrupt file is also treated as empty and reported through
// Diagnostic.
func OpenFile(path string) *FileStore {
	s := &FileStore{path: path, records: map[string]Record{}}

	var st fileState
	found, err := storage.ReadJSON(path, &st)
	if err != nil {
		s.diag = &StorageError{Op: "load", Path: path, Err: err}
		return s
	}
	if found && st.Records != nil {
		s.records = st.Records
	}
	return s
}

func (s *FileStore) Diagnostic() error { return s.diag }

func (s *FileStore) Get(_ context.Context, key Key) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key.String()]
	return rec, ok, nil
}

func (s *FileStore) Put(_ context.Context, key Key, payload json.RawMessage, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.records)
	next[key.String()] = Record{
		Key:       key,
		Payload:   slices.Clone(payload),
		FetchedAt: fetchedAt,
	}
	return s.commit(next)
}

func (s *FileStore) Invalidate(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key.String()]; !ok {
		return nil
	}
	next := maps.Clone(s.records)
	delete(next, key.String())
	return s.commit(next)
}

func (s *FileStore) List(_ context.Context, identity string, workspaceID int64, scope Scope) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, k := range slices.Sorted(maps.Keys(s.records)) {
		rec := s.records[k]
		if rec.Key.Identity == identity && rec.Key.WorkspaceID == workspaceID && rec.Key.Scope == scope {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *FileStore) Clear(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := map[string]Record{}
	if identity != "" {
		for k, rec := range s.records {
			if rec.Key.Identity != identity {
				next[k] = rec
			}
		}
	}
	return s.commit(next)
}

// Close is a no-op: every mutation is already flushed.
func (s *FileStore) Close() error { return nil }

// commit persists next and only then makes it the in-memory state, so a
// failed write leaves both untouched.
func (s *FileStore) commit(next map[string]Record) error {
	if err := storage.WriteJSON(s.path, fileState{Version: fileVersion, Records: next}); err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	s.records = next
	return nil
}
