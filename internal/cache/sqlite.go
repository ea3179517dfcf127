package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one row per record in a local SQLite database.
// INSERT OR REPLACE gives whole-record replacement in a single statement.
type SQLiteStore struct {
	path string

	mu   sync.Mutex
	db   *sql.DB
	diag error
}

// OpenSQLite opens (creating if needed) the cache database at path. A database
// that cannot be opened or migrated is moved aside to path+".corrupt" and
// replaced with an empty one; the failure is reported through Diagnostic.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}

	s := &SQLiteStore{path: path}
	db, err := openSQLite(ctx, path)
	if err != nil {
		s.diag = &StorageError{Op: "open", Path: path, Err: err}
		_ = os.Rename(path, path+".corrupt")
		db, err = openSQLite(ctx, path)
		if err != nil {
			return nil, &StorageError{Op: "open", Path: path, Err: err}
		}
	}
	s.db = db
	return s, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cache_records (
			k TEXT PRIMARY KEY,
			identity TEXT NOT NULL,
			workspace_id INTEGER NOT NULL,
			scope TEXT NOT NULL,
			range_from TEXT NOT NULL,
			range_to TEXT NOT NULL,
			payload TEXT NOT NULL,
			fetched_at_unixnano INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cache_records_scope ON cache_records(identity, workspace_id, scope);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

func (s *SQLiteStore) Diagnostic() error { return s.diag }

func (s *SQLiteStore) Get(ctx context.Context, key Key) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		payload  string
		unixNano int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at_unixnano FROM cache_records WHERE k = ?`, key.String(),
	).Scan(&payload, &unixNano)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, &StorageError{Op: "get", Path: s.path, Err: err}
	}
	return Record{Key: key, Payload: json.RawMessage(payload), FetchedAt: time.Unix(0, unixNano)}, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key Key, payload json.RawMessage, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_records(k, identity, workspace_id, scope, range_from, range_to, payload, fetched_at_unixnano)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		key.String(), key.Identity, key.WorkspaceID, string(key.Scope), key.From, key.To, string(payload), fetchedAt.UnixNano(),
	)
	if err != nil {
		return &StorageError{Op: "put", Path: s.path, Err: err}
	}
	return nil
}

func (s *SQLiteStore) Invalidate(ctx context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_records WHERE k = ?`, key.String()); err != nil {
		return &StorageError{Op: "invalidate", Path: s.path, Err: err}
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, identity string, workspaceID int64, scope Scope) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT range_from, range_to, payload, fetched_at_unixnano FROM cache_records
		 WHERE identity = ? AND workspace_id = ? AND scope = ? ORDER BY k`,
		identity, workspaceID, string(scope),
	)
	if err != nil {
		return nil, &StorageError{Op: "list", Path: s.path, Err: err}
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			from, to, payload string
			unixNano          int64
		)
		if err := rows.Scan(&from, &to, &payload, &unixNano); err != nil {
			return nil, &StorageError{Op: "list", Path: s.path, Err: err}
		}
		out = append(out, Record{
			Key:       Key{Identity: identity, WorkspaceID: workspaceID, Scope: scope, From: from, To: to},
			Payload:   json.RawMessage(payload),
			FetchedAt: time.Unix(0, unixNano),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list", Path: s.path, Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if identity == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM cache_records`)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM cache_records WHERE identity = ?`, identity)
	}
	if err != nil {
		return &StorageError{Op: "clear", Path: s.path, Err: err}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing cache database: %w", err)
	}
	return nil
}
