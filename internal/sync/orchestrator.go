// Package sync decides, for every request, whether cached data is served or
// the Toggl API is called, keeps time-entry fetches within the daily quota,
// and reports the provenance of what it returns.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/cache"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/metrics"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/model"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/toggl"
)

// Remote is the subset of the Toggl client the orchestrator calls.
type Remote interface {
	FetchWorkspaces(ctx context.Context) ([]model.Workspace, error)
	FetchProjects(ctx context.Context, workspaceID int64) ([]model.Project, error)
	FetchClients(ctx context.Context, workspaceID int64) ([]model.Client, error)
	FetchTimeEntries(ctx context.Context, start, end time.Time) ([]model.TimeEntry, error)
}

// Quota is the daily budget for time-entry fetches.
type Quota interface {
	TryConsume(n int) bool
	Remaining() int
}

// Config wires an Orchestrator.
type Config struct {
	Store  cache.Store
	Remote Remote
	Quota  Quota
	// Location is the reference zone for calendar days.
	Location *time.Location
	Now      func() time.Time
	Logger   zerolog.Logger
}

// Orchestrator is the cache-first sync engine. It holds no state beyond its
// collaborators and is safe for concurrent use.
type Orchestrator struct {
	store  cache.Store
	remote Remote
	quota  Quota
	loc    *time.Location
	now    func() time.Time
	log    zerolog.Logger

	flight singleflight.Group
	keys   keyedMutex
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		store:  cfg.Store,
		remote: cfg.Remote,
		quota:  cfg.Quota,
		loc:    cfg.Location,
		now:    cfg.Now,
		log:    cfg.Logger,
	}
	if o.loc == nil {
		o.loc = time.Local
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Request asks for the time entries of a workspace in a date range.
type Request struct {
	Identity    string
	WorkspaceID int64
	// Range is expected to cover whole calendar days in the reference zone.
	Range timecalc.Range
	// Force bypasses a cache hit. The call is still quota-limited.
	Force bool
}

// TimeEntries returns the entries of req.Range, cache first. Only this call
// consumes quota.
func (o *Orchestrator) TimeEntries(ctx context.Context, req Request) Result[[]model.TimeEntry] {
	key := cache.EntriesKey(req.Identity, req.WorkspaceID, req.Range)
	return fetch(ctx, o, key, req.Force, true, func(ctx context.Context) ([]model.TimeEntry, error) {
		entries, err := o.remote.FetchTimeEntries(ctx, req.Range.Start, req.Range.End)
		if err != nil {
			return nil, err
		}
		return filterWorkspace(entries, req.WorkspaceID), nil
	})
}

// Workspaces returns the workspaces of the credential.
func (o *Orchestrator) Workspaces(ctx context.Context, identity string, force bool) Result[[]model.Workspace] {
	key := cache.MetadataKey(identity, 0, cache.ScopeWorkspaces)
	return fetch(ctx, o, key, force, false, o.remote.FetchWorkspaces)
}

// Projects returns the projects of a workspace.
func (o *Orchestrator) Projects(ctx context.Context, identity string, workspaceID int64, force bool) Result[[]model.Project] {
	key := cache.MetadataKey(identity, workspaceID, cache.ScopeProjects)
	return fetch(ctx, o, key, force, false, func(ctx context.Context) ([]model.Project, error) {
		return o.remote.FetchProjects(ctx, workspaceID)
	})
}

// Clients returns the clients of a workspace.
func (o *Orchestrator) Clients(ctx context.Context, identity string, workspaceID int64, force bool) Result[[]model.Client] {
	key := cache.MetadataKey(identity, workspaceID, cache.ScopeClients)
	return fetch(ctx, o, key, force, false, func(ctx context.Context) ([]model.Client, error) {
		return o.remote.FetchClients(ctx, workspaceID)
	})
}

// fetch coalesces concurrent identical requests and serialises requests for
// the same key, so a key is never fetched twice at once. The shared call
// runs detached from the first caller's cancellation so joined waiters are
// not failed by it; the client's own timeout still bounds it.
func fetch[T any](ctx context.Context, o *Orchestrator, key cache.Key, force, quota bool,
	call func(context.Context) (T, error)) Result[T] {
	id := key.String()
	flightKey := id + "|cached"
	if force {
		flightKey = id + "|force"
	}
	shared := context.WithoutCancel(ctx)
	v, _, _ := o.flight.Do(flightKey, func() (any, error) {
		unlock := o.keys.lock(id)
		defer unlock()
		return resolve(shared, o, key, force, quota, call), nil
	})
	res := v.(Result[T])
	metrics.ResultsTotal.WithLabelValues(string(key.Scope), res.Provenance.String()).Inc()
	return res
}

func resolve[T any](ctx context.Context, o *Orchestrator, key cache.Key, force, quota bool,
	call func(context.Context) (T, error)) Result[T] {
	log := o.log.With().Str("scope", string(key.Scope)).Str("from", key.From).Str("to", key.To).Logger()
	cached, hasCache := lookup[T](ctx, o, key, log)

	if hasCache && !force {
		log.Debug().Time("fetched_at", cached.FetchedAt).Msg("cache hit")
		return Result[T]{Data: cached.Data, Provenance: Cached, FetchedAt: cached.FetchedAt}
	}

	if quota {
		if !o.quota.TryConsume(1) {
			metrics.QuotaRefusedTotal.Inc()
			metrics.QuotaRemaining.Set(float64(o.quota.Remaining()))
			if hasCache {
				log.Warn().Msg("quota exhausted, serving cached data")
				return Result[T]{Data: cached.Data, Provenance: CachedDueToQuota, FetchedAt: cached.FetchedAt, Err: ErrQuotaExhausted}
			}
			log.Warn().Msg("quota exhausted, no cached data")
			return Result[T]{Err: ErrQuotaExhausted}
		}
		metrics.QuotaRemaining.Set(float64(o.quota.Remaining()))
	}

	started := time.Now()
	data, err := call(ctx)
	metrics.RemoteCallDuration.WithLabelValues(string(key.Scope)).Observe(time.Since(started).Seconds())

	if err == nil {
		metrics.RemoteCallsTotal.WithLabelValues(string(key.Scope), "ok").Inc()
		fetchedAt := o.now()
		res := Result[T]{Data: data, Provenance: Live, FetchedAt: fetchedAt}
		if err := store(ctx, o, key, data, fetchedAt); err != nil {
			log.Warn().Err(err).Msg("could not write cache")
			res.Diagnostic = err
		}
		log.Debug().Msg("fetched live")
		return res
	}

	kind := toggl.KindOf(err)
	metrics.RemoteCallsTotal.WithLabelValues(string(key.Scope), kind.String()).Inc()

	if kind == toggl.KindUnauthorized {
		res := Result[T]{Err: fmt.Errorf("%w: %w", ErrAuth, err)}
		if hasCache {
			res.Fallback = &cached
		}
		log.Warn().Err(err).Bool("fallback", hasCache).Msg("credential rejected")
		return res
	}

	wrapped := fmt.Errorf("%w: %w", ErrRemote, err)
	if hasCache {
		log.Warn().Err(err).Str("kind", kind.String()).Msg("remote failed, serving cached data")
		return Result[T]{Data: cached.Data, Provenance: CachedDueToError, FetchedAt: cached.FetchedAt, Err: wrapped}
	}
	log.Warn().Err(err).Str("kind", kind.String()).Msg("remote failed, no cached data")
	return Result[T]{Err: wrapped}
}

// lookup reads and decodes a cache record. Unreadable or undecodable records
// count as a miss.
func lookup[T any](ctx context.Context, o *Orchestrator, key cache.Key, log zerolog.Logger) (Snapshot[T], bool) {
	scope := string(key.Scope)
	rec, ok, err := o.store.Get(ctx, key)
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues(scope, "error").Inc()
		log.Warn().Err(err).Msg("cache read failed, treating as miss")
		return Snapshot[T]{}, false
	}
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues(scope, "miss").Inc()
		return Snapshot[T]{}, false
	}
	var data T
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		metrics.CacheLookupsTotal.WithLabelValues(scope, "error").Inc()
		log.Warn().Err(err).Msg("cached payload undecodable, treating as miss")
		return Snapshot[T]{}, false
	}
	metrics.CacheLookupsTotal.WithLabelValues(scope, "hit").Inc()
	return Snapshot[T]{Data: data, FetchedAt: rec.FetchedAt}, true
}

func store[T any](ctx context.Context, o *Orchestrator, key cache.Key, data T, fetchedAt time.Time) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", key.Scope, err)
	}
	return o.store.Put(ctx, key, payload, fetchedAt)
}

func filterWorkspace(entries []model.TimeEntry, workspaceID int64) []model.TimeEntry {
	if workspaceID == 0 {
		return entries
	}
	out := make([]model.TimeEntry, 0, len(entries))
	for _, e := range entries {
		if e.WorkspaceID == workspaceID {
			out = append(out, e)
		}
	}
	return out
}
