// Package app owns the process-wide state of a ttv invocation: config,
// logger, cache, quota, non-working days and the sync orchestrator. It is
// opened once per command and closed on exit.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/aggregate"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/cache"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/config"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/credential"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/logger"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/metrics"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/nonworking"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/quota"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/sync"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/toggl"
)

// ErrWorkspace is returned when no single workspace can be selected.
var ErrWorkspace = errors.New("cannot select a workspace")

// Options configures Open. Zero values use the real environment.
type Options struct {
	// Dir overrides the state directory.
	Dir string
	// LogLevel overrides the configured level when set.
	LogLevel  string
	LogOutput io.Writer
	Lookuper  envconfig.Lookuper
	Now       func() time.Time
	// Remote replaces the Toggl client, for tests.
	Remote sync.Remote
}

// App is the explicit context object threaded through every command.
type App struct {
	Config     config.Config
	Dir        string
	Location   *time.Location
	Log        zerolog.Logger
	Cache      cache.Store
	Quota      *quota.Tracker
	NonWorking *nonworking.Store
	Now        func() time.Time

	identity string
	sync     *sync.Orchestrator
	credErr  error
}

// Open loads everything from disk. Corrupt cache, quota or non-working
// files do not fail Open; they are reported by Diagnostics. A missing
// credential only fails the commands that need the API.
func Open(ctx context.Context, opts Options) (*App, error) {
	lookuper := opts.Lookuper
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	dir := opts.Dir
	if dir == "" {
		d, err := config.Dir(ctx, lookuper)
		if err != nil {
			return nil, err
		}
		dir = d
	}

	cfg, err := config.Load(ctx, dir, lookuper)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	log := logger.New(logger.Options{Level: level, Pretty: true, Output: opts.LogOutput})

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := cache.Open(ctx, cache.Backend(cfg.Cache.Backend), dir)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	a := &App{
		Config:   cfg,
		Dir:      dir,
		Location: loc,
		Log:      log,
		Cache:    store,
		Now:      now,
		Quota: quota.Open(quota.Config{
			Path:     filepath.Join(dir, "quota.json"),
			Limit:    cfg.Quota.DailyLimit,
			Location: loc,
			Now:      now,
			Logger:   log.With().Str("component", "quota").Logger(),
		}),
		NonWorking: nonworking.Open(filepath.Join(dir, "nonworking.json"), log),
	}
	metrics.QuotaRemaining.Set(float64(a.Quota.Remaining()))

	remote := opts.Remote
	cred, err := credential.Resolve(ctx, lookuper, dir)
	switch {
	case err != nil && remote == nil:
		a.credErr = err
	case err == nil:
		a.identity = cred.Identity()
		if remote == nil {
			remote = toggl.NewClient(ctx, cred.Token, toggl.Options{
				BaseURL: cfg.API.BaseURL,
				Timeout: cfg.Timeout(),
				Logger:  log.With().Str("component", "toggl").Logger(),
			})
		}
	}
	if remote != nil {
		a.sync = sync.New(sync.Config{
			Store:    store,
			Remote:   remote,
			Quota:    a.Quota,
			Location: loc,
			Now:      now,
			Logger:   log.With().Str("component", "sync").Logger(),
		})
	}

	for _, d := range a.Diagnostics() {
		log.Warn().Err(d).Msg("local state recovered as empty")
	}
	return a, nil
}

// Close releases the cache.
func (a *App) Close() error {
	return a.Cache.Close()
}

// Diagnostics lists problems found while loading local state.
func (a *App) Diagnostics() []error {
	var out []error
	for _, err := range []error{a.Cache.Diagnostic(), a.Quota.Diagnostic(), a.NonWorking.Diagnostic()} {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

// Identity returns the hash of the active credential, empty when none.
func (a *App) Identity() string { return a.identity }

// Sync returns the orchestrator, or the credential error when no token is
// configured.
func (a *App) Sync() (*sync.Orchestrator, error) {
	if a.sync == nil {
		if a.credErr != nil {
			return nil, a.credErr
		}
		return nil, credential.ErrMissing
	}
	return a.sync, nil
}

// Today returns the current day in the reference zone.
func (a *App) Today() time.Time {
	return timecalc.StartOfDay(a.Now().In(a.Location))
}

// Rounding returns the configured rounding for aggregation.
func (a *App) Rounding() aggregate.Rounding {
	r := a.Config.Rounding
	mode, err := aggregate.ParseMode(r.Mode)
	if err != nil {
		mode = aggregate.ModeClosest
	}
	return aggregate.Rounding{Enabled: r.Enabled, IncrementMinutes: r.IncrementMinutes, Mode: mode}
}

// WeekStart returns the configured first day of the week.
func (a *App) WeekStart() timecalc.WeekStart {
	if a.Config.Rollups.WeekStart == string(timecalc.Sunday) {
		return timecalc.Sunday
	}
	return timecalc.Monday
}

// Workspace picks the workspace to show: an explicit id wins, then the
// configured default, then the only workspace of the token.
func (a *App) Workspace(ctx context.Context, explicit int64) (int64, error) {
	if explicit != 0 {
		return explicit, nil
	}
	if a.Config.DefaultWorkspace != 0 {
		return a.Config.DefaultWorkspace, nil
	}
	orch, err := a.Sync()
	if err != nil {
		return 0, err
	}
	res := orch.Workspaces(ctx, a.identity, false)
	if !res.HasData() {
		return 0, res.Err
	}
	switch len(res.Data) {
	case 1:
		return res.Data[0].ID, nil
	case 0:
		return 0, fmt.Errorf("%w: the token has no workspaces", ErrWorkspace)
	}
	names := make([]string, 0, len(res.Data))
	for _, w := range res.Data {
		names = append(names, fmt.Sprintf("%d (%s)", w.ID, w.Name))
	}
	sort.Strings(names)
	return 0, fmt.Errorf("%w: several workspaces, pass --workspace or set default_workspace: %s",
		ErrWorkspace, strings.Join(names, ", "))
}
