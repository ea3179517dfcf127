package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/storage"
)

// FileName is the config file name inside the state directory.
const FileName = "config.json"

// Config is the root configuration for ttv, stored in ~/.ttv/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	// Timezone is the IANA reference zone for "today", quota resets and
	// date ranges. Empty means the system zone.
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
	// DefaultWorkspace selects a workspace when the token sees several.
	DefaultWorkspace int64          `json:"default_workspace" validate:"gte=0"`
	TargetHours      float64        `json:"target_hours" validate:"gte=0,lte=24"`
	LogLevel         string         `json:"log_level" validate:"oneof=trace debug info warn error"`
	Quota            QuotaConfig    `json:"quota"`
	Rounding         RoundingConfig `json:"rounding"`
	Rollups          RollupsConfig  `json:"rollups"`
	Cache            CacheConfig    `json:"cache"`
	API              APIConfig      `json:"api"`
}

// QuotaConfig limits time-entry fetches per reference day.
type QuotaConfig struct {
	DailyLimit int `json:"daily_limit" validate:"min=1"`
}

// RoundingConfig controls per-description rounding in summaries.
type RoundingConfig struct {
	Enabled          bool   `json:"enabled"`
	IncrementMinutes int    `json:"increment_minutes" validate:"oneof=15 30 45 60"`
	Mode             string `json:"mode" validate:"oneof=closest up down"`
}

// RollupsConfig controls week/month/year rollups.
type RollupsConfig struct {
	IncludeWeekends   bool   `json:"include_weekends"`
	IncludeNonWorking bool   `json:"include_non_working"`
	WeekStart         string `json:"week_start" validate:"oneof=monday sunday"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend string `json:"backend" validate:"oneof=file sqlite"`
}

// APIConfig points the client at the Toggl API.
type APIConfig struct {
	BaseURL        string `json:"base_url" validate:"omitempty,url"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"gte=0"`
}

const (
	DefaultTargetHours      = 8.0
	DefaultDailyLimit       = 30
	DefaultIncrementMinutes = 15
	DefaultRoundingMode     = "closest"
	DefaultWeekStart        = "monday"
	DefaultCacheBackend     = "file"
	DefaultLogLevel         = "warn"
	DefaultTimeoutSeconds   = 30
)

// Default returns a Config pre-filled with sensible defaults.
func Default() Config {
	return Config{
		TargetHours: DefaultTargetHours,
		LogLevel:    DefaultLogLevel,
		Quota:       QuotaConfig{DailyLimit: DefaultDailyLimit},
		Rounding:    RoundingConfig{IncrementMinutes: DefaultIncrementMinutes, Mode: DefaultRoundingMode},
		Rollups:     RollupsConfig{WeekStart: DefaultWeekStart},
		Cache:       CacheConfig{Backend: DefaultCacheBackend},
		API:         APIConfig{TimeoutSeconds: DefaultTimeoutSeconds},
	}
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Timeout returns the per-request API timeout, zero for none.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// ttv configuration – ~/.ttv/config.json
//
// All settings are optional; the built-in defaults shown below work out of
// the box. Environment variables (TTV_TIMEZONE, TTV_QUOTA_LIMIT,
// TTV_LOG_LEVEL, TTV_CACHE_BACKEND, TTV_API_BASE_URL) override this file.
{
  // IANA timezone that defines "today" for the API quota and date ranges,
  // e.g. "Europe/Berlin". Leave empty to use the system timezone.
  "timezone": "",

  // Workspace id used when your token can see more than one workspace.
  // 0 = pick the only workspace, or ask via --workspace.
  "default_workspace": 0,

  // Hours you aim to work per working day; rollups show the delta.
  "target_hours": 8,

  // trace, debug, info, warn or error. Logs go to stderr.
  "log_level": "warn",

  // ── Toggl API budget ─────────────────────────────────────────────────────
  "quota": {
    // Time-entry fetches allowed per day. Workspace, project and client
    // lookups are cached and not counted.
    "daily_limit": 30
  },

  // ── Rounding of summaries ────────────────────────────────────────────────
  "rounding": {
    "enabled": false,
    // 15, 30, 45 or 60
    "increment_minutes": 15,
    // closest, up or down
    "mode": "closest"
  },

  // ── Week / month / year rollups ──────────────────────────────────────────
  "rollups": {
    // Give Saturdays and Sundays a target.
    "include_weekends": false,
    // Count hours tracked on days marked non-working.
    "include_non_working": false,
    // monday or sunday
    "week_start": "monday"
  },

  // ── Local cache ──────────────────────────────────────────────────────────
  "cache": {
    // file (cache.json) or sqlite (cache.sqlite)
    "backend": "file"
  },

  "api": {
    // Leave empty for https://api.track.toggl.com/api/v9
    "base_url": "",
    // Per-request timeout in seconds, 0 = none.
    "timeout_seconds": 30
  }
}
`

type envOverrides struct {
	Home         *string `env:"TTV_HOME, noinit"`
	Timezone     *string `env:"TTV_TIMEZONE, noinit"`
	QuotaLimit   *int    `env:"TTV_QUOTA_LIMIT, noinit"`
	LogLevel     *string `env:"TTV_LOG_LEVEL, noinit"`
	CacheBackend *string `env:"TTV_CACHE_BACKEND, noinit"`
	APIBaseURL   *string `env:"TTV_API_BASE_URL, noinit"`
}

func readEnv(ctx context.Context, lookuper envconfig.Lookuper) (envOverrides, error) {
	var env envOverrides
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: lookuper}); err != nil {
		return env, fmt.Errorf("reading environment: %w", err)
	}
	return env, nil
}

// Dir returns the state directory: $TTV_HOME, or ~/.ttv.
func Dir(ctx context.Context, lookuper envconfig.Lookuper) (string, error) {
	env, err := readEnv(ctx, lookuper)
	if err != nil {
		return "", err
	}
	if env.Home != nil && *env.Home != "" {
		return *env.Home, nil
	}
	return storage.BaseDir()
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads <dir>/config.json, creating it with annotated defaults on first
// run, applies environment overrides and validates the result.
func Load(ctx context.Context, dir string, lookuper envconfig.Lookuper) (Config, error) {
	path := filepath.Join(dir, FileName)

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
	case err != nil:
		return Default(), fmt.Errorf("reading config file %s: %w", path, err)
	default:
		var fromFile Config
		if err := json.Unmarshal(stripLineComments(data), &fromFile); err != nil {
			return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
		cfg = fillDefaults(fromFile)
	}

	env, err := readEnv(ctx, lookuper)
	if err != nil {
		return cfg, err
	}
	applyEnv(&cfg, env)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills zero-value fields with built-in defaults so callers
// always get a usable Config even if the user only partially fills in the file.
func fillDefaults(cfg Config) Config {
	d := Default()
	if cfg.TargetHours == 0 {
		cfg.TargetHours = d.TargetHours
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}
	if cfg.Quota.DailyLimit == 0 {
		cfg.Quota.DailyLimit = d.Quota.DailyLimit
	}
	if cfg.Rounding.IncrementMinutes == 0 {
		cfg.Rounding.IncrementMinutes = d.Rounding.IncrementMinutes
	}
	if cfg.Rounding.Mode == "" {
		cfg.Rounding.Mode = d.Rounding.Mode
	}
	if cfg.Rollups.WeekStart == "" {
		cfg.Rollups.WeekStart = d.Rollups.WeekStart
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = d.Cache.Backend
	}
	return cfg
}

func applyEnv(cfg *Config, env envOverrides) {
	if env.Timezone != nil {
		cfg.Timezone = *env.Timezone
	}
	if env.QuotaLimit != nil {
		cfg.Quota.DailyLimit = *env.QuotaLimit
	}
	if env.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(*env.LogLevel)
	}
	if env.CacheBackend != nil {
		cfg.Cache.Backend = *env.CacheBackend
	}
	if env.APIBaseURL != nil {
		cfg.API.BaseURL = *env.APIBaseURL
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field against its constraints and joins the
// failures into one readable error.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s (got %v)", field, fe.Param(), fe.Value())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "timezone":
		return fmt.Sprintf("%s must be an IANA timezone (got %v)", field, fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a URL", field)
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
