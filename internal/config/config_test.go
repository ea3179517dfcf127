package config_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sethvargo/go-envconfig"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/config"
)

var noEnv = envconfig.MapLookuper(nil)

func TestFirstRunWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(context.Background(), dir, noEnv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, config.Default()) {
		t.Errorf("first run config = %+v, want defaults", cfg)
	}

	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	if err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "// ttv configuration") {
		t.Errorf("unexpected template head: %q", string(data[:40]))
	}

	// The annotated template must itself parse back to the defaults.
	again, err := config.Load(context.Background(), dir, noEnv)
	if err != nil {
		t.Fatalf("reloading template: %v", err)
	}
	if !reflect.DeepEqual(again, config.Default()) {
		t.Errorf("template config = %+v, want defaults", again)
	}
}

func TestPartialFileIsFilledWithDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `// my settings
{
  "timezone": "Europe/Berlin",
  // round to half hours
  "rounding": {"enabled": true, "increment_minutes": 30}
}`
	os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0o600)

	cfg, err := config.Load(context.Background(), dir, noEnv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timezone != "Europe/Berlin" || !cfg.Rounding.Enabled || cfg.Rounding.IncrementMinutes != 30 {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Rounding.Mode != "closest" || cfg.Quota.DailyLimit != 30 || cfg.TargetHours != 8 {
		t.Errorf("defaults not filled: %+v", cfg)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("Location = %v, %v", loc, err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	env := envconfig.MapLookuper(map[string]string{
		"TTV_TIMEZONE":      "UTC",
		"TTV_QUOTA_LIMIT":   "5",
		"TTV_LOG_LEVEL":     "DEBUG",
		"TTV_CACHE_BACKEND": "sqlite",
		"TTV_API_BASE_URL":  "http://localhost:8080/api/v9",
	})
	cfg, err := config.Load(context.Background(), t.TempDir(), env)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timezone != "UTC" || cfg.Quota.DailyLimit != 5 || cfg.LogLevel != "debug" ||
		cfg.Cache.Backend != "sqlite" || cfg.API.BaseURL != "http://localhost:8080/api/v9" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"increment", func(c *config.Config) { c.Rounding.IncrementMinutes = 20 }, "rounding.increment_minutes must be one of"},
		{"mode", func(c *config.Config) { c.Rounding.Mode = "nearest" }, "rounding.mode must be one of"},
		{"week start", func(c *config.Config) { c.Rollups.WeekStart = "friday" }, "rollups.week_start"},
		{"backend", func(c *config.Config) { c.Cache.Backend = "redis" }, "cache.backend"},
		{"quota", func(c *config.Config) { c.Quota.DailyLimit = -1 }, "quota.daily_limit must be at least 1"},
		{"target", func(c *config.Config) { c.TargetHours = 25 }, "target_hours must be at most 24"},
		{"timezone", func(c *config.Config) { c.Timezone = "Mars/Olympus" }, "timezone must be an IANA timezone"},
		{"log level", func(c *config.Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := config.Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate = %v, want it to contain %q", err, tt.want)
			}
		})
	}

	if err := config.Validate(config.Default()); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestInvalidFileReportsPath(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, config.FileName), []byte("{ not json"), 0o600)
	_, err := config.Load(context.Background(), dir, noEnv)
	if err == nil || !strings.Contains(err.Error(), config.FileName) {
		t.Errorf("err = %v", err)
	}
}

func TestDir(t *testing.T) {
	got, err := config.Dir(context.Background(), envconfig.MapLookuper(map[string]string{"TTV_HOME": "/tmp/ttv-test"}))
	if err != nil || got != "/tmp/ttv-test" {
		t.Errorf("Dir = %q, %v", got, err)
	}
}
