package app_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/app"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/credential"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/model"
)

type workspaces []model.Workspace

func (w workspaces) FetchWorkspaces(context.Context) ([]model.Workspace, error) { return w, nil }
func (w workspaces) FetchProjects(context.Context, int64) ([]model.Project, error) {
	return nil, nil
}
func (w workspaces) FetchClients(context.Context, int64) ([]model.Client, error) { return nil, nil }
func (w workspaces) FetchTimeEntries(context.Context, time.Time, time.Time) ([]model.TimeEntry, error) {
	return nil, nil
}

func open(t *testing.T, env map[string]string, remote workspaces) *app.App {
	t.Helper()
	opts := app.Options{
		Dir:       t.TempDir(),
		LogOutput: io.Discard,
		Lookuper:  envconfig.MapLookuper(env),
		Now:       func() time.Time { return time.Date(2026, 2, 3, 23, 30, 0, 0, time.UTC) },
	}
	if remote != nil {
		opts.Remote = remote
	}
	a, err := app.Open(context.Background(), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpenWithoutCredential(t *testing.T) {
	a := open(t, nil, nil)
	if _, err := a.Sync(); !errors.Is(err, credential.ErrMissing) {
		t.Errorf("Sync err = %v, want ErrMissing", err)
	}
	if a.Quota.Remaining() != 30 {
		t.Errorf("Remaining = %d, want default 30", a.Quota.Remaining())
	}
	if len(a.Diagnostics()) != 0 {
		t.Errorf("fresh state has diagnostics: %v", a.Diagnostics())
	}
}

func TestOpenUsesReferenceZone(t *testing.T) {
	a := open(t, map[string]string{"TTV_TIMEZONE": "Europe/Berlin", "TOGGL_API_TOKEN": "tok"}, nil)
	if got := a.Today().Format("2006-01-02"); got != "2026-02-04" {
		t.Errorf("Today = %s, want 2026-02-04 in Berlin", got)
	}
	if a.Identity() != credential.Identity("tok") {
		t.Error("identity not derived from the token")
	}
	if _, err := a.Sync(); err != nil {
		t.Errorf("Sync: %v", err)
	}
}

func TestCorruptStateIsDiagnosed(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "quota.json"), []byte("nope"), 0o600)
	a, err := app.Open(context.Background(), app.Options{
		Dir:       dir,
		LogOutput: io.Discard,
		Lookuper:  envconfig.MapLookuper(nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if len(a.Diagnostics()) != 1 {
		t.Errorf("Diagnostics = %v, want the quota file", a.Diagnostics())
	}
}

func TestWorkspaceSelection(t *testing.T) {
	single := open(t, nil, workspaces{{ID: 7, Name: "Main"}})
	if id, err := single.Workspace(context.Background(), 0); err != nil || id != 7 {
		t.Errorf("single workspace = %d, %v", id, err)
	}
	if id, _ := single.Workspace(context.Background(), 42); id != 42 {
		t.Errorf("explicit workspace = %d, want 42", id)
	}

	many := open(t, nil, workspaces{{ID: 7, Name: "Main"}, {ID: 8, Name: "Side"}})
	if _, err := many.Workspace(context.Background(), 0); !errors.Is(err, app.ErrWorkspace) {
		t.Errorf("err = %v, want ErrWorkspace", err)
	}
}
