package toggl_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/toggl"
)

func newClient(t *testing.T, h http.HandlerFunc) *toggl.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return toggl.NewClient(context.Background(), "secret-token", toggl.Options{
		BaseURL: srv.URL,
		Logger:  zerolog.Nop(),
	})
}

func TestBasicAuthHeader(t *testing.T) {
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("secret-token:api_token"))
	var got string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})

	if _, err := c.FetchWorkspaces(context.Background()); err != nil {
		t.Fatalf("FetchWorkspaces: %v", err)
	}
	if got != want {
		t.Errorf("Authorization = %q, want %q", got, want)
	}
}

func TestFetchTimeEntries(t *testing.T) {
	var path, start, end string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		start = r.URL.Query().Get("start_date")
		end = r.URL.Query().Get("end_date")
		w.Write([]byte(`[
			{"id": 1, "workspace_id": 7, "project_id": 3, "description": "Review",
			 "start": "2026-02-03T09:00:00Z", "stop": "2026-02-03T10:00:00Z", "duration": 3600,
			 "tags": ["ignored"]},
			{"id": 2, "workspace_id": 7, "project_id": null, "description": "",
			 "start": "2026-02-03T11:00:00Z", "stop": null, "duration": -1770109200}
		]`))
	})

	from := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	entries, err := c.FetchTimeEntries(context.Background(), from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("FetchTimeEntries: %v", err)
	}
	if path != "/me/time_entries" {
		t.Errorf("path = %q", path)
	}
	if start != "2026-02-03T00:00:00Z" || end != "2026-02-04T00:00:00Z" {
		t.Errorf("query = %q..%q", start, end)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ProjectID == nil || *entries[0].ProjectID != 3 || entries[0].Duration != 3600 {
		t.Errorf("first entry = %+v", entries[0])
	}
	if !entries[1].Running() || entries[1].ProjectID != nil {
		t.Errorf("second entry should be running without project: %+v", entries[1])
	}
}

func TestFetchProjectsAndClientsPaths(t *testing.T) {
	var paths []string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`[{"id": 5, "name": "Acme", "client_id": 9}]`))
	})

	projects, err := c.FetchProjects(context.Background(), 42)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].ClientID == nil || *projects[0].ClientID != 9 {
		t.Errorf("projects = %+v", projects)
	}
	if _, err := c.FetchClients(context.Background(), 42); err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || paths[0] != "/workspaces/42/projects" || paths[1] != "/workspaces/42/clients" {
		t.Errorf("paths = %v", paths)
	}
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   toggl.Kind
	}{
		{http.StatusUnauthorized, toggl.KindUnauthorized},
		{http.StatusForbidden, toggl.KindUnauthorized},
		{http.StatusPaymentRequired, toggl.KindRateLimited},
		{http.StatusTooManyRequests, toggl.KindRateLimited},
		{http.StatusInternalServerError, toggl.KindServer},
		{http.StatusBadGateway, toggl.KindServer},
		{http.StatusNotFound, toggl.KindNetwork},
		{http.StatusBadRequest, toggl.KindNetwork},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})
			_, err := c.FetchWorkspaces(context.Background())
			var te *toggl.Error
			if !errors.As(err, &te) {
				t.Fatalf("error %v is not *toggl.Error", err)
			}
			if te.Kind != tt.want || te.StatusCode != tt.status {
				t.Errorf("got kind %v status %d, want %v %d", te.Kind, te.StatusCode, tt.want, tt.status)
			}
			if toggl.KindOf(err) != tt.want {
				t.Errorf("KindOf = %v", toggl.KindOf(err))
			}
		})
	}
}

func TestDeadlineIsServerFailure(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.FetchWorkspaces(ctx)
	if got := toggl.KindOf(err); got != toggl.KindServer {
		t.Errorf("KindOf(%v) = %v, want server", err, got)
	}
}

func TestTransportFailureIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := toggl.NewClient(context.Background(), "tok", toggl.Options{BaseURL: url, Logger: zerolog.Nop()})
	_, err := c.FetchWorkspaces(context.Background())
	if got := toggl.KindOf(err); got != toggl.KindNetwork {
		t.Errorf("KindOf(%v) = %v, want network", err, got)
	}
}

func TestMalformedBodyIsNetwork(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})
	_, err := c.FetchWorkspaces(context.Background())
	if got := toggl.KindOf(err); got != toggl.KindNetwork {
		t.Errorf("KindOf = %v, want network", got)
	}
}
