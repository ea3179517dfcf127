// Package toggl is a small client for the Toggl Track v9 API covering the
// read-only calls the viewer needs.
package toggl

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/model"
)

// DefaultBaseURL is the public Toggl Track API root.
const DefaultBaseURL = "https://api.track.toggl.com/api/v9"

const userAgent = "trivial-toggl-viewer"

// Options configures a Client.
type Options struct {
	// BaseURL overrides DefaultBaseURL (tests, proxies).
	BaseURL string
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Client is an authenticated Toggl Track API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates a client that authenticates with the given API token.
// Toggl expects HTTP basic auth with the literal password "api_token"; the
// header is injected by an oauth2 transport with a static "Basic" token.
func NewClient(ctx context.Context, apiToken string, opts Options) *Client {
	basic := base64.StdEncoding.EncodeToString([]byte(apiToken + ":api_token"))
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: basic, TokenType: "Basic"})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = opts.Timeout

	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{httpClient: hc, baseURL: base, log: opts.Logger}
}

// FetchWorkspaces lists the workspaces visible to the credential.
func (c *Client) FetchWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	var out []model.Workspace
	if err := c.get(ctx, "/workspaces", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchProjects lists the projects of a workspace.
func (c *Client) FetchProjects(ctx context.Context, workspaceID int64) ([]model.Project, error) {
	var out []model.Project
	if err := c.get(ctx, fmt.Sprintf("/workspaces/%d/projects", workspaceID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchClients lists the clients of a workspace.
func (c *Client) FetchClients(ctx context.Context, workspaceID int64) ([]model.Client, error) {
	var out []model.Client
	if err := c.get(ctx, fmt.Sprintf("/workspaces/%d/clients", workspaceID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchTimeEntries lists the user's time entries that start in [start, end).
func (c *Client) FetchTimeEntries(ctx context.Context, start, end time.Time) ([]model.TimeEntry, error) {
	q := url.Values{}
	q.Set("start_date", start.UTC().Format(time.RFC3339))
	q.Set("end_date", end.UTC().Format(time.RFC3339))

	var out []model.TimeEntry
	if err := c.get(ctx, "/me/time_entries", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("toggl request failed")
		return classifyTransport(err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(started)).
		Msg("toggl request")
	if err != nil {
		return classifyTransport(fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyStatus(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &Error{Kind: KindNetwork, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
