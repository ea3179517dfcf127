package model

import "time"

// Workspace is a Toggl workspace visible to the current credential.
type Workspace struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Project is a Toggl project. ClientID is nil for projects without a client.
type Project struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ClientID *int64 `json:"client_id"`
}

// Client is a Toggl client (customer) a project can belong to.
type Client struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TimeEntry is a single Toggl time entry. Stop is nil while the entry is
// running; Toggl then reports a negative Duration.
type TimeEntry struct {
	ID          int64      `json:"id"`
	WorkspaceID int64      `json:"workspace_id"`
	ProjectID   *int64     `json:"project_id"`
	Description string     `json:"description"`
	Start       time.Time  `json:"start"`
	Stop        *time.Time `json:"stop"`
	Duration    int64      `json:"duration"`
}

// Running reports whether the entry has not been stopped yet.
func (e TimeEntry) Running() bool {
	return e.Stop == nil
}
