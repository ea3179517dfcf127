package sync

import (
	"context"
	"errors"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/aggregate"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/model"
)

// Names resolves the project and client names needed to render entries.
// When entries reference unknown projects and live is true, the project
// list is fetched once more. Only an auth failure is returned; other
// failures leave placeholder labels.
func (o *Orchestrator) Names(ctx context.Context, identity string, workspaceID int64,
	entries []model.TimeEntry, live bool) (aggregate.Names, error) {
	projects := o.Projects(ctx, identity, workspaceID, false)
	if errors.Is(projects.Err, ErrAuth) {
		return aggregate.Names{}, projects.Err
	}
	names := aggregate.NewNames(projects.Data, nil)

	if missing := names.MissingProjects(entries); live && len(missing) > 0 && projects.Provenance != Live {
		o.log.Debug().Ints64("project_ids", missing).Msg("refreshing projects for unknown ids")
		refreshed := o.Projects(ctx, identity, workspaceID, true)
		if errors.Is(refreshed.Err, ErrAuth) {
			return names, refreshed.Err
		}
		if refreshed.HasData() {
			names = aggregate.NewNames(refreshed.Data, nil)
		}
	}

	if !hasClients(names) {
		return names, nil
	}
	clients := o.Clients(ctx, identity, workspaceID, false)
	if errors.Is(clients.Err, ErrAuth) {
		return names, clients.Err
	}
	for _, c := range clients.Data {
		names.Clients[c.ID] = c
	}
	return names, nil
}

func hasClients(n aggregate.Names) bool {
	for _, p := range n.Projects {
		if p.ClientID != nil {
			return true
		}
	}
	return false
}
