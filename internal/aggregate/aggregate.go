// Package aggregate groups finished time entries by project and description
// and totals them, optionally rounding each description bucket.
package aggregate

import (
	"sort"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/model"
	"github.com/Tiliavir/trivial-toggl-viewer/internal/timecalc"
)

// Placeholder labels used when data is missing.
const (
	NoProject      = "No Project"
	UnknownProject = "Unknown Project"
	NoDescription  = "No description"
	NoClient       = "No Client"
	UnknownClient  = "Unknown Client"
)

// Names resolves project and client ids to display data.
type Names struct {
	Projects map[int64]model.Project
	Clients  map[int64]model.Client
}

// NewNames indexes project and client listings.
func NewNames(projects []model.Project, clients []model.Client) Names {
	n := Names{
		Projects: make(map[int64]model.Project, len(projects)),
		Clients:  make(map[int64]model.Client, len(clients)),
	}
	for _, p := range projects {
		n.Projects[p.ID] = p
	}
	for _, c := range clients {
		n.Clients[c.ID] = c
	}
	return n
}

// MissingProjects returns the ids referenced by finished entries that have
// no name, in first-seen order.
func (n Names) MissingProjects(entries []model.TimeEntry) []int64 {
	seen := map[int64]bool{}
	var out []int64
	for _, e := range entries {
		if e.Running() || e.ProjectID == nil {
			continue
		}
		id := *e.ProjectID
		if _, ok := n.Projects[id]; ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Options controls an aggregation.
type Options struct {
	// Range limits the entries to those starting in [Start, End).
	// The zero Range disables the filter.
	Range    timecalc.Range
	Rounding Rounding
}

// GroupedEntry is one description bucket inside a project.
type GroupedEntry struct {
	Description string
	// Seconds is the raw sum of the bucket's durations.
	Seconds int64
	// RoundedSeconds equals Seconds when rounding is disabled.
	RoundedSeconds int64
}

// Hours returns the bucket's reported (rounded) hours.
func (g GroupedEntry) Hours() float64 { return hours(g.RoundedSeconds) }

// ProjectSummary is one project's buckets. TotalSeconds is the sum of the
// buckets' RoundedSeconds.
type ProjectSummary struct {
	// ProjectID is nil for the "No Project" bucket.
	ProjectID    *int64
	Name         string
	ClientID     *int64
	Entries      []GroupedEntry
	TotalSeconds int64
}

// TotalHours returns the project total in hours.
func (p ProjectSummary) TotalHours() float64 { return hours(p.TotalSeconds) }

// Summary is the aggregation of one range. Projects keep first-seen order.
type Summary struct {
	Projects     []ProjectSummary
	TotalSeconds int64
}

// TotalHours returns the grand total in hours.
func (s Summary) TotalHours() float64 { return hours(s.TotalSeconds) }

// SortedByHours returns a copy with projects, and the buckets inside each,
// ordered by descending hours. Ties keep first-seen order.
func (s Summary) SortedByHours() Summary {
	out := Summary{TotalSeconds: s.TotalSeconds, Projects: make([]ProjectSummary, len(s.Projects))}
	for i, p := range s.Projects {
		p.Entries = append([]GroupedEntry(nil), p.Entries...)
		sort.SliceStable(p.Entries, func(a, b int) bool {
			return p.Entries[a].RoundedSeconds > p.Entries[b].RoundedSeconds
		})
		out.Projects[i] = p
	}
	sort.SliceStable(out.Projects, func(a, b int) bool {
		return out.Projects[a].TotalSeconds > out.Projects[b].TotalSeconds
	})
	return out
}

type projectAcc struct {
	summary ProjectSummary
	index   map[string]int
}

// Aggregate groups the finished entries in opts.Range. It is a pure function
// of its inputs.
func Aggregate(entries []model.TimeEntry, names Names, opts Options) Summary {
	filter := !opts.Range.Start.IsZero() || !opts.Range.End.IsZero()

	var order []*projectAcc
	byProject := map[int64]*projectAcc{}
	var noProject *projectAcc

	for _, e := range entries {
		if e.Running() {
			continue
		}
		if filter && !opts.Range.Contains(e.Start) {
			continue
		}

		var acc *projectAcc
		if e.ProjectID == nil {
			if noProject == nil {
				noProject = &projectAcc{summary: ProjectSummary{Name: NoProject}, index: map[string]int{}}
				order = append(order, noProject)
			}
			acc = noProject
		} else {
			id := *e.ProjectID
			acc = byProject[id]
			if acc == nil {
				acc = &projectAcc{summary: newProjectSummary(id, names), index: map[string]int{}}
				byProject[id] = acc
				order = append(order, acc)
			}
		}

		desc := e.Description
		if desc == "" {
			desc = NoDescription
		}
		i, ok := acc.index[desc]
		if !ok {
			i = len(acc.summary.Entries)
			acc.index[desc] = i
			acc.summary.Entries = append(acc.summary.Entries, GroupedEntry{Description: desc})
		}
		acc.summary.Entries[i].Seconds += e.Duration
	}

	var out Summary
	for _, acc := range order {
		p := acc.summary
		p.TotalSeconds = 0
		for i := range p.Entries {
			p.Entries[i].RoundedSeconds = Round(p.Entries[i].Seconds, opts.Rounding)
			p.TotalSeconds += p.Entries[i].RoundedSeconds
		}
		out.Projects = append(out.Projects, p)
		out.TotalSeconds += p.TotalSeconds
	}
	return out
}

func newProjectSummary(id int64, names Names) ProjectSummary {
	pid := id
	p, ok := names.Projects[id]
	if !ok {
		return ProjectSummary{ProjectID: &pid, Name: UnknownProject}
	}
	name := p.Name
	if name == "" {
		name = UnknownProject
	}
	return ProjectSummary{ProjectID: &pid, Name: name, ClientID: p.ClientID}
}

func hours(seconds int64) float64 { return float64(seconds) / 3600 }
