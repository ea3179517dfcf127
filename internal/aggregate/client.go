package aggregate

// ClientSummary groups project summaries under their client.
type ClientSummary struct {
	// ClientID is nil for projects without a client.
	ClientID     *int64
	Name         string
	Projects     []ProjectSummary
	TotalSeconds int64
}

// TotalHours returns the client total in hours.
func (c ClientSummary) TotalHours() float64 { return hours(c.TotalSeconds) }

// ByClient regroups a summary by client, keeping first-seen order.
func ByClient(s Summary, names Names) []ClientSummary {
	var out []ClientSummary
	index := map[int64]int{}
	noClient := -1

	for _, p := range s.Projects {
		var i int
		if p.ClientID == nil {
			if noClient < 0 {
				noClient = len(out)
				out = append(out, ClientSummary{Name: NoClient})
			}
			i = noClient
		} else {
			id := *p.ClientID
			var ok bool
			if i, ok = index[id]; !ok {
				name := UnknownClient
				if c, found := names.Clients[id]; found && c.Name != "" {
					name = c.Name
				}
				cid := id
				i = len(out)
				index[id] = i
				out = append(out, ClientSummary{ClientID: &cid, Name: name})
			}
		}
		out[i].Projects = append(out[i].Projects, p)
		out[i].TotalSeconds += p.TotalSeconds
	}
	return out
}
