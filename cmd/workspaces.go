package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "List the workspaces of your token",
	Args:  cobra.NoArgs,
	RunE:  runWorkspaces,
}

func runWorkspaces(cmd *cobra.Command, args []string) error {
	a := application
	orch, err := a.Sync()
	if err != nil {
		return err
	}
	res := orch.Workspaces(commandContext(cmd), a.Identity(), flagRefresh)
	if !res.HasData() {
		return noData(res.Err)
	}
	out := cmd.OutOrStdout()
	printBanner(out, res.Provenance, res.FetchedAt, res.Err, a.Location)
	for _, w := range res.Data {
		marker := ""
		if w.ID == a.Config.DefaultWorkspace {
			marker = mutedStyle.Render(" (default)")
		}
		fmt.Fprintf(out, "%-12d%s%s\n", w.ID, w.Name, marker)
	}
	return nil
}
