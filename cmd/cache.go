package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/cache"
)

var (
	cacheScope string
	cacheAll   bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clean the local API cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached records of the current token and workspace",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop one cached record (time entries of the selected range by default)",
	Args:  cobra.NoArgs,
	RunE:  runCacheInvalidate,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached record of the current token",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheInvalidateCmd.Flags().StringVar(&cacheScope, "scope", string(cache.ScopeTimeEntries),
		"Scope: time_entries, projects, clients or workspaces")
	cacheClearCmd.Flags().BoolVar(&cacheAll, "all", false, "Drop the records of every token")
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func requireIdentity() (string, error) {
	if _, err := application.Sync(); err != nil {
		return "", err
	}
	return application.Identity(), nil
}

func runCacheList(cmd *cobra.Command, args []string) error {
	a := application
	identity, err := requireIdentity()
	if err != nil {
		return err
	}
	ws, err := a.Workspace(commandContext(cmd), flagWorkspace)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, scope := range []cache.Scope{cache.ScopeProjects, cache.ScopeClients, cache.ScopeTimeEntries} {
		records, err := a.Cache.List(commandContext(cmd), identity, ws, scope)
		if err != nil {
			return err
		}
		for _, rec := range records {
			fmt.Fprintf(out, "%-14s%-12s%-12s%s\n", scope, rec.Key.From, rec.Key.To,
				rec.FetchedAt.In(a.Location).Format("2006-01-02 15:04"))
		}
	}
	return nil
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	a := application
	identity, err := requireIdentity()
	if err != nil {
		return err
	}

	var key cache.Key
	switch scope := cache.Scope(cacheScope); scope {
	case cache.ScopeWorkspaces:
		key = cache.MetadataKey(identity, 0, scope)
	case cache.ScopeProjects, cache.ScopeClients:
		ws, err := a.Workspace(commandContext(cmd), flagWorkspace)
		if err != nil {
			return err
		}
		key = cache.MetadataKey(identity, ws, scope)
	case cache.ScopeTimeEntries:
		ws, err := a.Workspace(commandContext(cmd), flagWorkspace)
		if err != nil {
			return err
		}
		r, err := resolveRange()
		if err != nil {
			return err
		}
		key = cache.EntriesKey(identity, ws, r)
	default:
		return fmt.Errorf("unknown scope %q", cacheScope)
	}

	if err := a.Cache.Invalidate(commandContext(cmd), key); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %s %s..%s\n", key.Scope, key.From, key.To)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	identity := ""
	if !cacheAll {
		var err error
		if identity, err = requireIdentity(); err != nil {
			return err
		}
	}
	if err := application.Cache.Clear(commandContext(cmd), identity); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
	return nil
}
