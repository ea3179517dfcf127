package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show today's API budget",
	Args:  cobra.NoArgs,
	RunE:  runQuota,
}

func runQuota(cmd *cobra.Command, args []string) error {
	q := application.Quota
	st := q.State()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Day:       %s (%s)\n", st.ResetDay, q.Location())
	fmt.Fprintf(out, "Used:      %d of %d time-entry fetches\n", st.CallCount, q.Limit())
	fmt.Fprintf(out, "Remaining: %d\n", q.Remaining())
	return nil
}
