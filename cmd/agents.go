package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Print the configured agents in query order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tNAME\tMIN SCORE\tURL\tTOKEN")
		for _, agent := range cfg.OrderedAgents() {
			agent = agent.Redacted()
			fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\t%s\n", agent.ExecutionIndex, agent.Name, agent.MinScore, orDash(agent.URL), orDash(agent.Token))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
