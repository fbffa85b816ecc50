package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solkit/connectord/internal/cluster"
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "List the configured Solana clusters",
	RunE:  runClusters,
}

func init() {
	rootCmd.AddCommand(clustersCmd)
}

func runClusters(cmd *cobra.Command, args []string) error {
	clusters := cfg.Clusters
	if len(clusters) == 0 {
		clusters = cluster.DefaultClusters()
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tURL\t")
	for _, c := range clusters {
		marker := ""
		if c.ID == cfg.Cluster {
			marker = " (current)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Label, c.URL, marker)
	}
	return w.Flush()
}
