package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3smox/cmd/k3smox/handlers"
)

// Graph returns the command printing the bootstrap stage graph.
func Graph() *cobra.Command {
	var configPath, output string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the bootstrap stages and their order",
		Long: `Print the bootstrap stages grouped into waves. Stages in the same
wave have no dependency on each other and run concurrently.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Graph(cmd.Context(), configPath, output)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: k3smox.yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", handlers.OutputText, "Output format: text or json")

	return cmd
}
