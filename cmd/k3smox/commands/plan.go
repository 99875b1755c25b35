package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3smox/cmd/k3smox/handlers"
)

// Plan returns the command printing the derived topology.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: auto-detect k3smox.yaml)
//	--output, -o: Output format, "text" or "json"
func Plan() *cobra.Command {
	var configPath, output string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the nodes derived from the configuration",
		Long: `Derive every node's name, VMID, addresses and resources from the
configuration without touching Proxmox.

Examples:
  # Show the topology for k3smox.yaml in the current directory
  k3smox plan

  # Machine readable output
  k3smox plan -c lab.yaml -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Plan(cmd.Context(), configPath, output)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: k3smox.yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", handlers.OutputText, "Output format: text or json")

	return cmd
}
