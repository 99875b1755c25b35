package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3smox/cmd/k3smox/handlers"
)

// Manifests returns the command printing the add-on custom resources.
func Manifests() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "manifests",
		Short: "Print the add-on custom resources as YAML",
		Long: `Print the MetalLB pools, the cert-manager ClusterIssuer and the ArgoCD
root application that bootstrap would apply.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Manifests(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: k3smox.yaml)")

	return cmd
}
