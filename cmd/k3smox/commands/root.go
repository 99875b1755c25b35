// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the k3smox CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "k3smox",
		Short:         "Bootstrap K3s clusters on Proxmox",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (repeatable)")

	cmd.AddCommand(Plan())
	cmd.AddCommand(Graph())
	cmd.AddCommand(Manifests())
	cmd.AddCommand(Bootstrap())
	cmd.AddCommand(Version())

	return cmd
}

// verbosity reads the persistent --verbose count.
func verbosity(cmd *cobra.Command) int {
	v, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		return 0
	}
	return v
}
