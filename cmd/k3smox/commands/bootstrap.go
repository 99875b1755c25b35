package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3smox/cmd/k3smox/handlers"
)

// Bootstrap returns the command provisioning and bootstrapping the cluster.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: auto-detect k3smox.yaml)
//	--metrics-file: Write the stage metrics in Prometheus text format
//
// Environment variables:
//
//	K3SMOX_PROBE_ATTEMPTS, K3SMOX_PROBE_INTERVAL, K3SMOX_PROBE_TIMEOUT,
//	K3SMOX_STAGE_TIMEOUT, K3SMOX_MAX_PARALLEL override the probe settings.
func Bootstrap() *cobra.Command {
	var opts handlers.BootstrapOptions

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the VMs and bootstrap K3s",
		Long: `Create the VMs on Proxmox, install K3s on every master and worker,
fetch the cluster credentials and install the enabled add-ons.

Every stage is gated on a health probe. A failed stage blocks only the
stages that depend on it; the final report lists every stage.

The kubeconfig and the report are written to the artifact directory
(default .k3smox/<cluster>) and optionally uploaded to S3.

Examples:
  k3smox bootstrap
  k3smox bootstrap -c lab.yaml --metrics-file metrics.prom`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Verbosity = verbosity(cmd)
			return handlers.Bootstrap(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: k3smox.yaml)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write stage metrics to this file in Prometheus text format")

	return cmd
}
