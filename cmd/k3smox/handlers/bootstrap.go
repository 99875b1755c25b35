package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/k3smox/internal/bootstrap"
	"github.com/imamik/k3smox/internal/config"
	"github.com/imamik/k3smox/internal/orchestration"
	"github.com/imamik/k3smox/internal/platform/ssh"
	"github.com/imamik/k3smox/internal/provisioning"
	"github.com/imamik/k3smox/internal/state"
	"github.com/imamik/k3smox/internal/ui"
	"github.com/imamik/k3smox/internal/util/keygen"
)

// BootstrapOptions are the flags of the bootstrap command.
type BootstrapOptions struct {
	ConfigPath  string
	MetricsFile string
	Verbosity   int
}

// Reconciler interface for testing - matches orchestration.Reconciler.
type Reconciler interface {
	Reconcile(ctx context.Context) (*orchestration.Result, error)
}

var (
	// loadKey reads the SSH private key, creating it on first use.
	loadKey = keygen.LoadOrGenerate

	// newSSHFactory builds the node and Proxmox SSH dialers.
	newSSHFactory = ssh.NewFactory

	// newReconciler creates the bootstrap reconciler.
	newReconciler = func(cfg *config.EnvironmentConfig, deps orchestration.Dependencies) Reconciler {
		return orchestration.NewReconciler(cfg, deps)
	}

	// newUploader creates the S3 artifact uploader.
	newUploader = func(ctx context.Context, cfg config.S3Config) (state.Uploader, error) {
		client, err := state.NewS3Uploader(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	// writeMetrics dumps the registry in Prometheus text format.
	writeMetrics = prometheus.WriteToTextfile
)

// Bootstrap provisions the VMs and bootstraps K3s and its add-ons.
//
// The workflow:
//  1. Loads the configuration, checks the settings a real run needs and
//     derives the topology, all before any key, connection or VM exists
//  2. Connects to the Proxmox host and prepares SSH access to the nodes
//  3. Runs every bootstrap stage, printing progress as stages change state
//  4. Writes the topology, the report and the kubeconfig as artifacts
//
// Interrupting the command stops new stages from starting; running stages
// finish within their stage timeout.
func Bootstrap(ctx context.Context, opts BootstrapOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateForBootstrap(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	// Address overflow and VMID clashes surface while deriving the topology.
	if _, err := orchestration.BuildPlan(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger := newLogger(stderr, opts.Verbosity).WithName("k3smox")
	ctx = logr.NewContext(ctx, logger)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := prepareDependencies(ctx, cfg)
	if err != nil {
		return err
	}

	var uploader state.Uploader
	if cfg.Artifacts.S3.Enabled {
		uploader, err = newUploader(ctx, cfg.Artifacts.S3)
		if err != nil {
			return fmt.Errorf("failed to create artifact uploader: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	deps.Metrics = bootstrap.NewMetrics(registry)
	deps.Observers = []bootstrap.Observer{
		ui.NewProgress(stdout, uiOptions()),
		bootstrap.LogObserver{Logger: logger.V(1)},
	}

	result, err := newReconciler(cfg, deps).Reconcile(ctx)
	if err != nil {
		return err
	}

	store := state.NewStore(cfg.Artifacts, cfg.Cluster, uploader)
	artifacts, err := state.Collect(result.Topology, result.Report, result.Kubeconfig)
	if err != nil {
		return err
	}
	// Artifacts are saved before anything else can fail, so a partial
	// cluster still leaves its kubeconfig behind.
	saveErr := store.Save(context.WithoutCancel(ctx), artifacts)

	fmt.Fprintln(stdout)
	if err := ui.Report(stdout, result.Report, uiOptions()); err != nil {
		return err
	}

	if opts.MetricsFile != "" {
		if err := writeMetrics(opts.MetricsFile, registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if saveErr != nil {
		return fmt.Errorf("failed to save artifacts: %w", saveErr)
	}
	if len(result.Kubeconfig) > 0 {
		fmt.Fprintf(stdout, "Kubeconfig written to %s\n", store.Path(state.KubeconfigFile))
	}

	return result.Report.Err()
}

// prepareDependencies sets up SSH access to the nodes and the Proxmox host.
func prepareDependencies(ctx context.Context, cfg *config.EnvironmentConfig) (orchestration.Dependencies, error) {
	key, created, err := loadKey(cfg.SSH.PrivateKeyPath, "k3smox@"+cfg.Cluster)
	if err != nil {
		return orchestration.Dependencies{}, err
	}
	if created {
		logr.FromContextOrDiscard(ctx).Info("generated ssh key", "path", cfg.SSH.PrivateKeyPath)
	}
	authorizedKey, err := keygen.AuthorizedKey(key)
	if err != nil {
		return orchestration.Dependencies{}, err
	}

	dial, err := newSSHFactory(cfg.SSH)
	if err != nil {
		return orchestration.Dependencies{}, err
	}

	pveSSH := cfg.SSH
	pveSSH.User = cfg.Proxmox.SSHUser
	pveDial, err := newSSHFactory(pveSSH)
	if err != nil {
		return orchestration.Dependencies{}, err
	}
	pve, err := pveDial(cfg.Proxmox.Host)
	if err != nil {
		return orchestration.Dependencies{}, fmt.Errorf("ssh to proxmox host %s: %w", cfg.Proxmox.Host, err)
	}

	return orchestration.Dependencies{
		Provisioner:   provisioning.NewQMProvisioner(pve),
		Dial:          dial,
		AuthorizedKey: authorizedKey,
	}, nil
}
