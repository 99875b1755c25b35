package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/k3smox/internal/addons"
	"github.com/imamik/k3smox/internal/addons/helm"
	"github.com/imamik/k3smox/internal/addons/k8sclient"
	"github.com/imamik/k3smox/internal/bootstrap"
	"github.com/imamik/k3smox/internal/config"
	"github.com/imamik/k3smox/internal/health"
	"github.com/imamik/k3smox/internal/k3s"
	"github.com/imamik/k3smox/internal/platform/ssh"
	"github.com/imamik/k3smox/internal/provisioning"
	"github.com/imamik/k3smox/internal/topology"
)

// Dependencies are the collaborators a Reconciler drives.
type Dependencies struct {
	// Provisioner creates the VMs.
	Provisioner provisioning.Provisioner
	// Dial returns an executor for a node address.
	Dial ssh.Factory
	// AuthorizedKey is injected into every VM's cloud-init user.
	AuthorizedKey string

	// Renderer renders add-on charts. Defaults to helm.NewRenderer().
	Renderer addons.ChartRenderer
	// KubeClient builds a cluster client from a kubeconfig.
	// Defaults to k8sclient.NewFromKubeconfig.
	KubeClient func(kubeconfig []byte) (k8sclient.Client, error)

	Metrics   *bootstrap.Metrics
	Observers []bootstrap.Observer
}

// Plan is the side-effect free outcome of deriving an environment.
type Plan struct {
	Topology *topology.ClusterTopology
	Addons   bootstrap.AddonPlan
	Graph    *bootstrap.Graph
}

// Result is the outcome of a reconcile.
type Result struct {
	Topology *topology.ClusterTopology
	Report   *bootstrap.Report
	// Kubeconfig is set when the credential-fetch stage is Healthy, even
	// if later stages failed.
	Kubeconfig []byte
}

// Reconciler bootstraps one environment.
type Reconciler struct {
	cfg  *config.EnvironmentConfig
	deps Dependencies
}

// NewReconciler creates a reconciler for cfg.
func NewReconciler(cfg *config.EnvironmentConfig, deps Dependencies) *Reconciler {
	if deps.Renderer == nil {
		deps.Renderer = helm.NewRenderer()
	}
	if deps.KubeClient == nil {
		deps.KubeClient = k8sclient.NewFromKubeconfig
	}
	return &Reconciler{cfg: cfg, deps: deps}
}

// BuildPlan derives the topology and the bootstrap graph without touching
// any machine.
func BuildPlan(cfg *config.EnvironmentConfig) (*Plan, error) {
	topo, err := topology.Derive(cfg)
	if err != nil {
		return nil, err
	}

	addonPlan := addons.Plan(cfg.Addons)
	g, err := bootstrap.BuildGraph(topo, addonPlan)
	if err != nil {
		return nil, fmt.Errorf("failed to build bootstrap graph: %w", err)
	}
	return &Plan{Topology: topo, Addons: addonPlan, Graph: g}, nil
}

// Reconcile provisions and bootstraps the cluster. The error is non-nil
// when the plan cannot be built or run; stage failures are reported
// through Result.Report, see Report.Err.
func (r *Reconciler) Reconcile(ctx context.Context) (*Result, error) {
	logger := logr.FromContextOrDiscard(ctx).WithValues("cluster", r.cfg.Cluster)
	ctx = logr.NewContext(ctx, logger)

	plan, err := BuildPlan(r.cfg)
	if err != nil {
		return nil, err
	}

	b, err := r.newBinding(plan.Topology)
	if err != nil {
		return nil, err
	}
	tasks, err := b.tasks(plan.Addons)
	if err != nil {
		return nil, err
	}

	opts := []bootstrap.Option{
		bootstrap.WithStageTimeout(r.cfg.Probes.StageTimeout),
		bootstrap.WithProbePolicy(health.PolicyFromSettings(r.cfg.Probes)),
		bootstrap.WithMaxParallel(r.cfg.Probes.MaxParallel),
	}
	if r.deps.Metrics != nil {
		opts = append(opts, bootstrap.WithMetrics(r.deps.Metrics))
	}
	for _, o := range r.deps.Observers {
		opts = append(opts, bootstrap.WithObserver(o))
	}

	runner, err := bootstrap.NewRunner(plan.Graph, tasks, opts...)
	if err != nil {
		return nil, err
	}

	logger.Info("bootstrapping cluster",
		"nodes", plan.Topology.Size(),
		"masters", len(plan.Topology.Masters),
		"workers", len(plan.Topology.Workers),
		"stages", plan.Graph.Len())

	report, err := runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Topology: plan.Topology, Report: report}
	if report.Status(bootstrap.StageCredentialFetch) == bootstrap.StatusHealthy {
		if creds, ok := b.credentials.Cached(); ok {
			result.Kubeconfig = creds.Kubeconfig
		}
	}
	return result, nil
}

// newBinding prepares the shared state the stage tasks close over.
func (r *Reconciler) newBinding(topo *topology.ClusterTopology) (*binding, error) {
	first, ok := topo.FirstMaster()
	if !ok {
		return nil, errors.New("topology has no masters")
	}

	execs := newExecutors(r.deps.Dial)
	b := &binding{
		cfg:       r.cfg,
		deps:      r.deps,
		topo:      topo,
		execs:     execs,
		installer: k3s.NewInstaller(r.cfg.K3s),
	}
	b.credentials = k3s.NewSource(lazyExecutor{execs: execs, host: first.IPv4}, first)
	b.kube = &kubeClients{source: b.credentials, build: r.deps.KubeClient}
	return b, nil
}
