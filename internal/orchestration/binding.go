package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/imamik/k3smox/internal/addons"
	"github.com/imamik/k3smox/internal/addons/k8sclient"
	"github.com/imamik/k3smox/internal/bootstrap"
	"github.com/imamik/k3smox/internal/config"
	"github.com/imamik/k3smox/internal/health"
	"github.com/imamik/k3smox/internal/k3s"
	"github.com/imamik/k3smox/internal/platform/ssh"
	"github.com/imamik/k3smox/internal/provisioning"
	"github.com/imamik/k3smox/internal/topology"
)

// binding holds what the stage tasks of one reconcile share.
type binding struct {
	cfg       *config.EnvironmentConfig
	deps      Dependencies
	topo      *topology.ClusterTopology
	execs     *executors
	installer *k3s.Installer

	credentials *k3s.Source
	kube        *kubeClients
}

// tasks returns a task for every stage of the graph built from topo and plan.
func (b *binding) tasks(plan bootstrap.AddonPlan) (map[string]bootstrap.Task, error) {
	tasks := map[string]bootstrap.Task{
		bootstrap.StageClusterProvision: b.provisionTask(),
		bootstrap.StageCredentialFetch:  b.credentialTask(),
	}
	for i, m := range b.topo.Masters {
		tasks[bootstrap.MasterInstallID(i)] = b.masterTask(i, m)
	}
	for i, w := range b.topo.Workers {
		tasks[bootstrap.WorkerInstallID(i)] = b.workerTask(w)
	}

	inst := addons.NewInstaller(b.cfg, b.deps.Renderer, b.kube.Get)
	addonTasks, err := inst.Tasks(plan)
	if err != nil {
		return nil, err
	}
	for id, t := range addonTasks {
		tasks[id] = t
	}
	return tasks, nil
}

// provisionTask creates every VM and waits until cloud-init finished on all of them.
func (b *binding) provisionTask() bootstrap.Task {
	nodes := b.topo.All()
	return bootstrap.Task{
		Run: func(ctx context.Context) error {
			reqs := make([]provisioning.NodeRequest, len(nodes))
			for i, n := range nodes {
				reqs[i] = provisioning.NewNodeRequest(b.cfg, n, b.deps.AuthorizedKey)
			}
			handles, err := provisioning.EnsureAll(ctx, b.deps.Provisioner, reqs, b.cfg.Probes.MaxParallel)
			if err != nil {
				return err
			}

			created := 0
			for _, h := range handles {
				if h.Created {
					created++
				}
			}
			logr.FromContextOrDiscard(ctx).Info("vms ready", "total", len(handles), "created", created)
			return nil
		},
		Probe: health.ProbeFunc(func(ctx context.Context) error {
			for _, n := range nodes {
				exec, err := b.execs.get(n.IPv4)
				if err != nil {
					return err
				}
				if err := health.CloudInitDone(exec).Check(ctx); err != nil {
					return fmt.Errorf("%s: %w", n.Name, err)
				}
			}
			return nil
		}),
	}
}

// masterTask installs the k3s server on master i. The first master
// initialises the cluster; later masters join it with the token read from
// the first.
func (b *binding) masterTask(i int, node topology.NodeIdentity) bootstrap.Task {
	exec := lazyExecutor{execs: b.execs, host: node.IPv4}
	return bootstrap.Task{
		Run: func(ctx context.Context) error {
			if i == 0 {
				return b.installer.InstallServer(ctx, exec, node, nil)
			}
			creds, err := b.credentials.Get(ctx)
			if err != nil {
				return err
			}
			join := creds.Join()
			return b.installer.InstallServer(ctx, exec, node, &join)
		},
		Probe: k3s.ServerReady(exec),
	}
}

// credentialTask reads the join token and kubeconfig from the first
// master and waits for the API server to answer through them with the
// first master registered Ready.
func (b *binding) credentialTask() bootstrap.Task {
	return bootstrap.Task{
		Run: func(ctx context.Context) error {
			_, err := b.credentials.Get(ctx)
			return err
		},
		Probe: health.ProbeFunc(func(ctx context.Context) error {
			c, err := b.kube.Get(ctx)
			if err != nil {
				return err
			}
			cs := c.Clientset()
			return health.All(health.APIServerReachable(cs), health.NodesReady(cs, 1)).Check(ctx)
		}),
	}
}

func (b *binding) workerTask(node topology.NodeIdentity) bootstrap.Task {
	exec := lazyExecutor{execs: b.execs, host: node.IPv4}
	return bootstrap.Task{
		Run: func(ctx context.Context) error {
			creds, err := b.credentials.Get(ctx)
			if err != nil {
				return err
			}
			return b.installer.InstallAgent(ctx, exec, node, creds.Join())
		},
		Probe: k3s.AgentReady(exec),
	}
}

// lazyExecutor resolves the executor of host on every call, so building
// tasks never opens connections.
type lazyExecutor struct {
	execs *executors
	host  string
}

var _ ssh.Executor = lazyExecutor{}

func (l lazyExecutor) Execute(ctx context.Context, command string) (string, error) {
	exec, err := l.execs.get(l.host)
	if err != nil {
		return "", err
	}
	return exec.Execute(ctx, command)
}

// kubeClients builds the cluster client once the credentials are
// available. Add-on stages use it instead of depending on the
// credential-fetch stage, so a failed fetch there does not block them.
type kubeClients struct {
	source *k3s.Source
	build  func(kubeconfig []byte) (k8sclient.Client, error)

	mu     sync.Mutex
	client k8sclient.Client
}

// Get returns the shared client, fetching credentials on first use.
func (k *kubeClients) Get(ctx context.Context) (k8sclient.Client, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.client != nil {
		return k.client, nil
	}
	creds, err := k.source.Get(ctx)
	if err != nil {
		return nil, err
	}
	c, err := k.build(creds.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	k.client = c
	return c, nil
}
