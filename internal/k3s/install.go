package k3s

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/k3smox/internal/config"
	"github.com/imamik/k3smox/internal/health"
	"github.com/imamik/k3smox/internal/platform/ssh"
	"github.com/imamik/k3smox/internal/topology"
	"github.com/imamik/k3smox/internal/util/labels"
)

// Well-known locations on a K3s node.
const (
	InstallScriptURL = "https://get.k3s.io"
	APIPort          = 6443
	TokenPath        = "/var/lib/rancher/k3s/server/node-token"
	KubeconfigPath   = "/etc/rancher/k3s/k3s.yaml"
	ServerUnit       = "k3s"
	AgentUnit        = "k3s-agent"
)

// ServerURL returns the API server URL of a master reachable at host.
func ServerURL(host string) string {
	return "https://" + net.JoinHostPort(host, strconv.Itoa(APIPort))
}

// Join holds what a node needs to join an existing control plane.
type Join struct {
	URL   string
	Token string
}

// ServerCommand returns the install command for a master. A nil join
// initialises a new cluster with embedded etcd.
func ServerCommand(cfg config.K3sConfig, node topology.NodeIdentity, join *Join) string {
	env := []string{"INSTALL_K3S_VERSION=" + ssh.Quote(cfg.Version)}
	args := []string{"server"}

	if join == nil {
		args = append(args, "--cluster-init")
	} else {
		env = append(env, "K3S_TOKEN="+ssh.Quote(join.Token))
		args = append(args, "--server", ssh.Quote(join.URL))
	}

	args = append(args, nodeArgs(node)...)
	args = append(args, "--tls-san", ssh.Quote(node.IPv4), "--write-kubeconfig-mode", "0600")
	for _, d := range cfg.Disable {
		args = append(args, "--disable", ssh.Quote(d))
	}
	args = append(args, quoteAll(cfg.ExtraServerArgs)...)

	return installCommand(env, args)
}

// AgentCommand returns the install command for a worker.
func AgentCommand(cfg config.K3sConfig, node topology.NodeIdentity, join Join) string {
	env := []string{
		"INSTALL_K3S_VERSION=" + ssh.Quote(cfg.Version),
		"K3S_URL=" + ssh.Quote(join.URL),
		"K3S_TOKEN=" + ssh.Quote(join.Token),
	}
	args := append([]string{"agent"}, nodeArgs(node)...)
	args = append(args, quoteAll(cfg.ExtraAgentArgs)...)

	return installCommand(env, args)
}

func nodeArgs(node topology.NodeIdentity) []string {
	args := []string{
		"--node-name", ssh.Quote(node.Name),
		"--node-ip", ssh.Quote(node.IPv4),
	}
	for _, l := range labels.NewLabelBuilder("").WithoutManagedBy().WithRole(string(node.Role)).Pairs() {
		args = append(args, "--node-label", ssh.Quote(l))
	}
	return args
}

func installCommand(env, args []string) string {
	return fmt.Sprintf("curl -sfL %s | sudo env %s sh -s - %s",
		InstallScriptURL, strings.Join(env, " "), strings.Join(args, " "))
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = ssh.Quote(s)
	}
	return out
}

// Installer runs K3s install commands on nodes.
type Installer struct {
	cfg config.K3sConfig
}

// NewInstaller returns an installer for the given K3s settings.
func NewInstaller(cfg config.K3sConfig) *Installer {
	return &Installer{cfg: cfg}
}

// InstallServer installs K3s in server mode on node. See ServerCommand for join.
func (i *Installer) InstallServer(ctx context.Context, exec ssh.Executor, node topology.NodeIdentity, join *Join) error {
	logger := logr.FromContextOrDiscard(ctx)
	logger.Info("installing k3s server", "node", node.Name, "version", i.cfg.Version, "init", join == nil)

	if out, err := exec.Execute(ctx, ServerCommand(i.cfg, node, join)); err != nil {
		return fmt.Errorf("install k3s server on %s: %w: %s", node.Name, err, tail(out))
	}
	return nil
}

// InstallAgent installs K3s in agent mode on node.
func (i *Installer) InstallAgent(ctx context.Context, exec ssh.Executor, node topology.NodeIdentity, join Join) error {
	logger := logr.FromContextOrDiscard(ctx)
	logger.Info("installing k3s agent", "node", node.Name, "version", i.cfg.Version, "server", join.URL)

	if out, err := exec.Execute(ctx, AgentCommand(i.cfg, node, join)); err != nil {
		return fmt.Errorf("install k3s agent on %s: %w: %s", node.Name, err, tail(out))
	}
	return nil
}

// ServerReady succeeds once the k3s unit is active and the join token was written.
func ServerReady(exec ssh.Executor) health.Probe {
	return health.All(health.ServiceActive(exec, ServerUnit), health.FileExists(exec, TokenPath))
}

// AgentReady succeeds once the k3s-agent unit is active.
func AgentReady(exec ssh.Executor) health.Probe {
	return health.ServiceActive(exec, AgentUnit)
}

// tail keeps the last lines of installer output for error messages.
func tail(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, "\n")
}
