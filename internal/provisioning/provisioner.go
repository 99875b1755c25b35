package provisioning

import (
	"context"
	"fmt"
	"strings"

	"github.com/imamik/k3smox/internal/config"
	"github.com/imamik/k3smox/internal/topology"
	"github.com/imamik/k3smox/internal/util/async"
)

// Provisioner creates the virtual machine of one node.
// EnsureVM must be idempotent: a VM that already exists with the requested
// VMID is started if needed and reported with Created == false.
type Provisioner interface {
	EnsureVM(ctx context.Context, req NodeRequest) (*VMHandle, error)
}

// NodeRequest carries everything the provisioner needs to clone and
// configure one VM from the cloud-init template.
type NodeRequest struct {
	Name string
	VMID int
	Role topology.Role

	ProxmoxNode  string
	TemplateVMID int
	Storage      string
	Pool         string

	Resources config.ResourceShape

	Bridge string
	// IPConfig is the cloud-init network line, e.g. "ip=10.10.0.20/24,gw=10.10.0.1".
	IPConfig    string
	Nameservers []string
	CIUser      string
	SSHKeys     []string
	Tags        []string
}

// VMHandle identifies a VM once it exists.
type VMHandle struct {
	VMID    int
	Name    string
	Node    string
	Created bool
}

// NewNodeRequest builds the request for node from the environment.
// authorizedKey is injected into the cloud-init user.
func NewNodeRequest(cfg *config.EnvironmentConfig, node topology.NodeIdentity, authorizedKey string) NodeRequest {
	req := NodeRequest{
		Name:         node.Name,
		VMID:         node.VMID,
		Role:         node.Role,
		ProxmoxNode:  cfg.Proxmox.Node,
		TemplateVMID: cfg.Proxmox.TemplateVMID,
		Storage:      cfg.Proxmox.Storage,
		Pool:         cfg.Proxmox.Pool,
		Resources:    node.Resources.Clone(),
		Bridge:       cfg.Network.Bridge,
		IPConfig:     IPConfig(cfg.Network, node),
		Nameservers:  append([]string(nil), cfg.Network.DNS...),
		CIUser:       cfg.SSH.User,
		Tags:         []string{cfg.Cluster, string(node.Role)},
	}
	if authorizedKey != "" {
		req.SSHKeys = []string{authorizedKey}
	}
	return req
}

// IPConfig renders the cloud-init ipconfig0 value for node.
func IPConfig(n config.NetworkConfig, node topology.NodeIdentity) string {
	parts := []string{fmt.Sprintf("ip=%s/%d", node.IPv4, n.IPv4PrefixLength)}
	if n.IPv4Gateway != "" {
		parts = append(parts, "gw="+n.IPv4Gateway)
	}
	if node.IPv6 != "" {
		parts = append(parts, fmt.Sprintf("ip6=%s/%d", node.IPv6, n.IPv6PrefixLength))
		if n.IPv6Gateway != "" {
			parts = append(parts, "gw6="+n.IPv6Gateway)
		}
	}
	return strings.Join(parts, ",")
}

// EnsureAll provisions every request concurrently, at most limit at a time
// (0 means no limit). Handles are returned in request order; the error
// names every node that failed.
func EnsureAll(ctx context.Context, p Provisioner, reqs []NodeRequest, limit int) ([]*VMHandle, error) {
	handles := make([]*VMHandle, len(reqs))
	tasks := make([]async.Task, len(reqs))
	for i, req := range reqs {
		tasks[i] = async.Task{
			Name: req.Name,
			Func: func(ctx context.Context) error {
				h, err := p.EnsureVM(ctx, req)
				if err != nil {
					return err
				}
				handles[i] = h
				return nil
			},
		}
	}
	if err := async.RunParallel(ctx, tasks, limit); err != nil {
		return handles, fmt.Errorf("failed to provision nodes: %w", err)
	}
	return handles, nil
}
