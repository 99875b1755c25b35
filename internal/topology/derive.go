package topology

import (
	"github.com/imamik/k3smox/internal/config"
	"github.com/imamik/k3smox/internal/util/naming"
)

// NodeName returns the stable name of the node at roleIndex within role.
func NodeName(cluster string, role Role, roleIndex int) string {
	return naming.Node(cluster, string(role), roleIndex)
}

// Derive builds the full topology for cfg. Overlapping VMID ranges and
// address overflow fail with a *config.ValidationError before anything
// is returned.
func Derive(cfg *config.EnvironmentConfig) (*ClusterTopology, error) {
	if cfg.Masters.Count < 1 {
		return nil, config.Invalid("masters.count", "at least one master is required, got %d", cfg.Masters.Count)
	}
	if cfg.Workers.Count < 0 {
		return nil, config.Invalid("workers.count", "must not be negative, got %d", cfg.Workers.Count)
	}
	if err := config.CheckVMIDRanges(cfg.Masters, cfg.Workers); err != nil {
		return nil, err
	}

	masters, err := deriveRole(cfg, RoleMaster, cfg.Masters)
	if err != nil {
		return nil, err
	}
	workers, err := deriveRole(cfg, RoleWorker, cfg.Workers)
	if err != nil {
		return nil, err
	}

	topo := &ClusterTopology{Cluster: cfg.Cluster, Masters: masters, Workers: workers}
	if err := topo.checkUnique(); err != nil {
		return nil, err
	}
	return topo, nil
}

func deriveRole(cfg *config.EnvironmentConfig, role Role, rc config.RoleConfig) ([]NodeIdentity, error) {
	nodes := make([]NodeIdentity, 0, rc.Count)
	for i := 0; i < rc.Count; i++ {
		idx := NetworkIndex(role, i, cfg.Masters.Count)

		ip4, err := IPv4(cfg.Network.IPv4Prefix, cfg.Network.HostBase, idx)
		if err != nil {
			return nil, err
		}
		ip6, err := IPv6(cfg.Network.IPv6Prefix, cfg.Network.HostBase, idx)
		if err != nil {
			return nil, err
		}

		nodes = append(nodes, NodeIdentity{
			VMID:      rc.VMIDStart + i,
			Role:      role,
			RoleIndex: i,
			Name:      NodeName(cfg.Cluster, role, i),
			IPv4:      ip4,
			IPv6:      ip6,
			Resources: rc.Resources.Clone(),
		})
	}
	return nodes, nil
}

func (t *ClusterTopology) checkUnique() error {
	vmids := make(map[int]string)
	addrs := make(map[[2]string]string)
	for _, n := range t.All() {
		if other, ok := vmids[n.VMID]; ok {
			return config.Invalid("vmid_start", "vmid %d assigned to both %s and %s", n.VMID, other, n.Name)
		}
		vmids[n.VMID] = n.Name

		key := [2]string{n.IPv4, n.IPv6}
		if other, ok := addrs[key]; ok {
			return config.Invalid("network", "address %s assigned to both %s and %s", n.IPv4, other, n.Name)
		}
		addrs[key] = n.Name
	}
	return nil
}
