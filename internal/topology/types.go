package topology

import "github.com/imamik/k3smox/internal/config"

// Role is the cluster role of a node.
type Role string

const (
	RoleMaster Role = "master"
	RoleWorker Role = "worker"
)

// NodeIdentity is the derived, read-only identity of one virtual machine.
type NodeIdentity struct {
	VMID      int                  `json:"vmid"`
	Role      Role                 `json:"role"`
	RoleIndex int                  `json:"roleIndex"`
	Name      string               `json:"name"`
	IPv4      string               `json:"ipv4"`
	IPv6      string               `json:"ipv6,omitempty"`
	Resources config.ResourceShape `json:"resources"`
}

// ClusterTopology is the ordered node set of one deployment.
// It is never patched; a configuration change means a new Derive call.
type ClusterTopology struct {
	Cluster string         `json:"cluster"`
	Masters []NodeIdentity `json:"masters"`
	Workers []NodeIdentity `json:"workers"`
}

// All returns masters followed by workers.
func (t *ClusterTopology) All() []NodeIdentity {
	nodes := make([]NodeIdentity, 0, len(t.Masters)+len(t.Workers))
	nodes = append(nodes, t.Masters...)
	return append(nodes, t.Workers...)
}

// FirstMaster returns the master every other node joins through.
func (t *ClusterTopology) FirstMaster() (NodeIdentity, bool) {
	if len(t.Masters) == 0 {
		return NodeIdentity{}, false
	}
	return t.Masters[0], true
}

// Size returns the total node count.
func (t *ClusterTopology) Size() int {
	return len(t.Masters) + len(t.Workers)
}
