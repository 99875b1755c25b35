package bootstrap

// Kind is the category of a bootstrap stage.
type Kind string

const (
	KindClusterProvision Kind = "cluster-provision"
	KindMasterInstall    Kind = "master-install"
	KindCredentialFetch  Kind = "credential-fetch"
	KindWorkerInstall    Kind = "worker-install"
	KindAddonInstall     Kind = "addon-install"
)

// Well-known stage IDs.
const (
	StageClusterProvision = "cluster-provision"
	StageCredentialFetch  = "credential-fetch"
)

// Stage is one node of the bootstrap dependency graph.
type Stage struct {
	ID        string   `json:"id"`
	Kind      Kind     `json:"kind"`
	DependsOn []string `json:"dependsOn,omitempty"`
	// Node is the cluster node the stage acts on, if any.
	Node string `json:"node,omitempty"`
}

// Status is the lifecycle state of a stage during a run.
type Status string

const (
	StatusPending Status = "Pending"
	StatusRunning Status = "Running"
	StatusHealthy Status = "Healthy"
	StatusFailed  Status = "Failed"
)
