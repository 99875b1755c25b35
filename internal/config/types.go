package config

import "time"

// EnvironmentConfig describes one K3s deployment on Proxmox.
type EnvironmentConfig struct {
	// Cluster is the node name prefix, e.g. "k3s" yields "k3s-master-0".
	Cluster string `yaml:"cluster"`

	Masters RoleConfig `yaml:"masters"`
	Workers RoleConfig `yaml:"workers"`

	Network   NetworkConfig  `yaml:"network"`
	Proxmox   ProxmoxConfig  `yaml:"proxmox"`
	SSH       SSHConfig      `yaml:"ssh"`
	K3s       K3sConfig      `yaml:"k3s"`
	Addons    AddonsConfig   `yaml:"addons"`
	Probes    ProbeSettings  `yaml:"probes"`
	Artifacts ArtifactConfig `yaml:"artifacts"`
}

// RoleConfig holds the per-role node count, VMID range start and resources.
type RoleConfig struct {
	Count     int           `yaml:"count"`
	VMIDStart int           `yaml:"vmid_start"`
	Resources ResourceShape `yaml:"resources"`
}

// ResourceShape is the hardware shape of a virtual machine.
type ResourceShape struct {
	Cores      int        `yaml:"cores"`
	Sockets    int        `yaml:"sockets"`
	MemoryMiB  int        `yaml:"memory_mib"`
	DiskGiB    int        `yaml:"disk_gib"`
	ExtraDisks []DiskSpec `yaml:"extra_disks,omitempty"`
}

// DiskSpec is an additional data disk attached to a node.
type DiskSpec struct {
	Interface string `yaml:"interface"` // e.g. scsi1
	SizeGiB   int    `yaml:"size_gib"`
	Storage   string `yaml:"storage,omitempty"`
}

// NetworkConfig describes the flat address block shared by masters and workers.
type NetworkConfig struct {
	// IPv4Prefix is a dotted prefix ending in ".", e.g. "10.10.0.".
	IPv4Prefix       string `yaml:"ipv4_prefix"`
	IPv4PrefixLength int    `yaml:"ipv4_prefix_length"`
	IPv4Gateway      string `yaml:"ipv4_gateway"`

	// IPv6Prefix ends in "::" or ":", e.g. "fd00:10:10::".
	IPv6Prefix       string `yaml:"ipv6_prefix"`
	IPv6PrefixLength int    `yaml:"ipv6_prefix_length"`
	IPv6Gateway      string `yaml:"ipv6_gateway"`

	// HostBase is added to every node's network index to form the host part.
	HostBase int `yaml:"host_base"`

	Bridge string   `yaml:"bridge"`
	DNS    []string `yaml:"dns"`
}

// ProxmoxConfig holds placement settings passed to the VM provisioner.
type ProxmoxConfig struct {
	// Host is the SSH address of the Proxmox node running qm.
	Host         string `yaml:"host"`
	SSHUser      string `yaml:"ssh_user"`
	Node         string `yaml:"node"`
	TemplateVMID int    `yaml:"template_vmid"`
	Storage      string `yaml:"storage"`
	Pool         string `yaml:"pool,omitempty"`
}

// SSHConfig is the credential used for install scripts and health probes.
type SSHConfig struct {
	User           string `yaml:"user"`
	PrivateKeyPath string `yaml:"private_key_path"`
	Port           int    `yaml:"port"`
}

// K3sConfig configures the K3s install on every node.
type K3sConfig struct {
	Version         string   `yaml:"version"`
	Disable         []string `yaml:"disable"`
	ExtraServerArgs []string `yaml:"extra_server_args,omitempty"`
	ExtraAgentArgs  []string `yaml:"extra_agent_args,omitempty"`
}

// HelmChartConfig overrides the default repository, chart, version and values of an add-on.
type HelmChartConfig struct {
	Repository string         `yaml:"repository,omitempty"`
	Chart      string         `yaml:"chart,omitempty"`
	Version    string         `yaml:"version,omitempty"`
	Values     map[string]any `yaml:"values,omitempty"`
}

// AddonsConfig selects and configures the post-cluster add-ons.
type AddonsConfig struct {
	MetalLB     MetalLBConfig     `yaml:"metallb"`
	CertManager CertManagerConfig `yaml:"cert_manager"`
	Traefik     TraefikConfig     `yaml:"traefik"`
	ArgoCD      ArgoCDConfig      `yaml:"argocd"`
}

// MetalLBConfig configures the MetalLB chart and its address pools.
type MetalLBConfig struct {
	Enabled bool            `yaml:"enabled"`
	Pools   []AddressPool   `yaml:"pools"`
	Helm    HelmChartConfig `yaml:"helm"`
}

// AddressPool is one MetalLB IPAddressPool announced over L2.
type AddressPool struct {
	Name      string   `yaml:"name"`
	Addresses []string `yaml:"addresses"`
}

// CertManagerConfig configures cert-manager and the ACME ClusterIssuer.
type CertManagerConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Email      string          `yaml:"email"`
	IssuerName string          `yaml:"issuer_name"`
	ACMEServer string          `yaml:"acme_server"`
	Helm       HelmChartConfig `yaml:"helm"`
}

// TraefikConfig configures the Traefik ingress controller.
type TraefikConfig struct {
	Enabled        bool            `yaml:"enabled"`
	LoadBalancerIP string          `yaml:"load_balancer_ip,omitempty"`
	Helm           HelmChartConfig `yaml:"helm"`
}

// ArgoCDConfig configures ArgoCD and the root GitOps application.
type ArgoCDConfig struct {
	Enabled  bool            `yaml:"enabled"`
	Hostname string          `yaml:"hostname,omitempty"`
	RepoURL  string          `yaml:"repo_url,omitempty"`
	Path     string          `yaml:"path,omitempty"`
	Revision string          `yaml:"revision,omitempty"`
	Helm     HelmChartConfig `yaml:"helm"`
}

// ProbeSettings is the single retry/timeout surface used by every health probe.
type ProbeSettings struct {
	// Attempts bounds how often a probe is tried inside one stage.
	Attempts int `yaml:"attempts"`
	// Interval is the fixed pause between attempts.
	Interval time.Duration `yaml:"interval"`
	// Timeout caps a single health wait, independent of Attempts*Interval.
	Timeout time.Duration `yaml:"timeout"`
	// StageTimeout caps the whole running period of a stage.
	StageTimeout time.Duration `yaml:"stage_timeout"`
	// MaxParallel limits concurrently running stages; 0 means unlimited.
	MaxParallel int `yaml:"max_parallel"`
}

// ArtifactConfig controls where the kubeconfig and the status report are written.
type ArtifactConfig struct {
	Dir string   `yaml:"dir"`
	S3  S3Config `yaml:"s3"`
}

// S3Config is an optional S3-compatible bucket receiving a copy of the artifacts.
type S3Config struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix,omitempty"`
}
