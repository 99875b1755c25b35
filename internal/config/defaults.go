package config

import "time"

// Defaults applied by ApplyDefaults when a field is left empty.
const (
	DefaultCluster          = "k3s"
	DefaultIPv4PrefixLength = 24
	DefaultIPv6PrefixLength = 64
	DefaultBridge           = "vmbr0"
	DefaultSSHUser          = "ubuntu"
	DefaultProxmoxSSHUser   = "root"
	DefaultProxmoxStorage   = "local-lvm"
	DefaultSSHPort          = 22
	DefaultK3sVersion       = "v1.31.4+k3s1"
	DefaultArtifactDir      = ".k3smox"
	DefaultIssuerName       = "letsencrypt-production"
	DefaultACMEServer       = "https://acme-v02.api.letsencrypt.org/directory"
	DefaultArgoCDRevision   = "HEAD"

	DefaultProbeAttempts     = 30
	DefaultProbeInterval     = 10 * time.Second
	DefaultProbeTimeout      = 5 * time.Minute
	DefaultStageTimeout      = 10 * time.Minute
	defaultMasterCount       = 1
	defaultSocketsPerMachine = 1
)

// DefaultMasterResources returns the resource shape used for masters.
func DefaultMasterResources() ResourceShape {
	return ResourceShape{Cores: 2, Sockets: defaultSocketsPerMachine, MemoryMiB: 4096, DiskGiB: 32}
}

// DefaultWorkerResources returns the resource shape used for workers.
func DefaultWorkerResources() ResourceShape {
	return ResourceShape{Cores: 4, Sockets: defaultSocketsPerMachine, MemoryMiB: 8192, DiskGiB: 64}
}

// DefaultProbeSettings returns the probe policy used when nothing is configured.
func DefaultProbeSettings() ProbeSettings {
	return ProbeSettings{
		Attempts:     DefaultProbeAttempts,
		Interval:     DefaultProbeInterval,
		Timeout:      DefaultProbeTimeout,
		StageTimeout: DefaultStageTimeout,
	}
}

// ApplyDefaults fills empty fields of cfg in place. Explicit values always win.
func ApplyDefaults(cfg *EnvironmentConfig) {
	if cfg.Cluster == "" {
		cfg.Cluster = DefaultCluster
	}
	cfg.Masters.Resources = MergeResources(DefaultMasterResources(), cfg.Masters.Resources)
	cfg.Workers.Resources = MergeResources(DefaultWorkerResources(), cfg.Workers.Resources)

	if cfg.Network.IPv4PrefixLength == 0 {
		cfg.Network.IPv4PrefixLength = DefaultIPv4PrefixLength
	}
	if cfg.Network.IPv6PrefixLength == 0 {
		cfg.Network.IPv6PrefixLength = DefaultIPv6PrefixLength
	}
	if cfg.Network.Bridge == "" {
		cfg.Network.Bridge = DefaultBridge
	}

	if cfg.Proxmox.SSHUser == "" {
		cfg.Proxmox.SSHUser = DefaultProxmoxSSHUser
	}
	if cfg.Proxmox.Storage == "" {
		cfg.Proxmox.Storage = DefaultProxmoxStorage
	}

	if cfg.SSH.User == "" {
		cfg.SSH.User = DefaultSSHUser
	}
	if cfg.SSH.Port == 0 {
		cfg.SSH.Port = DefaultSSHPort
	}

	if cfg.K3s.Version == "" {
		cfg.K3s.Version = DefaultK3sVersion
	}
	if cfg.K3s.Disable == nil {
		// MetalLB and Traefik are installed as add-ons.
		cfg.K3s.Disable = []string{"traefik", "servicelb"}
	}

	if cfg.Addons.CertManager.IssuerName == "" {
		cfg.Addons.CertManager.IssuerName = DefaultIssuerName
	}
	if cfg.Addons.CertManager.ACMEServer == "" {
		cfg.Addons.CertManager.ACMEServer = DefaultACMEServer
	}
	if cfg.Addons.ArgoCD.Revision == "" {
		cfg.Addons.ArgoCD.Revision = DefaultArgoCDRevision
	}

	cfg.Probes = MergeProbeSettings(DefaultProbeSettings(), cfg.Probes)

	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = DefaultArtifactDir
	}
}
