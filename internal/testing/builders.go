package testing

import (
	"time"

	"github.com/imamik/k3smox/internal/config"
)

// ConfigBuilder provides a fluent interface for constructing test configs.
// Each method returns a new builder (immutable) for chaining.
type ConfigBuilder struct {
	cfg config.EnvironmentConfig
}

// NewConfigBuilder creates a builder for a one-master, two-worker lab cluster
// on 10.10.0.0/24 with fast probe timings.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: config.EnvironmentConfig{
			Cluster: "k3s",
			Masters: config.RoleConfig{Count: 1, VMIDStart: 120},
			Workers: config.RoleConfig{Count: 2, VMIDStart: 130},
			Network: config.NetworkConfig{
				IPv4Prefix:  "10.10.0.",
				IPv4Gateway: "10.10.0.1",
				IPv6Prefix:  "fd00:10:10::",
				HostBase:    20,
			},
			Proxmox: config.ProxmoxConfig{Node: "pve1", TemplateVMID: 9000, Storage: "local-lvm"},
			SSH:     config.SSHConfig{PrivateKeyPath: "/tmp/id_rsa"},
			Probes: config.ProbeSettings{
				Attempts:     3,
				Interval:     time.Millisecond,
				Timeout:      time.Second,
				StageTimeout: 5 * time.Second,
			},
		},
	}
}

// WithCluster sets the cluster name.
func (b *ConfigBuilder) WithCluster(name string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Cluster = name
	return nb
}

// WithMasters sets the master count and VMID start.
func (b *ConfigBuilder) WithMasters(count, vmidStart int) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Masters.Count = count
	nb.cfg.Masters.VMIDStart = vmidStart
	return nb
}

// WithWorkers sets the worker count and VMID start.
func (b *ConfigBuilder) WithWorkers(count, vmidStart int) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Workers.Count = count
	nb.cfg.Workers.VMIDStart = vmidStart
	return nb
}

// WithMetalLB enables MetalLB with one pool.
func (b *ConfigBuilder) WithMetalLB(pool, addresses string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Addons.MetalLB.Enabled = true
	nb.cfg.Addons.MetalLB.Pools = []config.AddressPool{{Name: pool, Addresses: []string{addresses}}}
	return nb
}

// WithCertManager enables cert-manager with an ACME issuer for email.
func (b *ConfigBuilder) WithCertManager(email string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Addons.CertManager.Enabled = true
	nb.cfg.Addons.CertManager.Email = email
	return nb
}

// WithTraefik enables the Traefik ingress controller.
func (b *ConfigBuilder) WithTraefik() *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Addons.Traefik.Enabled = true
	return nb
}

// WithArgoCD enables ArgoCD, optionally with a root application.
func (b *ConfigBuilder) WithArgoCD(repoURL, path string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Addons.ArgoCD.Enabled = true
	nb.cfg.Addons.ArgoCD.RepoURL = repoURL
	nb.cfg.Addons.ArgoCD.Path = path
	return nb
}

// WithAllAddons enables every add-on with lab defaults.
func (b *ConfigBuilder) WithAllAddons() *ConfigBuilder {
	return b.WithMetalLB("default", "10.10.0.200-10.10.0.220").
		WithCertManager("ops@example.com").
		WithTraefik().
		WithArgoCD("https://git.example.com/lab/gitops.git", "clusters/lab")
}

// WithProbes overrides the probe settings.
func (b *ConfigBuilder) WithProbes(p config.ProbeSettings) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Probes = p
	return nb
}

// Build applies defaults and returns the configuration.
func (b *ConfigBuilder) Build() *config.EnvironmentConfig {
	cfg := b.clone().cfg
	config.ApplyDefaults(&cfg)
	return &cfg
}

func (b *ConfigBuilder) clone() *ConfigBuilder {
	c := b.cfg
	c.Addons.MetalLB.Pools = append([]config.AddressPool(nil), b.cfg.Addons.MetalLB.Pools...)
	c.Network.DNS = append([]string(nil), b.cfg.Network.DNS...)
	return &ConfigBuilder{cfg: c}
}
