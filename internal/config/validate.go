package config

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"

	"github.com/blang/semver/v4"
)

var clusterNameRegex = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// Proxmox reserves VMIDs below 100 for internal use.
const (
	minVMID = 100
	maxVMID = 999999999
)

// Validate checks the configuration for errors that must stop a run before
// any side effect. Every returned error is (or wraps) a *ValidationError.
func (c *EnvironmentConfig) Validate() error {
	if !clusterNameRegex.MatchString(c.Cluster) {
		return Invalid("cluster", "%q must be lowercase alphanumeric or '-' and start with a letter", c.Cluster)
	}

	if err := c.validateRoles(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateK3s(); err != nil {
		return err
	}

	if err := c.validateAddons(); err != nil {
		return err
	}

	if err := c.validateProbes(); err != nil {
		return err
	}

	if c.Artifacts.S3.Enabled {
		if c.Artifacts.S3.Bucket == "" {
			return Invalid("artifacts.s3.bucket", "required when s3 is enabled")
		}
		if c.Artifacts.S3.Region == "" {
			return Invalid("artifacts.s3.region", "required when s3 is enabled")
		}
	}

	return nil
}

// ValidateForBootstrap adds the checks only a real bootstrap run needs.
func (c *EnvironmentConfig) ValidateForBootstrap() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.SSH.PrivateKeyPath == "" {
		return Invalid("ssh.private_key_path", "required for bootstrap")
	}
	if c.Proxmox.Host == "" {
		return Invalid("proxmox.host", "required for bootstrap")
	}
	if c.Proxmox.Node == "" {
		return Invalid("proxmox.node", "required for bootstrap")
	}
	if c.Proxmox.TemplateVMID < minVMID {
		return Invalid("proxmox.template_vmid", "must be >= %d", minVMID)
	}
	return nil
}

func (c *EnvironmentConfig) validateRoles() error {
	if c.Masters.Count < 1 {
		return Invalid("masters.count", "at least one master is required, got %d", c.Masters.Count)
	}
	if c.Workers.Count < 0 {
		return Invalid("workers.count", "must not be negative, got %d", c.Workers.Count)
	}

	if err := validateRole("masters", c.Masters); err != nil {
		return err
	}
	if c.Workers.Count > 0 {
		if err := validateRole("workers", c.Workers); err != nil {
			return err
		}
	}

	return CheckVMIDRanges(c.Masters, c.Workers)
}

func validateRole(name string, r RoleConfig) error {
	if r.VMIDStart < minVMID {
		return Invalid(name+".vmid_start", "must be >= %d, got %d", minVMID, r.VMIDStart)
	}
	if last := r.VMIDStart + r.Count - 1; last > maxVMID {
		return Invalid(name+".vmid_start", "range ends at %d, above %d", last, maxVMID)
	}
	if r.Resources.Cores < 1 || r.Resources.MemoryMiB < 1 || r.Resources.DiskGiB < 1 {
		return Invalid(name+".resources", "cores, memory_mib and disk_gib must be positive")
	}
	for _, d := range r.Resources.ExtraDisks {
		if d.Interface == "" || d.SizeGiB < 1 {
			return Invalid(name+".resources.extra_disks", "interface and a positive size_gib are required")
		}
	}
	return nil
}

// CheckVMIDRanges reports a *ValidationError when the half-open ranges
// [masters.VMIDStart, +Count) and [workers.VMIDStart, +Count) intersect.
// Ranges are never adjusted.
func CheckVMIDRanges(masters, workers RoleConfig) error {
	if masters.Count == 0 || workers.Count == 0 {
		return nil
	}
	mEnd := masters.VMIDStart + masters.Count
	wEnd := workers.VMIDStart + workers.Count
	if masters.VMIDStart < wEnd && workers.VMIDStart < mEnd {
		return Invalid("vmid_start", "master range [%d,%d) overlaps worker range [%d,%d)",
			masters.VMIDStart, mEnd, workers.VMIDStart, wEnd)
	}
	return nil
}

func (c *EnvironmentConfig) validateNetwork() error {
	n := c.Network
	if n.IPv4Prefix == "" {
		return Invalid("network.ipv4_prefix", "required")
	}
	if !strings.HasSuffix(n.IPv4Prefix, ".") {
		return Invalid("network.ipv4_prefix", "%q must end with '.'", n.IPv4Prefix)
	}
	if n.IPv4PrefixLength < 8 || n.IPv4PrefixLength > 30 {
		return Invalid("network.ipv4_prefix_length", "must be within 8..30, got %d", n.IPv4PrefixLength)
	}
	if n.IPv4Gateway != "" {
		if addr, err := netip.ParseAddr(n.IPv4Gateway); err != nil || !addr.Is4() {
			return Invalid("network.ipv4_gateway", "%q is not an IPv4 address", n.IPv4Gateway)
		}
	}
	if n.IPv6Prefix != "" && !strings.HasSuffix(n.IPv6Prefix, ":") {
		return Invalid("network.ipv6_prefix", "%q must end with ':'", n.IPv6Prefix)
	}
	if n.IPv6Gateway != "" {
		if addr, err := netip.ParseAddr(n.IPv6Gateway); err != nil || !addr.Is6() {
			return Invalid("network.ipv6_gateway", "%q is not an IPv6 address", n.IPv6Gateway)
		}
	}
	if n.HostBase < 0 {
		return Invalid("network.host_base", "must not be negative, got %d", n.HostBase)
	}
	for _, dns := range n.DNS {
		if _, err := netip.ParseAddr(dns); err != nil {
			return Invalid("network.dns", "%q is not an IP address", dns)
		}
	}
	return nil
}

// validateK3s accepts an empty version (the stable channel) or a release
// tag such as v1.31.4+k3s1.
func (c *EnvironmentConfig) validateK3s() error {
	if c.K3s.Version == "" {
		return nil
	}
	v, err := semver.ParseTolerant(c.K3s.Version)
	if err != nil {
		return Invalid("k3s.version", "%q is not a release tag: %v", c.K3s.Version, err)
	}
	if len(v.Build) == 0 || !strings.HasPrefix(v.Build[0], "k3s") {
		return Invalid("k3s.version", "%q lacks the +k3sN suffix", c.K3s.Version)
	}
	return nil
}

func (c *EnvironmentConfig) validateAddons() error {
	a := c.Addons
	if a.MetalLB.Enabled {
		if len(a.MetalLB.Pools) == 0 {
			return Invalid("addons.metallb.pools", "at least one pool is required when metallb is enabled")
		}
		seen := make(map[string]bool, len(a.MetalLB.Pools))
		for i, p := range a.MetalLB.Pools {
			if p.Name == "" || len(p.Addresses) == 0 {
				return Invalid(fmt.Sprintf("addons.metallb.pools[%d]", i), "name and addresses are required")
			}
			if seen[p.Name] {
				return Invalid(fmt.Sprintf("addons.metallb.pools[%d]", i), "duplicate pool name %q", p.Name)
			}
			seen[p.Name] = true
		}
	}
	if a.CertManager.Enabled && a.CertManager.Email == "" {
		return Invalid("addons.cert_manager.email", "required when cert-manager is enabled")
	}
	if a.ArgoCD.Enabled && a.ArgoCD.RepoURL != "" && a.ArgoCD.Path == "" {
		return Invalid("addons.argocd.path", "required when repo_url is set")
	}
	return nil
}

func (c *EnvironmentConfig) validateProbes() error {
	p := c.Probes
	if p.Attempts < 1 {
		return Invalid("probes.attempts", "must be >= 1, got %d", p.Attempts)
	}
	if p.Interval <= 0 {
		return Invalid("probes.interval", "must be positive")
	}
	if p.Timeout <= 0 {
		return Invalid("probes.timeout", "must be positive")
	}
	if p.StageTimeout <= 0 {
		return Invalid("probes.stage_timeout", "must be positive")
	}
	if p.MaxParallel < 0 {
		return Invalid("probes.max_parallel", "must not be negative")
	}
	return nil
}
