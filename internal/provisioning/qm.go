package provisioning

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/k3smox/internal/platform/ssh"
)

// QMProvisioner creates VMs by running Proxmox's qm tool on the Proxmox
// host over SSH. VMs are full clones of a cloud-init template.
type QMProvisioner struct {
	exec ssh.Executor
}

var _ Provisioner = (*QMProvisioner)(nil)

// NewQMProvisioner returns a provisioner using exec, which must be
// connected to the Proxmox node named in each request.
func NewQMProvisioner(exec ssh.Executor) *QMProvisioner {
	return &QMProvisioner{exec: exec}
}

// EnsureVM clones, configures and starts the VM described by req.
func (p *QMProvisioner) EnsureVM(ctx context.Context, req NodeRequest) (*VMHandle, error) {
	logger := logr.FromContextOrDiscard(ctx).WithValues("node", req.Name, "vmid", req.VMID)
	handle := &VMHandle{VMID: req.VMID, Name: req.Name, Node: req.ProxmoxNode}

	status, exists, err := p.status(ctx, req.VMID)
	if err != nil {
		return nil, err
	}

	if exists {
		logger.V(1).Info("vm already exists", "status", status)
		if status != "running" {
			if _, err := p.exec.Execute(ctx, fmt.Sprintf("qm start %d", req.VMID)); err != nil {
				return nil, fmt.Errorf("failed to start vm %d: %w", req.VMID, err)
			}
		}
		return handle, nil
	}

	logger.Info("creating vm")
	for _, cmd := range CreateCommands(req) {
		if _, err := p.exec.Execute(ctx, cmd); err != nil {
			return nil, fmt.Errorf("failed to create vm %s (%d): %w", req.Name, req.VMID, err)
		}
	}

	handle.Created = true
	return handle, nil
}

// status returns the qm status of vmid and whether the VM exists.
func (p *QMProvisioner) status(ctx context.Context, vmid int) (string, bool, error) {
	out, err := p.exec.Execute(ctx, fmt.Sprintf("qm status %d", vmid))
	if err != nil {
		if strings.Contains(out, "does not exist") {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to query vm %d: %w", vmid, err)
	}
	status, _ := strings.CutPrefix(strings.TrimSpace(out), "status:")
	return strings.TrimSpace(status), true, nil
}

// CreateCommands returns the qm command sequence that creates req from scratch.
func CreateCommands(req NodeRequest) []string {
	clone := fmt.Sprintf("qm clone %d %d --name %s --full 1", req.TemplateVMID, req.VMID, ssh.Quote(req.Name))
	if req.Storage != "" {
		clone += " --storage " + ssh.Quote(req.Storage)
	}
	if req.Pool != "" {
		clone += " --pool " + ssh.Quote(req.Pool)
	}

	set := []string{
		fmt.Sprintf("qm set %d", req.VMID),
		fmt.Sprintf("--cores %d", req.Resources.Cores),
		fmt.Sprintf("--sockets %d", max(req.Resources.Sockets, 1)),
		fmt.Sprintf("--memory %d", req.Resources.MemoryMiB),
		"--net0 " + ssh.Quote("virtio,bridge="+req.Bridge),
		"--ipconfig0 " + ssh.Quote(req.IPConfig),
	}
	if req.CIUser != "" {
		set = append(set, "--ciuser "+ssh.Quote(req.CIUser))
	}
	if len(req.Nameservers) > 0 {
		set = append(set, "--nameserver "+ssh.Quote(strings.Join(req.Nameservers, " ")))
	}
	if len(req.Tags) > 0 {
		set = append(set, "--tags "+ssh.Quote(strings.Join(req.Tags, ";")))
	}

	cmds := []string{clone, strings.Join(set, " ")}

	if len(req.SSHKeys) > 0 {
		keyFile := fmt.Sprintf("/tmp/k3smox-%d.pub", req.VMID)
		cmds = append(cmds,
			fmt.Sprintf("printf '%%s\\n' %s > %s && qm set %d --sshkeys %s && rm -f %s",
				ssh.Quote(strings.Join(req.SSHKeys, "\n")), keyFile, req.VMID, keyFile, keyFile))
	}

	cmds = append(cmds, fmt.Sprintf("qm resize %d scsi0 %dG", req.VMID, req.Resources.DiskGiB))

	for _, d := range req.Resources.ExtraDisks {
		storage := d.Storage
		if storage == "" {
			storage = req.Storage
		}
		cmds = append(cmds, fmt.Sprintf("qm set %d --%s %s", req.VMID, d.Interface, ssh.Quote(fmt.Sprintf("%s:%d", storage, d.SizeGiB))))
	}

	return append(cmds, fmt.Sprintf("qm start %d", req.VMID))
}
