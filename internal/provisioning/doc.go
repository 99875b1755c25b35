// Package provisioning turns node identities into running virtual machines.
//
// The [Provisioner] contract is what the bootstrap consumes; [QMProvisioner]
// implements it with Proxmox's qm tool over SSH. [NewNodeRequest] maps a
// derived node onto the clone and cloud-init parameters of its VM.
package provisioning
