// Package ssh runs commands on cluster nodes over SSH.
//
// It carries the K3s install scripts to freshly provisioned VMs and backs
// the node-level health probes (cloud-init finished, k3s service active).
// Connections are retried with exponential backoff because a VM accepts
// SSH only some time after it was created.
package ssh
