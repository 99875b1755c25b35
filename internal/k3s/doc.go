// Package k3s installs K3s on cluster nodes over SSH and extracts the
// credentials a running control plane hands out: the join token for
// further nodes and an admin kubeconfig pointing at the first master.
package k3s
