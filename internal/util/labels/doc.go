// Package labels provides consistent labeling for cluster nodes and the
// Kubernetes objects k3smox creates.
//
// Keys use the k3smox.io prefix, except managed-by which follows the
// app.kubernetes.io convention so standard tooling recognises it.
package labels
