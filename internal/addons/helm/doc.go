// Package helm renders Helm charts as Kubernetes manifests. Charts are
// downloaded at runtime from their repositories and rendered locally, so
// no Helm release state is kept in the cluster.
package helm
