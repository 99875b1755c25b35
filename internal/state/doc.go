// Package state persists the outcome of a bootstrap: the kubeconfig, the
// status report and the derived topology. Artifacts are written below the
// configured directory and, when enabled, copied to an S3-compatible bucket.
package state
