// Package addons installs the post-cluster add-ons: MetalLB with its
// address pools, cert-manager with an ACME ClusterIssuer, Traefik as the
// ingress controller and ArgoCD with a root GitOps application.
//
// Every add-on is split into bootstrap stages (chart, gate, custom
// resources) so that the sequencer can order them and gate each one on
// a health probe. Charts are rendered locally and applied with
// server-side apply.
package addons
